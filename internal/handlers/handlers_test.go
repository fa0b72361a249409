package handlers

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"

	"contestpush/pkg/realtime"
)

func newTestServer(t *testing.T, reg *realtime.Registry) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	NewStreamHandler(reg, "X-User-Id", 8, 0).RegisterRoutes(r)
	NewStatusHandler(reg, 25*time.Second).RegisterRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// readEvent reads one event block (up to the blank line) from an event stream.
func readEvent(t *testing.T, br *bufio.Reader) string {
	t.Helper()
	var b strings.Builder
	for {
		line, err := br.ReadString('\n')
		if err != nil {
			t.Fatalf("read stream: %v", err)
		}
		b.WriteString(line)
		if line == "\n" {
			return b.String()
		}
	}
}

func TestStream_EventsRequiresUser(t *testing.T) {
	srv := newTestServer(t, realtime.NewRegistry(nil, nil))
	resp, err := http.Get(srv.URL + "/events")
	if err != nil {
		t.Fatalf("GET /events: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d; want 401", resp.StatusCode)
	}
}

func TestStream_EventsDeliversToUser(t *testing.T) {
	reg := realtime.NewRegistry(nil, nil)
	srv := newTestServer(t, reg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events", nil)
	req.Header.Set("X-User-Id", "alice")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /events: %v", err)
	}
	defer resp.Body.Close()
	if got := resp.Header.Get("Content-Type"); got != "text/event-stream" {
		t.Fatalf("Content-Type = %q; want text/event-stream", got)
	}

	br := bufio.NewReader(resp.Body)
	if hello := readEvent(t, br); !strings.HasPrefix(hello, "event: hello\ndata: {\"user_id\":\"alice\"") {
		t.Fatalf("first event = %q; want hello for alice", hello)
	}

	if !reg.SendToUser("alice", "contest_approved", map[string]string{"id": "c1"}) {
		t.Fatal("SendToUser() = false; want true")
	}
	if got, want := readEvent(t, br), "event: contest_approved\ndata: {\"id\":\"c1\"}\n\n"; got != want {
		t.Errorf("event = %q; want %q", got, want)
	}

	cancel()
	waitFor(t, func() bool { return reg.CountConnections() == realtime.ConnectionCount{} })
}

func TestStream_WebSocketUsesQueryUser(t *testing.T) {
	reg := realtime.NewRegistry(nil, nil)
	srv := newTestServer(t, reg)

	conn, br, _, err := ws.Dial(context.Background(), "ws"+strings.TrimPrefix(srv.URL, "http")+"/ws?user=bob")
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	// The hello is written right after the upgrade and may arrive in the
	// same read as the handshake response.
	var stream io.ReadWriter = conn
	if br != nil {
		defer ws.PutReader(br)
		stream = struct {
			io.Reader
			io.Writer
		}{io.MultiReader(br, conn), conn}
	}

	hello, err := wsutil.ReadServerText(stream)
	if err != nil {
		t.Fatalf("read hello: %v", err)
	}
	if !strings.HasPrefix(string(hello), "event: hello\ndata: {\"user_id\":\"bob\"") {
		t.Fatalf("hello = %q; want hello for bob", hello)
	}

	reg.Broadcast("maintenance", nil)
	msg, err := wsutil.ReadServerText(stream)
	if err != nil {
		t.Fatalf("read broadcast: %v", err)
	}
	if got, want := string(msg), "event: maintenance\ndata: null\n\n"; got != want {
		t.Errorf("message = %q; want %q", got, want)
	}
}

type fixedRegistry struct{ count realtime.ConnectionCount }

func (f fixedRegistry) Register(string, realtime.Channel)   {}
func (f fixedRegistry) Unregister(string, realtime.Channel) {}
func (f fixedRegistry) CountConnections() realtime.ConnectionCount {
	return f.count
}

func TestStatus_RendersCounts(t *testing.T) {
	r := chi.NewRouter()
	NewStatusHandler(fixedRegistry{count: realtime.ConnectionCount{Users: 3, Channels: 5}}, 25*time.Second).RegisterRoutes(r)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{`<dd id="users">3</dd>`, `<dd id="channels">5</dd>`, "<code>/ws</code>"} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
	if got := w.Header().Get("Content-Type"); got != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q", got)
	}
}
