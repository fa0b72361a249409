package api

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func logRequest(t *testing.T, status int, req *http.Request) map[string]any {
	t.Helper()
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	h := RequestLogger(logger, "X-User-Id")(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
	}))
	h.ServeHTTP(httptest.NewRecorder(), req)

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	return line
}

func TestRequestLogger_TagsStreamUser(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	req.Header.Set("X-User-Id", "alice")
	line := logRequest(t, http.StatusOK, req)

	if got := line["stream"]; got != "sse" {
		t.Errorf("stream = %v; want sse", got)
	}
	if got := line["user"]; got != "alice" {
		t.Errorf("user = %v; want alice", got)
	}
	if got := line["level"]; got != "INFO" {
		t.Errorf("level = %v; want INFO", got)
	}
}

func TestRequestLogger_WebSocketUserFromQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/ws?user=bob", nil)
	req.Header.Set("Upgrade", "websocket")
	line := logRequest(t, http.StatusSwitchingProtocols, req)

	if got := line["stream"]; got != "ws" {
		t.Errorf("stream = %v; want ws", got)
	}
	if got := line["user"]; got != "bob" {
		t.Errorf("user = %v; want bob", got)
	}
}

func TestRequestLogger_APIRequestHasNoStreamFields(t *testing.T) {
	line := logRequest(t, http.StatusInternalServerError, httptest.NewRequest(http.MethodGet, "/api/v1/connections", nil))

	if _, ok := line["stream"]; ok {
		t.Errorf("stream logged for API request: %v", line)
	}
	if got := line["status"]; got != float64(http.StatusInternalServerError) {
		t.Errorf("status = %v; want 500", got)
	}
	if got := line["level"]; got != "WARN" {
		t.Errorf("level = %v; want WARN", got)
	}
}
