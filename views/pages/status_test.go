package pages

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"contestpush/internal/viewmodel"
)

func TestStatusPage_RendersCountsAndEndpoints(t *testing.T) {
	var buf bytes.Buffer
	err := StatusPage(viewmodel.StatusPage{
		Title:     "Live <push>",
		Users:     2,
		Channels:  4,
		Keepalive: 25,
		Endpoints: []viewmodel.Endpoint{{Path: "/events", Transport: "Server-Sent Events"}},
	}).Render(context.Background(), &buf)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	body := buf.String()
	for _, want := range []string{
		"<title>Live &lt;push&gt;</title>",
		`<dd id="users">2</dd>`,
		`<dd id="channels">4</dd>`,
		"<dd>25s</dd>",
		"<li><code>/events</code> Server-Sent Events</li>",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q\n%s", want, body)
		}
	}
}
