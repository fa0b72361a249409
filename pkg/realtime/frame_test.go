package realtime

import (
	"strings"
	"testing"
)

func TestEncodeFrame(t *testing.T) {
	tests := []struct {
		name    string
		event   string
		payload any
		want    string
	}{
		{"object", "contest_approved", map[string]string{"id": "c1"}, "event: contest_approved\ndata: {\"id\":\"c1\"}\n\n"},
		{"nil payload", "ping", nil, "event: ping\ndata: null\n\n"},
		{"string with newline stays on one line", "note", "a\nb", "event: note\ndata: \"a\\nb\"\n\n"},
		{"name injection stripped", "evil\n\ndata: x", 1, "event: evildata: x\ndata: 1\n\n"},
		{"empty name omits event line", "", true, "data: true\n\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EncodeFrame(tt.event, tt.payload)
			if err != nil {
				t.Fatalf("EncodeFrame() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("EncodeFrame() = %q; want %q", got, tt.want)
			}
		})
	}
}

func TestEncodeFrame_Unencodable(t *testing.T) {
	_, err := EncodeFrame("bad", func() {})
	if err == nil {
		t.Fatal("expected error for func payload")
	}
	if !strings.Contains(err.Error(), `"bad"`) {
		t.Errorf("error = %q; want event name in message", err)
	}
}

func TestFrameText_MultiLineData(t *testing.T) {
	got := string(frameText("log", "one\r\ntwo"))
	want := "event: log\ndata: one\ndata: two\n\n"
	if got != want {
		t.Errorf("frameText() = %q; want %q", got, want)
	}
}
