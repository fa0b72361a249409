package realtime

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Frame is one serialized server-push event, ready to be written verbatim to
// any Channel.
type Frame []byte

// EncodeFrame serializes payload as JSON and frames it as a text event:
//
//	event: <name>
//	data: <json>
//
// followed by a blank line.
func EncodeFrame(event string, payload any) (Frame, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %q payload: %w", event, err)
	}
	return frameText(event, string(data)), nil
}

// frameText builds the wire text. Multi-line data becomes several data lines.
func frameText(event, data string) Frame {
	var b strings.Builder
	if name := sanitizeEventName(event); name != "" {
		b.WriteString("event: ")
		b.WriteString(name)
		b.WriteByte('\n')
	}
	for _, line := range strings.Split(data, "\n") {
		b.WriteString("data: ")
		b.WriteString(strings.TrimSuffix(line, "\r"))
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	return Frame(b.String())
}

// keepaliveFrame is an SSE comment; clients ignore it.
var keepaliveFrame = Frame(": keepalive\n\n")

func sanitizeEventName(event string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' {
			return -1
		}
		return r
	}, strings.TrimSpace(event))
}
