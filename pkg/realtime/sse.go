package realtime

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrStreamingUnsupported is returned when the ResponseWriter cannot flush.
var ErrStreamingUnsupported = errors.New("realtime: streaming unsupported")

// SSEChannel is a Channel backed by a text/event-stream HTTP response.
type SSEChannel struct {
	*queue
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewSSEChannel prepares w for streaming. Frames written before Serve is
// called are buffered and sent first.
func NewSSEChannel(w http.ResponseWriter, buffer int) (*SSEChannel, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, ErrStreamingUnsupported
	}
	return &SSEChannel{queue: newQueue(buffer), w: w, flusher: flusher}, nil
}

// Serve streams queued frames to the client until ctx ends or a write fails,
// then closes the channel. A keepalive comment is sent every keepalive
// interval; zero disables it.
func (c *SSEChannel) Serve(ctx context.Context, keepalive time.Duration) error {
	defer c.Close()

	h := c.w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	c.w.WriteHeader(http.StatusOK)
	c.flusher.Flush()

	var tick <-chan time.Time
	if keepalive > 0 {
		ticker := time.NewTicker(keepalive)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-c.done:
			return nil
		case f := <-c.out:
			if err := c.send(f); err != nil {
				return err
			}
		case <-tick:
			if err := c.send(keepaliveFrame); err != nil {
				return err
			}
		}
	}
}

func (c *SSEChannel) send(f Frame) error {
	if _, err := c.w.Write(f); err != nil {
		return fmt.Errorf("sse write: %w", err)
	}
	c.flusher.Flush()
	return nil
}
