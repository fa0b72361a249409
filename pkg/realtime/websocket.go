package realtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

const wsWriteTimeout = 10 * time.Second

// WSChannel is a Channel backed by a server-side WebSocket. Each frame is sent
// verbatim as one text message. Client pings are answered and a client close
// is echoed; inbound data messages are discarded.
type WSChannel struct {
	*queue
	conn   net.Conn
	reader io.Reader

	// wmu serialises frame writes from Serve and from control replies.
	wmu sync.Mutex
}

// UpgradeWS performs the WebSocket handshake on r.
func UpgradeWS(w http.ResponseWriter, r *http.Request, buffer int) (*WSChannel, error) {
	conn, rw, _, err := ws.UpgradeHTTP(r, w)
	if err != nil {
		return nil, fmt.Errorf("websocket upgrade: %w", err)
	}
	var reader io.Reader = conn
	if rw != nil {
		reader = rw.Reader
	}
	return &WSChannel{queue: newQueue(buffer), conn: conn, reader: reader}, nil
}

// Serve writes queued frames until ctx ends, the client closes the socket or
// a write fails. The connection is closed on return.
func (c *WSChannel) Serve(ctx context.Context, keepalive time.Duration) error {
	defer func() {
		c.Close()
		if err := c.conn.Close(); err != nil {
			slog.Debug("websocket close failed", "channel", c.id, "error", err)
		}
	}()

	go c.readLoop()

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
			if err := c.send(ws.OpText, f); err != nil {
				return err
			}
		case <-tick:
			if err := c.send(ws.OpPing, nil); err != nil {
				return err
			}
		}
	}
}

func (c *WSChannel) send(op ws.OpCode, p []byte) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
		return fmt.Errorf("websocket deadline: %w", err)
	}
	if err := wsutil.WriteServerMessage(c.conn, op, p); err != nil {
		return fmt.Errorf("websocket write: %w", err)
	}
	return nil
}

// readLoop answers control frames, drains data frames and closes the channel
// when the client goes away.
func (c *WSChannel) readLoop() {
	defer c.Close()

	control := wsutil.ControlFrameHandler(c.conn, ws.StateServerSide)
	handle := func(hdr ws.Header, r io.Reader) error {
		c.wmu.Lock()
		defer c.wmu.Unlock()
		if err := c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
			return err
		}
		return control(hdr, r)
	}
	rd := &wsutil.Reader{
		Source:         c.reader,
		State:          ws.StateServerSide,
		OnIntermediate: handle,
	}

	for {
		hdr, err := rd.NextFrame()
		if err != nil {
			c.logReadEnd(err)
			return
		}
		if hdr.OpCode.IsControl() {
			if err := handle(hdr, rd); err != nil {
				c.logReadEnd(err)
				return
			}
			continue
		}
		if err := rd.Discard(); err != nil {
			c.logReadEnd(err)
			return
		}
	}
}

func (c *WSChannel) logReadEnd(err error) {
	var closed wsutil.ClosedError
	if errors.As(err, &closed) {
		slog.Debug("websocket closed by client", "channel", c.id, "code", closed.Code, "reason", closed.Reason)
		return
	}
	slog.Debug("websocket read ended", "channel", c.id, "error", err)
}
