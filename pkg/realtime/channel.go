package realtime

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

var (
	// ErrChannelClosed is returned by Write once the channel's transport has gone away.
	ErrChannelClosed = errors.New("realtime: channel closed")
	// ErrChannelFull is returned by Write when the client is not draining its
	// outbound buffer fast enough.
	ErrChannelFull = errors.New("realtime: channel buffer full")
)

// DefaultBuffer is the outbound frame buffer per channel.
const DefaultBuffer = 32

// Channel is one long-lived push stream to a single client connection. The
// registry only writes to it and watches Done; the transport owns its lifecycle.
type Channel interface {
	// ID identifies the channel in logs.
	ID() string
	// Write hands a pre-serialized frame to the transport. It must not block.
	Write(Frame) error
	// Done is closed when the transport reports the connection gone.
	Done() <-chan struct{}
}

// queue is the non-blocking outbound buffer shared by the transports. The
// transport's serve loop is the only reader of out.
type queue struct {
	id        string
	out       chan Frame
	done      chan struct{}
	closeOnce sync.Once
}

func newQueue(buffer int) *queue {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &queue{
		id:   uuid.NewString(),
		out:  make(chan Frame, buffer),
		done: make(chan struct{}),
	}
}

func (q *queue) ID() string { return q.id }

func (q *queue) Done() <-chan struct{} { return q.done }

func (q *queue) Write(f Frame) error {
	select {
	case <-q.done:
		return ErrChannelClosed
	default:
	}
	select {
	case q.out <- f:
		return nil
	case <-q.done:
		return ErrChannelClosed
	default:
		return ErrChannelFull
	}
}

// Close marks the channel gone. out is never closed so racing writers cannot panic.
func (q *queue) Close() {
	q.closeOnce.Do(func() { close(q.done) })
}
