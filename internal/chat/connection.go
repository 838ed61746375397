// Package chat implements the presence-tracking and message-routing engine:
// the connection registry, per-connection heartbeat monitoring, presence
// broadcasting, and routing of inbound messages to live connections.
package chat

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/HVQuoc/Tessenger/internal/auth"
)

// Errors returned by Conn.TrySend. Both are treated as delivery failures:
// logged by the caller, never propagated to sibling sends.
var (
	ErrSendBufferFull = errors.New("send buffer full")
	ErrConnClosed     = errors.New("connection closed")
)

// Conn is one live duplex channel to a client device. Outbound payloads go
// through a buffered channel drained by the transport's write pump, so a
// slow connection never blocks the sender.
type Conn struct {
	id       string
	identity auth.Identity

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func newConn(identity auth.Identity, buffer int) *Conn {
	if buffer <= 0 {
		buffer = 32
	}
	return &Conn{
		id:       uuid.NewString(),
		identity: identity,
		send:     make(chan []byte, buffer),
		done:     make(chan struct{}),
	}
}

// ID returns the connection's unique identity.
func (c *Conn) ID() string { return c.id }

// Identity returns the verified user identity owning this connection.
func (c *Conn) Identity() auth.Identity { return c.identity }

// Outbound is the payload stream drained by the write pump.
func (c *Conn) Outbound() <-chan []byte { return c.send }

// Done is closed when the connection shuts down.
func (c *Conn) Done() <-chan struct{} { return c.done }

// TrySend queues a payload without blocking. A full buffer or a closed
// connection yields an error the caller logs; the payload is dropped for
// this connection only.
func (c *Conn) TrySend(payload []byte) error {
	select {
	case <-c.done:
		return ErrConnClosed
	default:
	}
	select {
	case c.send <- payload:
		return nil
	case <-c.done:
		return ErrConnClosed
	default:
		return ErrSendBufferFull
	}
}

// close marks the connection as shut down. Idempotent.
func (c *Conn) close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}
