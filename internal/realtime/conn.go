package realtime

import (
	"context"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

const (
	// sendBuffer bounds the per-connection outbound queue. A connection
	// that cannot drain it in time is closed rather than blocking the
	// room (best-effort, at-most-once delivery).
	sendBuffer   = 32
	writeTimeout = 5 * time.Second
)

// conn is one live board socket session. identity is nil when handshake
// authentication failed; such a connection stays open but every board
// operation on it is rejected.
type conn struct {
	id        uuid.UUID
	identity  *Identity
	out       chan []byte
	closeSlow func()
}

func newConn(identity *Identity) *conn {
	return &conn{
		id:       uuid.New(),
		identity: identity,
		out:      make(chan []byte, sendBuffer),
	}
}

// enqueue queues a marshaled event without blocking. A full buffer means
// the peer is too slow; the connection is closed and the transport-level
// disconnect path cleans it up.
func (c *conn) enqueue(msg []byte) {
	select {
	case c.out <- msg:
	default:
		if c.closeSlow != nil {
			c.closeSlow()
		}
	}
}

// writePump drains the outbound queue onto the websocket. One writer
// goroutine per connection; exits when the queue closes, a write fails or
// the connection context ends.
func (c *conn) writePump(ctx context.Context, ws *websocket.Conn) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-c.out:
			if !ok {
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := ws.Write(writeCtx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				return
			}
		}
	}
}
