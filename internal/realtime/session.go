package realtime

import (
	"sync"

	"github.com/tahakaan/superapp-server/internal/proto"
)

// outboxSize bounds the per-session delivery queue. A recipient that cannot
// drain this many pushes is treated as unreachable rather than blocking senders.
const outboxSize = 16

// Session is the live half of a user's socket connection as seen by the
// gateway. The transport goroutine drains Outbox; the gateway only ever
// queues into it.
type Session struct {
	UserID int64

	outbox chan proto.Delivery
	done   chan struct{}
	once   sync.Once
}

// NewSession constructs a session for an authenticated user.
func NewSession(userID int64) *Session {
	return &Session{
		UserID: userID,
		outbox: make(chan proto.Delivery, outboxSize),
		done:   make(chan struct{}),
	}
}

// Deliver queues a payload without blocking. It returns false when the
// session is closed or its outbox is full; overflow counts as unreachable.
func (s *Session) Deliver(d proto.Delivery) bool {
	select {
	case <-s.done:
		return false
	default:
	}

	select {
	case s.outbox <- d:
		return true
	default:
		return false
	}
}

// Outbox exposes queued deliveries for the transport write loop.
func (s *Session) Outbox() <-chan proto.Delivery {
	return s.outbox
}

// Close marks the session closed. Idempotent.
func (s *Session) Close() {
	s.once.Do(func() { close(s.done) })
}

// Done is closed when the session has been torn down.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Open reports whether the session still accepts deliveries.
func (s *Session) Open() bool {
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}
