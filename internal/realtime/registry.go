package realtime

import "sync"

// Registry maps a user id to at most one live session. It is the only shared
// mutable structure of the realtime subsystem; a single mutex is enough since
// traffic is one write per connect/disconnect and one read per outbound message.
type Registry struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[int64]*Session)}
}

// Put registers a session for a user, unconditionally replacing any existing
// entry. The replaced session is not closed here; its own connection
// goroutine tears it down.
func (r *Registry) Put(userID int64, s *Session) {
	r.mu.Lock()
	r.sessions[userID] = s
	r.mu.Unlock()
}

// Get looks up the live session for a user.
func (r *Registry) Get(userID int64) (*Session, bool) {
	r.mu.RLock()
	s, ok := r.sessions[userID]
	r.mu.RUnlock()
	return s, ok
}

// Remove deletes the entry for a user. Removing an absent key is a no-op.
func (r *Registry) Remove(userID int64) {
	r.mu.Lock()
	delete(r.sessions, userID)
	r.mu.Unlock()
}

// Release deletes the entry for a user only if it still maps to the given
// session, so a stale teardown cannot evict a replacement connection.
func (r *Registry) Release(userID int64, s *Session) {
	r.mu.Lock()
	if current, ok := r.sessions[userID]; ok && current == s {
		delete(r.sessions, userID)
	}
	r.mu.Unlock()
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	n := len(r.sessions)
	r.mu.RUnlock()
	return n
}
