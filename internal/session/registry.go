package session

import "sync"

// Registry is the concurrent collection of all live sessions, addressable by
// numeric id, display name, or session token. The backing maps are guarded by
// a single structural lock; per-session state has its own lock so the two
// never nest the wrong way round.
type Registry struct {
	mu      sync.Mutex
	byID    map[int32]*Session
	byToken map[string]*Session
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byID:    make(map[int32]*Session),
		byToken: make(map[string]*Session),
	}
}

// Insert registers a session. A prior session with the same id is replaced,
// not duplicated, giving reconnect semantics; the replaced session is
// returned so the caller can tear it down.
func (r *Registry) Insert(s *Session) (replaced *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.byID[s.ID]; ok {
		delete(r.byToken, old.Token)
		replaced = old
	}
	r.byID[s.ID] = s
	r.byToken[s.Token] = s
	return replaced
}

// Remove deregisters the session with the given id and returns it, or nil
// when no such session is registered.
func (r *Registry) Remove(id int32) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byID[id]
	if !ok {
		return nil
	}
	delete(r.byID, id)
	delete(r.byToken, s.Token)
	return s
}

// GetID returns the session with the given id, or nil.
func (r *Registry) GetID(id int32) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byID[id]
}

// GetToken returns the session with the given token, or nil.
func (r *Registry) GetToken(token string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byToken[token]
}

// GetUsername returns the session with the given display name, or nil. The
// comparison is case-sensitive.
func (r *Registry) GetUsername(name string) *Session {
	for _, s := range r.Snapshot() {
		if s.Username() == name {
			return s
		}
	}
	return nil
}

// Count returns the number of registered sessions.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

// Snapshot returns the current sessions as a slice. Callers iterate the
// slice without holding the structural lock, taking each session's own lock
// as needed.
func (r *Registry) Snapshot() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Session, 0, len(r.byID))
	for _, s := range r.byID {
		out = append(out, s)
	}
	return out
}

// Broadcast enqueues encoded packet bytes onto every registered session.
func (r *Registry) Broadcast(b []byte) {
	for _, s := range r.Snapshot() {
		s.Enqueue(b)
	}
}

// BroadcastExcept enqueues encoded packet bytes onto every registered
// session except the one with the given id.
func (r *Registry) BroadcastExcept(b []byte, exceptID int32) {
	for _, s := range r.Snapshot() {
		if s.ID != exceptID {
			s.Enqueue(b)
		}
	}
}
