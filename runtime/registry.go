package runtime

import (
	"sync"

	"chat-relay/contract"
	"chat-relay/domain"
	apperrors "chat-relay/errors"
)

type entry struct {
	session domain.Session
	sink    contract.EventSink
}

// Registry owns all live sessions. A single mutex is enough: every
// operation is O(number of sessions) and rare next to message volume.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
	order   []string // registration order, for deterministic fan-out
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// Register creates a session with membership off. The identifier must be
// fresh; reusing one is a programming error.
func (r *Registry) Register(sessionID string, sink contract.EventSink) (domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[sessionID]; ok {
		return domain.Session{}, apperrors.ErrDuplicateSession
	}
	e := &entry{session: domain.Session{ID: sessionID}, sink: sink}
	r.entries[sessionID] = e
	r.order = append(r.order, sessionID)
	return e.session, nil
}

// Join flips membership on and stores the display name.
func (r *Registry) Join(sessionID, displayName string) (domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[sessionID]
	if !ok {
		return domain.Session{}, apperrors.ErrUnknownSession
	}
	e.session.Name = displayName
	e.session.Joined = true
	return e.session, nil
}

// Leave clears membership. Unknown or already-left sessions are a no-op.
func (r *Registry) Leave(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.entries[sessionID]; ok {
		e.session.Joined = false
	}
}

// Remove drops the session entirely. Idempotent.
func (r *Registry) Remove(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[sessionID]; !ok {
		return
	}
	delete(r.entries, sessionID)
	for i, id := range r.order {
		if id == sessionID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Get returns a snapshot of the session and its sink.
func (r *Registry) Get(sessionID string) (domain.Session, contract.EventSink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[sessionID]
	if !ok {
		return domain.Session{}, nil, false
	}
	return e.session, e.sink, true
}

// ForEachActive applies fn to a point-in-time snapshot of joined sessions,
// in registration order. fn runs outside the lock so it may block or call
// back into the registry without deadlocking.
func (r *Registry) ForEachActive(fn func(s domain.Session, sink contract.EventSink)) {
	r.mu.RLock()
	snapshot := make([]entry, 0, len(r.order))
	for _, id := range r.order {
		if e, ok := r.entries[id]; ok && e.session.Joined {
			snapshot = append(snapshot, *e)
		}
	}
	r.mu.RUnlock()

	for _, e := range snapshot {
		fn(e.session, e.sink)
	}
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
