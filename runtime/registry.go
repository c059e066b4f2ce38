package runtime

import (
	"sync"

	"chat-relay/contract"
	"chat-relay/domain"
)

// Registry is the single shared map of live sessions. Registration and
// removal are atomic with respect to Snapshot: a snapshot never observes
// a partially registered or partially removed session.
type Registry struct {
	mu       sync.RWMutex
	sessions map[domain.SessionID]*member
}

type member struct {
	session *domain.Session
	sink    contract.EventSink
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[domain.SessionID]*member)}
}

func (r *Registry) Register(session *domain.Session, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.ID] = &member{session: session, sink: sink}
}

// SetDisplayName updates the session's display name and marks it as
// announced. An empty name keeps the anonymous default, matching the
// behavior of a join event without a username. Returns the effective
// name and whether the session was still registered; a concurrent
// disconnect makes this a no-op rather than an error.
func (r *Registry) SetDisplayName(id domain.SessionID, name string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.sessions[id]
	if !ok {
		return "", false
	}
	if name == "" {
		name = domain.AnonymousName
	}
	m.session.DisplayName = name
	m.session.Announced = true
	return name, true
}

// SetTyping flips the ephemeral typing flag. No-op on absent sessions.
func (r *Registry) SetTyping(id domain.SessionID, typing bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.sessions[id]; ok {
		m.session.IsTyping = typing
	}
}

// Remove deletes the session and returns it, reporting whether it was
// still present. Exactly one caller observes true for a given session,
// which gates disconnect cleanup even when the transport reports the
// closure more than once.
func (r *Registry) Remove(id domain.SessionID) (*domain.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	delete(r.sessions, id)
	return m.session, true
}

func (r *Registry) Get(id domain.SessionID) (*domain.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	return m.session, true
}

// Snapshot returns the exact membership at call time, paired with the
// delivery sinks. Order is not stable and does not need to be.
func (r *Registry) Snapshot() []contract.Member {
	r.mu.RLock()
	defer r.mu.RUnlock()
	members := make([]contract.Member, 0, len(r.sessions))
	for id, m := range r.sessions {
		members = append(members, contract.Member{ID: id, Sink: m.sink})
	}
	return members
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
