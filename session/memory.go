package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps sessions in process memory. Suited to single-process
// deployments; sessions are lost on restart, which only forces re-login.
// Expired entries are dropped lazily at lookup, matching the
// request-per-call model (no background sweeper).
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewMemoryStore returns an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Session)}
}

// Put inserts or replaces the session under its reference
func (s *MemoryStore) Put(_ context.Context, sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *sess
	s.sessions[sess.Ref] = &cp
	return nil
}

// Get resolves a reference; (nil, nil) when absent or expired
func (s *MemoryStore) Get(_ context.Context, ref string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[ref]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if time.Now().After(sess.ExpiresAt) {
		s.mu.Lock()
		delete(s.sessions, ref)
		s.mu.Unlock()
		return nil, nil
	}
	cp := *sess
	return &cp, nil
}

// Delete removes the session; unknown references are a no-op
func (s *MemoryStore) Delete(_ context.Context, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, ref)
	return nil
}
