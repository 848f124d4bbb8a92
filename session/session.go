// Package session implements server-side sessions keyed by an opaque,
// unguessable reference presented by the client in a cookie. A session
// holds the authenticated identity, a role snapshot taken at login time,
// and the per-session anti-forgery token. The client only ever holds the
// reference.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/apiarium/apiary/storage/model"
)

// Session is the server-held state bound to one client reference.
// Anonymous sessions (UserID 0) exist solely to carry a CSRF token before
// login.
type Session struct {
	// Ref is the opaque reference presented by the client
	Ref string `msgpack:"ref"`

	UserID   uint       `msgpack:"user_id"`
	Username string     `msgpack:"username"`
	Role     model.Role `msgpack:"role"`

	// CSRFToken is regenerated together with the reference at login and
	// must be echoed back on every mutating request
	CSRFToken string `msgpack:"csrf_token"`

	CreatedAt time.Time `msgpack:"created_at"`
	ExpiresAt time.Time `msgpack:"expires_at"`
}

// Authenticated reports whether the session is bound to a user.
func (s *Session) Authenticated() bool {
	return s != nil && s.UserID != 0
}

// Store abstracts the keyed session storage. Implementations enforce
// expiry themselves: Get never returns an expired session.
type Store interface {
	// Put inserts or replaces the session under its reference
	Put(ctx context.Context, s *Session) error
	// Get resolves a reference; (nil, nil) when absent or expired
	Get(ctx context.Context, ref string) (*Session, error)
	// Delete removes the session; deleting an unknown reference is a
	// no-op
	Delete(ctx context.Context, ref string) error
}

// Manager creates, resolves, and destroys sessions on top of a Store.
type Manager struct {
	store Store
	ttl   time.Duration
}

// NewManager returns a Manager storing sessions with the given lifetime.
func NewManager(store Store, ttl time.Duration) *Manager {
	return &Manager{store: store, ttl: ttl}
}

// TTL returns the configured session lifetime.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Create generates a fresh session for the given identity: a new reference
// and a new anti-forgery token. The reference itself is regenerated on
// every login, never reused, which is the defense against session
// fixation; callers destroy any previously presented reference first.
func (m *Manager) Create(ctx context.Context, userID uint, username string, role model.Role) (*Session, error) {
	ref, err := newToken()
	if err != nil {
		return nil, err
	}
	csrf, err := newToken()
	if err != nil {
		return nil, err
	}
	now := time.Now()
	s := &Session{
		Ref:       ref,
		UserID:    userID,
		Username:  username,
		Role:      role,
		CSRFToken: csrf,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	if err = m.store.Put(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Anonymous creates a cookied session without an identity, so a pre-login
// client can obtain an anti-forgery token (needed e.g. by the admin
// bootstrap, which is public but mutating).
func (m *Manager) Anonymous(ctx context.Context) (*Session, error) {
	return m.Create(ctx, 0, "", "")
}

// Lookup resolves a presented reference to the current session state, or
// nil when the reference is absent or expired.
func (m *Manager) Lookup(ctx context.Context, ref string) (*Session, error) {
	if ref == "" {
		return nil, nil
	}
	return m.store.Get(ctx, ref)
}

// Destroy idempotently invalidates the session.
func (m *Manager) Destroy(ctx context.Context, ref string) error {
	if ref == "" {
		return nil
	}
	return m.store.Delete(ctx, ref)
}

// newToken returns 32 bytes of crypto/rand entropy, hex encoded.
func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
