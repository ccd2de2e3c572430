// Package session holds per-visitor state: the anonymous session
// identifier that partitions remote cart records, the bearer token and
// cached user after login, and the session's cart. Identity is carried as
// an explicit Session value injected through the request context, never as
// ambient globals.
package session

import (
	"sync"

	"github.com/huertohogar/storefront/internal/auth"
	"github.com/huertohogar/storefront/internal/cart"
)

// Session is the state of one visitor. The ID is an opaque anonymous
// token; shopping does not require login.
type Session struct {
	ID   string
	Cart *cart.Synchronizer

	mu    sync.RWMutex
	token string
	user  *auth.User
}

// Token returns the bearer token, or "" when the visitor is anonymous.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns the cached authenticated user, or nil.
func (s *Session) User() *auth.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Authenticated reports whether a user is logged in on this session.
func (s *Session) Authenticated() bool {
	return s.User() != nil
}

// SetAuth caches the token and user after a successful login or profile
// update.
func (s *Session) SetAuth(token string, user *auth.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token != "" {
		s.token = token
	}
	s.user = user
}

// ClearAuth drops the cached token and user on logout. The anonymous
// session id and the cart survive.
func (s *Session) ClearAuth() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.user = nil
}
