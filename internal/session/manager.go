package session

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/huertohogar/storefront/internal/cart"
)

type contextKey struct{}

// CartFactory builds the cart synchronizer for a new session.
type CartFactory func(sessionID string) *cart.Synchronizer

type entry struct {
	session  *Session
	lastSeen time.Time
}

// Manager issues session cookies and keeps the in-memory session store.
type Manager struct {
	cookieName string
	ttl        time.Duration
	newCart    CartFactory
	logger     *slog.Logger

	mu       sync.Mutex
	sessions map[string]*entry
}

// NewManager creates a session manager. ttl bounds both the cookie
// lifetime and how long an idle session is kept in memory.
func NewManager(cookieName string, ttl time.Duration, newCart CartFactory, logger *slog.Logger) *Manager {
	return &Manager{
		cookieName: cookieName,
		ttl:        ttl,
		newCart:    newCart,
		logger:     logger.With("component", "session"),
		sessions:   make(map[string]*entry),
	}
}

// Middleware resolves the visitor's session from the cookie, creating a
// fresh anonymous session (and issuing the cookie) when none exists, and
// injects it into the request context.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := ""
		if cookie, err := r.Cookie(m.cookieName); err == nil {
			id = cookie.Value
		}

		sess, created := m.getOrCreate(id)
		if created || id != sess.ID {
			http.SetCookie(w, &http.Cookie{
				Name:     m.cookieName,
				Value:    sess.ID,
				Path:     "/",
				MaxAge:   int(m.ttl.Seconds()),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}

		ctx := context.WithValue(r.Context(), contextKey{}, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// FromContext returns the session injected by Middleware.
func FromContext(ctx context.Context) (*Session, bool) {
	sess, ok := ctx.Value(contextKey{}).(*Session)
	return sess, ok
}

// Run prunes idle sessions until the context is cancelled.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.ttl / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.prune(time.Now())
		case <-ctx.Done():
			return
		}
	}
}

// getOrCreate looks the session up by id, creating a new one (with a fresh
// id) when the id is empty or unknown. New sessions load their cart from
// the remote mirror in the background.
func (m *Manager) getOrCreate(id string) (*Session, bool) {
	m.mu.Lock()
	if e, ok := m.sessions[id]; ok {
		e.lastSeen = time.Now()
		m.mu.Unlock()
		return e.session, false
	}

	sess := &Session{ID: uuid.NewString()}
	sess.Cart = m.newCart(sess.ID)
	m.sessions[sess.ID] = &entry{session: sess, lastSeen: time.Now()}
	m.mu.Unlock()

	m.logger.Debug("created session", "session_id", sess.ID)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		sess.Cart.Load(ctx)
	}()
	return sess, true
}

func (m *Manager) prune(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, e := range m.sessions {
		if now.Sub(e.lastSeen) > m.ttl {
			delete(m.sessions, id)
		}
	}
}
