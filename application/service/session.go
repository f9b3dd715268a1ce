// Package service provides the application services of the analytics
// client: the session store, the cached data-fetching layer, the status
// poller, and the indexing view-mode state machine.
package service

import (
	"log/slog"
	"sync"
	"time"

	"github.com/repovista/repovista/domain/session"
	"github.com/repovista/repovista/internal/config"
)

// SessionPersister stores the session across runs.
type SessionPersister interface {
	SaveSession(session.Session) error
	LoadSession() (session.Session, error)
	ClearSession() error
}

// CookieWriter mirrors the session token into the auth cookie consulted by
// the gateway's route gating. Implementations outside the gateway may be
// no-ops.
type CookieWriter interface {
	SetToken(token string, ttl time.Duration)
	ClearToken()
}

// nopCookies is used when no gateway is attached.
type nopCookies struct{}

func (nopCookies) SetToken(string, time.Duration) {}
func (nopCookies) ClearToken()                    {}

// Session is the process-wide session store: the current user identity and
// bearer token. Writes are single atomic replacements; every outbound
// backend request reads the token through this store at call time.
type Session struct {
	mu      sync.RWMutex
	current session.Session

	persister SessionPersister
	cookies   CookieWriter
	ttl       time.Duration
	logger    *slog.Logger
}

// SessionOption configures a Session store.
type SessionOption func(*Session)

// WithCookieWriter attaches a cookie writer.
func WithCookieWriter(w CookieWriter) SessionOption {
	return func(s *Session) { s.cookies = w }
}

// WithSessionTTL sets the cookie lifetime.
func WithSessionTTL(ttl time.Duration) SessionOption {
	return func(s *Session) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithSessionLogger sets the logger.
func WithSessionLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) { s.logger = logger }
}

// NewSession creates a Session store, restoring any persisted session.
func NewSession(persister SessionPersister, opts ...SessionOption) (*Session, error) {
	s := &Session{
		persister: persister,
		cookies:   nopCookies{},
		ttl:       config.DefaultSessionTTL,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	restored, err := persister.LoadSession()
	if err != nil {
		return nil, err
	}
	s.current = restored
	return s, nil
}

// SetAuth stores the user and token. An empty token acts as a soft logout:
// the cookie is removed and both fields are cleared. A token with a zero
// user is valid — it keeps requests authorized after a token whose payload
// could not be decoded.
func (s *Session) SetAuth(user session.User, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token == "" {
		s.clearLocked()
		return
	}

	s.current = session.New(user, token)
	s.cookies.SetToken(token, s.ttl)
	if err := s.persister.SaveSession(s.current); err != nil {
		s.logger.Warn("persist session", slog.String("error", err.Error()))
	}
}

// Logout removes the cookie and clears the session unconditionally.
func (s *Session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
}

func (s *Session) clearLocked() {
	s.current = session.Session{}
	s.cookies.ClearToken()
	if err := s.persister.ClearSession(); err != nil {
		s.logger.Warn("clear persisted session", slog.String("error", err.Error()))
	}
}

// Token returns the current bearer token ("" when logged out). It satisfies
// the backend client's TokenSource.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Token()
}

// User returns the current user (possibly zero).
func (s *Session) User() session.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.User()
}

// Current returns the session value.
func (s *Session) Current() session.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Authenticated returns true when a token is present.
func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Authenticated()
}
