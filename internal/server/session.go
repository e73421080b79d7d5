package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/desertthunder/roastx/internal/models"
	"github.com/desertthunder/roastx/internal/shared"
)

// DefaultSessionCookie names the browser cookie carrying the session id.
const DefaultSessionCookie = "roastx_session"

// SessionFrom returns the session placed in ctx by [SessionManager.Middleware].
func SessionFrom(ctx context.Context) (*models.Session, bool) {
	s, ok := ctx.Value(sessionKey).(*models.Session)
	return s, ok && s != nil
}

// WithSession stores s in ctx for [SessionFrom].
func WithSession(ctx context.Context, s *models.Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// SessionManager loads and saves one [models.Session] per browser.
type SessionManager struct {
	store  models.SessionStore
	cookie string
	ttl    time.Duration
	secure bool
}

// NewSessionManager keeps sessions in store for ttl under the cookie named cookie.
func NewSessionManager(store models.SessionStore, cookie string, ttl time.Duration, secure bool) *SessionManager {
	if cookie == "" {
		cookie = DefaultSessionCookie
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionManager{store: store, cookie: cookie, ttl: ttl, secure: secure}
}

func (m *SessionManager) CookieName() string { return m.cookie }
func (m *SessionManager) TTL() time.Duration  { return m.ttl }

// Load returns the session named by the request cookie. Unknown, expired or
// missing sessions yield a new one, reported by fresh.
func (m *SessionManager) Load(r *http.Request) (s *models.Session, fresh bool, err error) {
	if c, cerr := r.Cookie(m.cookie); cerr == nil && c.Value != "" {
		s, err = m.store.Get(c.Value)
		switch {
		case err == nil:
			return s, false, nil
		case errors.Is(err, shared.ErrSessionNotFound), errors.Is(err, shared.ErrSessionExpired):
		default:
			return nil, false, err
		}
	}
	return models.NewSession(m.ttl), true, nil
}

// Save persists s when it changed.
func (m *SessionManager) Save(s *models.Session) error {
	if !s.Dirty() {
		return nil
	}
	return m.store.Save(s)
}

// SetCookie writes the session cookie for s.
func (m *SessionManager) SetCookie(w http.ResponseWriter, s *models.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookie,
		Value:    s.ID(),
		Path:     "/",
		Expires:  s.ExpiresAt(),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Middleware places the visitor's session in the request context and saves
// it after the handler runs. Sessions past half their lifetime are extended.
func (m *SessionManager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := LoggerFrom(r.Context())

		s, fresh, err := m.Load(r)
		if err != nil {
			logger.Error("failed to load session", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		if !fresh && time.Until(s.ExpiresAt()) < m.ttl/2 {
			s.Touch(m.ttl)
			fresh = true
		}
		if fresh {
			m.SetCookie(w, s)
		}

		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))

		if err := m.Save(s); err != nil {
			logger.Error("failed to save session", "session", s.ID(), "error", err)
		}
	})
}
