package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/jobtracker/apiserver/types"
	"github.com/samber/oops"
)

const idBytes = 32

type contextKey struct{}

// CookieOptions configures the session cookie.
type CookieOptions struct {
	Name   string
	Secure bool
	MaxAge time.Duration
}

// Session is the per-request handle to the caller's session. A zero id
// means no session has been saved for this client yet.
type Session struct {
	id   string
	Data types.SessionData
}

// ID returns the opaque session id, or "" if the session is unsaved.
func (s *Session) ID() string {
	return s.id
}

// Manager binds cookies to a Store.
type Manager struct {
	store  Store
	cookie CookieOptions
	logger *slog.Logger
}

func NewManager(store Store, cookie CookieOptions, logger *slog.Logger) *Manager {
	if cookie.Name == "" {
		cookie.Name = "jobtracker.sid"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{store: store, cookie: cookie, logger: logger}
}

// Middleware loads the caller's session into the request context. Unknown
// or expired ids yield an empty session.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := &Session{}
		if c, err := r.Cookie(m.cookie.Name); err == nil && c.Value != "" {
			data, err := m.store.Get(r.Context(), c.Value)
			switch {
			case err == nil:
				sess.id = c.Value
				sess.Data = data
			case errors.Is(err, ErrNotFound):
			default:
				m.logger.ErrorContext(r.Context(), "load session", "error", err)
			}
		}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
	})
}

// WithSession returns a context carrying sess.
func WithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, sess)
}

// FromContext returns the request's session. It never returns nil.
func FromContext(ctx context.Context) *Session {
	if sess, ok := ctx.Value(contextKey{}).(*Session); ok && sess != nil {
		return sess
	}
	return &Session{}
}

// Save persists sess, assigning an id and setting the cookie if needed.
func (m *Manager) Save(ctx context.Context, w http.ResponseWriter, sess *Session) error {
	if sess.id == "" {
		id, err := newID()
		if err != nil {
			return err
		}
		sess.id = id
	}
	if err := m.store.Set(ctx, sess.id, sess.Data); err != nil {
		return err
	}
	m.setCookie(w, sess.id)
	return nil
}

// Regenerate replaces sess with a fresh id holding data. Any previous
// session under the old id is destroyed.
func (m *Manager) Regenerate(ctx context.Context, w http.ResponseWriter, sess *Session, data types.SessionData) error {
	if sess.id != "" {
		if err := m.store.Destroy(ctx, sess.id); err != nil {
			return err
		}
	}
	sess.id = ""
	sess.Data = data
	return m.Save(ctx, w, sess)
}

// Destroy removes sess from the store and expires the cookie.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, sess *Session) error {
	if sess.id != "" {
		if err := m.store.Destroy(ctx, sess.id); err != nil {
			return err
		}
	}
	sess.id = ""
	sess.Data = types.SessionData{}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookie.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   m.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (m *Manager) setCookie(w http.ResponseWriter, id string) {
	cookie := &http.Cookie{
		Name:     m.cookie.Name,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if m.cookie.MaxAge > 0 {
		cookie.MaxAge = int(m.cookie.MaxAge.Seconds())
	}
	http.SetCookie(w, cookie)
}

func newID() (string, error) {
	buf := make([]byte, idBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", oops.Code("SESSION_ID_FAILED").Wrap(err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
