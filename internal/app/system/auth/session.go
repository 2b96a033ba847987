package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dalemusser/clinica/internal/domain/models"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

const (
	userIDKey     = "user_id"
	usernameKey   = "username"
	roleKey       = "role"
	medicoIDKey   = "medico_id"
	pacienteIDKey = "paciente_id"
	firstNameKey  = "first_name"
	lastNameKey   = "last_name"
)

var (
	// ErrPendingIdentity is returned by Handle.Set for an identity with no
	// account id. Pending registrations are never stored as authenticated.
	ErrPendingIdentity = errors.New("auth: pending identity cannot be stored in session")
	// ErrInvalidRole is returned by Handle.Set for a role outside the enumeration.
	ErrInvalidRole = errors.New("auth: identity has invalid role")
)

// SessionManager owns the session store and the gates built on top of it.
// The backing store is any gorilla sessions.Store: the signed cookie store
// from NewSessionManager, or a RedisStore.
type SessionManager struct {
	store sessions.Store
	name  string
	log   *zap.Logger
}

// NewSessionManager builds a manager backed by a signed cookie store.
//
// In production (secure=true) cookies are Secure with SameSite=Lax so the
// Google OAuth redirect back to the site still carries the cookie.
// For local dev over http://localhost use secure=false.
func NewSessionManager(sessionKey, name, domain string, maxAge time.Duration, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if sessionKey == "" {
		return nil, fmt.Errorf("session key is empty; provide ≥32 random chars")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	store.Options = CookieOptions(domain, maxAge, secure)

	logger.Info("session store initialized",
		zap.String("backend", "cookie"),
		zap.Bool("secure", secure),
		zap.String("domain", domain))

	return NewSessionManagerWithStore(store, name, logger), nil
}

// NewSessionManagerWithStore wraps an existing store.
func NewSessionManagerWithStore(store sessions.Store, name string, logger *zap.Logger) *SessionManager {
	if name == "" {
		name = "clinica-session"
	}
	return &SessionManager{store: store, name: name, log: logger}
}

// CookieOptions returns the cookie attributes shared by every store.
func CookieOptions(domain string, maxAge time.Duration, secure bool) *sessions.Options {
	return &sessions.Options{
		Domain:   domain,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// Name returns the session cookie name.
func (sm *SessionManager) Name() string { return sm.name }

// Store returns the underlying gorilla store.
func (sm *SessionManager) Store() sessions.Store { return sm.store }

/*─────────────────────────────────────────────────────────────────────────────*
| Session handle                                                              |
*─────────────────────────────────────────────────────────────────────────────*/

// Handle is the per-request view of a browser session. Handlers receive one
// from Open and never touch session values directly.
type Handle struct {
	sess *sessions.Session
	w    http.ResponseWriter
	r    *http.Request
}

// Open loads the session for r.
//
// An undecodable cookie (tampered, expired, signed with a rotated key) is not
// an error: it yields an empty session, exactly like a first visit. Any other
// store failure is returned so callers can answer 500.
func (sm *SessionManager) Open(w http.ResponseWriter, r *http.Request) (*Handle, error) {
	sess, err := sm.store.Get(r, sm.name)
	if err != nil {
		if !isDecodeError(err) {
			return nil, fmt.Errorf("load session: %w", err)
		}
		sm.log.Warn("session cookie invalid, using fresh session", zap.Error(err))
		sess = sessions.NewSession(sm.store, sm.name)
		sess.IsNew = true
		if opts := sm.options(); opts != nil {
			o := *opts
			sess.Options = &o
		}
	}
	return &Handle{sess: sess, w: w, r: r}, nil
}

func (sm *SessionManager) options() *sessions.Options {
	switch s := sm.store.(type) {
	case *sessions.CookieStore:
		return s.Options
	case *RedisStore:
		return s.Options
	}
	return nil
}

// Identity returns the authenticated identity stored in the session.
// Sessions without a user id, or with a role outside the enumeration,
// have no identity.
func (h *Handle) Identity() (*SessionUser, bool) {
	id := getString(h.sess, userIDKey)
	if id == "" {
		return nil, false
	}
	role, err := models.ParseRole(getString(h.sess, roleKey))
	if err != nil {
		return nil, false
	}
	return &SessionUser{
		ID:         id,
		Username:   getString(h.sess, usernameKey),
		Role:       role,
		MedicoID:   getString(h.sess, medicoIDKey),
		PacienteID: getString(h.sess, pacienteIDKey),
		FirstName:  getString(h.sess, firstNameKey),
		LastName:   getString(h.sess, lastNameKey),
	}, true
}

// Set replaces the session identity with u and saves the session.
func (h *Handle) Set(u SessionUser) error {
	if u.IsPending() {
		return ErrPendingIdentity
	}
	if !u.Role.Valid() {
		return ErrInvalidRole
	}

	// New server-side id on every login; the cookie store ignores it.
	if old := h.sess.ID; old != "" {
		if rv, ok := h.sess.Store().(revoker); ok {
			if err := rv.Revoke(h.r.Context(), old); err != nil {
				return fmt.Errorf("revoke previous session: %w", err)
			}
		}
	}
	h.sess.ID = ""
	for k := range h.sess.Values {
		delete(h.sess.Values, k)
	}
	h.sess.Values[userIDKey] = u.ID
	h.sess.Values[usernameKey] = u.Username
	h.sess.Values[roleKey] = string(u.Role)
	h.sess.Values[medicoIDKey] = u.MedicoID
	h.sess.Values[pacienteIDKey] = u.PacienteID
	h.sess.Values[firstNameKey] = u.FirstName
	h.sess.Values[lastNameKey] = u.LastName

	if err := h.sess.Save(h.r, h.w); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Clear removes every value and expires the cookie.
func (h *Handle) Clear() error {
	for k := range h.sess.Values {
		delete(h.sess.Values, k)
	}
	h.sess.Options.MaxAge = -1
	if err := h.sess.Save(h.r, h.w); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// revoker is implemented by stores that keep sessions server-side.
type revoker interface {
	Revoke(ctx context.Context, id string) error
}

// helpers

func isDecodeError(err error) bool {
	var scErr securecookie.Error
	return errors.As(err, &scErr) && scErr.IsDecode()
}

// getString safely extracts a string from a session value.
func getString(s *sessions.Session, key string) string {
	if v, ok := s.Values[key].(string); ok {
		return v
	}
	return ""
}
