package authgoogle

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/dalemusser/clinica/internal/app/system/auth"
	"github.com/dalemusser/clinica/internal/app/system/metrics"
	"github.com/dalemusser/clinica/internal/app/system/timeouts"
	"github.com/dalemusser/clinica/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// StateTTL is how long an OAuth state token stays valid.
const StateTTL = 10 * time.Minute

const (
	errNotConfigured = auth.LoginPath + "?error=google_not_configured"
	errGoogle        = auth.LoginPath + "?error=google"
)

// Config is the Google OAuth client configuration, built from app config at
// startup and injected into the Handler.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string // e.g. "https://clinica.example.com/api/auth/google/callback"
}

// Configured reports whether both client credentials are set.
func (c Config) Configured() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

func (c Config) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURL:  c.RedirectURL,
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint:     google.Endpoint,
	}
}

// StateStore persists one-time OAuth state tokens. oauthstate.Store satisfies it.
type StateStore interface {
	Save(ctx context.Context, state, returnURL string, expiresAt time.Time) error
	Validate(ctx context.Context, state string) (returnURL string, valid bool, err error)
}

// ProfileFetcher turns an authorization code into a Google profile.
type ProfileFetcher interface {
	Fetch(ctx context.Context, code string) (Profile, error)
}

// LoginRecorder records successful logins. loginstore.Store satisfies it.
type LoginRecorder interface {
	CreateFrom(ctx context.Context, r *http.Request, userID primitive.ObjectID, role models.Role, provider string) error
}

// Handler handles Google OAuth authentication.
type Handler struct {
	Config     Config
	Bridge     Bridge
	States     StateStore
	Profiles   ProfileFetcher
	Logins     LoginRecorder
	SessionMgr *auth.SessionManager
	Log        *zap.Logger
}

// NewHandler creates a new Google OAuth handler that exchanges codes with Google.
func NewHandler(cfg Config, accounts AccountFinder, states StateStore, logins LoginRecorder, sessionMgr *auth.SessionManager, logger *zap.Logger) *Handler {
	return &Handler{
		Config:     cfg,
		Bridge:     Bridge{Accounts: accounts},
		States:     states,
		Profiles:   googleFetcher{cfg: cfg.oauth2Config()},
		Logins:     logins,
		SessionMgr: sessionMgr,
		Log:        logger,
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /api/auth/google                                                         |
| Initiates the Google OAuth flow by redirecting to Google's consent screen.   |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if !h.Config.Configured() {
		h.Log.Warn("Google OAuth not configured")
		http.Redirect(w, r, errNotConfigured, http.StatusSeeOther)
		return
	}

	state, err := generateState()
	if err != nil {
		h.Log.Error("failed to generate OAuth state", zap.Error(err))
		http.Redirect(w, r, errGoogle, http.StatusSeeOther)
		return
	}

	returnURL := query.Get(r, "return")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.States.Save(ctx, state, returnURL, time.Now().UTC().Add(StateTTL)); err != nil {
		h.Log.Error("failed to save OAuth state", zap.Error(err))
		http.Redirect(w, r, errGoogle, http.StatusSeeOther)
		return
	}

	dest := h.Config.oauth2Config().AuthCodeURL(state)
	h.Log.Debug("initiating Google OAuth flow", zap.String("return_url", returnURL))
	http.Redirect(w, r, dest, http.StatusTemporaryRedirect)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /api/auth/google/callback                                                |
| Validates state, exchanges the code, resolves the identity and either        |
| signs the patient in or hands off to the registration form.                  |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if errParam := q.Get("error"); errParam != "" {
		h.Log.Warn("Google OAuth error",
			zap.String("error", errParam),
			zap.String("description", q.Get("error_description")))
		h.fail(w, r, "provider_error")
		return
	}

	state := q.Get("state")
	if state == "" {
		h.Log.Warn("missing OAuth state parameter")
		h.fail(w, r, "invalid_state")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	returnURL, valid, err := h.States.Validate(ctx, state)
	if err != nil {
		h.Log.Error("failed to validate OAuth state", zap.Error(err))
		h.fail(w, r, "state_store")
		return
	}
	if !valid {
		h.Log.Warn("invalid or expired OAuth state")
		h.fail(w, r, "invalid_state")
		return
	}

	code := q.Get("code")
	if code == "" {
		h.Log.Warn("missing OAuth code parameter")
		h.fail(w, r, "invalid_code")
		return
	}

	profile, err := h.Profiles.Fetch(ctx, code)
	if err != nil {
		h.Log.Error("failed to fetch Google profile", zap.Error(err))
		h.fail(w, r, "profile")
		return
	}

	ident, err := h.Bridge.Resolve(ctx, profile)
	if err != nil {
		reason := "lookup"
		switch {
		case errors.Is(err, ErrNoEmail):
			reason = "no_email"
		case errors.Is(err, ErrPatientOnly):
			reason = "patient_only"
		}
		h.Log.Info("Google sign-in rejected", zap.String("reason", reason), zap.Error(err))
		h.fail(w, r, reason)
		return
	}

	if ident.IsPending() {
		metrics.Logins.WithLabelValues(models.ProviderGoogle, "pending").Inc()
		h.Log.Info("Google sign-in for unregistered patient; redirecting to registration")
		http.Redirect(w, r, RegistrationURL(ident), http.StatusSeeOther)
		return
	}

	sess, err := h.SessionMgr.Open(w, r)
	if err == nil {
		err = sess.Set(ident)
	}
	if err != nil {
		h.Log.Error("failed to write session", zap.Error(err))
		h.fail(w, r, "session")
		return
	}

	if oid, perr := primitive.ObjectIDFromHex(ident.ID); perr == nil && h.Logins != nil {
		if err := h.Logins.CreateFrom(ctx, r, oid, ident.Role, models.ProviderGoogle); err != nil {
			h.Log.Warn("failed to record login", zap.Error(err))
		}
	}

	metrics.Logins.WithLabelValues(models.ProviderGoogle, "success").Inc()
	h.Log.Info("Google sign-in", zap.String("user_id", ident.ID))

	dest := urlutil.SafeReturn(returnURL, "", auth.PacienteLandingPath)
	http.Redirect(w, r, dest, http.StatusSeeOther)
}

// RegistrationURL is the patient registration form pre-filled with the
// Google profile of a pending identity.
func RegistrationURL(u auth.SessionUser) string {
	v := url.Values{}
	v.Set("googleEmail", u.Username)
	v.Set("googleFirstName", u.FirstName)
	v.Set("googleLastName", u.LastName)
	return auth.RegistroPacientePath + "?" + v.Encode()
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, reason string) {
	metrics.Logins.WithLabelValues(models.ProviderGoogle, "failure").Inc()
	h.Log.Debug("Google sign-in failed", zap.String("reason", reason))
	http.Redirect(w, r, errGoogle, http.StatusSeeOther)
}

func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Google profile fetch                                                         |
*─────────────────────────────────────────────────────────────────────────────*/

const userInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"verified_email"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
}

type googleFetcher struct {
	cfg *oauth2.Config
}

func (g googleFetcher) Fetch(ctx context.Context, code string) (Profile, error) {
	token, err := g.cfg.Exchange(ctx, code)
	if err != nil {
		return Profile{}, fmt.Errorf("exchange code: %w", err)
	}

	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))
	resp, err := client.Get(userInfoURL)
	if err != nil {
		return Profile{}, fmt.Errorf("fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Profile{}, fmt.Errorf("fetch user info: unexpected status %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return Profile{}, fmt.Errorf("decode user info: %w", err)
	}
	if !info.EmailVerified {
		info.Email = ""
	}
	return Profile{Email: info.Email, FirstName: info.GivenName, LastName: info.FamilyName}, nil
}
