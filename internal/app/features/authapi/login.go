package authapi

import (
	"context"
	"errors"
	"net/http"

	userstore "github.com/dalemusser/clinica/internal/app/store/users"
	"github.com/dalemusser/clinica/internal/app/system/apiresp"
	"github.com/dalemusser/clinica/internal/app/system/auth"
	"github.com/dalemusser/clinica/internal/app/system/metrics"
	"github.com/dalemusser/clinica/internal/app/system/ratelimit"
	"github.com/dalemusser/clinica/internal/app/system/timeouts"
	"github.com/dalemusser/clinica/internal/domain/models"
	validation "github.com/go-ozzo/ozzo-validation"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (req loginRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Username, validation.Required),
		validation.Field(&req.Password, validation.Required),
	)
}

type loginUser struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	Role       string `json:"role"`
	MedicoID   string `json:"medicoId,omitempty"`
	PacienteID string `json:"pacienteId,omitempty"`
	FirstName  string `json:"firstName,omitempty"`
	LastName   string `json:"lastName,omitempty"`
}

type loginResponse struct {
	Status   string    `json:"status"`
	User     loginUser `json:"user"`
	Redirect string    `json:"redirect"`
}

const (
	msgInvalidCredentials = "invalid credentials"
	msgTooManyAttempts    = "too many login attempts, try again in a minute"
)

// Login handles POST /api/auth/login with a JSON or form body.
//
// JSON callers get 200/400/401/429/500 envelopes. Form posts are redirected:
// to the landing page on success, back to /login?error=... otherwise.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	ip := ratelimit.ClientIP(r)
	if h.Limiter != nil && !h.Limiter.Allow(ip) {
		metrics.Logins.WithLabelValues(models.ProviderPassword, "rate_limited").Inc()
		h.Log.Warn("login rate limited", zap.String("ip", ip))
		h.loginFailed(w, r, http.StatusTooManyRequests, msgTooManyAttempts, "rate")
		return
	}

	var req loginRequest
	if isJSON(r) {
		if err := apiresp.Decode(r, &req); err != nil {
			apiresp.Error(w, http.StatusBadRequest, "invalid request body")
			return
		}
	} else {
		req.Username = r.FormValue("username")
		req.Password = r.FormValue("password")
	}
	if err := req.Validate(); err != nil {
		if isJSON(r) {
			fields, _ := apiresp.FieldErrors(err)
			apiresp.Invalid(w, fields)
			return
		}
		http.Redirect(w, r, auth.LoginPath+"?error=missing", http.StatusSeeOther)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	acct, err := h.Accounts.GetByUsername(ctx, req.Username)
	if err != nil && !errors.Is(err, userstore.ErrNotFound) {
		h.Log.Error("login lookup failed", zap.Error(err))
		h.loginFailed(w, r, http.StatusInternalServerError, "internal error", "internal")
		return
	}
	if acct == nil || !passwordMatches(acct.PasswordHash, req.Password) {
		metrics.Logins.WithLabelValues(models.ProviderPassword, "failure").Inc()
		h.Log.Info("login failed", zap.String("ip", ip))
		h.loginFailed(w, r, http.StatusUnauthorized, msgInvalidCredentials, "credentials")
		return
	}
	if !acct.Role.Valid() {
		h.Log.Error("account has invalid role", zap.String("user_id", acct.ID.Hex()), zap.String("role", string(acct.Role)))
		h.loginFailed(w, r, http.StatusUnauthorized, msgInvalidCredentials, "credentials")
		return
	}

	ident := auth.SessionUserFromAccount(*acct)
	sess, err := h.SessionMgr.Open(w, r)
	if err == nil {
		err = sess.Set(ident)
	}
	if err != nil {
		h.Log.Error("failed to write session", zap.Error(err))
		h.loginFailed(w, r, http.StatusInternalServerError, "internal error", "internal")
		return
	}

	if h.Logins != nil {
		if err := h.Logins.CreateFrom(ctx, r, acct.ID, acct.Role, models.ProviderPassword); err != nil {
			h.Log.Warn("failed to record login", zap.Error(err))
		}
	}
	if h.Limiter != nil {
		h.Limiter.Reset(ip)
	}
	metrics.Logins.WithLabelValues(models.ProviderPassword, "success").Inc()
	h.Log.Info("login", zap.String("user_id", ident.ID), zap.String("role", ident.Role.String()))

	dest := auth.LandingPath(ident.Role)
	if !isJSON(r) {
		if isHTMX(r) {
			w.Header().Set("HX-Redirect", dest)
			w.WriteHeader(http.StatusOK)
			return
		}
		http.Redirect(w, r, dest, http.StatusSeeOther)
		return
	}
	apiresp.JSON(w, http.StatusOK, loginResponse{
		Status: "success",
		User: loginUser{
			ID:         ident.ID,
			Username:   ident.Username,
			Role:       ident.Role.String(),
			MedicoID:   ident.MedicoID,
			PacienteID: ident.PacienteID,
			FirstName:  ident.FirstName,
			LastName:   ident.LastName,
		},
		Redirect: dest,
	})
}

func (h *Handler) loginFailed(w http.ResponseWriter, r *http.Request, status int, msg, code string) {
	if isJSON(r) {
		apiresp.Error(w, status, msg)
		return
	}
	http.Redirect(w, r, auth.LoginPath+"?error="+code, http.StatusSeeOther)
}

func passwordMatches(hash, password string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Logout handles POST /api/auth/logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	sess, err := h.SessionMgr.Open(w, r)
	if err == nil {
		err = sess.Clear()
	}
	if err != nil {
		h.Log.Error("failed to clear session", zap.Error(err))
		apiresp.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	if isHTMX(r) {
		w.Header().Set("HX-Redirect", auth.LoginPath)
	}
	apiresp.JSON(w, http.StatusOK, apiresp.Envelope{
		Status:   "success",
		Message:  "signed out",
		Redirect: auth.LoginPath,
	})
}
