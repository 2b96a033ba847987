// Package authapi serves the credential endpoints under /api/auth: password
// login, logout, admin account registration and public patient sign-up.
package authapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/clinica/internal/app/system/auth"
	"github.com/dalemusser/clinica/internal/app/system/ratelimit"
	"github.com/dalemusser/clinica/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Accounts is the slice of userstore.Store this feature needs.
type Accounts interface {
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, u models.User) (models.User, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// Pacientes is the slice of pacientestore.Store this feature needs.
type Pacientes interface {
	Create(ctx context.Context, p models.Paciente) (models.Paciente, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// LoginRecorder records successful logins.
type LoginRecorder interface {
	CreateFrom(ctx context.Context, r *http.Request, userID primitive.ObjectID, role models.Role, provider string) error
}

type Handler struct {
	Accounts   Accounts
	Pacientes  Pacientes
	Logins     LoginRecorder
	Limiter    *ratelimit.Limiter
	SessionMgr *auth.SessionManager
	Log        *zap.Logger
}

func NewHandler(accounts Accounts, pacientes Pacientes, logins LoginRecorder, limiter *ratelimit.Limiter, sessionMgr *auth.SessionManager, logger *zap.Logger) *Handler {
	return &Handler{
		Accounts:   accounts,
		Pacientes:  pacientes,
		Logins:     logins,
		Limiter:    limiter,
		SessionMgr: sessionMgr,
		Log:        logger,
	}
}

// isJSON reports whether the request body is JSON. Anything else is
// treated as an HTML form post and answered with redirects.
func isJSON(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
