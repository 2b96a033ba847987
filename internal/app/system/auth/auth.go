package auth

import (
	"context"
	"net/http"

	"github.com/dalemusser/clinica/internal/domain/models"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Session identity                                                            |
*─────────────────────────────────────────────────────────────────────────────*/

// SessionUser is the identity cached in the session and injected into
// r.Context() by LoadSessionUser.
//
// A SessionUser with an empty ID is a pending registration: a Google-verified
// patient with no account yet. It is never stored in the session and never
// passes a gate.
type SessionUser struct {
	ID         string // hex ObjectID of the usuarios document
	Username   string // account email
	Role       models.Role
	MedicoID   string
	PacienteID string
	FirstName  string
	LastName   string
}

// IsPending reports whether u is a pending-registration marker.
func (u SessionUser) IsPending() bool { return u.ID == "" }

// DisplayName returns "First Last", falling back to the username.
func (u SessionUser) DisplayName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	}
	return u.Username
}

// SessionUserFromAccount builds the identity for a stored account.
func SessionUserFromAccount(u models.User) SessionUser {
	su := SessionUser{
		ID:        u.ID.Hex(),
		Username:  u.Username,
		Role:      u.Role,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
	if u.MedicoRef != nil {
		su.MedicoID = u.MedicoRef.Hex()
	}
	if u.PacienteRef != nil {
		su.PacienteID = u.PacienteRef.Hex()
	}
	return su
}

/*─────────────────────────────────────────────────────────────────────────────*
| Request context                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the signed-in user and a found flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok && u != nil
}

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

// WithTestUser injects u into the request context the way LoadSessionUser
// does. Intended for handler tests.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Landing pages                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

const (
	LoginPath            = "/login"
	AdminLandingPath     = "/"
	MedicoLandingPath    = "/dashboard/medico"
	PacienteLandingPath  = "/dashboard/paciente"
	RegistroPacientePath = "/registro/paciente"
)

// LandingPath is where a user of the given role is sent after login and
// when a page gate turns them away.
func LandingPath(role models.Role) string {
	switch role {
	case models.RoleAdministrativo:
		return AdminLandingPath
	case models.RoleMedico:
		return MedicoLandingPath
	case models.RolePaciente:
		return PacienteLandingPath
	}
	return LoginPath
}
