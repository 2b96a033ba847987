package authapi

import (
	"net/http"

	"github.com/dalemusser/clinica/internal/app/system/auth"
	"github.com/dalemusser/clinica/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes returns the /api/auth router. Gates are applied per route because
// login and public sign-up must stay reachable without a session. google is
// mounted at /google when non-nil.
func Routes(h *Handler, sm *auth.SessionManager, google http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/login", h.Login)
	r.Post("/register-paciente-public", h.RegisterPacientePublic)

	r.With(sm.RequireSignedInAPI).Post("/logout", h.Logout)
	r.With(sm.RequireSignedInAPI, sm.RequireRoleAPI(models.RoleAdministrativo)).Post("/register", h.Register)

	if google != nil {
		r.Mount("/google", google)
	}
	return r
}
