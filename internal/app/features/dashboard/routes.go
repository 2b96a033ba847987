package dashboard

import (
	"net/http"

	"github.com/dalemusser/clinica/internal/app/system/auth"
	"github.com/dalemusser/clinica/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// AdminHandler serves the Administrativo dashboard. It is registered as
// GET "/" on the root router, next to the root-level pages router.
func AdminHandler(h *Handler, sm *auth.SessionManager) http.Handler {
	gated := sm.RequireRole(models.RoleAdministrativo)(http.HandlerFunc(h.ServeAdmin))
	return sm.RequireSignedIn(gated)
}

// Routes serves the scoped dashboards; mounted at "/dashboard".
// The handlers check role and profile themselves and send anyone else to "/".
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/medico", h.ServeMedico)
		pr.Get("/paciente", h.ServePaciente)
	})
	return r
}
