package pages

import (
	"github.com/dalemusser/clinica/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the management pages at the site root.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/pacientes", h.ServePacientes)
		pr.Get("/medicos", h.ServeMedicos)
		pr.Get("/turnos", h.ServeTurnos)
	})

	// Unauthenticated visitors go to "/" rather than the login page.
	r.With(sm.RequireSignedInRedirect("/")).Get("/usuarios", h.ServeUsuarios)

	return r
}
