package pacientes

import (
	"github.com/dalemusser/clinica/internal/app/system/auth"
	"github.com/dalemusser/clinica/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes is mounted at /api/pacientes. Reads are open to any signed-in
// user; writes are Administrativo only.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedInAPI)

	r.Get("/", h.List)
	r.Get("/{id}", h.Get)

	r.Group(func(wr chi.Router) {
		wr.Use(sm.RequireRoleAPI(models.RoleAdministrativo))
		wr.Post("/", h.Create)
		wr.Put("/{id}", h.Update)
		wr.Delete("/{id}", h.Delete)
	})
	return r
}
