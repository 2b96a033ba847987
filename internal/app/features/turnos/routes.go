package turnos

import (
	"github.com/dalemusser/clinica/internal/app/system/auth"
	"github.com/dalemusser/clinica/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes is mounted at /api/turnos.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedInAPI)

	r.Get("/", h.List)
	r.Get("/{id}", h.Get)

	r.With(sm.RequireRoleAPI(models.RoleAdministrativo, models.RolePaciente)).Post("/", h.Create)

	r.Group(func(wr chi.Router) {
		wr.Use(sm.RequireRoleAPI(models.RoleAdministrativo))
		wr.Put("/{id}", h.Update)
		wr.Delete("/{id}", h.Delete)
	})
	return r
}
