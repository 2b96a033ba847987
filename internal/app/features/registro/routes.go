package registro

import "github.com/go-chi/chi/v5"

// Routes is mounted at /registro.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/paciente", h.ServeForm)
	return r
}
