package status

import "github.com/go-chi/chi/v5"

// Routes is mounted at /api/status.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Serve)
	return r
}
