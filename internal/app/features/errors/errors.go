// Package errors renders the not-found and method-not-allowed responses.
// Requests under /api/ get the JSON envelope; everything else gets a page.
package errors

import (
	"net/http"
	"strings"

	"github.com/dalemusser/clinica/internal/app/system/apiresp"
	"github.com/dalemusser/clinica/internal/app/system/render"
	"github.com/dalemusser/clinica/internal/app/system/viewdata"
)

// pageData is the basic view model for error pages.
type pageData struct {
	viewdata.BaseVM
	Message string
}

// Handler is the errors feature handler.
// No DB needed; it just renders templates.
type Handler struct {
	Render render.Renderer
}

func NewHandler(rr render.Renderer) *Handler {
	return &Handler{Render: rr}
}

// NotFound is installed as the router's NotFound handler.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.write(w, r, http.StatusNotFound, "not found",
		"Página no encontrada", "La página que buscás no existe.")
}

// MethodNotAllowed is installed as the router's MethodNotAllowed handler.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.write(w, r, http.StatusMethodNotAllowed, "method not allowed",
		"Operación no permitida", "Esta página no admite esa operación.")
}

func (h *Handler) write(w http.ResponseWriter, r *http.Request, status int, apiMsg, title, msg string) {
	if isAPI(r) {
		apiresp.Error(w, status, apiMsg)
		return
	}
	w.WriteHeader(status)
	h.Render.Render(w, r, "error_page", pageData{
		BaseVM:  viewdata.NewBaseVM(r, title, "/"),
		Message: msg,
	})
}

func isAPI(r *http.Request) bool {
	return r.URL.Path == "/api" || strings.HasPrefix(r.URL.Path, "/api/")
}
