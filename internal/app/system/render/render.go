// Package render is the seam between page handlers and the template engine.
package render

import (
	"net/http"

	"github.com/dalemusser/waffle/pantry/templates"
)

// Renderer writes the named page template with data.
type Renderer interface {
	Render(w http.ResponseWriter, r *http.Request, name string, data any)
}

// Templates renders through the booted waffle template engine.
type Templates struct{}

// Render implements Renderer.
func (Templates) Render(w http.ResponseWriter, r *http.Request, name string, data any) {
	templates.Render(w, r, name, data)
}
