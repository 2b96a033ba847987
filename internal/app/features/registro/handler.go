// Package registro serves the public patient registration form. The form is
// pre-filled from the query string when the visitor arrives from Google
// sign-in or from a failed submission.
package registro

import (
	"net/http"

	"github.com/dalemusser/clinica/internal/app/system/auth"
	"github.com/dalemusser/clinica/internal/app/system/render"
	"github.com/dalemusser/clinica/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/query"
	"go.uber.org/zap"
)

type Handler struct {
	Render render.Renderer
	Log    *zap.Logger
}

func NewHandler(rr render.Renderer, logger *zap.Logger) *Handler {
	return &Handler{Render: rr, Log: logger}
}

type formData struct {
	viewdata.BaseVM
	GoogleEmail     string
	GoogleFirstName string
	GoogleLastName  string
	// FromGoogle locks the email field to the verified Google address.
	FromGoogle bool
}

var errorMessages = map[string]string{
	"invalid":   "Revisá los datos ingresados.",
	"duplicate": "Ya existe un paciente registrado con ese email o DNI.",
	"internal":  "Ocurrió un error. Intentá nuevamente.",
}

// ServeForm renders GET /registro/paciente.
func (h *Handler) ServeForm(w http.ResponseWriter, r *http.Request) {
	if u, ok := auth.CurrentUser(r); ok {
		http.Redirect(w, r, auth.LandingPath(u.Role), http.StatusSeeOther)
		return
	}

	data := formData{
		BaseVM:          viewdata.NewBaseVM(r, "Registro de Paciente", auth.LoginPath),
		GoogleEmail:     query.Get(r, "googleEmail"),
		GoogleFirstName: query.Get(r, "googleFirstName"),
		GoogleLastName:  query.Get(r, "googleLastName"),
	}
	code := query.Get(r, "error")
	data.FromGoogle = data.GoogleEmail != "" && code == ""
	if code != "" {
		msg, ok := errorMessages[code]
		if !ok {
			msg = errorMessages["internal"]
		}
		data.Error = msg
	}

	h.Render.Render(w, r, "registro_paciente", data)
}
