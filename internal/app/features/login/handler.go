// Package login serves the sign-in page. Credentials are posted to
// /api/auth/login; Google sign-in starts at /api/auth/google.
package login

import (
	"net/http"

	"github.com/dalemusser/clinica/internal/app/system/auth"
	"github.com/dalemusser/clinica/internal/app/system/render"
	"github.com/dalemusser/clinica/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"go.uber.org/zap"
)

type Handler struct {
	Render        render.Renderer
	GoogleEnabled bool
	Log           *zap.Logger
}

func NewHandler(rr render.Renderer, googleEnabled bool, logger *zap.Logger) *Handler {
	return &Handler{
		Render:        rr,
		GoogleEnabled: googleEnabled,
		Log:           logger,
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Template-data                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

type loginFormData struct {
	viewdata.BaseVM
	Notice        string
	ReturnURL     string
	GoogleEnabled bool
}

// errorMessages maps the ?error= codes set by the auth endpoints to the
// text shown on the form. Unknown codes fall back to a generic message.
var errorMessages = map[string]string{
	"credentials":           "Usuario o contraseña incorrectos.",
	"missing":               "Ingresá tu usuario y contraseña.",
	"rate":                  "Demasiados intentos. Esperá un minuto y volvé a intentar.",
	"google":                "No se pudo iniciar sesión con Google.",
	"google_not_configured": "El inicio de sesión con Google no está disponible.",
	"internal":              "Ocurrió un error. Intentá nuevamente.",
}

const genericError = "No se pudo iniciar sesión."

/*─────────────────────────────────────────────────────────────────────────────*
| GET /login                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeLogin renders the sign-in form. A visitor who is already signed in is
// sent to their landing page.
func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if u, ok := auth.CurrentUser(r); ok {
		http.Redirect(w, r, auth.LandingPath(u.Role), http.StatusSeeOther)
		return
	}

	data := loginFormData{
		BaseVM:        viewdata.NewBaseVM(r, "Iniciar Sesión", "/"),
		ReturnURL:     urlutil.SafeReturn(query.Get(r, "return"), "", ""),
		GoogleEnabled: h.GoogleEnabled,
	}
	if code := query.Get(r, "error"); code != "" {
		msg, ok := errorMessages[code]
		if !ok {
			msg = genericError
		}
		data.Error = msg
	}
	if query.Get(r, "registered") != "" {
		data.Notice = "Registro completado. Ya podés iniciar sesión."
	}

	h.Render.Render(w, r, "login", data)
}
