// Package logout serves GET /logout for plain links. Scripted clients use
// POST /api/auth/logout.
package logout

import (
	"net/http"

	"github.com/dalemusser/clinica/internal/app/system/auth"
	"go.uber.org/zap"
)

type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
}

func NewHandler(sessionMgr *auth.SessionManager, logger *zap.Logger) *Handler {
	return &Handler{
		Log:        logger,
		SessionMgr: sessionMgr,
	}
}

// ServeLogout clears the session and sends the browser to the login page.
// A session that cannot be cleared is logged; the redirect still happens.
func (h *Handler) ServeLogout(w http.ResponseWriter, r *http.Request) {
	sess, err := h.SessionMgr.Open(w, r)
	if err == nil {
		err = sess.Clear()
	}
	if err != nil {
		h.Log.Error("logout: clear session", zap.Error(err))
	}

	// HTMX handling: use HX-Redirect to force a client-side navigation.
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", auth.LoginPath)
		w.WriteHeader(http.StatusOK)
		return
	}

	http.Redirect(w, r, auth.LoginPath, http.StatusSeeOther)
}
