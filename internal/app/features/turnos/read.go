package turnos

import (
	"context"
	"errors"
	"net/http"

	turnostore "github.com/dalemusser/clinica/internal/app/store/turnos"
	"github.com/dalemusser/clinica/internal/app/system/apiresp"
	"github.com/dalemusser/clinica/internal/app/system/auth"
	"github.com/dalemusser/clinica/internal/app/system/timeouts"
	"github.com/dalemusser/clinica/internal/domain/models"
	"go.uber.org/zap"
)

// List handles GET /api/turnos, scoped to the caller.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	s := scopeFor(u)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	var (
		list []models.TurnoCompleto
		err  error
	)
	switch {
	case s.all:
		list, err = h.Store.ListCompleto(ctx)
	case !s.medico.IsZero():
		list, err = h.Store.ListByMedico(ctx, s.medico)
	case !s.paciente.IsZero():
		list, err = h.Store.ListByPaciente(ctx, s.paciente)
	}
	if err != nil {
		h.serverError(w, "list turnos failed", err)
		return
	}
	if list == nil {
		list = []models.TurnoCompleto{}
	}
	apiresp.OK(w, http.StatusOK, list)
}

// Get handles GET /api/turnos/{id}. Turnos outside the caller's scope are
// reported as not found.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := apiresp.PathID(w, r)
	if !ok {
		return
	}
	u, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	t, err := h.Store.GetByID(ctx, id)
	if errors.Is(err, turnostore.ErrNotFound) || (err == nil && !scopeFor(u).allows(*t)) {
		apiresp.Error(w, http.StatusNotFound, "turno not found")
		return
	}
	if err != nil {
		h.serverError(w, "get turno failed", err)
		return
	}
	apiresp.OK(w, http.StatusOK, t)
}

func (h *Handler) serverError(w http.ResponseWriter, msg string, err error) {
	h.Log.Error(msg, zap.Error(err))
	apiresp.Error(w, http.StatusInternalServerError, "internal error")
}
