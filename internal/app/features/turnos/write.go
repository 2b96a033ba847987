package turnos

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	medicostore "github.com/dalemusser/clinica/internal/app/store/medicos"
	pacientestore "github.com/dalemusser/clinica/internal/app/store/pacientes"
	turnostore "github.com/dalemusser/clinica/internal/app/store/turnos"
	"github.com/dalemusser/clinica/internal/app/system/apiresp"
	"github.com/dalemusser/clinica/internal/app/system/auth"
	"github.com/dalemusser/clinica/internal/app/system/timeouts"
	"github.com/dalemusser/clinica/internal/domain/models"
	validation "github.com/go-ozzo/ozzo-validation"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// fechaLayouts are the accepted formats for Fecha: RFC 3339 and the value of
// an <input type="datetime-local">, which is read as UTC.
var fechaLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"}

func parseFecha(s string) (time.Time, error) {
	for _, layout := range fechaLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("fecha %q: use YYYY-MM-DDTHH:MM or RFC 3339", s)
}

var objectIDRule = validation.By(func(v interface{}) error {
	s, _ := v.(string)
	if s != "" && !primitive.IsValidObjectID(s) {
		return errors.New("must be a valid id")
	}
	return nil
})

var fechaRule = validation.By(func(v interface{}) error {
	s, _ := v.(string)
	if s == "" {
		return nil
	}
	if _, err := parseFecha(s); err != nil {
		return errors.New("must be a date like 2024-06-03T09:15")
	}
	return nil
})

func estadoNames() []interface{} {
	out := make([]interface{}, 0, len(models.TurnoEstados))
	for _, e := range models.TurnoEstados {
		out = append(out, e)
	}
	return out
}

type turnoInput struct {
	PacienteID string `json:"pacienteId"`
	MedicoID   string `json:"medicoId"`
	Fecha      string `json:"fecha"`
	Motivo     string `json:"motivo"`
	Estado     string `json:"estado"`
	Notas      string `json:"notas"`
}

func (in turnoInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.PacienteID, validation.Required, objectIDRule),
		validation.Field(&in.MedicoID, validation.Required, objectIDRule),
		validation.Field(&in.Fecha, validation.Required, fechaRule),
		validation.Field(&in.Motivo, validation.Length(0, 500)),
		validation.Field(&in.Estado, validation.In(estadoNames()...)),
		validation.Field(&in.Notas, validation.Length(0, 2000)),
	)
}

// model converts validated input. Call only after Validate succeeds.
func (in turnoInput) model() models.Turno {
	pid, _ := primitive.ObjectIDFromHex(in.PacienteID)
	mid, _ := primitive.ObjectIDFromHex(in.MedicoID)
	t := models.Turno{
		PacienteID: pid,
		MedicoID:   mid,
		Motivo:     in.Motivo,
		Estado:     in.Estado,
		Notas:      in.Notas,
	}
	if f, err := parseFecha(in.Fecha); err == nil {
		t.Fecha = &f
	}
	return t
}

// Create handles POST /api/turnos. A paciente books for themselves: the
// pacienteId is taken from the session, and estado and notas are left to
// staff.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in turnoInput
	if err := apiresp.Decode(r, &in); err != nil {
		apiresp.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, _ := auth.CurrentUser(r)
	if u.Role == models.RolePaciente {
		if u.PacienteID == "" {
			apiresp.Error(w, http.StatusForbidden, "account has no paciente profile")
			return
		}
		in.PacienteID = u.PacienteID
		in.Estado = models.TurnoPendiente
		in.Notas = ""
	}
	if !h.validate(w, r, in) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	t, err := h.Store.Create(ctx, in.model())
	if errors.Is(err, turnostore.ErrBadEstado) {
		apiresp.Invalid(w, map[string]string{"estado": err.Error()})
		return
	}
	if err != nil {
		h.serverError(w, "create turno failed", err)
		return
	}
	h.Log.Info("turno created",
		zap.String("turno_id", t.ID.Hex()),
		zap.String("by_role", u.Role.String()))
	apiresp.OK(w, http.StatusCreated, t)
}

// Update handles PUT /api/turnos/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := apiresp.PathID(w, r)
	if !ok {
		return
	}
	var in turnoInput
	if err := apiresp.Decode(r, &in); err != nil {
		apiresp.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !h.validate(w, r, in) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	t, err := h.Store.Update(ctx, id, in.model())
	switch {
	case errors.Is(err, turnostore.ErrNotFound):
		apiresp.Error(w, http.StatusNotFound, "turno not found")
	case errors.Is(err, turnostore.ErrBadEstado):
		apiresp.Invalid(w, map[string]string{"estado": err.Error()})
	case err != nil:
		h.serverError(w, "update turno failed", err)
	default:
		apiresp.OK(w, http.StatusOK, t)
	}
}

// Delete handles DELETE /api/turnos/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := apiresp.PathID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	err := h.Store.Delete(ctx, id)
	if errors.Is(err, turnostore.ErrNotFound) {
		apiresp.Error(w, http.StatusNotFound, "turno not found")
		return
	}
	if err != nil {
		h.serverError(w, "delete turno failed", err)
		return
	}
	h.Log.Info("turno deleted", zap.String("turno_id", id.Hex()))
	apiresp.JSON(w, http.StatusOK, apiresp.Envelope{Status: "success", Message: "turno deleted"})
}

// validate runs field validation and then checks that the referenced
// paciente and medico exist. It writes the response and returns false on
// any failure.
func (h *Handler) validate(w http.ResponseWriter, r *http.Request, in turnoInput) bool {
	if err := in.Validate(); err != nil {
		fields, _ := apiresp.FieldErrors(err)
		apiresp.Invalid(w, fields)
		return false
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	t := in.model()
	fields := map[string]string{}
	if _, err := h.Pacientes.GetByID(ctx, t.PacienteID); errors.Is(err, pacientestore.ErrNotFound) {
		fields["pacienteId"] = "paciente does not exist"
	} else if err != nil {
		h.serverError(w, "lookup paciente failed", err)
		return false
	}
	if _, err := h.Medicos.GetByID(ctx, t.MedicoID); errors.Is(err, medicostore.ErrNotFound) {
		fields["medicoId"] = "medico does not exist"
	} else if err != nil {
		h.serverError(w, "lookup medico failed", err)
		return false
	}
	if len(fields) > 0 {
		apiresp.Invalid(w, fields)
		return false
	}
	return true
}
