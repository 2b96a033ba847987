// Package pacientes serves the /api/pacientes JSON API.
package pacientes

import (
	"context"
	"errors"
	"net/http"
	"time"

	pacientestore "github.com/dalemusser/clinica/internal/app/store/pacientes"
	"github.com/dalemusser/clinica/internal/app/system/apiresp"
	"github.com/dalemusser/clinica/internal/app/system/auth"
	"github.com/dalemusser/clinica/internal/app/system/timeouts"
	"github.com/dalemusser/clinica/internal/domain/models"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Store is the slice of pacientestore.Store this feature needs.
type Store interface {
	Create(ctx context.Context, p models.Paciente) (models.Paciente, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Paciente, error)
	List(ctx context.Context) ([]models.Paciente, error)
	Update(ctx context.Context, id primitive.ObjectID, p models.Paciente) (models.Paciente, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type Handler struct {
	Store Store
	Log   *zap.Logger
}

func NewHandler(store Store, logger *zap.Logger) *Handler {
	return &Handler{Store: store, Log: logger}
}

const dateLayout = "2006-01-02"

type pacienteInput struct {
	Nombre          string `json:"nombre"`
	Apellido        string `json:"apellido"`
	DNI             string `json:"dni"`
	Email           string `json:"email"`
	Telefono        string `json:"telefono"`
	FechaNacimiento string `json:"fechaNacimiento"`
	ObraSocial      string `json:"obraSocial"`
}

func (in pacienteInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Nombre, validation.Required, validation.Length(1, 100)),
		validation.Field(&in.Apellido, validation.Required, validation.Length(1, 100)),
		validation.Field(&in.DNI, validation.Required, validation.Length(6, 12)),
		validation.Field(&in.Email, is.Email),
		validation.Field(&in.Telefono, validation.Length(0, 30)),
		validation.Field(&in.FechaNacimiento, validation.Date(dateLayout)),
		validation.Field(&in.ObraSocial, validation.Length(0, 100)),
	)
}

func (in pacienteInput) model() models.Paciente {
	p := models.Paciente{
		Nombre:     in.Nombre,
		Apellido:   in.Apellido,
		DNI:        in.DNI,
		Email:      in.Email,
		Telefono:   in.Telefono,
		ObraSocial: in.ObraSocial,
	}
	if t, err := time.Parse(dateLayout, in.FechaNacimiento); err == nil {
		p.FechaNacimiento = &t
	}
	return p
}

// ownPaciente returns the caller's profile id when the caller is a paciente.
func ownPaciente(r *http.Request) (id primitive.ObjectID, isPaciente bool) {
	u, ok := auth.CurrentUser(r)
	if !ok || u.Role != models.RolePaciente {
		return primitive.NilObjectID, false
	}
	id, _ = primitive.ObjectIDFromHex(u.PacienteID)
	return id, true
}

// List handles GET /api/pacientes. A paciente receives only their own record.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if own, isPaciente := ownPaciente(r); isPaciente {
		out := []models.Paciente{}
		if !own.IsZero() {
			p, err := h.Store.GetByID(ctx, own)
			if err != nil && !errors.Is(err, pacientestore.ErrNotFound) {
				h.serverError(w, "get own paciente failed", err)
				return
			}
			if p != nil {
				out = append(out, *p)
			}
		}
		apiresp.OK(w, http.StatusOK, out)
		return
	}

	list, err := h.Store.List(ctx)
	if err != nil {
		h.serverError(w, "list pacientes failed", err)
		return
	}
	apiresp.OK(w, http.StatusOK, list)
}

// Get handles GET /api/pacientes/{id}. A paciente asking for anyone else's
// record gets 404.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := apiresp.PathID(w, r)
	if !ok {
		return
	}
	if own, isPaciente := ownPaciente(r); isPaciente && own != id {
		apiresp.Error(w, http.StatusNotFound, "paciente not found")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := h.Store.GetByID(ctx, id)
	if errors.Is(err, pacientestore.ErrNotFound) {
		apiresp.Error(w, http.StatusNotFound, "paciente not found")
		return
	}
	if err != nil {
		h.serverError(w, "get paciente failed", err)
		return
	}
	apiresp.OK(w, http.StatusOK, p)
}

// Create handles POST /api/pacientes.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	in, ok := decode(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := h.Store.Create(ctx, in.model())
	if errors.Is(err, pacientestore.ErrDuplicate) {
		apiresp.Error(w, http.StatusConflict, "a paciente with that DNI already exists")
		return
	}
	if err != nil {
		h.serverError(w, "create paciente failed", err)
		return
	}
	h.Log.Info("paciente created", zap.String("paciente_id", p.ID.Hex()))
	apiresp.OK(w, http.StatusCreated, p)
}

// Update handles PUT /api/pacientes/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := apiresp.PathID(w, r)
	if !ok {
		return
	}
	in, ok := decode(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := h.Store.Update(ctx, id, in.model())
	switch {
	case errors.Is(err, pacientestore.ErrNotFound):
		apiresp.Error(w, http.StatusNotFound, "paciente not found")
	case errors.Is(err, pacientestore.ErrDuplicate):
		apiresp.Error(w, http.StatusConflict, "a paciente with that DNI already exists")
	case err != nil:
		h.serverError(w, "update paciente failed", err)
	default:
		apiresp.OK(w, http.StatusOK, p)
	}
}

// Delete handles DELETE /api/pacientes/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := apiresp.PathID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	err := h.Store.Delete(ctx, id)
	if errors.Is(err, pacientestore.ErrNotFound) {
		apiresp.Error(w, http.StatusNotFound, "paciente not found")
		return
	}
	if err != nil {
		h.serverError(w, "delete paciente failed", err)
		return
	}
	h.Log.Info("paciente deleted", zap.String("paciente_id", id.Hex()))
	apiresp.JSON(w, http.StatusOK, apiresp.Envelope{Status: "success", Message: "paciente deleted"})
}

func decode(w http.ResponseWriter, r *http.Request) (pacienteInput, bool) {
	var in pacienteInput
	if err := apiresp.Decode(r, &in); err != nil {
		apiresp.Error(w, http.StatusBadRequest, "invalid request body")
		return in, false
	}
	if err := in.Validate(); err != nil {
		fields, _ := apiresp.FieldErrors(err)
		apiresp.Invalid(w, fields)
		return in, false
	}
	return in, true
}

func (h *Handler) serverError(w http.ResponseWriter, msg string, err error) {
	h.Log.Error(msg, zap.Error(err))
	apiresp.Error(w, http.StatusInternalServerError, "internal error")
}
