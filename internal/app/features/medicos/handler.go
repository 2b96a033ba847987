// Package medicos serves the /api/medicos JSON API.
package medicos

import (
	"context"
	"errors"
	"net/http"

	medicostore "github.com/dalemusser/clinica/internal/app/store/medicos"
	"github.com/dalemusser/clinica/internal/app/system/apiresp"
	"github.com/dalemusser/clinica/internal/app/system/timeouts"
	"github.com/dalemusser/clinica/internal/domain/models"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type Store interface {
	Create(ctx context.Context, m models.Medico) (models.Medico, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Medico, error)
	List(ctx context.Context) ([]models.Medico, error)
	Update(ctx context.Context, id primitive.ObjectID, m models.Medico) (models.Medico, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type Handler struct {
	Store Store
	Log   *zap.Logger
}

func NewHandler(store Store, logger *zap.Logger) *Handler {
	return &Handler{Store: store, Log: logger}
}

type medicoInput struct {
	Nombre       string `json:"nombre"`
	Apellido     string `json:"apellido"`
	Matricula    string `json:"matricula"`
	Especialidad string `json:"especialidad"`
	Email        string `json:"email"`
	Telefono     string `json:"telefono"`
}

func (in medicoInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Nombre, validation.Required, validation.Length(1, 100)),
		validation.Field(&in.Apellido, validation.Required, validation.Length(1, 100)),
		validation.Field(&in.Matricula, validation.Required, validation.Length(2, 20)),
		validation.Field(&in.Especialidad, validation.Required, validation.Length(2, 100)),
		validation.Field(&in.Email, is.Email),
		validation.Field(&in.Telefono, validation.Length(0, 30)),
	)
}

func (in medicoInput) model() models.Medico {
	return models.Medico{
		Nombre:       in.Nombre,
		Apellido:     in.Apellido,
		Matricula:    in.Matricula,
		Especialidad: in.Especialidad,
		Email:        in.Email,
		Telefono:     in.Telefono,
	}
}

// List handles GET /api/medicos.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Store.List(ctx)
	if err != nil {
		h.serverError(w, "list medicos failed", err)
		return
	}
	apiresp.OK(w, http.StatusOK, list)
}

// Get handles GET /api/medicos/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := apiresp.PathID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	m, err := h.Store.GetByID(ctx, id)
	if errors.Is(err, medicostore.ErrNotFound) {
		apiresp.Error(w, http.StatusNotFound, "medico not found")
		return
	}
	if err != nil {
		h.serverError(w, "get medico failed", err)
		return
	}
	apiresp.OK(w, http.StatusOK, m)
}

// Create handles POST /api/medicos.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	in, ok := decode(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	m, err := h.Store.Create(ctx, in.model())
	if errors.Is(err, medicostore.ErrDuplicate) {
		apiresp.Error(w, http.StatusConflict, "a medico with that matricula already exists")
		return
	}
	if err != nil {
		h.serverError(w, "create medico failed", err)
		return
	}
	h.Log.Info("medico created", zap.String("medico_id", m.ID.Hex()))
	apiresp.OK(w, http.StatusCreated, m)
}

// Update handles PUT /api/medicos/{id}.
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

	m, err := h.Store.Update(ctx, id, in.model())
	switch {
	case errors.Is(err, medicostore.ErrNotFound):
		apiresp.Error(w, http.StatusNotFound, "medico not found")
	case errors.Is(err, medicostore.ErrDuplicate):
		apiresp.Error(w, http.StatusConflict, "a medico with that matricula already exists")
	case err != nil:
		h.serverError(w, "update medico failed", err)
	default:
		apiresp.OK(w, http.StatusOK, m)
	}
}

// Delete handles DELETE /api/medicos/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := apiresp.PathID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	err := h.Store.Delete(ctx, id)
	if errors.Is(err, medicostore.ErrNotFound) {
		apiresp.Error(w, http.StatusNotFound, "medico not found")
		return
	}
	if err != nil {
		h.serverError(w, "delete medico failed", err)
		return
	}
	h.Log.Info("medico deleted", zap.String("medico_id", id.Hex()))
	apiresp.JSON(w, http.StatusOK, apiresp.Envelope{Status: "success", Message: "medico deleted"})
}

func decode(w http.ResponseWriter, r *http.Request) (medicoInput, bool) {
	var in medicoInput
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
