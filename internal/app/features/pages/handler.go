// Package pages serves the management pages for pacientes, medicos, turnos
// and user accounts. Lists are rendered server-side; create and delete
// actions post to the JSON APIs through htmx.
package pages

import (
	"context"

	"github.com/dalemusser/clinica/internal/app/system/render"
	"github.com/dalemusser/clinica/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// DBErrorMessage is the banner shown when a list cannot be loaded.
const DBErrorMessage = "Error al obtener datos de la base de datos"

type PacienteLister interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Paciente, error)
	List(ctx context.Context) ([]models.Paciente, error)
}

type MedicoLister interface {
	List(ctx context.Context) ([]models.Medico, error)
}

type TurnoLister interface {
	ListCompleto(ctx context.Context) ([]models.TurnoCompleto, error)
	ListByMedico(ctx context.Context, medicoID primitive.ObjectID) ([]models.TurnoCompleto, error)
	ListByPaciente(ctx context.Context, pacienteID primitive.ObjectID) ([]models.TurnoCompleto, error)
}

type UserLister interface {
	List(ctx context.Context) ([]models.User, error)
}

// Handler owns the management page handlers.
type Handler struct {
	Pacientes PacienteLister
	Medicos   MedicoLister
	Turnos    TurnoLister
	Users     UserLister
	Render    render.Renderer
	Log       *zap.Logger
}

func NewHandler(pacientes PacienteLister, medicos MedicoLister, turnos TurnoLister, users UserLister, rr render.Renderer, logger *zap.Logger) *Handler {
	return &Handler{
		Pacientes: pacientes,
		Medicos:   medicos,
		Turnos:    turnos,
		Users:     users,
		Render:    rr,
		Log:       logger,
	}
}
