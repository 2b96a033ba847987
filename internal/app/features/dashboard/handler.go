// Package dashboard serves the landing pages: the clinic-wide dashboard for
// Administrativo staff and the scoped dashboards for medicos and pacientes.
package dashboard

import (
	"context"

	metricsstore "github.com/dalemusser/clinica/internal/app/store/metrics"
	"github.com/dalemusser/clinica/internal/app/system/render"
	"github.com/dalemusser/clinica/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// DBErrorMessage is the banner shown when dashboard data cannot be loaded.
const DBErrorMessage = "Error al obtener datos de la base de datos"

type PacienteReader interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Paciente, error)
	Recent(ctx context.Context, n int64) ([]models.Paciente, error)
}

type MedicoReader interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Medico, error)
	List(ctx context.Context) ([]models.Medico, error)
}

type TurnoReader interface {
	RecentCompleto(ctx context.Context, n int64) ([]models.TurnoCompleto, error)
	ListByMedico(ctx context.Context, medicoID primitive.ObjectID) ([]models.TurnoCompleto, error)
	ListByPaciente(ctx context.Context, pacienteID primitive.ObjectID) ([]models.TurnoCompleto, error)
}

type CountReader interface {
	DashboardCounts(ctx context.Context) (metricsstore.Counts, error)
}

type Handler struct {
	Pacientes PacienteReader
	Medicos   MedicoReader
	Turnos    TurnoReader
	Counts    CountReader
	Render    render.Renderer
	Log       *zap.Logger
}

func NewHandler(pacientes PacienteReader, medicos MedicoReader, turnos TurnoReader, counts CountReader, rr render.Renderer, logger *zap.Logger) *Handler {
	return &Handler{
		Pacientes: pacientes,
		Medicos:   medicos,
		Turnos:    turnos,
		Counts:    counts,
		Render:    rr,
		Log:       logger,
	}
}
