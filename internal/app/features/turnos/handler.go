// Package turnos serves the /api/turnos JSON API.
//
// Administrativo staff manage every turno. A medico or paciente only ever
// sees turnos on their own profile, and a paciente may book new turnos for
// themselves.
package turnos

import (
	"context"

	"github.com/dalemusser/clinica/internal/app/system/auth"
	"github.com/dalemusser/clinica/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type Store interface {
	Create(ctx context.Context, t models.Turno) (models.Turno, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Turno, error)
	Update(ctx context.Context, id primitive.ObjectID, t models.Turno) (models.Turno, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	ListCompleto(ctx context.Context) ([]models.TurnoCompleto, error)
	ListByMedico(ctx context.Context, medicoID primitive.ObjectID) ([]models.TurnoCompleto, error)
	ListByPaciente(ctx context.Context, pacienteID primitive.ObjectID) ([]models.TurnoCompleto, error)
}

// PacienteLookup and MedicoLookup verify the references on a turno.
type PacienteLookup interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Paciente, error)
}

type MedicoLookup interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Medico, error)
}

type Handler struct {
	Store     Store
	Pacientes PacienteLookup
	Medicos   MedicoLookup
	Log       *zap.Logger
}

func NewHandler(store Store, pacientes PacienteLookup, medicos MedicoLookup, logger *zap.Logger) *Handler {
	return &Handler{
		Store:     store,
		Pacientes: pacientes,
		Medicos:   medicos,
		Log:       logger,
	}
}

// scope describes which turnos the caller may see.
type scope struct {
	all      bool
	medico   primitive.ObjectID
	paciente primitive.ObjectID
}

// scopeFor derives the caller's scope. A medico or paciente without a linked
// profile gets an empty scope that matches nothing.
func scopeFor(u *auth.SessionUser) scope {
	switch u.Role {
	case models.RoleAdministrativo:
		return scope{all: true}
	case models.RoleMedico:
		id, _ := primitive.ObjectIDFromHex(u.MedicoID)
		return scope{medico: id}
	case models.RolePaciente:
		id, _ := primitive.ObjectIDFromHex(u.PacienteID)
		return scope{paciente: id}
	}
	return scope{}
}

func (s scope) allows(t models.Turno) bool {
	switch {
	case s.all:
		return true
	case !s.medico.IsZero():
		return t.MedicoID == s.medico
	case !s.paciente.IsZero():
		return t.PacienteID == s.paciente
	}
	return false
}
