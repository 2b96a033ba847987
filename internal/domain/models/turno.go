// internal/domain/models/turno.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Turno estados.
const (
	TurnoPendiente  = "pendiente"
	TurnoConfirmado = "confirmado"
	TurnoCancelado  = "cancelado"
	TurnoCompletado = "completado"
)

// TurnoEstados lists the accepted Estado values.
var TurnoEstados = []string{TurnoPendiente, TurnoConfirmado, TurnoCancelado, TurnoCompletado}

// Turno is an appointment linking a paciente and a medico.
// Fecha is stored in UTC; a nil Fecha means the date was never set.
type Turno struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PacienteID primitive.ObjectID `bson:"PacienteID" json:"pacienteId"`
	MedicoID   primitive.ObjectID `bson:"MedicoID" json:"medicoId"`
	Fecha      *time.Time         `bson:"Fecha,omitempty" json:"fecha,omitempty"`
	Motivo     string             `bson:"Motivo,omitempty" json:"motivo,omitempty"`
	Estado     string             `bson:"Estado" json:"estado"`
	Notas      string             `bson:"Notas,omitempty" json:"notas,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// TurnoCompleto is a Turno joined with the names of its paciente and medico.
type TurnoCompleto struct {
	Turno          `bson:",inline"`
	PacienteNombre string `bson:"PacienteNombre" json:"pacienteNombre"`
	MedicoNombre   string `bson:"MedicoNombre" json:"medicoNombre"`
	Especialidad   string `bson:"Especialidad" json:"especialidad"`
}
