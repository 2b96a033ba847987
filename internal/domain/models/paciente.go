// internal/domain/models/paciente.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Paciente is a patient profile.
type Paciente struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Nombre          string             `bson:"Nombre" json:"nombre"`
	Apellido        string             `bson:"Apellido" json:"apellido"`
	DNI             string             `bson:"DNI" json:"dni"`
	Email           string             `bson:"Email,omitempty" json:"email,omitempty"`
	Telefono        string             `bson:"Telefono,omitempty" json:"telefono,omitempty"`
	FechaNacimiento *time.Time         `bson:"FechaNacimiento,omitempty" json:"fechaNacimiento,omitempty"`
	ObraSocial      string             `bson:"ObraSocial,omitempty" json:"obraSocial,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// FullName returns "Nombre Apellido".
func (p Paciente) FullName() string {
	return joinName(p.Nombre, p.Apellido)
}
