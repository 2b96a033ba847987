// internal/domain/models/medico.go
package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Medico is a doctor profile.
type Medico struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Nombre       string             `bson:"Nombre" json:"nombre"`
	Apellido     string             `bson:"Apellido" json:"apellido"`
	Matricula    string             `bson:"Matricula" json:"matricula"`
	Especialidad string             `bson:"Especialidad" json:"especialidad"`
	Email        string             `bson:"Email,omitempty" json:"email,omitempty"`
	Telefono     string             `bson:"Telefono,omitempty" json:"telefono,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// FullName returns "Nombre Apellido".
func (m Medico) FullName() string {
	return joinName(m.Nombre, m.Apellido)
}

func joinName(first, last string) string {
	return strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
}
