// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is an account in the usuarios collection.
//
// Username is the account email, stored lowercase and unique.
// MedicoRef/PacienteRef link the account to its clinical profile and are
// only set when Role matches.
type User struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Username     string              `bson:"Username" json:"username"`
	PasswordHash string              `bson:"PasswordHash,omitempty" json:"-"`
	Role         Role                `bson:"Role" json:"role"`
	MedicoRef    *primitive.ObjectID `bson:"MedicoRef,omitempty" json:"medicoId,omitempty"`
	PacienteRef  *primitive.ObjectID `bson:"PacienteRef,omitempty" json:"pacienteId,omitempty"`
	FirstName    string              `bson:"FirstName,omitempty" json:"firstName,omitempty"`
	LastName     string              `bson:"LastName,omitempty" json:"lastName,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
