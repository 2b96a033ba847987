// internal/domain/models/loginhistory.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Login providers recorded in LoginRecord.Provider.
const (
	ProviderPassword = "password"
	ProviderGoogle   = "google"
)

// LoginRecord captures a single successful login event.
// CreatedAt is indexed for recent-activity views.
type LoginRecord struct {
	UserID    primitive.ObjectID `bson:"user_id"`
	Role      Role               `bson:"role"`
	CreatedAt time.Time          `bson:"created_at"`
	IP        string             `bson:"ip"`
	Provider  string             `bson:"provider"`
}
