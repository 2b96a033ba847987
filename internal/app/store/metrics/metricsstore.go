package metricsstore

import (
	"context"
	"fmt"

	"github.com/dalemusser/clinica/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Counts is the set of totals shown on the admin dashboard.
type Counts struct {
	Pacientes        int64
	Medicos          int64
	Turnos           int64
	TurnosPendientes int64
	Usuarios         int64
}

// Store reads dashboard totals straight from the collections.
type Store struct {
	db *mongo.Database
}

func New(db *mongo.Database) *Store {
	return &Store{db: db}
}

// DashboardCounts returns the high-level counts used by the admin dashboard.
// Any failed count fails the whole call so the dashboard can degrade as one.
func (s *Store) DashboardCounts(ctx context.Context) (Counts, error) {
	var out Counts
	counts := []struct {
		coll   string
		filter bson.M
		dst    *int64
	}{
		{"pacientes", bson.M{}, &out.Pacientes},
		{"medicos", bson.M{}, &out.Medicos},
		{"turnos", bson.M{}, &out.Turnos},
		{"turnos", bson.M{"Estado": models.TurnoPendiente}, &out.TurnosPendientes},
		{"usuarios", bson.M{}, &out.Usuarios},
	}
	for _, c := range counts {
		n, err := s.db.Collection(c.coll).CountDocuments(ctx, c.filter)
		if err != nil {
			return Counts{}, fmt.Errorf("count %s: %w", c.coll, err)
		}
		*c.dst = n
	}
	return out, nil
}
