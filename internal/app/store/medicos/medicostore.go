package medicostore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/clinica/internal/app/system/normalize"
	"github.com/dalemusser/clinica/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound  = errors.New("medico not found")
	ErrDuplicate = errors.New("a medico with this matricula already exists")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("medicos")}
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "Matricula", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_medicos_matricula"),
		},
		{
			Keys:    bson.D{{Key: "Apellido", Value: 1}, {Key: "Nombre", Value: 1}},
			Options: options.Index().SetName("idx_medicos_apellido_nombre"),
		},
	})
	return err
}

func clean(m *models.Medico) {
	m.Nombre = normalize.Name(m.Nombre)
	m.Apellido = normalize.Name(m.Apellido)
	m.Matricula = strings.ToUpper(strings.TrimSpace(m.Matricula))
	m.Especialidad = normalize.Name(m.Especialidad)
	m.Email = normalize.Email(m.Email)
}

// Create inserts a medico. Matricula is unique.
func (s *Store) Create(ctx context.Context, m models.Medico) (models.Medico, error) {
	clean(&m)
	m.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	m.CreatedAt = now
	m.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, m); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Medico{}, ErrDuplicate
		}
		return models.Medico{}, err
	}
	return m, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Medico, error) {
	var m models.Medico
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// List returns every medico ordered by apellido and nombre.
func (s *Store) List(ctx context.Context) ([]models.Medico, error) {
	return s.find(ctx, options.Find().SetSort(bson.D{{Key: "Apellido", Value: 1}, {Key: "Nombre", Value: 1}}))
}

func (s *Store) find(ctx context.Context, opts *options.FindOptions) ([]models.Medico, error) {
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Medico{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update replaces the editable fields of a medico and returns the result.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, m models.Medico) (models.Medico, error) {
	clean(&m)
	set := bson.M{
		"Nombre":       m.Nombre,
		"Apellido":     m.Apellido,
		"Matricula":    m.Matricula,
		"Especialidad": m.Especialidad,
		"Email":        m.Email,
		"Telefono":     m.Telefono,
		"updated_at":   time.Now().UTC(),
	}

	var out models.Medico
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&out)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return models.Medico{}, ErrNotFound
	case wafflemongo.IsDup(err):
		return models.Medico{}, ErrDuplicate
	case err != nil:
		return models.Medico{}, err
	}
	return out, nil
}

func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) Count(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{})
}
