package pacientestore

import (
	"context"
	"errors"
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
	ErrNotFound  = errors.New("paciente not found")
	ErrDuplicate = errors.New("a paciente with this DNI already exists")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("pacientes")}
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "DNI", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_pacientes_dni"),
		},
		{
			Keys:    bson.D{{Key: "Apellido", Value: 1}, {Key: "Nombre", Value: 1}},
			Options: options.Index().SetName("idx_pacientes_apellido_nombre"),
		},
	})
	return err
}

func clean(p *models.Paciente) {
	p.Nombre = normalize.Name(p.Nombre)
	p.Apellido = normalize.Name(p.Apellido)
	p.DNI = normalize.DNI(p.DNI)
	p.Email = normalize.Email(p.Email)
}

// Create inserts a paciente. DNI is unique.
func (s *Store) Create(ctx context.Context, p models.Paciente) (models.Paciente, error) {
	clean(&p)
	p.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, p); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Paciente{}, ErrDuplicate
		}
		return models.Paciente{}, err
	}
	return p, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Paciente, error) {
	var p models.Paciente
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns every paciente in insertion order.
func (s *Store) List(ctx context.Context) ([]models.Paciente, error) {
	return s.find(ctx, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
}

// Recent returns the n most recently created pacientes, newest first.
func (s *Store) Recent(ctx context.Context, n int64) ([]models.Paciente, error) {
	return s.find(ctx, options.Find().SetSort(bson.D{{Key: "_id", Value: -1}}).SetLimit(n))
}

func (s *Store) find(ctx context.Context, opts *options.FindOptions) ([]models.Paciente, error) {
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Paciente{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update replaces the editable fields of a paciente and returns the result.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, p models.Paciente) (models.Paciente, error) {
	clean(&p)
	set := bson.M{
		"Nombre":          p.Nombre,
		"Apellido":        p.Apellido,
		"DNI":             p.DNI,
		"Email":           p.Email,
		"Telefono":        p.Telefono,
		"FechaNacimiento": p.FechaNacimiento,
		"ObraSocial":      p.ObraSocial,
		"updated_at":      time.Now().UTC(),
	}

	var out models.Paciente
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&out)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return models.Paciente{}, ErrNotFound
	case wafflemongo.IsDup(err):
		return models.Paciente{}, ErrDuplicate
	case err != nil:
		return models.Paciente{}, err
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
