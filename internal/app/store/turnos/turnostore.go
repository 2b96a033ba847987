package turnostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/clinica/internal/app/system/htmlsanitize"
	"github.com/dalemusser/clinica/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound = errors.New("turno not found")
	// ErrBadEstado is returned for an Estado outside TurnoEstados.
	ErrBadEstado = errors.New("estado must be pendiente|confirmado|cancelado|completado")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("turnos")}
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "PacienteID", Value: 1}, {Key: "Fecha", Value: 1}},
			Options: options.Index().SetName("idx_turnos_paciente_fecha"),
		},
		{
			Keys:    bson.D{{Key: "MedicoID", Value: 1}, {Key: "Fecha", Value: 1}},
			Options: options.Index().SetName("idx_turnos_medico_fecha"),
		},
	})
	return err
}

func clean(t *models.Turno) error {
	t.Motivo = htmlsanitize.PlainText(t.Motivo)
	t.Notas = htmlsanitize.PlainText(t.Notas)
	if t.Estado == "" {
		t.Estado = models.TurnoPendiente
	}
	if !validEstado(t.Estado) {
		return ErrBadEstado
	}
	if t.Fecha != nil {
		f := t.Fecha.UTC()
		t.Fecha = &f
	}
	return nil
}

func validEstado(e string) bool {
	for _, v := range models.TurnoEstados {
		if v == e {
			return true
		}
	}
	return false
}

// Create inserts a turno. Motivo and Notas are reduced to plain text.
func (s *Store) Create(ctx context.Context, t models.Turno) (models.Turno, error) {
	if err := clean(&t); err != nil {
		return models.Turno{}, err
	}
	t.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, t); err != nil {
		return models.Turno{}, err
	}
	return t, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Turno, error) {
	var t models.Turno
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Update replaces the editable fields of a turno and returns the result.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, t models.Turno) (models.Turno, error) {
	if err := clean(&t); err != nil {
		return models.Turno{}, err
	}
	set := bson.M{
		"PacienteID": t.PacienteID,
		"MedicoID":   t.MedicoID,
		"Fecha":      t.Fecha,
		"Motivo":     t.Motivo,
		"Estado":     t.Estado,
		"Notas":      t.Notas,
		"updated_at": time.Now().UTC(),
	}

	var out models.Turno
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Turno{}, ErrNotFound
	}
	if err != nil {
		return models.Turno{}, err
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

// CountByEstado counts turnos in the given estado.
func (s *Store) CountByEstado(ctx context.Context, estado string) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"Estado": estado})
}

/*─────────────────────────────────────────────────────────────────────────────*
| Joined reads                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

// ListCompleto returns every turno joined with paciente and medico names,
// ordered by fecha.
func (s *Store) ListCompleto(ctx context.Context) ([]models.TurnoCompleto, error) {
	return s.aggregate(ctx, bson.M{}, bson.D{{Key: "Fecha", Value: 1}}, 0)
}

// RecentCompleto returns the n most recently created turnos, newest first.
func (s *Store) RecentCompleto(ctx context.Context, n int64) ([]models.TurnoCompleto, error) {
	return s.aggregate(ctx, bson.M{}, bson.D{{Key: "_id", Value: -1}}, n)
}

// ListByMedico returns the turnos of one medico ordered by fecha.
func (s *Store) ListByMedico(ctx context.Context, medicoID primitive.ObjectID) ([]models.TurnoCompleto, error) {
	return s.aggregate(ctx, bson.M{"MedicoID": medicoID}, bson.D{{Key: "Fecha", Value: 1}}, 0)
}

// ListByPaciente returns the turnos of one paciente ordered by fecha.
func (s *Store) ListByPaciente(ctx context.Context, pacienteID primitive.ObjectID) ([]models.TurnoCompleto, error) {
	return s.aggregate(ctx, bson.M{"PacienteID": pacienteID}, bson.D{{Key: "Fecha", Value: 1}}, 0)
}

func (s *Store) aggregate(ctx context.Context, match bson.M, sort bson.D, limit int64) ([]models.TurnoCompleto, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$sort", Value: sort}},
	}
	if limit > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: limit}})
	}
	pipeline = append(pipeline,
		lookupOne("pacientes", "PacienteID", "paciente"),
		unwind("$paciente"),
		lookupOne("medicos", "MedicoID", "medico"),
		unwind("$medico"),
		bson.D{{Key: "$addFields", Value: bson.M{
			"PacienteNombre": fullName("$paciente"),
			"MedicoNombre":   fullName("$medico"),
			"Especialidad":   bson.M{"$ifNull": bson.A{"$medico.Especialidad", ""}},
		}}},
		bson.D{{Key: "$project", Value: bson.M{"paciente": 0, "medico": 0}}},
	)

	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate turnos: %w", err)
	}
	defer cur.Close(ctx)

	out := []models.TurnoCompleto{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode turnos: %w", err)
	}
	return out, nil
}

func lookupOne(from, localField, as string) bson.D {
	return bson.D{{Key: "$lookup", Value: bson.M{
		"from":         from,
		"localField":   localField,
		"foreignField": "_id",
		"as":           as,
	}}}
}

// unwind keeps turnos whose paciente or medico was deleted.
func unwind(path string) bson.D {
	return bson.D{{Key: "$unwind", Value: bson.M{
		"path":                       path,
		"preserveNullAndEmptyArrays": true,
	}}}
}

func fullName(doc string) bson.M {
	return bson.M{"$trim": bson.M{"input": bson.M{"$concat": bson.A{
		bson.M{"$ifNull": bson.A{doc + ".Nombre", ""}},
		" ",
		bson.M{"$ifNull": bson.A{doc + ".Apellido", ""}},
	}}}}
}
