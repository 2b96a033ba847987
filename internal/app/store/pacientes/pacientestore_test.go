package pacientestore_test

import (
	"errors"
	"testing"

	pacientestore "github.com/dalemusser/clinica/internal/app/store/pacientes"
	"github.com/dalemusser/clinica/internal/domain/models"
	"github.com/dalemusser/clinica/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_CreateNormalizesDNI(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := pacientestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	p, err := store.Create(ctx, models.Paciente{Nombre: " Juan ", Apellido: "García", DNI: "30.456.789"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if p.DNI != "30456789" {
		t.Errorf("DNI = %q, want 30456789", p.DNI)
	}
	if p.Nombre != "Juan" {
		t.Errorf("Nombre = %q, want trimmed", p.Nombre)
	}
}

func TestStore_Create_DuplicateDNI(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := pacientestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes failed: %v", err)
	}
	if _, err := store.Create(ctx, models.Paciente{Nombre: "A", DNI: "1"}); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Create(ctx, models.Paciente{Nombre: "B", DNI: "1"}); !errors.Is(err, pacientestore.ErrDuplicate) {
		t.Errorf("error = %v, want ErrDuplicate", err)
	}
}

func TestStore_RecentNewestFirst(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := pacientestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for _, dni := range []string{"1", "2", "3"} {
		if _, err := store.Create(ctx, models.Paciente{Nombre: "P" + dni, DNI: dni}); err != nil {
			t.Fatal(err)
		}
	}

	got, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(got) != 2 || got[0].DNI != "3" || got[1].DNI != "2" {
		t.Errorf("Recent = %+v, want DNI 3 then 2", got)
	}
}

func TestStore_Update_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := pacientestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.Update(ctx, primitive.NewObjectID(), models.Paciente{Nombre: "X", DNI: "9"})
	if !errors.Is(err, pacientestore.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}
