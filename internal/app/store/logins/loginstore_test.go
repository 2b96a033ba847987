package loginstore_test

import (
	"net/http/httptest"
	"testing"

	loginstore "github.com/dalemusser/clinica/internal/app/store/logins"
	"github.com/dalemusser/clinica/internal/domain/models"
	"github.com/dalemusser/clinica/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_CreateFromAndList(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := loginstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	r := httptest.NewRequest("POST", "/api/auth/login", nil)
	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")

	if err := store.CreateFrom(ctx, r, userID, models.RolePaciente, models.ProviderGoogle); err != nil {
		t.Fatalf("CreateFrom failed: %v", err)
	}

	recs, err := store.ListByUser(ctx, userID, 10)
	if err != nil {
		t.Fatalf("ListByUser failed: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("len = %d, want 1", len(recs))
	}
	got := recs[0]
	if got.IP != "203.0.113.9" {
		t.Errorf("IP: got %q", got.IP)
	}
	if got.Provider != models.ProviderGoogle || got.Role != models.RolePaciente {
		t.Errorf("record = %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
}
