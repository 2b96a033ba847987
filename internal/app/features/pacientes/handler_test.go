package pacientes_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/clinica/internal/app/features/pacientes"
	"github.com/dalemusser/clinica/internal/app/system/auth"
	"github.com/dalemusser/clinica/internal/domain/models"
	"github.com/dalemusser/clinica/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type envelope struct {
	Status  string            `json:"status"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
}

func setup(t *testing.T) (http.Handler, *testutil.FakePacientes, models.Paciente) {
	t.Helper()
	sm, err := auth.NewSessionManager("test-session-key-must-be-32-chars-long", "test-session", "", time.Hour, false, zap.NewNop())
	require.NoError(t, err)

	store := testutil.NewFakePacientes()
	juan, err := store.Create(context.Background(), models.Paciente{Nombre: "Juan", Apellido: "García", DNI: "30111222"})
	require.NoError(t, err)
	_, err = store.Create(context.Background(), models.Paciente{Nombre: "Ana", Apellido: "Ruiz", DNI: "30111333"})
	require.NoError(t, err)

	return pacientes.Routes(pacientes.NewHandler(store, zap.NewNop()), sm), store, juan
}

func do(t *testing.T, h http.Handler, req *http.Request, user *auth.SessionUser) (*testutil.ResponseRecorder, envelope) {
	t.Helper()
	if user != nil {
		req = testutil.WithUser(req, *user)
	}
	rec := testutil.NewRecorder()
	h.ServeHTTP(rec, req)
	var env envelope
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	return rec, env
}

func ptr(u auth.SessionUser) *auth.SessionUser { return &u }

func TestRequiresSignIn(t *testing.T) {
	h, _, _ := setup(t)

	rec, env := do(t, h, testutil.NewRequest(http.MethodGet, "/"), nil)
	rec.AssertStatus(t, http.StatusUnauthorized)
	assert.Equal(t, "error", env.Status)
}

func TestList_ScopedForPaciente(t *testing.T) {
	h, _, juan := setup(t)

	var list []models.Paciente

	_, env := do(t, h, testutil.NewRequest(http.MethodGet, "/"), ptr(testutil.AdminUser()))
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Len(t, list, 2)

	_, env = do(t, h, testutil.NewRequest(http.MethodGet, "/"), ptr(testutil.MedicoUser(primitive.NewObjectID())))
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Len(t, list, 2)

	_, env = do(t, h, testutil.NewRequest(http.MethodGet, "/"), ptr(testutil.PacienteUser(juan.ID)))
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 1)
	assert.Equal(t, juan.ID, list[0].ID)
}

func TestGet(t *testing.T) {
	h, store, juan := setup(t)
	others, _ := store.List(context.Background())
	ana := others[1]

	rec, env := do(t, h, testutil.NewRequest(http.MethodGet, "/"+juan.ID.Hex()), ptr(testutil.AdminUser()))
	rec.AssertStatus(t, http.StatusOK)
	var got models.Paciente
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "30111222", got.DNI)

	rec, _ = do(t, h, testutil.NewRequest(http.MethodGet, "/"+primitive.NewObjectID().Hex()), ptr(testutil.AdminUser()))
	rec.AssertStatus(t, http.StatusNotFound)

	rec, _ = do(t, h, testutil.NewRequest(http.MethodGet, "/zzz"), ptr(testutil.AdminUser()))
	rec.AssertStatus(t, http.StatusBadRequest)

	// Another paciente's record looks exactly like a missing one.
	rec, _ = do(t, h, testutil.NewRequest(http.MethodGet, "/"+ana.ID.Hex()), ptr(testutil.PacienteUser(juan.ID)))
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestWrites_AdminOnly(t *testing.T) {
	h, _, juan := setup(t)
	body := `{"nombre":"Eva","apellido":"Luna","dni":"40111222"}`

	for name, u := range map[string]auth.SessionUser{
		"medico":   testutil.MedicoUser(primitive.NewObjectID()),
		"paciente": testutil.PacienteUser(juan.ID),
	} {
		t.Run(name, func(t *testing.T) {
			rec, _ := do(t, h, testutil.NewJSONRequest(http.MethodPost, "/", body), &u)
			rec.AssertStatus(t, http.StatusForbidden)
			rec, _ = do(t, h, testutil.NewJSONRequest(http.MethodPut, "/"+juan.ID.Hex(), body), &u)
			rec.AssertStatus(t, http.StatusForbidden)
			rec, _ = do(t, h, testutil.NewRequest(http.MethodDelete, "/"+juan.ID.Hex()), &u)
			rec.AssertStatus(t, http.StatusForbidden)
		})
	}
}

func TestCreate(t *testing.T) {
	h, store, _ := setup(t)
	admin := ptr(testutil.AdminUser())

	rec, env := do(t, h, testutil.NewJSONRequest(http.MethodPost, "/",
		`{"nombre":"Eva","apellido":"Luna","dni":"40111222","email":"eva@correo.test","fechaNacimiento":"1990-02-28"}`), admin)
	rec.AssertStatus(t, http.StatusCreated)
	var created models.Paciente
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.False(t, created.ID.IsZero())
	require.NotNil(t, created.FechaNacimiento)
	assert.Equal(t, 3, store.Len())

	rec, _ = do(t, h, testutil.NewJSONRequest(http.MethodPost, "/", `{"nombre":"Otra","apellido":"Vez","dni":"40111222"}`), admin)
	rec.AssertStatus(t, http.StatusConflict)

	rec, env = do(t, h, testutil.NewJSONRequest(http.MethodPost, "/", `{"nombre":"","apellido":"X","dni":"1","email":"nope"}`), admin)
	rec.AssertStatus(t, http.StatusBadRequest)
	assert.Contains(t, env.Errors, "nombre")
	assert.Contains(t, env.Errors, "dni")
	assert.Contains(t, env.Errors, "email")

	rec, _ = do(t, h, testutil.NewJSONRequest(http.MethodPost, "/", `{"nombre":"Eva","sorpresa":true}`), admin)
	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestUpdateAndDelete(t *testing.T) {
	h, store, juan := setup(t)
	admin := ptr(testutil.AdminUser())

	rec, env := do(t, h, testutil.NewJSONRequest(http.MethodPut, "/"+juan.ID.Hex(),
		`{"nombre":"Juan Carlos","apellido":"García","dni":"30111222"}`), admin)
	rec.AssertStatus(t, http.StatusOK)
	var updated models.Paciente
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, "Juan Carlos", updated.Nombre)

	missing := primitive.NewObjectID().Hex()
	rec, _ = do(t, h, testutil.NewJSONRequest(http.MethodPut, "/"+missing, `{"nombre":"X","apellido":"Y","dni":"99999999"}`), admin)
	rec.AssertStatus(t, http.StatusNotFound)

	rec, _ = do(t, h, testutil.NewRequest(http.MethodDelete, "/"+juan.ID.Hex()), admin)
	rec.AssertStatus(t, http.StatusOK)
	assert.Equal(t, 1, store.Len())

	rec, _ = do(t, h, testutil.NewRequest(http.MethodDelete, "/"+juan.ID.Hex()), admin)
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestStoreFailure(t *testing.T) {
	h, store, _ := setup(t)
	store.Err = errors.New("connection reset")

	rec, env := do(t, h, testutil.NewRequest(http.MethodGet, "/"), ptr(testutil.AdminUser()))
	rec.AssertStatus(t, http.StatusInternalServerError)
	assert.Equal(t, "internal error", env.Message)
}
