package authapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/dalemusser/clinica/internal/app/features/authapi"
	"github.com/dalemusser/clinica/internal/app/system/auth"
	"github.com/dalemusser/clinica/internal/domain/models"
	"github.com/dalemusser/clinica/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var errStore = errors.New("store unavailable")

func registerReq(t *testing.T, body map[string]string, user *auth.SessionUser) *http.Request {
	t.Helper()
	b, _ := json.Marshal(body)
	req := testutil.NewJSONRequest(http.MethodPost, "/register", string(b))
	if user != nil {
		req = testutil.WithUser(req, *user)
	}
	return req
}

func TestRegister_Gates(t *testing.T) {
	f := newFixture(t)
	body := map[string]string{"username": "nuevo@clinica.test", "password": "segura-123", "role": "Administrativo"}

	f.do(registerReq(t, body, nil)).AssertStatus(t, http.StatusUnauthorized)

	medico := testutil.MedicoUser(primitive.NewObjectID())
	f.do(registerReq(t, body, &medico)).AssertStatus(t, http.StatusForbidden)

	paciente := testutil.PacienteUser(primitive.NewObjectID())
	f.do(registerReq(t, body, &paciente)).AssertStatus(t, http.StatusForbidden)
}

func TestRegister_CreatesAccount(t *testing.T) {
	f := newFixture(t)
	admin := testutil.AdminUser()
	medicoID := primitive.NewObjectID()

	rec := f.do(registerReq(t, map[string]string{
		"username":  "Dra.Lopez@Clinica.test",
		"password":  "segura-123",
		"role":      "Medico",
		"firstName": "Ana",
		"lastName":  "López",
		"medicoId":  medicoID.Hex(),
	}, &admin))

	rec.AssertStatus(t, http.StatusCreated)
	if strings.Contains(rec.Body.String(), "segura-123") || strings.Contains(rec.Body.String(), "PasswordHash") {
		t.Error("response leaks password material")
	}

	u, err := f.users.GetByUsername(context.Background(), "dra.lopez@clinica.test")
	if err != nil {
		t.Fatalf("account not stored: %v", err)
	}
	if u.Role != models.RoleMedico || u.MedicoRef == nil || *u.MedicoRef != medicoID {
		t.Errorf("stored account = %+v", u)
	}
}

func TestRegister_Duplicate(t *testing.T) {
	f := newFixture(t, account(t, "admin@clinica.test", models.RoleAdministrativo))
	admin := testutil.AdminUser()

	rec := f.do(registerReq(t, map[string]string{
		"username": "admin@clinica.test", "password": "segura-123", "role": "Administrativo",
	}, &admin))
	rec.AssertStatus(t, http.StatusConflict)
}

func TestRegister_Validation(t *testing.T) {
	f := newFixture(t)
	admin := testutil.AdminUser()

	tests := []struct {
		name  string
		body  map[string]string
		field string
	}{
		{"bad email", map[string]string{"username": "no-es-email", "password": "segura-123", "role": "Administrativo"}, "username"},
		{"short password", map[string]string{"username": "a@clinica.test", "password": "corta", "role": "Administrativo"}, "password"},
		{"unknown role", map[string]string{"username": "a@clinica.test", "password": "segura-123", "role": "Enfermero"}, "role"},
		{"medico without profile", map[string]string{"username": "a@clinica.test", "password": "segura-123", "role": "Medico"}, "medicoId"},
		{"paciente with bad ref", map[string]string{"username": "a@clinica.test", "password": "segura-123", "role": "Paciente", "pacienteId": "xyz"}, "pacienteId"},
		{"paciente with medico ref", map[string]string{"username": "a@clinica.test", "password": "segura-123", "role": "Paciente", "pacienteId": primitive.NewObjectID().Hex(), "medicoId": primitive.NewObjectID().Hex()}, "medicoId"},
		{"administrativo with paciente ref", map[string]string{"username": "a@clinica.test", "password": "segura-123", "role": "Administrativo", "pacienteId": primitive.NewObjectID().Hex()}, "pacienteId"},
		{"medico with paciente ref", map[string]string{"username": "a@clinica.test", "password": "segura-123", "role": "Medico", "medicoId": primitive.NewObjectID().Hex(), "pacienteId": primitive.NewObjectID().Hex()}, "pacienteId"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(registerReq(t, tt.body, &admin))
			rec.AssertStatus(t, http.StatusBadRequest)
			rec.AssertContains(t, tt.field)
		})
	}
	if f.users.Len() != 0 {
		t.Errorf("invalid requests stored %d accounts", f.users.Len())
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Public patient sign-up                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

func signupBody() map[string]string {
	return map[string]string{
		"email":           "juan@correo.test",
		"password":        "segura-123",
		"nombre":          "Juan",
		"apellido":        "García",
		"dni":             "30111222",
		"fechaNacimiento": "1985-04-12",
	}
}

func signupJSON(body map[string]string) *http.Request {
	b, _ := json.Marshal(body)
	return testutil.NewJSONRequest(http.MethodPost, "/register-paciente-public", string(b))
}

func TestRegisterPacientePublic_JSON(t *testing.T) {
	f := newFixture(t)

	rec := f.do(signupJSON(signupBody()))
	rec.AssertStatus(t, http.StatusCreated)
	rec.AssertContains(t, authapi.RegisteredPath)

	u, err := f.users.GetByUsername(context.Background(), "juan@correo.test")
	if err != nil {
		t.Fatalf("account not created: %v", err)
	}
	if u.Role != models.RolePaciente || u.PacienteRef == nil {
		t.Fatalf("account = %+v", u)
	}
	p, err := f.pacientes.GetByID(context.Background(), *u.PacienteRef)
	if err != nil {
		t.Fatalf("paciente not created: %v", err)
	}
	if p.DNI != "30111222" || p.FechaNacimiento == nil {
		t.Errorf("paciente = %+v", p)
	}
	if rec.SessionCookie(testSessionName) != nil {
		t.Error("sign-up must not sign the visitor in")
	}
}

func TestRegisterPacientePublic_Form(t *testing.T) {
	f := newFixture(t)

	form := url.Values{}
	for k, v := range signupBody() {
		form.Set(k, v)
	}
	req := httptest.NewRequest(http.MethodPost, "/register-paciente-public", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := f.do(req)
	rec.AssertRedirect(t, authapi.RegisteredPath)
}

func TestRegisterPacientePublic_FormErrorKeepsInput(t *testing.T) {
	f := newFixture(t)

	form := url.Values{"email": {"juan@correo.test"}, "nombre": {"Juan"}, "apellido": {"García"}}
	req := httptest.NewRequest(http.MethodPost, "/register-paciente-public", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := f.do(req)
	rec.AssertStatus(t, http.StatusSeeOther)
	loc, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("parse location: %v", err)
	}
	if loc.Path != auth.RegistroPacientePath {
		t.Errorf("path = %q", loc.Path)
	}
	q := loc.Query()
	if q.Get("error") != "invalid" || q.Get("googleEmail") != "juan@correo.test" || q.Get("googleLastName") != "García" {
		t.Errorf("query = %v", q)
	}
	if q.Has("password") {
		t.Error("password must not round-trip through the URL")
	}
}

func TestRegisterPacientePublic_UsernameTaken(t *testing.T) {
	f := newFixture(t, account(t, "juan@correo.test", models.RolePaciente))

	rec := f.do(signupJSON(signupBody()))
	rec.AssertStatus(t, http.StatusConflict)
	if f.pacientes.Len() != 0 {
		t.Error("no profile should be created for a taken username")
	}
}

func TestRegisterPacientePublic_DuplicateDNI(t *testing.T) {
	f := newFixture(t)
	if _, err := f.pacientes.Create(context.Background(), models.Paciente{Nombre: "Otro", Apellido: "Paciente", DNI: "30111222"}); err != nil {
		t.Fatal(err)
	}

	rec := f.do(signupJSON(signupBody()))
	rec.AssertStatus(t, http.StatusConflict)
	if f.users.Len() != 0 {
		t.Error("no account should be created for a duplicate DNI")
	}
}

// failingCreate lets GetByUsername succeed with not-found but fails Create,
// forcing the profile rollback.
type failingCreate struct {
	*testutil.FakeUsers
}

func (failingCreate) Create(ctx context.Context, u models.User) (models.User, error) {
	return models.User{}, errStore
}

func TestRegisterPacientePublic_RollsBackProfile(t *testing.T) {
	f := newFixture(t)
	f.handler.Accounts = failingCreate{f.users}

	rec := f.do(signupJSON(signupBody()))
	rec.AssertStatus(t, http.StatusInternalServerError)
	if f.pacientes.Len() != 0 {
		t.Errorf("paciente left behind after failed account create: %d", f.pacientes.Len())
	}
}
