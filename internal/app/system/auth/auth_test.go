package auth_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/clinica/internal/app/system/auth"
	"github.com/dalemusser/clinica/internal/domain/models"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

func newTestSessionManager(t *testing.T) *auth.SessionManager {
	t.Helper()
	sm, err := auth.NewSessionManager(
		"test-session-key-must-be-32-chars-long",
		"test-session",
		"",
		24*time.Hour,
		false,
		zap.NewNop(),
	)
	if err != nil {
		t.Fatalf("failed to create session manager: %v", err)
	}
	return sm
}

// okHandler records whether it ran.
func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

// withTestUser injects a SessionUser into the request context for testing.
// This simulates what LoadSessionUser middleware does.
func withTestUser(r *http.Request, role models.Role) *http.Request {
	return auth.WithTestUser(r, &auth.SessionUser{
		ID:       "507f1f77bcf86cd799439011",
		Username: "test@example.com",
		Role:     role,
	})
}

func TestNewSessionManager_EmptyKey(t *testing.T) {
	if _, err := auth.NewSessionManager("", "s", "", time.Hour, false, zap.NewNop()); err == nil {
		t.Error("expected error for empty session key")
	}
}

func TestRequireSignedIn_NoUser_RedirectsToLogin(t *testing.T) {
	sm := newTestSessionManager(t)
	called := false
	handler := sm.RequireSignedIn(okHandler(&called))

	req := httptest.NewRequest("GET", "/pacientes?page=2", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if called {
		t.Error("handler ran without a session")
	}
	if rec.Code != http.StatusSeeOther {
		t.Errorf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}
	location := rec.Header().Get("Location")
	if location != "/login?return=%2Fpacientes%3Fpage%3D2" {
		t.Errorf("Location = %q", location)
	}
}

func TestRequireSignedIn_NoUser_HTMX_ReturnsHXRedirect(t *testing.T) {
	sm := newTestSessionManager(t)
	called := false
	handler := sm.RequireSignedIn(okHandler(&called))

	req := httptest.NewRequest("GET", "/turnos", nil)
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if called {
		t.Error("handler ran without a session")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
	if hx := rec.Header().Get("HX-Redirect"); !strings.HasPrefix(hx, "/login") {
		t.Errorf("HX-Redirect = %q", hx)
	}
}

func TestRequireSignedIn_WithUser_Proceeds(t *testing.T) {
	sm := newTestSessionManager(t)
	called := false
	handler := sm.RequireSignedIn(okHandler(&called))

	req := withTestUser(httptest.NewRequest("GET", "/turnos", nil), models.RolePaciente)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if !called || rec.Code != http.StatusOK {
		t.Errorf("called=%v status=%d", called, rec.Code)
	}
}

func TestRequireSignedInRedirect_UsesTarget(t *testing.T) {
	sm := newTestSessionManager(t)
	called := false
	handler := sm.RequireSignedInRedirect("/")(okHandler(&called))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/usuarios", nil))

	if called {
		t.Error("handler ran without a session")
	}
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Errorf("Location = %q, want /", loc)
	}
}

func TestRequireSignedInAPI_NoUser_Returns401(t *testing.T) {
	sm := newTestSessionManager(t)
	called := false
	handler := sm.RequireSignedInAPI(okHandler(&called))

	req := httptest.NewRequest("GET", "/api/pacientes", nil)
	req.Header.Set("Accept", "text/html")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if called {
		t.Error("handler ran without a session")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
	if body := rec.Body.String(); strings.Contains(body, "session") {
		t.Errorf("401 body leaks internals: %s", body)
	}
}

func TestRequireRole_Administrativo_AllRoles(t *testing.T) {
	sm := newTestSessionManager(t)

	tests := []struct {
		role     models.Role
		allowed  bool
		location string
	}{
		{models.RoleAdministrativo, true, ""},
		{models.RoleMedico, false, "/dashboard/medico"},
		{models.RolePaciente, false, "/dashboard/paciente"},
	}

	for _, tc := range tests {
		t.Run(string(tc.role), func(t *testing.T) {
			called := false
			handler := sm.RequireSignedIn(sm.RequireRole(models.RoleAdministrativo)(okHandler(&called)))

			req := withTestUser(httptest.NewRequest("GET", "/", nil), tc.role)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if called != tc.allowed {
				t.Errorf("handler called = %v, want %v", called, tc.allowed)
			}
			if tc.allowed {
				if rec.Code != http.StatusOK {
					t.Errorf("status = %d, want 200", rec.Code)
				}
				return
			}
			if rec.Code != http.StatusSeeOther {
				t.Errorf("status = %d, want 303", rec.Code)
			}
			if loc := rec.Header().Get("Location"); loc != tc.location {
				t.Errorf("Location = %q, want %q", loc, tc.location)
			}
		})
	}
}

func TestRequireRoleAPI_Administrativo_AllRoles(t *testing.T) {
	sm := newTestSessionManager(t)

	tests := []struct {
		role models.Role
		want int
	}{
		{models.RoleAdministrativo, http.StatusOK},
		{models.RoleMedico, http.StatusForbidden},
		{models.RolePaciente, http.StatusForbidden},
	}

	for _, tc := range tests {
		t.Run(string(tc.role), func(t *testing.T) {
			called := false
			handler := sm.RequireSignedInAPI(sm.RequireRoleAPI(models.RoleAdministrativo)(okHandler(&called)))

			req := withTestUser(httptest.NewRequest("POST", "/api/auth/register", nil), tc.role)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d", rec.Code, tc.want)
			}
			if called != (tc.want == http.StatusOK) {
				t.Errorf("handler called = %v", called)
			}
		})
	}
}

func TestRequireRole_WithoutSignedInGate_FailsClosed(t *testing.T) {
	sm := newTestSessionManager(t)

	called := false
	rec := httptest.NewRecorder()
	sm.RequireRole(models.RoleAdministrativo)(okHandler(&called)).
		ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	if called {
		t.Error("page role guard let an anonymous request through")
	}
	if loc := rec.Header().Get("Location"); loc != "/login" {
		t.Errorf("Location = %q, want /login", loc)
	}

	rec = httptest.NewRecorder()
	sm.RequireRoleAPI(models.RoleAdministrativo)(okHandler(&called)).
		ServeHTTP(rec, httptest.NewRequest("GET", "/api/x", nil))
	if called {
		t.Error("api role guard let an anonymous request through")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRequireRole_UnknownRolePanics(t *testing.T) {
	sm := newTestSessionManager(t)
	defer func() {
		if recover() == nil {
			t.Error("expected panic for unknown role")
		}
	}()
	sm.RequireRole(models.Role("admin"))
}

func TestHasRole(t *testing.T) {
	req := withTestUser(httptest.NewRequest("GET", "/", nil), models.RoleMedico)
	if !auth.HasRole(req, models.RoleAdministrativo, models.RoleMedico) {
		t.Error("expected Medico to match")
	}
	if auth.HasRole(req, models.RolePaciente) {
		t.Error("Medico matched Paciente")
	}
	if auth.HasRole(httptest.NewRequest("GET", "/", nil), models.RolePaciente) {
		t.Error("anonymous request matched a role")
	}
}

func TestCurrentUser_NoUser(t *testing.T) {
	user, ok := auth.CurrentUser(httptest.NewRequest("GET", "/", nil))
	if ok || user != nil {
		t.Error("expected no user in a bare request")
	}
}

func TestLandingPath(t *testing.T) {
	tests := map[models.Role]string{
		models.RoleAdministrativo: "/",
		models.RoleMedico:         "/dashboard/medico",
		models.RolePaciente:       "/dashboard/paciente",
		models.Role(""):           "/login",
	}
	for role, want := range tests {
		if got := auth.LandingPath(role); got != want {
			t.Errorf("LandingPath(%q) = %q, want %q", role, got, want)
		}
	}
}

func TestSessionUser_IsPending(t *testing.T) {
	if !(auth.SessionUser{Username: "new@x.com", Role: models.RolePaciente}).IsPending() {
		t.Error("identity without id should be pending")
	}
	if (auth.SessionUser{ID: "abc", Role: models.RolePaciente}).IsPending() {
		t.Error("identity with id should not be pending")
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Session handle                                                              |
*─────────────────────────────────────────────────────────────────────────────*/

func TestHandle_SetThenLoad(t *testing.T) {
	sm := newTestSessionManager(t)

	// Write the identity.
	req1 := httptest.NewRequest("GET", "/setup", nil)
	rec1 := httptest.NewRecorder()
	h, err := sm.Open(rec1, req1)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	want := auth.SessionUser{
		ID:         "507f1f77bcf86cd799439011",
		Username:   "ana@example.com",
		Role:       models.RolePaciente,
		PacienteID: "507f1f77bcf86cd799439012",
		FirstName:  "Ana",
		LastName:   "Gómez",
	}
	if err := h.Set(want); err != nil {
		t.Fatalf("Set: %v", err)
	}

	// Replay the cookie through LoadSessionUser.
	var got *auth.SessionUser
	handler := sm.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = auth.CurrentUser(r)
	}))
	req2 := httptest.NewRequest("GET", "/", nil)
	for _, c := range rec1.Result().Cookies() {
		req2.AddCookie(c)
	}
	handler.ServeHTTP(httptest.NewRecorder(), req2)

	if got == nil {
		t.Fatal("expected identity from session cookie")
	}
	if *got != want {
		t.Errorf("identity = %+v, want %+v", *got, want)
	}
}

func TestHandle_SetPendingRejected(t *testing.T) {
	sm := newTestSessionManager(t)
	rec := httptest.NewRecorder()
	h, err := sm.Open(rec, httptest.NewRequest("GET", "/", nil))
	if err != nil {
		t.Fatal(err)
	}

	err = h.Set(auth.SessionUser{Username: "new@x.com", Role: models.RolePaciente})
	if !errors.Is(err, auth.ErrPendingIdentity) {
		t.Errorf("Set(pending) error = %v, want ErrPendingIdentity", err)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Error("pending identity wrote a session cookie")
	}
}

func TestHandle_SetInvalidRoleRejected(t *testing.T) {
	sm := newTestSessionManager(t)
	h, _ := sm.Open(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
	if err := h.Set(auth.SessionUser{ID: "x", Role: "root"}); !errors.Is(err, auth.ErrInvalidRole) {
		t.Errorf("error = %v, want ErrInvalidRole", err)
	}
}

func TestHandle_ClearExpiresCookie(t *testing.T) {
	sm := newTestSessionManager(t)
	rec := httptest.NewRecorder()
	h, _ := sm.Open(rec, httptest.NewRequest("POST", "/api/auth/logout", nil))

	if err := h.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	found := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == "test-session" {
			found = true
			if c.MaxAge != -1 {
				t.Errorf("cookie MaxAge: got %d, want -1 (delete)", c.MaxAge)
			}
		}
	}
	if !found {
		t.Error("expected session cookie to be set for deletion")
	}
}

// revokingStore hands out an existing server-side session and records the
// ids it is asked to revoke.
type revokingStore struct {
	id      string
	revoked []string
}

func (s *revokingStore) Get(r *http.Request, name string) (*sessions.Session, error) {
	return s.New(r, name)
}
func (s *revokingStore) New(r *http.Request, name string) (*sessions.Session, error) {
	sess := sessions.NewSession(s, name)
	sess.ID = s.id
	sess.Options = &sessions.Options{Path: "/"}
	return sess, nil
}
func (s *revokingStore) Save(r *http.Request, w http.ResponseWriter, sess *sessions.Session) error {
	return nil
}
func (s *revokingStore) Revoke(ctx context.Context, id string) error {
	s.revoked = append(s.revoked, id)
	return nil
}

func TestHandle_SetRevokesPreviousServerSession(t *testing.T) {
	store := &revokingStore{id: "previous-session-id"}
	sm := auth.NewSessionManagerWithStore(store, "test-session", zap.NewNop())

	h, err := sm.Open(httptest.NewRecorder(), httptest.NewRequest("POST", "/api/auth/login", nil))
	if err != nil {
		t.Fatal(err)
	}
	if err := h.Set(auth.SessionUser{ID: "507f1f77bcf86cd799439011", Role: models.RolePaciente}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if len(store.revoked) != 1 || store.revoked[0] != "previous-session-id" {
		t.Errorf("revoked = %v, want [previous-session-id]", store.revoked)
	}
}

func TestHandle_SetFirstVisitRevokesNothing(t *testing.T) {
	store := &revokingStore{}
	sm := auth.NewSessionManagerWithStore(store, "test-session", zap.NewNop())

	h, _ := sm.Open(httptest.NewRecorder(), httptest.NewRequest("POST", "/api/auth/login", nil))
	if err := h.Set(auth.SessionUser{ID: "507f1f77bcf86cd799439011", Role: models.RolePaciente}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if len(store.revoked) != 0 {
		t.Errorf("revoked = %v, want none", store.revoked)
	}
}

func TestLoadSessionUser_TamperedCookieIsAnonymous(t *testing.T) {
	sm := newTestSessionManager(t)

	called := false
	var signedIn bool
	handler := sm.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		_, signedIn = auth.CurrentUser(r)
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: "test-session", Value: "not-a-valid-signed-value"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if !called {
		t.Fatal("tampered cookie should not block the request")
	}
	if signedIn {
		t.Error("tampered cookie produced an identity")
	}
}

// brokenStore fails every load with a non-decode error.
type brokenStore struct{}

func (brokenStore) Get(r *http.Request, name string) (*sessions.Session, error) {
	return nil, errors.New("backend down")
}
func (brokenStore) New(r *http.Request, name string) (*sessions.Session, error) {
	return nil, errors.New("backend down")
}
func (brokenStore) Save(r *http.Request, w http.ResponseWriter, s *sessions.Session) error {
	return errors.New("backend down")
}

func TestLoadSessionUser_StoreFailureIs500(t *testing.T) {
	sm := auth.NewSessionManagerWithStore(brokenStore{}, "test-session", zap.NewNop())

	called := false
	rec := httptest.NewRecorder()
	sm.LoadSessionUser(okHandler(&called)).ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if called {
		t.Error("handler ran despite session store failure")
	}
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}
