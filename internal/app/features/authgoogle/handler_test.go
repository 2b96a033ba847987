package authgoogle

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
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type fakeStates struct {
	saved   map[string]string
	err     error
	expires time.Time
}

func (f *fakeStates) Save(ctx context.Context, state, returnURL string, expiresAt time.Time) error {
	if f.err != nil {
		return f.err
	}
	if f.saved == nil {
		f.saved = map[string]string{}
	}
	f.saved[state] = returnURL
	f.expires = expiresAt
	return nil
}

func (f *fakeStates) Validate(ctx context.Context, state string) (string, bool, error) {
	if f.err != nil {
		return "", false, f.err
	}
	ret, ok := f.saved[state]
	delete(f.saved, state)
	return ret, ok, nil
}

type fakeProfiles struct {
	profile Profile
	err     error
}

func (f fakeProfiles) Fetch(ctx context.Context, code string) (Profile, error) {
	return f.profile, f.err
}

type fakeLogins struct{ recorded []primitive.ObjectID }

func (f *fakeLogins) CreateFrom(ctx context.Context, r *http.Request, userID primitive.ObjectID, role models.Role, provider string) error {
	f.recorded = append(f.recorded, userID)
	return nil
}

func newTestHandler(t *testing.T, accts *fakeAccounts, profile Profile) (*Handler, *fakeStates, *fakeLogins) {
	t.Helper()
	sm, err := auth.NewSessionManager("test-session-key-must-be-32-chars-long", "test-session", "", time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("session manager: %v", err)
	}
	states := &fakeStates{saved: map[string]string{"good-state": ""}}
	logins := &fakeLogins{}
	h := NewHandler(Config{ClientID: "id", ClientSecret: "secret", RedirectURL: "http://localhost/api/auth/google/callback"},
		accts, states, logins, sm, zap.NewNop())
	h.Profiles = fakeProfiles{profile: profile}
	return h, states, logins
}

func callback(h *Handler, rawQuery string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", "/api/auth/google/callback?"+rawQuery, nil)
	rec := httptest.NewRecorder()
	h.ServeCallback(rec, req)
	return rec
}

func hasSessionCookie(rec *httptest.ResponseRecorder) bool {
	for _, c := range rec.Result().Cookies() {
		if c.Name == "test-session" {
			return true
		}
	}
	return false
}

func TestServeLogin_NotConfigured(t *testing.T) {
	h, _, _ := newTestHandler(t, &fakeAccounts{}, Profile{})
	h.Config = Config{}

	rec := httptest.NewRecorder()
	h.ServeLogin(rec, httptest.NewRequest("GET", "/api/auth/google", nil))

	if loc := rec.Header().Get("Location"); loc != "/login?error=google_not_configured" {
		t.Errorf("Location = %q", loc)
	}
}

func TestServeLogin_RedirectsToGoogleWithState(t *testing.T) {
	h, states, _ := newTestHandler(t, &fakeAccounts{}, Profile{})
	states.saved = nil

	rec := httptest.NewRecorder()
	h.ServeLogin(rec, httptest.NewRequest("GET", "/api/auth/google", nil))

	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("status = %d, want 307", rec.Code)
	}
	loc := rec.Header().Get("Location")
	if !strings.HasPrefix(loc, "https://accounts.google.com/") {
		t.Errorf("Location = %q, want Google consent", loc)
	}
	if len(states.saved) != 1 {
		t.Fatalf("saved %d states, want 1", len(states.saved))
	}
	for state := range states.saved {
		if !strings.Contains(loc, "state="+state) {
			t.Errorf("consent URL does not carry saved state")
		}
	}
	if ttl := time.Until(states.expires); ttl < 9*time.Minute || ttl > StateTTL {
		t.Errorf("state TTL = %v, want about %v", ttl, StateTTL)
	}
}

func TestServeLogin_StateStoreFailure(t *testing.T) {
	h, states, _ := newTestHandler(t, &fakeAccounts{}, Profile{})
	states.err = errors.New("db down")

	rec := httptest.NewRecorder()
	h.ServeLogin(rec, httptest.NewRequest("GET", "/api/auth/google", nil))

	if loc := rec.Header().Get("Location"); loc != "/login?error=google" {
		t.Errorf("Location = %q", loc)
	}
}

func TestServeCallback_PendingRedirectsToRegistration(t *testing.T) {
	h, _, logins := newTestHandler(t, &fakeAccounts{}, Profile{Email: "new@x.com", FirstName: "New", LastName: "User"})

	rec := callback(h, "state=good-state&code=abc")

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	want := "/registro/paciente?googleEmail=new%40x.com&googleFirstName=New&googleLastName=User"
	if loc := rec.Header().Get("Location"); loc != want {
		t.Errorf("Location = %q, want %q", loc, want)
	}
	if hasSessionCookie(rec) {
		t.Error("pending identity must not write a session")
	}
	if len(logins.recorded) != 0 {
		t.Error("pending identity must not record a login")
	}
}

func TestServeCallback_ExistingPatientSignsIn(t *testing.T) {
	id := primitive.NewObjectID()
	accts := &fakeAccounts{users: map[string]*models.User{
		"ana@x.com": {ID: id, Username: "ana@x.com", Role: models.RolePaciente},
	}}
	h, _, logins := newTestHandler(t, accts, Profile{Email: "ana@x.com", FirstName: "Ana"})

	rec := callback(h, "state=good-state&code=abc")

	if loc := rec.Header().Get("Location"); loc != "/dashboard/paciente" {
		t.Errorf("Location = %q, want /dashboard/paciente", loc)
	}
	if !hasSessionCookie(rec) {
		t.Error("expected a session cookie")
	}
	if len(logins.recorded) != 1 || logins.recorded[0] != id {
		t.Errorf("recorded logins = %v", logins.recorded)
	}
}

func TestServeCallback_Failures(t *testing.T) {
	medico := &fakeAccounts{users: map[string]*models.User{
		"doc@x.com": {ID: primitive.NewObjectID(), Username: "doc@x.com", Role: models.RoleMedico},
	}}

	tests := []struct {
		name    string
		accts   *fakeAccounts
		profile Profile
		fetch   error
		query   string
	}{
		{"provider error", &fakeAccounts{}, Profile{Email: "a@x.com"}, nil, "error=access_denied&state=good-state"},
		{"missing state", &fakeAccounts{}, Profile{Email: "a@x.com"}, nil, "code=abc"},
		{"unknown state", &fakeAccounts{}, Profile{Email: "a@x.com"}, nil, "state=forged&code=abc"},
		{"missing code", &fakeAccounts{}, Profile{Email: "a@x.com"}, nil, "state=good-state"},
		{"profile fetch fails", &fakeAccounts{}, Profile{}, errors.New("exchange failed"), "state=good-state&code=abc"},
		{"no email", &fakeAccounts{}, Profile{}, nil, "state=good-state&code=abc"},
		{"non-patient", medico, Profile{Email: "doc@x.com"}, nil, "state=good-state&code=abc"},
		{"lookup error", &fakeAccounts{err: errors.New("timeout")}, Profile{Email: "a@x.com"}, nil, "state=good-state&code=abc"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h, _, _ := newTestHandler(t, tc.accts, tc.profile)
			h.Profiles = fakeProfiles{profile: tc.profile, err: tc.fetch}

			rec := callback(h, tc.query)

			if rec.Code != http.StatusSeeOther {
				t.Errorf("status = %d, want 303", rec.Code)
			}
			if loc := rec.Header().Get("Location"); loc != "/login?error=google" {
				t.Errorf("Location = %q, want /login?error=google", loc)
			}
			if hasSessionCookie(rec) {
				t.Error("failure must not write a session")
			}
		})
	}
}

func TestRegistrationURL_Encodes(t *testing.T) {
	got := RegistrationURL(auth.SessionUser{Username: "o'neil+1@x.com", FirstName: "María José", LastName: "D&A"})
	want := "/registro/paciente?googleEmail=o%27neil%2B1%40x.com&googleFirstName=Mar%C3%ADa+Jos%C3%A9&googleLastName=D%26A"
	if got != want {
		t.Errorf("RegistrationURL = %q, want %q", got, want)
	}
}
