package testutil

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	medicostore "github.com/dalemusser/clinica/internal/app/store/medicos"
	pacientestore "github.com/dalemusser/clinica/internal/app/store/pacientes"
	turnostore "github.com/dalemusser/clinica/internal/app/store/turnos"
	userstore "github.com/dalemusser/clinica/internal/app/store/users"
	"github.com/dalemusser/clinica/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory stand-ins for the Mongo stores. Each returns the same sentinel
// errors as the real store and fails every call with Err when it is set.

/*─────────────────────────────────────────────────────────────────────────────*
| Users                                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

type FakeUsers struct {
	mu    sync.Mutex
	users []models.User
	Err   error
}

func NewFakeUsers(users ...models.User) *FakeUsers {
	f := &FakeUsers{}
	for _, u := range users {
		if u.ID.IsZero() {
			u.ID = primitive.NewObjectID()
		}
		u.Username = strings.ToLower(strings.TrimSpace(u.Username))
		f.users = append(f.users, u)
	}
	return f
}

func (f *FakeUsers) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	key := strings.ToLower(strings.TrimSpace(username))
	for _, u := range f.users {
		if u.Username == key {
			u := u
			return &u, nil
		}
	}
	return nil, userstore.ErrNotFound
}

func (f *FakeUsers) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	for _, u := range f.users {
		if u.ID == id {
			u := u
			return &u, nil
		}
	}
	return nil, userstore.ErrNotFound
}

func (f *FakeUsers) Create(ctx context.Context, u models.User) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return models.User{}, f.Err
	}
	u.Username = strings.ToLower(strings.TrimSpace(u.Username))
	for _, existing := range f.users {
		if existing.Username == u.Username {
			return models.User{}, userstore.ErrDuplicate
		}
	}
	u.ID = primitive.NewObjectID()
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	f.users = append(f.users, u)
	return u, nil
}

func (f *FakeUsers) List(ctx context.Context) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	out := append([]models.User(nil), f.users...)
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (f *FakeUsers) Delete(ctx context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	for i, u := range f.users {
		if u.ID == id {
			f.users = append(f.users[:i], f.users[i+1:]...)
			return nil
		}
	}
	return userstore.ErrNotFound
}

// Len returns the number of stored accounts.
func (f *FakeUsers) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.users)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Pacientes                                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

type FakePacientes struct {
	mu    sync.Mutex
	items []models.Paciente
	Err   error
}

func NewFakePacientes(items ...models.Paciente) *FakePacientes {
	f := &FakePacientes{}
	for _, p := range items {
		if p.ID.IsZero() {
			p.ID = primitive.NewObjectID()
		}
		f.items = append(f.items, p)
	}
	return f
}

func (f *FakePacientes) Create(ctx context.Context, p models.Paciente) (models.Paciente, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return models.Paciente{}, f.Err
	}
	for _, existing := range f.items {
		if existing.DNI == p.DNI {
			return models.Paciente{}, pacientestore.ErrDuplicate
		}
	}
	p.ID = primitive.NewObjectID()
	f.items = append(f.items, p)
	return p, nil
}

func (f *FakePacientes) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Paciente, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	for _, p := range f.items {
		if p.ID == id {
			p := p
			return &p, nil
		}
	}
	return nil, pacientestore.ErrNotFound
}

func (f *FakePacientes) List(ctx context.Context) ([]models.Paciente, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	return append([]models.Paciente{}, f.items...), nil
}

func (f *FakePacientes) Recent(ctx context.Context, n int64) ([]models.Paciente, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	out := []models.Paciente{}
	for i := len(f.items) - 1; i >= 0 && int64(len(out)) < n; i-- {
		out = append(out, f.items[i])
	}
	return out, nil
}

func (f *FakePacientes) Update(ctx context.Context, id primitive.ObjectID, p models.Paciente) (models.Paciente, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return models.Paciente{}, f.Err
	}
	for i, existing := range f.items {
		if existing.ID == id {
			p.ID = id
			f.items[i] = p
			return p, nil
		}
	}
	return models.Paciente{}, pacientestore.ErrNotFound
}

func (f *FakePacientes) Delete(ctx context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	for i, p := range f.items {
		if p.ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return pacientestore.ErrNotFound
}

func (f *FakePacientes) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Medicos                                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

type FakeMedicos struct {
	mu    sync.Mutex
	items []models.Medico
	Err   error
}

func NewFakeMedicos(items ...models.Medico) *FakeMedicos {
	f := &FakeMedicos{}
	for _, m := range items {
		if m.ID.IsZero() {
			m.ID = primitive.NewObjectID()
		}
		f.items = append(f.items, m)
	}
	return f
}

func (f *FakeMedicos) Create(ctx context.Context, m models.Medico) (models.Medico, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return models.Medico{}, f.Err
	}
	for _, existing := range f.items {
		if existing.Matricula == m.Matricula {
			return models.Medico{}, medicostore.ErrDuplicate
		}
	}
	m.ID = primitive.NewObjectID()
	f.items = append(f.items, m)
	return m, nil
}

func (f *FakeMedicos) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Medico, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	for _, m := range f.items {
		if m.ID == id {
			m := m
			return &m, nil
		}
	}
	return nil, medicostore.ErrNotFound
}

func (f *FakeMedicos) List(ctx context.Context) ([]models.Medico, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	return append([]models.Medico{}, f.items...), nil
}

func (f *FakeMedicos) Update(ctx context.Context, id primitive.ObjectID, m models.Medico) (models.Medico, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return models.Medico{}, f.Err
	}
	for i, existing := range f.items {
		if existing.ID == id {
			m.ID = id
			f.items[i] = m
			return m, nil
		}
	}
	return models.Medico{}, medicostore.ErrNotFound
}

func (f *FakeMedicos) Delete(ctx context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	for i, m := range f.items {
		if m.ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return medicostore.ErrNotFound
}

/*─────────────────────────────────────────────────────────────────────────────*
| Turnos                                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

// FakeTurnos joins names from Pacientes and Medicos when they are set.
type FakeTurnos struct {
	mu        sync.Mutex
	items     []models.Turno
	Pacientes *FakePacientes
	Medicos   *FakeMedicos
	Err       error
}

func NewFakeTurnos(items ...models.Turno) *FakeTurnos {
	f := &FakeTurnos{}
	for _, t := range items {
		if t.ID.IsZero() {
			t.ID = primitive.NewObjectID()
		}
		f.items = append(f.items, t)
	}
	return f
}

func (f *FakeTurnos) Create(ctx context.Context, t models.Turno) (models.Turno, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return models.Turno{}, f.Err
	}
	if t.Estado == "" {
		t.Estado = models.TurnoPendiente
	}
	t.ID = primitive.NewObjectID()
	f.items = append(f.items, t)
	return t, nil
}

func (f *FakeTurnos) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Turno, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	for _, t := range f.items {
		if t.ID == id {
			t := t
			return &t, nil
		}
	}
	return nil, turnostore.ErrNotFound
}

func (f *FakeTurnos) Update(ctx context.Context, id primitive.ObjectID, t models.Turno) (models.Turno, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return models.Turno{}, f.Err
	}
	for i, existing := range f.items {
		if existing.ID == id {
			t.ID = id
			f.items[i] = t
			return t, nil
		}
	}
	return models.Turno{}, turnostore.ErrNotFound
}

func (f *FakeTurnos) Delete(ctx context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	for i, t := range f.items {
		if t.ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return turnostore.ErrNotFound
}

func (f *FakeTurnos) ListCompleto(ctx context.Context) ([]models.TurnoCompleto, error) {
	return f.collect(func(models.Turno) bool { return true }, false, 0)
}

func (f *FakeTurnos) RecentCompleto(ctx context.Context, n int64) ([]models.TurnoCompleto, error) {
	return f.collect(func(models.Turno) bool { return true }, true, n)
}

func (f *FakeTurnos) ListByMedico(ctx context.Context, id primitive.ObjectID) ([]models.TurnoCompleto, error) {
	return f.collect(func(t models.Turno) bool { return t.MedicoID == id }, false, 0)
}

func (f *FakeTurnos) ListByPaciente(ctx context.Context, id primitive.ObjectID) ([]models.TurnoCompleto, error) {
	return f.collect(func(t models.Turno) bool { return t.PacienteID == id }, false, 0)
}

func (f *FakeTurnos) collect(keep func(models.Turno) bool, newestFirst bool, limit int64) ([]models.TurnoCompleto, error) {
	f.mu.Lock()
	items := append([]models.Turno(nil), f.items...)
	err := f.Err
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if newestFirst {
		for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
			items[i], items[j] = items[j], items[i]
		}
	}

	out := []models.TurnoCompleto{}
	for _, t := range items {
		if !keep(t) {
			continue
		}
		tc := models.TurnoCompleto{Turno: t}
		if f.Pacientes != nil {
			if p, err := f.Pacientes.GetByID(context.Background(), t.PacienteID); err == nil {
				tc.PacienteNombre = p.FullName()
			}
		}
		if f.Medicos != nil {
			if m, err := f.Medicos.GetByID(context.Background(), t.MedicoID); err == nil {
				tc.MedicoNombre = m.FullName()
				tc.Especialidad = m.Especialidad
			}
		}
		out = append(out, tc)
		if limit > 0 && int64(len(out)) == limit {
			break
		}
	}
	return out, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Logins                                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

type FakeLogins struct {
	mu      sync.Mutex
	Records []models.LoginRecord
}

func (f *FakeLogins) CreateFrom(ctx context.Context, r *http.Request, userID primitive.ObjectID, role models.Role, provider string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Records = append(f.Records, models.LoginRecord{UserID: userID, Role: role, Provider: provider, CreatedAt: time.Now().UTC()})
	return nil
}
