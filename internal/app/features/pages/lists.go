package pages

import (
	"context"
	"net/http"

	"github.com/dalemusser/clinica/internal/app/system/auth"
	"github.com/dalemusser/clinica/internal/app/system/timeouts"
	"github.com/dalemusser/clinica/internal/app/system/viewdata"
	"github.com/dalemusser/clinica/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type pacientesVM struct {
	viewdata.BaseVM
	Pacientes []models.Paciente
	CanEdit   bool
}

type medicosVM struct {
	viewdata.BaseVM
	Medicos []models.Medico
	CanEdit bool
}

type turnosVM struct {
	viewdata.BaseVM
	Turnos []turnoRow
	// Pacientes and Medicos fill the new-turno selects.
	Pacientes []models.Paciente
	Medicos   []models.Medico
	Estados   []string
	CanEdit   bool
	CanCreate bool
}

type turnoRow struct {
	models.TurnoCompleto
	FechaFormateada string
}

type usuariosVM struct {
	viewdata.BaseVM
	Usuarios []models.User
	Roles    []models.Role
}

// ServePacientes renders the pacientes list. A paciente only sees their own
// profile.
func (h *Handler) ServePacientes(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		http.Redirect(w, r, auth.LoginPath, http.StatusSeeOther)
		return
	}
	vm := pacientesVM{
		BaseVM:    viewdata.NewBaseVM(r, "Gestión de Pacientes", "/"),
		Pacientes: []models.Paciente{},
		CanEdit:   u.Role == models.RoleAdministrativo,
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	var err error
	if u.Role == models.RolePaciente {
		var own *models.Paciente
		if id, perr := primitive.ObjectIDFromHex(u.PacienteID); perr == nil {
			own, err = h.Pacientes.GetByID(ctx, id)
		}
		if own != nil {
			vm.Pacientes = []models.Paciente{*own}
		}
	} else {
		var list []models.Paciente
		if list, err = h.Pacientes.List(ctx); err == nil {
			vm.Pacientes = list
		}
	}
	if err != nil {
		h.Log.Error("list pacientes failed", zap.Error(err))
		vm.Error = DBErrorMessage
	}

	h.Render.Render(w, r, "pacientes_list", vm)
}

// ServeMedicos renders the medicos directory.
func (h *Handler) ServeMedicos(w http.ResponseWriter, r *http.Request) {
	vm := medicosVM{
		BaseVM:  viewdata.NewBaseVM(r, "Gestión de Médicos", "/"),
		Medicos: []models.Medico{},
		CanEdit: auth.HasRole(r, models.RoleAdministrativo),
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Medicos.List(ctx)
	if err != nil {
		h.Log.Error("list medicos failed", zap.Error(err))
		vm.Error = DBErrorMessage
	} else {
		vm.Medicos = list
	}

	h.Render.Render(w, r, "medicos_list", vm)
}

// ServeTurnos renders turnos scoped to the caller: all for Administrativo,
// their own for a medico or paciente.
func (h *Handler) ServeTurnos(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		http.Redirect(w, r, auth.LoginPath, http.StatusSeeOther)
		return
	}
	vm := turnosVM{
		BaseVM:    viewdata.NewBaseVM(r, "Gestión de Turnos", "/"),
		Turnos:    []turnoRow{},
		Pacientes: []models.Paciente{},
		Medicos:   []models.Medico{},
		Estados:   models.TurnoEstados,
		CanEdit:   u.Role == models.RoleAdministrativo,
		CanCreate: u.Role == models.RoleAdministrativo || (u.Role == models.RolePaciente && u.PacienteID != ""),
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	turnos, err := h.scopedTurnos(ctx, u)
	if err == nil && vm.CanCreate {
		vm.Medicos, err = h.Medicos.List(ctx)
	}
	if err == nil && vm.CanEdit {
		vm.Pacientes, err = h.Pacientes.List(ctx)
	}
	if err != nil {
		h.Log.Error("list turnos failed", zap.Error(err))
		vm.Error = DBErrorMessage
		vm.Pacientes, vm.Medicos = []models.Paciente{}, []models.Medico{}
	} else {
		for _, t := range turnos {
			vm.Turnos = append(vm.Turnos, turnoRow{TurnoCompleto: t, FechaFormateada: formatFecha(t.Fecha)})
		}
	}

	h.Render.Render(w, r, "turnos_list", vm)
}

func (h *Handler) scopedTurnos(ctx context.Context, u *auth.SessionUser) ([]models.TurnoCompleto, error) {
	switch u.Role {
	case models.RoleAdministrativo:
		return h.Turnos.ListCompleto(ctx)
	case models.RoleMedico:
		if id, err := primitive.ObjectIDFromHex(u.MedicoID); err == nil {
			return h.Turnos.ListByMedico(ctx, id)
		}
	case models.RolePaciente:
		if id, err := primitive.ObjectIDFromHex(u.PacienteID); err == nil {
			return h.Turnos.ListByPaciente(ctx, id)
		}
	}
	return nil, nil
}

// ServeUsuarios renders the account list. Only Administrativo may see it;
// everyone else is sent to "/".
func (h *Handler) ServeUsuarios(w http.ResponseWriter, r *http.Request) {
	if !auth.HasRole(r, models.RoleAdministrativo) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	vm := usuariosVM{
		BaseVM:   viewdata.NewBaseVM(r, "Gestión de Usuarios", "/"),
		Usuarios: []models.User{},
		Roles:    models.Roles(),
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Users.List(ctx)
	if err != nil {
		h.Log.Error("list usuarios failed", zap.Error(err))
		vm.Error = DBErrorMessage
	} else {
		vm.Usuarios = list
	}

	h.Render.Render(w, r, "usuarios_list", vm)
}
