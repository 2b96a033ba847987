package dashboard

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

type medicoData struct {
	viewdata.BaseVM

	Medico *models.Medico
	Turnos []turnoRow
}

type pacienteData struct {
	viewdata.BaseVM

	Paciente *models.Paciente
	Turnos   []turnoRow
}

// NoProfileMessage is shown to a medico or paciente whose account is not
// linked to a profile.
const NoProfileMessage = "Tu cuenta no tiene un perfil asociado. Contactá a administración."

// profileAccess is the outcome of the inline role check on scoped dashboards.
type profileAccess int

const (
	accessDenied    profileAccess = iota // wrong role: redirect to "/"
	accessNoProfile                      // right role, no linked profile
	accessGranted
)

// profileID returns the caller's linked profile id for role.
//
// A caller of the right role with no linked profile is not redirected:
// "/" would bounce them straight back here.
func profileID(r *http.Request, role models.Role) (primitive.ObjectID, profileAccess) {
	u, ok := auth.CurrentUser(r)
	if !ok || u.Role != role {
		return primitive.NilObjectID, accessDenied
	}
	hex := u.MedicoID
	if role == models.RolePaciente {
		hex = u.PacienteID
	}
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, accessNoProfile
	}
	return id, accessGranted
}

// ServeMedico renders the dashboard of the signed-in medico.
func (h *Handler) ServeMedico(w http.ResponseWriter, r *http.Request) {
	id, access := profileID(r, models.RoleMedico)
	if access == accessDenied {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	data := medicoData{
		BaseVM: viewdata.NewBaseVM(r, "Mi agenda - "+viewdata.SiteName, "/dashboard/medico"),
		Turnos: []turnoRow{},
	}

	if access == accessNoProfile {
		data.Error = NoProfileMessage
		h.Render.Render(w, r, "medico_dashboard", data)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	medico, err := h.Medicos.GetByID(ctx, id)
	var turnos []models.TurnoCompleto
	if err == nil {
		turnos, err = h.Turnos.ListByMedico(ctx, id)
	}
	if err != nil {
		h.Log.Error("medico dashboard load failed", zap.Error(err), zap.String("medico_id", id.Hex()))
		data.Error = DBErrorMessage
	} else {
		data.Medico = medico
		data.Turnos = turnoRows(turnos)
	}

	h.Render.Render(w, r, "medico_dashboard", data)
}

// ServePaciente renders the dashboard of the signed-in paciente.
func (h *Handler) ServePaciente(w http.ResponseWriter, r *http.Request) {
	id, access := profileID(r, models.RolePaciente)
	if access == accessDenied {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	data := pacienteData{
		BaseVM: viewdata.NewBaseVM(r, "Mis turnos - "+viewdata.SiteName, "/dashboard/paciente"),
		Turnos: []turnoRow{},
	}

	if access == accessNoProfile {
		data.Error = NoProfileMessage
		h.Render.Render(w, r, "paciente_dashboard", data)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	paciente, err := h.Pacientes.GetByID(ctx, id)
	var turnos []models.TurnoCompleto
	if err == nil {
		turnos, err = h.Turnos.ListByPaciente(ctx, id)
	}
	if err != nil {
		h.Log.Error("paciente dashboard load failed", zap.Error(err), zap.String("paciente_id", id.Hex()))
		data.Error = DBErrorMessage
	} else {
		data.Paciente = paciente
		data.Turnos = turnoRows(turnos)
	}

	h.Render.Render(w, r, "paciente_dashboard", data)
}
