package authapi

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	pacientestore "github.com/dalemusser/clinica/internal/app/store/pacientes"
	userstore "github.com/dalemusser/clinica/internal/app/store/users"
	"github.com/dalemusser/clinica/internal/app/system/apiresp"
	"github.com/dalemusser/clinica/internal/app/system/auth"
	"github.com/dalemusser/clinica/internal/app/system/timeouts"
	"github.com/dalemusser/clinica/internal/domain/models"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// RegisteredPath is where a newly registered patient is sent to sign in.
const RegisteredPath = auth.LoginPath + "?registered=1"

const dateLayout = "2006-01-02"

var passwordRules = []validation.Rule{validation.Required, validation.Length(8, 72)}

func roleNames() []interface{} {
	out := []interface{}{}
	for _, r := range models.Roles() {
		out = append(out, r.String())
	}
	return out
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /api/auth/register (Administrativo only)                                |
*─────────────────────────────────────────────────────────────────────────────*/

type registerRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	Role       string `json:"role"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	MedicoID   string `json:"medicoId"`
	PacienteID string `json:"pacienteId"`
}

func (req registerRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Username, validation.Required, is.Email),
		validation.Field(&req.Password, passwordRules...),
		validation.Field(&req.Role, validation.Required, validation.In(roleNames()...)),
		validation.Field(&req.MedicoID, profileRef(req.Role == models.RoleMedico.String())...),
		validation.Field(&req.PacienteID, profileRef(req.Role == models.RolePaciente.String())...),
	)
}

// profileRef validates a profile id: required for the role that owns it,
// rejected for every other role.
func profileRef(forRole bool) []validation.Rule {
	if forRole {
		return []validation.Rule{validation.Required, is.MongoID}
	}
	return []validation.Rule{absentRef}
}

var absentRef = validation.By(func(v interface{}) error {
	if s, _ := v.(string); s != "" {
		return errors.New("not allowed for this role")
	}
	return nil
})

// Register handles POST /api/auth/register. Gated to Administrativo.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := apiresp.Decode(r, &req); err != nil {
		apiresp.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		fields, _ := apiresp.FieldErrors(err)
		apiresp.Invalid(w, fields)
		return
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		h.Log.Error("bcrypt failed", zap.Error(err))
		apiresp.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	role, _ := models.ParseRole(req.Role)
	u := models.User{
		Username:     req.Username,
		PasswordHash: hash,
		Role:         role,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		MedicoRef:    optionalID(req.MedicoID),
		PacienteRef:  optionalID(req.PacienteID),
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	created, err := h.Accounts.Create(ctx, u)
	if errors.Is(err, userstore.ErrDuplicate) {
		apiresp.Error(w, http.StatusConflict, "username already registered")
		return
	}
	if err != nil {
		h.Log.Error("create user failed", zap.Error(err))
		apiresp.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.Log.Info("user registered",
		zap.String("user_id", created.ID.Hex()),
		zap.String("role", created.Role.String()))
	apiresp.OK(w, http.StatusCreated, created)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /api/auth/register-paciente-public                                      |
*─────────────────────────────────────────────────────────────────────────────*/

type pacienteSignup struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	Nombre          string `json:"nombre"`
	Apellido        string `json:"apellido"`
	DNI             string `json:"dni"`
	Telefono        string `json:"telefono"`
	FechaNacimiento string `json:"fechaNacimiento"`
	ObraSocial      string `json:"obraSocial"`
}

func (req pacienteSignup) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Email, validation.Required, is.Email),
		validation.Field(&req.Password, passwordRules...),
		validation.Field(&req.Nombre, validation.Required, validation.Length(1, 100)),
		validation.Field(&req.Apellido, validation.Required, validation.Length(1, 100)),
		validation.Field(&req.DNI, validation.Required, validation.Length(6, 12)),
		validation.Field(&req.FechaNacimiento, validation.Date(dateLayout)),
	)
}

func signupFromForm(r *http.Request) pacienteSignup {
	return pacienteSignup{
		Email:           r.FormValue("email"),
		Password:        r.FormValue("password"),
		Nombre:          r.FormValue("nombre"),
		Apellido:        r.FormValue("apellido"),
		DNI:             r.FormValue("dni"),
		Telefono:        r.FormValue("telefono"),
		FechaNacimiento: r.FormValue("fechaNacimiento"),
		ObraSocial:      r.FormValue("obraSocial"),
	}
}

// RegisterPacientePublic handles the open patient sign-up. It creates the
// Paciente profile and a Paciente account linked to it; if the account
// cannot be created the profile is removed again.
func (h *Handler) RegisterPacientePublic(w http.ResponseWriter, r *http.Request) {
	var req pacienteSignup
	if isJSON(r) {
		if err := apiresp.Decode(r, &req); err != nil {
			apiresp.Error(w, http.StatusBadRequest, "invalid request body")
			return
		}
	} else {
		req = signupFromForm(r)
	}
	if err := req.Validate(); err != nil {
		fields, _ := apiresp.FieldErrors(err)
		h.signupFailed(w, r, &req, http.StatusBadRequest, "invalid", fields)
		return
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		h.Log.Error("bcrypt failed", zap.Error(err))
		h.signupFailed(w, r, &req, http.StatusInternalServerError, "internal", nil)
		return
	}

	p := models.Paciente{
		Nombre:     req.Nombre,
		Apellido:   req.Apellido,
		DNI:        req.DNI,
		Email:      req.Email,
		Telefono:   req.Telefono,
		ObraSocial: req.ObraSocial,
	}
	if req.FechaNacimiento != "" {
		if t, err := time.Parse(dateLayout, req.FechaNacimiento); err == nil {
			p.FechaNacimiento = &t
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	// Refuse early when the username is taken so no orphan profile is created.
	if _, err := h.Accounts.GetByUsername(ctx, req.Email); err == nil {
		h.signupFailed(w, r, &req, http.StatusConflict, "duplicate", nil)
		return
	} else if !errors.Is(err, userstore.ErrNotFound) {
		h.Log.Error("signup lookup failed", zap.Error(err))
		h.signupFailed(w, r, &req, http.StatusInternalServerError, "internal", nil)
		return
	}

	pac, err := h.Pacientes.Create(ctx, p)
	if errors.Is(err, pacientestore.ErrDuplicate) {
		h.signupFailed(w, r, &req, http.StatusConflict, "duplicate", nil)
		return
	}
	if err != nil {
		h.Log.Error("create paciente failed", zap.Error(err))
		h.signupFailed(w, r, &req, http.StatusInternalServerError, "internal", nil)
		return
	}

	pacID := pac.ID
	acct, err := h.Accounts.Create(ctx, models.User{
		Username:     req.Email,
		PasswordHash: hash,
		Role:         models.RolePaciente,
		PacienteRef:  &pacID,
		FirstName:    req.Nombre,
		LastName:     req.Apellido,
	})
	if err != nil {
		if derr := h.Pacientes.Delete(ctx, pac.ID); derr != nil {
			h.Log.Error("rollback paciente failed", zap.Error(derr), zap.String("paciente_id", pac.ID.Hex()))
		}
		if errors.Is(err, userstore.ErrDuplicate) {
			h.signupFailed(w, r, &req, http.StatusConflict, "duplicate", nil)
			return
		}
		h.Log.Error("create paciente account failed", zap.Error(err))
		h.signupFailed(w, r, &req, http.StatusInternalServerError, "internal", nil)
		return
	}

	h.Log.Info("paciente registered",
		zap.String("user_id", acct.ID.Hex()),
		zap.String("paciente_id", pac.ID.Hex()))

	if !isJSON(r) {
		http.Redirect(w, r, RegisteredPath, http.StatusSeeOther)
		return
	}
	apiresp.JSON(w, http.StatusCreated, apiresp.Envelope{
		Status:   "success",
		Data:     pac,
		Redirect: RegisteredPath,
	})
}

func (h *Handler) signupFailed(w http.ResponseWriter, r *http.Request, req *pacienteSignup, status int, code string, fields map[string]string) {
	if isJSON(r) {
		switch {
		case fields != nil:
			apiresp.Invalid(w, fields)
		case status == http.StatusConflict:
			apiresp.Error(w, status, "paciente already registered")
		default:
			apiresp.Error(w, status, "internal error")
		}
		return
	}
	// Send the visitor back to the form with what they typed, minus the password.
	v := url.Values{}
	v.Set("error", code)
	v.Set("googleEmail", req.Email)
	v.Set("googleFirstName", req.Nombre)
	v.Set("googleLastName", req.Apellido)
	http.Redirect(w, r, auth.RegistroPacientePath+"?"+v.Encode(), http.StatusSeeOther)
}

func hashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func optionalID(hex string) *primitive.ObjectID {
	if hex == "" {
		return nil
	}
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return nil
	}
	return &id
}
