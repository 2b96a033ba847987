// internal/domain/models/role.go
package models

import (
	"errors"
	"strings"
)

// Role is the closed set of account roles. A user holds exactly one.
type Role string

const (
	RoleAdministrativo Role = "Administrativo"
	RoleMedico         Role = "Medico"
	RolePaciente       Role = "Paciente"
)

// ErrUnknownRole is returned by ParseRole for anything outside the enumeration.
var ErrUnknownRole = errors.New(`role must be "Administrativo"|"Medico"|"Paciente"`)

// Roles lists every valid role in display order.
func Roles() []Role {
	return []Role{RoleAdministrativo, RoleMedico, RolePaciente}
}

// ParseRole maps a stored or submitted role name onto the enumeration.
// Matching is case-insensitive and ignores surrounding whitespace.
func ParseRole(s string) (Role, error) {
	s = strings.TrimSpace(s)
	for _, r := range Roles() {
		if strings.EqualFold(s, string(r)) {
			return r, nil
		}
	}
	return "", ErrUnknownRole
}

// Valid reports whether r is one of the three roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdministrativo, RoleMedico, RolePaciente:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }
