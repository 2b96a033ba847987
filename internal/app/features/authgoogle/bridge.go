package authgoogle

import (
	"context"
	"errors"
	"fmt"
	"strings"

	userstore "github.com/dalemusser/clinica/internal/app/store/users"
	"github.com/dalemusser/clinica/internal/app/system/auth"
	"github.com/dalemusser/clinica/internal/domain/models"
)

// Profile is the subset of a Google userinfo assertion the bridge needs.
type Profile struct {
	Email     string
	FirstName string
	LastName  string
}

// AccountFinder looks accounts up by username. userstore.Store satisfies it.
type AccountFinder interface {
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

var (
	// ErrNoEmail means the provider returned no email address.
	ErrNoEmail = errors.New("email not available from Google")
	// ErrPatientOnly means the email belongs to a non-patient account.
	ErrPatientOnly = errors.New("only patients can sign in with Google")
	// ErrLookup wraps any account store failure other than not-found.
	ErrLookup = errors.New("account lookup failed")
)

// Bridge reconciles a Google identity with internal accounts. It holds no
// state of its own; Resolve only reads through Accounts.
type Bridge struct {
	Accounts AccountFinder
}

// Resolve maps a Google profile to a session identity.
//
//   - existing Paciente account: resolved identity (non-empty ID)
//   - no account for the email: pending identity (empty ID, Role Paciente)
//   - existing non-Paciente account: ErrPatientOnly
//   - empty email: ErrNoEmail
//   - store failure: error wrapping ErrLookup
//
// A pending identity carries the provider's email and names as received;
// the account store folds case on lookup and create.
func (b Bridge) Resolve(ctx context.Context, p Profile) (auth.SessionUser, error) {
	email := strings.TrimSpace(p.Email)
	if email == "" {
		return auth.SessionUser{}, ErrNoEmail
	}
	first := strings.TrimSpace(p.FirstName)
	last := strings.TrimSpace(p.LastName)

	acct, err := b.Accounts.GetByUsername(ctx, email)
	switch {
	case errors.Is(err, userstore.ErrNotFound):
		return auth.SessionUser{
			Username:  email,
			Role:      models.RolePaciente,
			FirstName: p.FirstName,
			LastName:  p.LastName,
		}, nil
	case err != nil:
		return auth.SessionUser{}, fmt.Errorf("%w: %w", ErrLookup, err)
	}

	if acct.Role != models.RolePaciente {
		return auth.SessionUser{}, ErrPatientOnly
	}

	u := auth.SessionUserFromAccount(*acct)
	if first != "" {
		u.FirstName = first
	}
	if last != "" {
		u.LastName = last
	}
	return u, nil
}
