// internal/app/bootstrap/admin.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	userstore "github.com/dalemusser/clinica/internal/app/store/users"
	"github.com/dalemusser/clinica/internal/domain/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// adminAccounts is the slice of the user store ensureAdmin needs.
type adminAccounts interface {
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, u models.User) (models.User, error)
}

// ensureAdmin creates the configured Administrativo account when no account
// with that username exists. An existing account is left untouched,
// including its password and role, and is only reported.
func ensureAdmin(ctx context.Context, accounts adminAccounts, username, password string, logger *zap.Logger) error {
	if username == "" {
		return nil
	}

	existing, err := accounts.GetByUsername(ctx, username)
	switch {
	case err == nil:
		if existing.Role != models.RoleAdministrativo {
			logger.Warn("admin_username belongs to a non-admin account; leaving it unchanged",
				zap.String("username", existing.Username),
				zap.String("role", existing.Role.String()))
		}
		return nil
	case !errors.Is(err, userstore.ErrNotFound):
		return fmt.Errorf("lookup admin account: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	created, err := accounts.Create(ctx, models.User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         models.RoleAdministrativo,
		FirstName:    "Administrador",
	})
	if errors.Is(err, userstore.ErrDuplicate) {
		// Another instance created it first.
		return nil
	}
	if err != nil {
		return fmt.Errorf("create admin account: %w", err)
	}
	logger.Info("created initial Administrativo account",
		zap.String("username", created.Username),
		zap.String("user_id", created.ID.Hex()))
	return nil
}
