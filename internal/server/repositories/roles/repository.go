// Package roles stores roles, their permission claims and user membership.
package roles

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// Repository is the role and permission store. Unknown role names yield
// common.ErrorNotFound.
type Repository interface {
	List(ctx context.Context) ([]models.Role, error)
	FindByName(ctx context.Context, name string) (*models.Role, error)
	Claims(ctx context.Context, roleName string) ([]models.Claim, error)
	UserRoles(ctx context.Context, userID string) ([]string, error)
	IsUserInRole(ctx context.Context, userID, roleName string) (bool, error)
	// AddUserToRole is a no-op when the user already holds the role.
	AddUserToRole(ctx context.Context, userID, roleName string) error
	// SetUserRoles replaces the user's memberships with roleNames.
	SetUserRoles(ctx context.Context, userID string, roleNames []string) error
}
