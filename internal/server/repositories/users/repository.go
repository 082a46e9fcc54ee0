// Package users stores account records.
package users

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// Repository persists users. Lookups that find nothing return
// common.ErrorNotFound; Create returns common.ErrorAlreadyExists when the
// email or username is taken.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	// Delete removes the user together with its role and claim links.
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByUserName(ctx context.Context, userName string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	// Claims returns the claims attached directly to the user.
	Claims(ctx context.Context, userID string) ([]models.Claim, error)
	AddClaim(ctx context.Context, userID string, c models.Claim) error
}
