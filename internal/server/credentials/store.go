// Package credentials is the credential store used by the token and account
// services: user records plus password hashing and policy.
package credentials

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/claims"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/password"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
)

const (
	MsgIncorrectPassword  = "Incorrect password."
	msgClaimNotAllowedFmt = "Claim type '%s' cannot be assigned to a user."
)

type Store struct {
	users  users.Repository
	hasher *password.Hasher
	policy *password.Policy
}

func NewStore(repo users.Repository, hasher *password.Hasher, policy *password.Policy) *Store {
	return &Store{users: repo, hasher: hasher, policy: policy}
}

func (s *Store) FindByID(ctx context.Context, id string) (*models.User, error) {
	return s.users.FindByID(ctx, id)
}

func (s *Store) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.users.FindByEmail(ctx, email)
}

func (s *Store) FindByUserName(ctx context.Context, userName string) (*models.User, error) {
	return s.users.FindByUserName(ctx, userName)
}

// Create checks plain against the password policy, hashes it and stores the
// user. Policy violations come back as *common.ValidationError.
func (s *Store) Create(ctx context.Context, user *models.User, plain string) (*models.User, error) {
	if err := s.policy.Check(plain); err != nil {
		return nil, err
	}
	hash, err := s.hasher.Hash(plain)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = hash
	return s.users.Create(ctx, user)
}

func (s *Store) Update(ctx context.Context, user *models.User) error {
	return s.users.Update(ctx, user)
}

func (s *Store) VerifyPassword(_ context.Context, user *models.User, plain string) (bool, error) {
	return s.hasher.Verify(user.PasswordHash, plain)
}

// ChangePassword replaces the password after verifying the current one. A
// wrong current password or a new password violating the policy yields a
// *common.ValidationError.
func (s *Store) ChangePassword(ctx context.Context, user *models.User, current, next string) error {
	ok, err := s.hasher.Verify(user.PasswordHash, current)
	if err != nil {
		return err
	}
	if !ok {
		return common.NewValidationError(MsgIncorrectPassword)
	}
	if err := s.policy.Check(next); err != nil {
		return err
	}
	hash, err := s.hasher.Hash(next)
	if err != nil {
		return err
	}

	updated := user.Clone()
	updated.PasswordHash = hash
	if err := s.users.Update(ctx, updated); err != nil {
		return err
	}
	user.PasswordHash = hash
	return nil
}

func (s *Store) List(ctx context.Context) ([]*models.User, error) {
	return s.users.List(ctx)
}

// Claims returns the claims attached directly to the user.
func (s *Store) Claims(ctx context.Context, user *models.User) ([]models.Claim, error) {
	return s.users.Claims(ctx, user.ID)
}

// AddClaim attaches c directly to the user. Claim types the token derives
// or reserves are refused with a *common.ValidationError.
func (s *Store) AddClaim(ctx context.Context, user *models.User, c models.Claim) error {
	if !claims.IsAssignable(c.Type) {
		return common.NewValidationError(fmt.Sprintf(msgClaimNotAllowedFmt, c.Type))
	}
	return s.users.AddClaim(ctx, user.ID, c)
}

// Delete removes the user record.
func (s *Store) Delete(ctx context.Context, user *models.User) error {
	return s.users.Delete(ctx, user.ID)
}
