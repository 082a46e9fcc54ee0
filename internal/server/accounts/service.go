// Package accounts implements the user lifecycle: registration, profile and
// password changes, activation and role assignment.
package accounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/result"
)

const (
	DefaultRole = "Basic"
	AdminRole   = "Administrator"
)

const (
	MsgUserNotFound         = "User Not Found."
	MsgProfileUpdated       = "Profile updated."
	MsgPasswordChanged      = "Password changed."
	MsgUserActivated        = "User Activated Successfully."
	MsgUserDeactivated      = "User Deactivated Successfully."
	MsgAdminStatusLocked    = "Administrators Profile's Status cannot be toggled"
	MsgAdminRoleNotAllowed  = "Not Allowed to add or delete Administrator Role if you have not this role."
	MsgRolesUpdated         = "Roles Updated"
	MsgClaimAdded           = "Claim Added."
	msgUserNameTakenFmt     = "Username '%s' is already taken."
	msgEmailRegisteredFmt   = "Email %s is already registered."
	msgUserRegisteredFmt    = "User %s Registered."
	msgRoleNotFoundFmt      = "Role %s Not Found."
	msgUserAlreadyExistsFmt = "User %s already exists."
)

type CredentialStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByUserName(ctx context.Context, userName string) (*models.User, error)
	Create(ctx context.Context, user *models.User, plain string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	ChangePassword(ctx context.Context, user *models.User, current, next string) error
	List(ctx context.Context) ([]*models.User, error)
	AddClaim(ctx context.Context, user *models.User, c models.Claim) error
	Delete(ctx context.Context, user *models.User) error
}

type RoleStore interface {
	List(ctx context.Context) ([]models.Role, error)
	FindByName(ctx context.Context, name string) (*models.Role, error)
	UserRoles(ctx context.Context, userID string) ([]string, error)
	IsUserInRole(ctx context.Context, userID, roleName string) (bool, error)
	AddUserToRole(ctx context.Context, userID, roleName string) error
	SetUserRoles(ctx context.Context, userID string, roleNames []string) error
}

type Service struct {
	creds       CredentialStore
	roles       RoleStore
	defaultRole string
	adminRole   string
	logger      logging.Logger
}

type Option func(*Service)

// WithDefaultRole sets the role every registered user receives.
func WithDefaultRole(name string) Option {
	return func(s *Service) { s.defaultRole = name }
}

// WithAdminRole sets the role whose members are protected from status
// changes and whose assignment only its own members may change.
func WithAdminRole(name string) Option {
	return func(s *Service) { s.adminRole = name }
}

func WithLogger(l logging.Logger) Option {
	return func(s *Service) { s.logger = l.With("module", "accounts") }
}

func NewService(creds CredentialStore, roles RoleStore, opts ...Option) *Service {
	s := &Service{
		creds:       creds,
		roles:       roles,
		defaultRole: DefaultRole,
		adminRole:   AdminRole,
		logger:      logging.Nop{},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// storeFailure turns expected store outcomes into failure messages. It
// returns nil for anything that should surface as an error.
func storeFailure(err error) []string {
	var ve *common.ValidationError
	if errors.As(err, &ve) {
		return ve.Descriptions
	}
	if errors.Is(err, common.ErrorNotFound) {
		return []string{MsgUserNotFound}
	}
	return nil
}

func (s *Service) findUser(ctx context.Context, id string) (*models.User, bool, error) {
	u, err := s.creds.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("find user: %w", err)
	}
	return u, true, nil
}

// Register creates a user holding the default role and returns its id.
// Username and email uniqueness are checked in that order before anything
// is written.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (result.Result[string], error) {
	if err := req.Validate(); err != nil {
		return result.Fail[string](validationMessages(err)...), nil
	}

	if _, err := s.creds.FindByUserName(ctx, req.UserName); err == nil {
		return result.Fail[string](fmt.Sprintf(msgUserNameTakenFmt, req.UserName)), nil
	} else if !errors.Is(err, common.ErrorNotFound) {
		return result.Result[string]{}, fmt.Errorf("find user by name: %w", err)
	}

	if _, err := s.creds.FindByEmail(ctx, req.Email); err == nil {
		return result.Fail[string](fmt.Sprintf(msgEmailRegisteredFmt, req.Email)), nil
	} else if !errors.Is(err, common.ErrorNotFound) {
		return result.Result[string]{}, fmt.Errorf("find user by email: %w", err)
	}

	user := &models.User{
		Email:          req.Email,
		UserName:       req.UserName,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		PhoneNumber:    req.PhoneNumber,
		IsActive:       req.ActivateUser,
		EmailConfirmed: req.AutoConfirmEmail,
	}

	created, err := s.creds.Create(ctx, user, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return result.Fail[string](fmt.Sprintf(msgUserAlreadyExistsFmt, req.UserName)), nil
		}
		if msgs := storeFailure(err); msgs != nil {
			return result.Fail[string](msgs...), nil
		}
		return result.Result[string]{}, fmt.Errorf("create user: %w", err)
	}

	if err := s.roles.AddUserToRole(ctx, created.ID, s.defaultRole); err != nil {
		err = fmt.Errorf("assign default role: %w", err)
		if derr := s.creds.Delete(ctx, created); derr != nil {
			s.logger.Error(ctx, "user left without default role", "user_id", created.ID, "error", derr)
			err = errors.Join(err, fmt.Errorf("remove user: %w", derr))
		}
		return result.Result[string]{}, err
	}

	s.logger.Info(ctx, "user registered", "user_id", created.ID)
	return result.Success(created.ID, fmt.Sprintf(msgUserRegisteredFmt, created.UserName)), nil
}

// UpdateProfile changes name and phone of the user with the given id.
func (s *Service) UpdateProfile(ctx context.Context, userID string, req UpdateProfileRequest) (result.Result[result.None], error) {
	if err := req.Validate(); err != nil {
		return result.Fail[result.None](validationMessages(err)...), nil
	}

	user, ok, err := s.findUser(ctx, userID)
	if err != nil || !ok {
		return result.Fail[result.None](MsgUserNotFound), err
	}

	user.FirstName = req.FirstName
	user.LastName = req.LastName
	user.PhoneNumber = req.PhoneNumber

	if err := s.creds.Update(ctx, user); err != nil {
		if msgs := storeFailure(err); msgs != nil {
			return result.Fail[result.None](msgs...), nil
		}
		return result.Result[result.None]{}, fmt.Errorf("update user: %w", err)
	}
	return result.Success(result.None{}, MsgProfileUpdated), nil
}

// ChangePassword verifies the current password and sets the new one. Every
// policy violation is reported.
func (s *Service) ChangePassword(ctx context.Context, userID string, req ChangePasswordRequest) (result.Result[result.None], error) {
	if err := req.Validate(); err != nil {
		return result.Fail[result.None](validationMessages(err)...), nil
	}

	user, ok, err := s.findUser(ctx, userID)
	if err != nil || !ok {
		return result.Fail[result.None](MsgUserNotFound), err
	}

	if err := s.creds.ChangePassword(ctx, user, req.Password, req.NewPassword); err != nil {
		if msgs := storeFailure(err); msgs != nil {
			return result.Fail[result.None](msgs...), nil
		}
		return result.Result[result.None]{}, fmt.Errorf("change password: %w", err)
	}
	return result.Success(result.None{}, MsgPasswordChanged), nil
}

// ChangeStatus sets the active flag. Members of the admin role cannot be
// toggled.
func (s *Service) ChangeStatus(ctx context.Context, req ToggleUserStatusRequest) (result.Result[result.None], error) {
	if err := req.Validate(); err != nil {
		return result.Fail[result.None](validationMessages(err)...), nil
	}

	user, ok, err := s.findUser(ctx, req.UserID)
	if err != nil || !ok {
		return result.Fail[result.None](MsgUserNotFound), err
	}

	isAdmin, err := s.roles.IsUserInRole(ctx, user.ID, s.adminRole)
	if err != nil {
		return result.Result[result.None]{}, fmt.Errorf("check admin role: %w", err)
	}
	if isAdmin {
		return result.Fail[result.None](MsgAdminStatusLocked), nil
	}

	user.IsActive = req.ActivateUser
	if err := s.creds.Update(ctx, user); err != nil {
		return result.Result[result.None]{}, fmt.Errorf("update user: %w", err)
	}

	s.logger.Info(ctx, "user status changed", "user_id", user.ID, "active", user.IsActive)
	if req.ActivateUser {
		return result.Success(result.None{}, MsgUserActivated), nil
	}
	return result.Success(result.None{}, MsgUserDeactivated), nil
}

// GetRoles reports every role in the system with a flag telling whether the
// user holds it.
func (s *Service) GetRoles(ctx context.Context, userID string) (result.Result[UserRolesResponse], error) {
	user, ok, err := s.findUser(ctx, userID)
	if err != nil || !ok {
		return result.Fail[UserRolesResponse](MsgUserNotFound), err
	}

	all, err := s.roles.List(ctx)
	if err != nil {
		return result.Result[UserRolesResponse]{}, fmt.Errorf("list roles: %w", err)
	}

	resp := UserRolesResponse{UserRoles: make([]UserRoleModel, 0, len(all))}
	for _, role := range all {
		in, err := s.roles.IsUserInRole(ctx, user.ID, role.Name)
		if err != nil {
			return result.Result[UserRolesResponse]{}, fmt.Errorf("check role %q: %w", role.Name, err)
		}
		resp.UserRoles = append(resp.UserRoles, UserRoleModel{
			RoleName:        role.Name,
			RoleDescription: role.Description,
			Selected:        in,
		})
	}
	return result.Success(resp), nil
}

// UpdateRoles replaces the user's roles with the selected entries of the
// request. A caller outside the admin role may not grant or revoke it.
func (s *Service) UpdateRoles(ctx context.Context, callerID string, req UpdateUserRolesRequest) (result.Result[result.None], error) {
	if err := req.Validate(); err != nil {
		return result.Fail[result.None](validationMessages(err)...), nil
	}

	user, ok, err := s.findUser(ctx, req.UserID)
	if err != nil || !ok {
		return result.Fail[result.None](MsgUserNotFound), err
	}

	var selected []string
	wantsAdmin := false
	for _, r := range req.UserRoles {
		if !r.Selected {
			continue
		}
		if _, err := s.roles.FindByName(ctx, r.RoleName); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return result.Fail[result.None](fmt.Sprintf(msgRoleNotFoundFmt, r.RoleName)), nil
			}
			return result.Result[result.None]{}, fmt.Errorf("find role: %w", err)
		}
		selected = append(selected, r.RoleName)
		if r.RoleName == s.adminRole {
			wantsAdmin = true
		}
	}

	callerIsAdmin, err := s.roles.IsUserInRole(ctx, callerID, s.adminRole)
	if err != nil {
		return result.Result[result.None]{}, fmt.Errorf("check caller role: %w", err)
	}
	if !callerIsAdmin {
		hasAdmin, err := s.roles.IsUserInRole(ctx, user.ID, s.adminRole)
		if err != nil {
			return result.Result[result.None]{}, fmt.Errorf("check admin role: %w", err)
		}
		if wantsAdmin != hasAdmin {
			return result.Fail[result.None](MsgAdminRoleNotAllowed), nil
		}
	}

	if err := s.roles.SetUserRoles(ctx, user.ID, selected); err != nil {
		return result.Result[result.None]{}, fmt.Errorf("set roles: %w", err)
	}

	s.logger.Info(ctx, "user roles updated", "user_id", user.ID, "roles", selected)
	return result.Success(result.None{}, MsgRolesUpdated), nil
}

// AddClaim attaches a claim directly to a user. It is carried by every
// access token issued to the user afterwards.
func (s *Service) AddClaim(ctx context.Context, req AddUserClaimRequest) (result.Result[result.None], error) {
	if err := req.Validate(); err != nil {
		return result.Fail[result.None](validationMessages(err)...), nil
	}

	user, ok, err := s.findUser(ctx, req.UserID)
	if err != nil || !ok {
		return result.Fail[result.None](MsgUserNotFound), err
	}

	if err := s.creds.AddClaim(ctx, user, models.Claim{Type: req.ClaimType, Value: req.ClaimValue}); err != nil {
		if msgs := storeFailure(err); msgs != nil {
			return result.Fail[result.None](msgs...), nil
		}
		return result.Result[result.None]{}, fmt.Errorf("add claim: %w", err)
	}

	s.logger.Info(ctx, "user claim added", "user_id", user.ID, "claim_type", req.ClaimType)
	return result.Success(result.None{}, MsgClaimAdded), nil
}

// GetAll lists every user.
func (s *Service) GetAll(ctx context.Context) (result.Result[[]UserResponse], error) {
	list, err := s.creds.List(ctx)
	if err != nil {
		return result.Result[[]UserResponse]{}, fmt.Errorf("list users: %w", err)
	}
	out := make([]UserResponse, 0, len(list))
	for _, u := range list {
		out = append(out, toResponse(u))
	}
	return result.Success(out), nil
}

func (s *Service) Get(ctx context.Context, userID string) (result.Result[UserResponse], error) {
	user, ok, err := s.findUser(ctx, userID)
	if err != nil || !ok {
		return result.Fail[UserResponse](MsgUserNotFound), err
	}
	return result.Success(toResponse(user)), nil
}

func toResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:             u.ID,
		UserName:       u.UserName,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		Email:          u.Email,
		PhoneNumber:    u.PhoneNumber,
		IsActive:       u.IsActive,
		EmailConfirmed: u.EmailConfirmed,
	}
}
