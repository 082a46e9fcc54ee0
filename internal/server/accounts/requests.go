package accounts

import (
	"errors"
	"fmt"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

const msgPasswordsDiffer = "passwords do not match"

type RegisterRequest struct {
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	Email            string `json:"email"`
	UserName         string `json:"user_name"`
	Password         string `json:"password"`
	ConfirmPassword  string `json:"confirm_password"`
	PhoneNumber      string `json:"phone_number,omitempty"`
	ActivateUser     bool   `json:"activate_user"`
	AutoConfirmEmail bool   `json:"auto_confirm_email"`
}

func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.EmailFormat),
		validation.Field(&r.UserName, validation.Required, validation.RuneLength(1, 64)),
		validation.Field(&r.Password, validation.Required),
		validation.Field(&r.ConfirmPassword, validation.Required, validation.In(r.Password).Error(msgPasswordsDiffer)),
		validation.Field(&r.PhoneNumber, is.E164),
	)
}

type UpdateProfileRequest struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number,omitempty"`
}

func (r UpdateProfileRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Required),
		validation.Field(&r.LastName, validation.Required),
		validation.Field(&r.PhoneNumber, is.E164),
	)
}

type ChangePasswordRequest struct {
	Password           string `json:"password"`
	NewPassword        string `json:"new_password"`
	ConfirmNewPassword string `json:"confirm_new_password"`
}

func (r ChangePasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Password, validation.Required),
		validation.Field(&r.NewPassword, validation.Required),
		validation.Field(&r.ConfirmNewPassword, validation.Required, validation.In(r.NewPassword).Error(msgPasswordsDiffer)),
	)
}

type ToggleUserStatusRequest struct {
	UserID       string `json:"user_id"`
	ActivateUser bool   `json:"activate_user"`
}

func (r ToggleUserStatusRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.UserID, validation.Required),
	)
}

type UserRoleModel struct {
	RoleName        string `json:"role_name"`
	RoleDescription string `json:"role_description"`
	Selected        bool   `json:"selected"`
}

type UserRolesResponse struct {
	UserRoles []UserRoleModel `json:"user_roles"`
}

type UpdateUserRolesRequest struct {
	UserID    string          `json:"user_id"`
	UserRoles []UserRoleModel `json:"user_roles"`
}

func (r UpdateUserRolesRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.UserID, validation.Required),
	)
}

type AddUserClaimRequest struct {
	UserID     string `json:"user_id"`
	ClaimType  string `json:"claim_type"`
	ClaimValue string `json:"claim_value"`
}

func (r AddUserClaimRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.UserID, validation.Required),
		validation.Field(&r.ClaimType, validation.Required, validation.RuneLength(1, 256)),
		validation.Field(&r.ClaimValue, validation.Required, validation.RuneLength(1, 256)),
	)
}

type UserResponse struct {
	ID             string `json:"id"`
	UserName       string `json:"user_name"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Email          string `json:"email"`
	PhoneNumber    string `json:"phone_number,omitempty"`
	IsActive       bool   `json:"is_active"`
	EmailConfirmed bool   `json:"email_confirmed"`
}

// validationMessages flattens an ozzo error into "field: problem" lines
// sorted by field name.
func validationMessages(err error) []string {
	var fields validation.Errors
	if !errors.As(err, &fields) {
		return []string{err.Error()}
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, fmt.Sprintf("%s: %s", name, fields[name].Error()))
	}
	return out
}
