// Package common defines shared constants and sentinel errors used across
// client and server layers of gophauth. Callers should use errors.Is to
// match these values.
package common

import (
	"errors"
	"strings"
)

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Auth errors (invalid, tampered or wrongly signed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired = errors.New("token expired")
)

// ValidationError carries store-level rule violations (password policy,
// wrong current password) as human-readable descriptions. The descriptions
// are meant to be shown to the caller verbatim and in full.
type ValidationError struct {
	Descriptions []string
}

// NewValidationError builds a ValidationError from the given descriptions.
func NewValidationError(descriptions ...string) *ValidationError {
	return &ValidationError{Descriptions: append([]string(nil), descriptions...)}
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Descriptions, "; ")
}
