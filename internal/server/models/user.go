// Package models holds the records shared by the identity server's stores
// and services.
package models

import "time"

// User is an account record. PhoneNumber and RefreshToken are empty when
// absent; RefreshTokenExpiry is the zero time when no refresh token was
// ever issued.
type User struct {
	ID                 string
	Email              string
	UserName           string
	FirstName          string
	LastName           string
	PhoneNumber        string
	PasswordHash       string
	IsActive           bool
	EmailConfirmed     bool
	RefreshToken       string
	RefreshTokenExpiry time.Time
	CreatedAt          time.Time
}

// Clone returns a copy that can be mutated without touching the original.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
