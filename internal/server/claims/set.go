// Package claims builds and inspects the claim sets carried by access tokens.
package claims

import (
	"slices"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// Claim types placed into access tokens.
const (
	TypeSubject    = "sub"
	TypeEmail      = "email"
	TypeGivenName  = "given_name"
	TypeFamilyName = "family_name"
	TypePhone      = "phone_number"
	TypeRole       = "role"
	TypePermission = "permission"
)

// reserved are the token payload fields owned by the token format itself.
var reserved = []string{"exp", "iat", "nbf"}

// IsReserved reports whether claimType collides with a token payload field
// and therefore cannot be carried as a claim.
func IsReserved(claimType string) bool {
	return slices.Contains(reserved, claimType)
}

// IsAssignable reports whether claimType may be attached directly to a
// user. Reserved payload fields and the identity types derived from the
// profile may not.
func IsAssignable(claimType string) bool {
	switch claimType {
	case TypeSubject, TypeEmail, TypeGivenName, TypeFamilyName, TypePhone:
		return false
	}
	return claimType != "" && !IsReserved(claimType)
}

// Set is an insertion-ordered set of claims. Two claims are the same element
// when both type and value are equal; re-adding one keeps the first position.
// The zero value is ready to use. Copies are independent: adding to a copy
// never changes the Set it was copied from, and vice versa.
type Set struct {
	items []models.Claim
}

// NewSet returns a Set holding the given claims in order.
func NewSet(cs ...models.Claim) Set {
	var s Set
	s.Add(cs...)
	return s
}

// Add appends claims not already present.
func (s *Set) Add(cs ...models.Claim) {
	// Copies may share the backing array; appends must not write into it.
	s.items = slices.Clip(s.items)
	for _, c := range cs {
		if !slices.Contains(s.items, c) {
			s.items = append(s.items, c)
		}
	}
}

// Union adds every element of other, preserving other's order for new ones.
func (s *Set) Union(other Set) {
	s.Add(other.items...)
}

func (s Set) Contains(c models.Claim) bool {
	return slices.Contains(s.items, c)
}

func (s Set) Len() int {
	return len(s.items)
}

// Values returns a copy of the elements in insertion order.
func (s Set) Values() []models.Claim {
	return append([]models.Claim(nil), s.items...)
}

// ValuesOf returns the values of every claim with the given type, in order.
func (s Set) ValuesOf(claimType string) []string {
	var out []string
	for _, c := range s.items {
		if c.Type == claimType {
			out = append(out, c.Value)
		}
	}
	return out
}

// First returns the value of the first claim with the given type.
func (s Set) First(claimType string) (string, bool) {
	for _, c := range s.items {
		if c.Type == claimType {
			return c.Value, true
		}
	}
	return "", false
}

// Permission claim values understood by the identity service.
const (
	PermUsersView = "Permissions.Users.View"
	PermUsersEdit = "Permissions.Users.Edit"
	PermRolesView = "Permissions.Roles.View"
	PermRolesEdit = "Permissions.Roles.Edit"
)

// AllPermissions lists every permission value, as granted to administrators.
var AllPermissions = []string{PermUsersView, PermUsersEdit, PermRolesView, PermRolesEdit}
