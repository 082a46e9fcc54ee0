package claims

import "github.com/dmitrijs2005/gophauth/internal/server/models"

// RoleGrant is a role the user holds together with the permission claims
// attached to that role.
type RoleGrant struct {
	Name   string
	Claims []models.Claim
}

// Assemble produces the full claim set for a user's token: claims attached
// directly to the user, identity claims taken from the record, one role
// claim per held role and the permission claims of every held role, in
// that grouping order. Duplicates collapse.
func Assemble(user *models.User, direct []models.Claim, roles []RoleGrant) Set {
	var s Set

	s.Add(direct...)

	s.Add(
		models.Claim{Type: TypeSubject, Value: user.ID},
		models.Claim{Type: TypeEmail, Value: user.Email},
		models.Claim{Type: TypeGivenName, Value: user.FirstName},
		models.Claim{Type: TypeFamilyName, Value: user.LastName},
		models.Claim{Type: TypePhone, Value: user.PhoneNumber},
	)

	for _, r := range roles {
		s.Add(models.Claim{Type: TypeRole, Value: r.Name})
	}
	for _, r := range roles {
		s.Add(r.Claims...)
	}

	return s
}
