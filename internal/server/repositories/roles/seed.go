package roles

import (
	"github.com/dmitrijs2005/gophauth/internal/server/claims"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

const (
	Basic         = "Basic"
	Administrator = "Administrator"
)

// SeedDefaults installs the roles the database migrations create: Basic
// without permissions and Administrator with every permission.
func SeedDefaults(r *MemoryRepository) {
	admin := make([]models.Claim, 0, len(claims.AllPermissions))
	for _, p := range claims.AllPermissions {
		admin = append(admin, models.Claim{Type: claims.TypePermission, Value: p})
	}
	r.AddRole(models.Role{Name: Administrator, Description: "Full access to user and role management"}, admin...)
	r.AddRole(models.Role{Name: Basic, Description: "Default role for registered users"})
}
