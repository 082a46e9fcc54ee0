package claims

import (
	"slices"
	"time"
)

// Principal is the claim set recovered from a validated token.
type Principal struct {
	Claims    Set
	ExpiresAt time.Time
}

func (p *Principal) Subject() string {
	v, _ := p.Claims.First(TypeSubject)
	return v
}

func (p *Principal) Email() string {
	v, _ := p.Claims.First(TypeEmail)
	return v
}

func (p *Principal) IsInRole(role string) bool {
	return slices.Contains(p.Claims.ValuesOf(TypeRole), role)
}

func (p *Principal) HasPermission(permission string) bool {
	return slices.Contains(p.Claims.ValuesOf(TypePermission), permission)
}
