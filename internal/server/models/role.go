package models

// Role is a named group of permission claims.
type Role struct {
	ID          string
	Name        string
	Description string
}

// Claim is a typed (kind, value) assertion attached to a user or a role,
// or embedded in a token.
type Claim struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}
