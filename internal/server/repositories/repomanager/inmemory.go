package repomanager

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/server/repositories/roles"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
)

// InMemoryRepositoryManager keeps everything in process memory. Data does
// not survive a restart.
type InMemoryRepositoryManager struct {
	users *users.MemoryRepository
	roles *roles.MemoryRepository
}

func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{
		users: users.NewMemoryRepository(),
		roles: roles.NewMemoryRepository(),
	}
}

// RunMigrations seeds the default roles, mirroring the SQL seed migration.
func (m *InMemoryRepositoryManager) RunMigrations(context.Context) error {
	roles.SeedDefaults(m.roles)
	return nil
}

func (m *InMemoryRepositoryManager) Users() users.Repository {
	return m.users
}

func (m *InMemoryRepositoryManager) Roles() roles.Repository {
	return m.roles
}

func (m *InMemoryRepositoryManager) Close() error {
	return nil
}
