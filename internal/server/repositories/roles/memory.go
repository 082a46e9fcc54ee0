package roles

import (
	"context"
	"slices"
	"sort"
	"strconv"
	"sync"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

type memoryRole struct {
	role   models.Role
	claims []models.Claim
}

// MemoryRepository keeps roles and memberships in process memory.
type MemoryRepository struct {
	mu      sync.RWMutex
	roles   map[string]*memoryRole
	members map[string]map[string]struct{}
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		roles:   make(map[string]*memoryRole),
		members: make(map[string]map[string]struct{}),
	}
}

// AddRole creates or replaces a role together with its claims.
func (r *MemoryRepository) AddRole(role models.Role, claims ...models.Claim) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if role.ID == "" {
		role.ID = strconv.Itoa(len(r.roles) + 1)
	}
	r.roles[role.Name] = &memoryRole{role: role, claims: slices.Clone(claims)}
}

func (r *MemoryRepository) List(_ context.Context) ([]models.Role, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Role, 0, len(r.roles))
	for _, mr := range r.roles {
		out = append(out, mr.role)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *MemoryRepository) FindByName(_ context.Context, name string) (*models.Role, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	mr, ok := r.roles[name]
	if !ok {
		return nil, common.ErrorNotFound
	}
	role := mr.role
	return &role, nil
}

func (r *MemoryRepository) Claims(_ context.Context, roleName string) ([]models.Claim, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	mr, ok := r.roles[roleName]
	if !ok {
		return nil, nil
	}
	return slices.Clone(mr.claims), nil
}

func (r *MemoryRepository) UserRoles(_ context.Context, userID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []string
	for name := range r.members[userID] {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

func (r *MemoryRepository) IsUserInRole(_ context.Context, userID, roleName string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.members[userID][roleName]
	return ok, nil
}

func (r *MemoryRepository) AddUserToRole(_ context.Context, userID, roleName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.roles[roleName]; !ok {
		return common.ErrorNotFound
	}
	if r.members[userID] == nil {
		r.members[userID] = make(map[string]struct{})
	}
	r.members[userID][roleName] = struct{}{}
	return nil
}

func (r *MemoryRepository) SetUserRoles(_ context.Context, userID string, roleNames []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	set := make(map[string]struct{}, len(roleNames))
	for _, name := range roleNames {
		if _, ok := r.roles[name]; !ok {
			return common.ErrorNotFound
		}
		set[name] = struct{}{}
	}
	r.members[userID] = set
	return nil
}
