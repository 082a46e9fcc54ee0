package users

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/google/uuid"
)

// MemoryRepository keeps users in process memory. Records are copied on the
// way in and out, so callers never share state with the store.
type MemoryRepository struct {
	mu     sync.RWMutex
	users  map[string]*models.User
	claims map[string][]models.Claim
	now    func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users:  make(map[string]*models.User),
		claims: make(map[string][]models.Claim),
		now:    time.Now,
	}
}

// taken reports whether another user already uses email or userName.
func (r *MemoryRepository) taken(id, email, userName string) bool {
	for _, u := range r.users {
		if u.ID == id {
			continue
		}
		if strings.EqualFold(u.Email, email) || strings.EqualFold(u.UserName, userName) {
			return true
		}
	}
	return false
}

func (r *MemoryRepository) Create(_ context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if _, ok := r.users[user.ID]; ok || r.taken(user.ID, user.Email, user.UserName) {
		return nil, common.ErrorAlreadyExists
	}
	user.CreatedAt = r.now()
	r.users[user.ID] = user.Clone()
	return user, nil
}

func (r *MemoryRepository) Update(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	old, ok := r.users[user.ID]
	if !ok {
		return common.ErrorNotFound
	}
	if r.taken(user.ID, user.Email, user.UserName) {
		return common.ErrorAlreadyExists
	}
	u := user.Clone()
	u.CreatedAt = old.CreatedAt
	r.users[user.ID] = u
	return nil
}

func (r *MemoryRepository) find(match func(*models.User) bool) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if match(u) {
			return u.Clone(), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *MemoryRepository) FindByID(_ context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u.Clone(), nil
}

func (r *MemoryRepository) FindByEmail(_ context.Context, email string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return strings.EqualFold(u.Email, email) })
}

func (r *MemoryRepository) FindByUserName(_ context.Context, userName string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return strings.EqualFold(u.UserName, userName) })
}

func (r *MemoryRepository) List(_ context.Context) ([]*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u.Clone())
	}
	slices.SortFunc(out, func(a, b *models.User) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.Email, b.Email)
	})
	return out, nil
}

func (r *MemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.users, id)
	delete(r.claims, id)
	return nil
}

func (r *MemoryRepository) Claims(_ context.Context, userID string) ([]models.Claim, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Clone(r.claims[userID]), nil
}

// AddClaim attaches a claim directly to a user.
func (r *MemoryRepository) AddClaim(_ context.Context, userID string, c models.Claim) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[userID]; !ok {
		return common.ErrorNotFound
	}
	r.claims[userID] = append(r.claims[userID], c)
	return nil
}
