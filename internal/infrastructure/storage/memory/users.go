package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"uniformshop/internal/core/apperror"
	"uniformshop/internal/core/id"
	"uniformshop/internal/domain/auth"
)

var _ auth.UserRepository = (*UserRepo)(nil)

// UserRepo stores accounts in memory.
type UserRepo struct {
	mu    sync.RWMutex
	items map[id.ID]*auth.User
}

// NewUserRepo creates an empty user repository.
func NewUserRepo() *UserRepo {
	return &UserRepo{items: make(map[id.ID]*auth.User)}
}

func cloneUser(u *auth.User) *auth.User {
	c := *u
	return &c
}

// Create implements auth.UserRepository.
func (r *UserRepo) Create(_ context.Context, u *auth.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.items {
		if existing.Email == u.Email {
			return apperror.NewDuplicate("user", "email", u.Email)
		}
	}
	r.items[u.ID] = cloneUser(u)
	return nil
}

// GetByID implements auth.UserRepository.
func (r *UserRepo) GetByID(_ context.Context, uid id.ID) (*auth.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.items[uid]
	if !ok {
		return nil, apperror.NewNotFound("user", uid.String())
	}
	return cloneUser(u), nil
}

// GetByEmail implements auth.UserRepository.
func (r *UserRepo) GetByEmail(_ context.Context, email string) (*auth.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.items {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, apperror.NewNotFound("user", email)
}

// Update implements auth.UserRepository.
func (r *UserRepo) Update(_ context.Context, u *auth.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[u.ID]; !ok {
		return apperror.NewNotFound("user", u.ID.String())
	}
	u.Version++
	r.items[u.ID] = cloneUser(u)
	return nil
}

// List implements auth.UserRepository.
func (r *UserRepo) List(context.Context) ([]*auth.User, error) {
	r.mu.RLock()
	out := make([]*auth.User, 0, len(r.items))
	for _, u := range r.items {
		out = append(out, cloneUser(u))
	}
	r.mu.RUnlock()
	slices.SortFunc(out, func(a, b *auth.User) int { return cmp.Compare(a.Email, b.Email) })
	return out, nil
}

// Exists implements auth.UserRepository.
func (r *UserRepo) Exists(_ context.Context, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.items {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}
