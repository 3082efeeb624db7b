package repository

import (
	"context"
	"sync"

	"github.com/iliyamo/user-account-service/internal/model"
)

// MemoryUserRepo is an in-process account store with the same uniqueness
// rules as the users table.  It backs STORE=memory for local runs.
type MemoryUserRepo struct {
	mu      sync.RWMutex
	byID    map[string]*model.Account
	byEmail map[string]string // email -> id
	byName  map[string]string // username -> id
}

func NewMemoryUserRepo() *MemoryUserRepo {
	return &MemoryUserRepo{
		byID:    make(map[string]*model.Account),
		byEmail: make(map[string]string),
		byName:  make(map[string]string),
	}
}

// Create stores a copy of a.  Either key already present yields ErrDuplicate.
func (r *MemoryUserRepo) Create(_ context.Context, a *model.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[a.Email]; ok {
		return ErrDuplicate
	}
	if _, ok := r.byName[a.Username]; ok {
		return ErrDuplicate
	}
	if _, ok := r.byID[a.ID]; ok {
		return ErrDuplicate
	}
	cp := *a
	cp.Roles = append([]string(nil), a.Roles...)
	r.byID[a.ID] = &cp
	r.byEmail[a.Email] = a.ID
	r.byName[a.Username] = a.ID
	return nil
}

func (r *MemoryUserRepo) FindByEmailOrUsername(_ context.Context, email, username string) (*model.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if id, ok := r.byEmail[email]; ok {
		return r.copyOf(id), nil
	}
	if id, ok := r.byName[username]; ok {
		return r.copyOf(id), nil
	}
	return nil, ErrNotFound
}

func (r *MemoryUserRepo) GetByEmail(_ context.Context, email string) (*model.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if id, ok := r.byEmail[email]; ok {
		return r.copyOf(id), nil
	}
	return nil, ErrNotFound
}

func (r *MemoryUserRepo) GetByID(_ context.Context, id string) (*model.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.byID[id]; ok {
		return r.copyOf(id), nil
	}
	return nil, ErrNotFound
}

// copyOf must be called with r.mu held.
func (r *MemoryUserRepo) copyOf(id string) *model.Account {
	cp := *r.byID[id]
	cp.Roles = append([]string(nil), cp.Roles...)
	return &cp
}
