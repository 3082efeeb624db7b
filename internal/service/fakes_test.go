package service

import (
	"context"
	"errors"
	"sync"

	"github.com/iliyamo/user-account-service/internal/model"
	"github.com/iliyamo/user-account-service/internal/queue"
	"github.com/iliyamo/user-account-service/internal/repository"
)

// memStore is an in-memory UserStore enforcing the same unique keys as the
// users table.
type memStore struct {
	mu       sync.Mutex
	byID     map[string]model.Account
	failWith error // returned by every call when set
	// skipPrecheck makes FindByEmailOrUsername miss, simulating a racing
	// registration that passed the pre-check.
	skipPrecheck bool
}

func newMemStore() *memStore { return &memStore{byID: map[string]model.Account{}} }

func (m *memStore) Create(_ context.Context, a *model.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	for _, u := range m.byID {
		if u.Email == a.Email || u.Username == a.Username {
			return repository.ErrDuplicate
		}
	}
	m.byID[a.ID] = *a
	return nil
}

func (m *memStore) FindByEmailOrUsername(_ context.Context, email, username string) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	if m.skipPrecheck {
		return nil, repository.ErrNotFound
	}
	for _, u := range m.byID {
		if u.Email == email || u.Username == username {
			u := u
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memStore) GetByEmail(_ context.Context, email string) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	for _, u := range m.byID {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memStore) GetByID(_ context.Context, id string) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	u, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []queue.AccountRegisteredEvent
	err    error
}

func (p *fakePublisher) PublishAccountRegistered(_ context.Context, ev queue.AccountRegisteredEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

// countingHasher wraps a PasswordHasher and counts Verify calls.
type countingHasher struct {
	PasswordHasher
	mu       sync.Mutex
	verifies int
}

func (c *countingHasher) Verify(hash, plain string) bool {
	c.mu.Lock()
	c.verifies++
	c.mu.Unlock()
	return c.PasswordHasher.Verify(hash, plain)
}

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

var errStoreDown = errors.New("store unavailable")
