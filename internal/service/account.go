// Package service holds the account workflow: registration, login and
// profile lookup on top of the credential store, the password hasher and
// the token issuer.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/user-account-service/internal/logging"
	"github.com/iliyamo/user-account-service/internal/model"
	"github.com/iliyamo/user-account-service/internal/queue"
	"github.com/iliyamo/user-account-service/internal/repository"
	"github.com/iliyamo/user-account-service/internal/utils"
)

// UserStore is the credential store.  Lookups return repository.ErrNotFound
// when nothing matches; Create returns repository.ErrDuplicate on a unique
// key violation.
type UserStore interface {
	Create(ctx context.Context, a *model.Account) error
	FindByEmailOrUsername(ctx context.Context, email, username string) (*model.Account, error)
	GetByEmail(ctx context.Context, email string) (*model.Account, error)
	GetByID(ctx context.Context, id string) (*model.Account, error)
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(hash, plain string) bool
}

type TokenIssuer interface {
	Issue(c utils.Claim) (utils.AccessToken, error)
}

// EventPublisher receives account events.  Publishing is best effort.
type EventPublisher interface {
	PublishAccountRegistered(ctx context.Context, ev queue.AccountRegisteredEvent) error
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

type LoginInput struct {
	Email    string
	Password string
}

// AuthResult is returned by Register and Login.  Account never carries the
// password hash.
type AuthResult struct {
	Account model.Account
	Token   utils.AccessToken
}

// AccountService orchestrates registration, login and profile retrieval.
// It holds no per-request state and is safe for concurrent use.
type AccountService struct {
	users  UserStore
	hasher PasswordHasher
	tokens TokenIssuer
	events EventPublisher // nil disables publishing
	log    logging.Logger
	now    func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

func NewAccountService(users UserStore, hasher PasswordHasher, tokens TokenIssuer, events EventPublisher, log logging.Logger) *AccountService {
	if log == nil {
		log = logging.Discard()
	}
	return &AccountService{users: users, hasher: hasher, tokens: tokens, events: events, log: log, now: time.Now}
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// Register creates an account with the default role and issues a token.
// The lookup on email or username is a best-effort pre-check; the store's
// unique keys decide concurrent races.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (AuthResult, error) {
	username := strings.TrimSpace(in.Username)
	email := NormalizeEmail(in.Email)

	existing, err := s.users.FindByEmailOrUsername(ctx, email, username)
	switch {
	case err == nil && existing != nil:
		return AuthResult{}, ErrDuplicateAccount
	case err != nil && !errors.Is(err, repository.ErrNotFound):
		return AuthResult{}, fmt.Errorf("lookup existing account: %w", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return AuthResult{}, fmt.Errorf("hash password: %w", err)
	}

	acc := &model.Account{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Roles:        []string{model.RoleUser},
		CreatedAt:    s.now().UTC().Truncate(time.Second),
	}
	if err := s.users.Create(ctx, acc); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return AuthResult{}, ErrDuplicateAccount
		}
		return AuthResult{}, fmt.Errorf("create account: %w", err)
	}

	tok, err := s.issue(acc)
	if err != nil {
		return AuthResult{}, err
	}
	s.log.Info(ctx, "account registered", "account_id", acc.ID)
	s.publishRegistered(ctx, acc)

	return AuthResult{Account: acc.Public(), Token: tok}, nil
}

// Login verifies the password for email and issues a token.  Unknown email
// and wrong password produce the same ErrInvalidCredentials, and both paths
// run one bcrypt comparison.
func (s *AccountService) Login(ctx context.Context, in LoginInput) (AuthResult, error) {
	acc, err := s.users.GetByEmail(ctx, NormalizeEmail(in.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.hasher.Verify(s.dummy(), in.Password)
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, fmt.Errorf("lookup account: %w", err)
	}
	if !s.hasher.Verify(acc.PasswordHash, in.Password) {
		return AuthResult{}, ErrInvalidCredentials
	}

	tok, err := s.issue(acc)
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{Account: acc.Public(), Token: tok}, nil
}

// GetProfile returns the account for id without its password hash.
func (s *AccountService) GetProfile(ctx context.Context, id string) (model.Account, error) {
	acc, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Account{}, ErrNotFound
		}
		return model.Account{}, fmt.Errorf("load account: %w", err)
	}
	return acc.Public(), nil
}

func (s *AccountService) issue(acc *model.Account) (utils.AccessToken, error) {
	tok, err := s.tokens.Issue(utils.Claim{AccountID: acc.ID, Username: acc.Username, Roles: acc.Roles})
	if err != nil {
		return utils.AccessToken{}, fmt.Errorf("issue token: %w", err)
	}
	return tok, nil
}

func (s *AccountService) publishRegistered(ctx context.Context, acc *model.Account) {
	if s.events == nil {
		return
	}
	ev := queue.AccountRegisteredEvent{
		AccountID:    acc.ID,
		Username:     acc.Username,
		Email:        acc.Email,
		Roles:        acc.Roles,
		RegisteredAt: acc.CreatedAt.Format(time.RFC3339),
	}
	if err := s.events.PublishAccountRegistered(ctx, ev); err != nil {
		s.log.Warn(ctx, "publish account.registered failed", "account_id", acc.ID, "err", err)
	}
}

// dummy returns a hash used to burn the same bcrypt time on unknown emails.
func (s *AccountService) dummy() string {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash(uuid.NewString())
		if err == nil {
			s.dummyHash = h
		}
	})
	return s.dummyHash
}
