package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/user-account-service/internal/model"
)

// mysqlDuplicateEntry is the MySQL error number for unique key violations.
const mysqlDuplicateEntry = 1062

const userColumns = "id,username,email,password_hash,roles,created_at"

// UserRepo persists accounts in the 'users' table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts the account.  A unique key violation is reported as ErrDuplicate.
func (r *UserRepo) Create(ctx context.Context, a *model.Account) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO users ("+userColumns+") VALUES (?,?,?,?,?,?)",
		a.ID, a.Username, a.Email, a.PasswordHash, joinRoles(a.Roles), a.CreatedAt)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == mysqlDuplicateEntry {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// FindByEmailOrUsername returns any account holding either the email or the username.
func (r *UserRepo) FindByEmailOrUsername(ctx context.Context, email, username string) (*model.Account, error) {
	return r.queryOne(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? OR username=? LIMIT 1",
		email, username)
}

// GetByEmail fetches an account by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	return r.queryOne(ctx, "SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email)
}

// GetByID fetches an account by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*model.Account, error) {
	return r.queryOne(ctx, "SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
}

func (r *UserRepo) queryOne(ctx context.Context, query string, args ...any) (*model.Account, error) {
	var (
		a     model.Account
		roles string
	)
	err := r.DB.QueryRowContext(ctx, query, args...).
		Scan(&a.ID, &a.Username, &a.Email, &a.PasswordHash, &roles, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	a.Roles = splitRoles(roles)
	a.CreatedAt = a.CreatedAt.UTC()
	return &a, nil
}

func joinRoles(roles []string) string { return strings.Join(roles, ",") }

func splitRoles(s string) []string {
	out := []string{}
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
