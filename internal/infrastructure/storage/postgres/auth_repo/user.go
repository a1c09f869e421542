// Package auth_repo provides PostgreSQL implementations for auth repositories.
package auth_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"

	"uniformshop/internal/core/apperror"
	"uniformshop/internal/core/id"
	"uniformshop/internal/domain/auth"
	"uniformshop/internal/infrastructure/storage/postgres"
)

const userColumns = `id, email, password_hash, name, role, is_active, last_login_at,
	failed_login_attempts, locked_until, created_at, updated_at, version`

var _ auth.UserRepository = (*UserRepo)(nil)

// UserRepo implements auth.UserRepository.
type UserRepo struct {
	txm *postgres.TxManager
}

// NewUserRepo creates a new user repository.
func NewUserRepo(txm *postgres.TxManager) *UserRepo {
	return &UserRepo{txm: txm}
}

// Create creates a new user.
func (r *UserRepo) Create(ctx context.Context, user *auth.User) error {
	q := r.txm.GetQuerier(ctx)

	_, err := q.Exec(ctx, `
		INSERT INTO users (
			id, email, password_hash, name, role, is_active,
			failed_login_attempts, created_at, updated_at, version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		user.ID, user.Email, user.PasswordHash, user.Name, user.Role, user.IsActive,
		user.FailedLoginAttempts, user.CreatedAt, user.UpdatedAt, user.Version,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperror.NewDuplicate("user", "email", user.Email)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByID retrieves user by ID.
func (r *UserRepo) GetByID(ctx context.Context, userID id.ID) (*auth.User, error) {
	return r.getOne(ctx, "id", userID, userID.String())
}

// GetByEmail retrieves user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	return r.getOne(ctx, "email", email, email)
}

func (r *UserRepo) getOne(ctx context.Context, column string, value any, key string) (*auth.User, error) {
	var user auth.User
	err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &user,
		"SELECT "+userColumns+" FROM users WHERE "+column+" = $1", value)
	if pgxscan.NotFound(err) {
		return nil, apperror.NewNotFound("user", key)
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &user, nil
}

// Update writes profile fields and login bookkeeping.
func (r *UserRepo) Update(ctx context.Context, user *auth.User) error {
	var version int
	err := r.txm.GetQuerier(ctx).QueryRow(ctx, `
		UPDATE users SET
			name = $2, role = $3, is_active = $4, password_hash = $5,
			last_login_at = $6, failed_login_attempts = $7, locked_until = $8,
			updated_at = now(), version = version + 1
		WHERE id = $1
		RETURNING version
	`,
		user.ID, user.Name, user.Role, user.IsActive, user.PasswordHash,
		user.LastLoginAt, user.FailedLoginAttempts, user.LockedUntil,
	).Scan(&version)
	if pgxscan.NotFound(err) {
		return apperror.NewNotFound("user", user.ID.String())
	}
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	user.Version = version
	return nil
}

// List returns all users ordered by email.
func (r *UserRepo) List(ctx context.Context) ([]*auth.User, error) {
	users := make([]*auth.User, 0)
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &users,
		"SELECT "+userColumns+" FROM users ORDER BY email"); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// Exists checks if a user with the email exists.
func (r *UserRepo) Exists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.txm.GetQuerier(ctx).QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)", email,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check user exists: %w", err)
	}
	return exists, nil
}
