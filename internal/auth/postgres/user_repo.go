// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sessiongate Contributors

// Package postgres implements the credential store on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/sessiongate/sessiongate/internal/auth"
)

// poolIface is the subset of pgxpool.Pool used by the repository.
// pgxmock.PgxPoolIface satisfies it for unit tests.
type poolIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// UserRepository implements auth.UserRepository using PostgreSQL.
// Email uniqueness is enforced by the users_email_key constraint.
type UserRepository struct {
	pool poolIface
	now  func() time.Time
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(pool poolIface) *UserRepository {
	return &UserRepository{pool: pool, now: time.Now}
}

var _ auth.UserRepository = (*UserRepository)(nil)

// Create stores a new user and returns its generated ID.
func (r *UserRepository) Create(ctx context.Context, name, email, passwordHash string) (ulid.ULID, error) {
	id := ulid.Make()
	createdAt := r.now().UTC().Truncate(time.Microsecond)

	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (id, name, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, id.String(), name, email, passwordHash, createdAt)
	if err == nil {
		return id, nil
	}

	switch {
	case isUniqueViolation(err):
		return ulid.ULID{}, oops.Code("USER_DUPLICATE_EMAIL").
			With("email", email).
			Wrap(auth.ErrDuplicateEmail)
	case isUnavailable(err):
		return ulid.ULID{}, oops.Code("STORE_UNAVAILABLE").
			With("operation", "insert user").
			Wrap(errors.Join(auth.ErrStoreUnavailable, err))
	default:
		return ulid.ULID{}, oops.Code("USER_CREATE_FAILED").
			With("operation", "insert user").
			With("email", email).
			Wrap(err)
	}
}

// GetByEmail retrieves a user by exact email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, email, password_hash, created_at
		FROM users
		WHERE email = $1
	`, email)

	var (
		user  auth.User
		idStr string
	)
	err := row.Scan(&idStr, &user.Name, &user.Email, &user.PasswordHash, &user.CreatedAt)
	switch {
	case err == nil:
	case errors.Is(err, pgx.ErrNoRows):
		return nil, oops.Code("USER_NOT_FOUND").
			With("email", email).
			Wrap(auth.ErrNotFound)
	case isUnavailable(err):
		return nil, oops.Code("STORE_UNAVAILABLE").
			With("operation", "get user by email").
			Wrap(errors.Join(auth.ErrStoreUnavailable, err))
	default:
		return nil, oops.Code("USER_GET_BY_EMAIL_FAILED").
			With("operation", "get user by email").
			With("email", email).
			Wrap(err)
	}

	user.ID, err = ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("USER_INVALID_ID").With("id", idStr).Wrap(err)
	}
	return &user, nil
}
