// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sessiongate Contributors

// Package memory implements an in-memory credential store for development and testing.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/sessiongate/sessiongate/internal/auth"
)

// UserRepository implements auth.UserRepository with a mutex-guarded map keyed by email.
type UserRepository struct {
	mu      sync.RWMutex
	byEmail map[string]*auth.User
	now     func() time.Time
}

// NewUserRepository creates an empty UserRepository.
func NewUserRepository() *UserRepository {
	return &UserRepository{
		byEmail: make(map[string]*auth.User),
		now:     time.Now,
	}
}

var _ auth.UserRepository = (*UserRepository)(nil)

// Create stores a new user. The email check and insert happen under one lock.
func (r *UserRepository) Create(ctx context.Context, name, email, passwordHash string) (ulid.ULID, error) {
	if err := ctx.Err(); err != nil {
		return ulid.ULID{}, oops.Code("STORE_UNAVAILABLE").
			With("operation", "insert user").
			Wrap(auth.ErrStoreUnavailable)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[email]; exists {
		return ulid.ULID{}, oops.Code("USER_DUPLICATE_EMAIL").
			With("email", email).
			Wrap(auth.ErrDuplicateEmail)
	}

	user := &auth.User{
		ID:           ulid.Make(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    r.now().UTC(),
	}
	r.byEmail[email] = user
	return user.ID, nil
}

// GetByEmail retrieves a copy of the user with the given email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, oops.Code("STORE_UNAVAILABLE").
			With("operation", "get user by email").
			Wrap(auth.ErrStoreUnavailable)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byEmail[email]
	if !ok {
		return nil, oops.Code("USER_NOT_FOUND").
			With("email", email).
			Wrap(auth.ErrNotFound)
	}
	userCopy := *user
	return &userCopy, nil
}

// Len returns the number of stored users.
func (r *UserRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byEmail)
}
