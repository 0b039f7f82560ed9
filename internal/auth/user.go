// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sessiongate Contributors

package auth

import (
	"context"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Field length limits, matching the users table columns.
const (
	MaxNameLength  = 100
	MaxEmailLength = 100
)

// User is a stored credential record.
type User struct {
	ID           ulid.ULID
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// ValidateName checks a display name.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return oops.Code(CodeInvalidInput).With("field", "name").Errorf("name cannot be empty")
	}
	if len(name) > MaxNameLength {
		return oops.Code(CodeInvalidInput).
			With("field", "name").
			With("max", MaxNameLength).
			Errorf("name must be at most %d characters", MaxNameLength)
	}
	return nil
}

// ValidateEmail checks that email is non-empty and fits the column.
// Emails are compared exactly as given; no case folding is applied.
func ValidateEmail(email string) error {
	if email == "" {
		return oops.Code(CodeInvalidInput).With("field", "email").Errorf("email cannot be empty")
	}
	if len(email) > MaxEmailLength {
		return oops.Code(CodeInvalidInput).
			With("field", "email").
			With("max", MaxEmailLength).
			Errorf("email must be at most %d characters", MaxEmailLength)
	}
	return nil
}

// UserRepository manages credential persistence.
// Records are insert-only; there is no update or delete.
type UserRepository interface {
	// Create stores a new user and returns the assigned ID.
	// Returns ErrDuplicateEmail if the email is already registered and
	// ErrStoreUnavailable if the store cannot be reached.
	Create(ctx context.Context, name, email, passwordHash string) (ulid.ULID, error)

	// GetByEmail retrieves a user by exact email.
	// Returns ErrNotFound if no user has the given email.
	GetByEmail(ctx context.Context, email string) (*User, error)
}
