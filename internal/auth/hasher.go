// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sessiongate Contributors

package auth

import (
	"errors"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is the work factor used when none is configured.
const DefaultBcryptCost = 10

// maxPasswordBytes is the longest input bcrypt accepts.
const maxPasswordBytes = 72

// ErrEmptyPassword is returned when attempting to hash an empty password.
var ErrEmptyPassword = oops.Code(CodeInvalidInput).With("field", "password").Errorf("password cannot be empty")

// ErrPasswordTooLong is returned when the password exceeds bcrypt's input limit.
var ErrPasswordTooLong = oops.Code(CodeInvalidInput).
	With("field", "password").
	With("max_bytes", maxPasswordBytes).
	Errorf("password must be at most %d bytes", maxPasswordBytes)

// ValidatePassword checks that password is non-empty and fits bcrypt's input limit.
func ValidatePassword(password string) error {
	if password == "" {
		return ErrEmptyPassword
	}
	if len(password) > maxPasswordBytes {
		return ErrPasswordTooLong
	}
	return nil
}

// PasswordHasher provides password hashing and verification.
type PasswordHasher interface {
	// Hash produces a salted one-way hash of the password.
	// Each call uses a fresh salt, so equal inputs give different outputs.
	Hash(password string) (string, error)

	// Verify checks if the password matches the hash.
	// Returns (true, nil) on match, (false, nil) on mismatch, or error on invalid hash.
	Verify(password, hash string) (bool, error)
}

// BcryptHasher implements PasswordHasher using bcrypt.
type BcryptHasher struct {
	cost  int
	dummy string
}

// NewBcryptHasher creates a BcryptHasher with the given cost.
// A cost of zero selects DefaultBcryptCost.
func NewBcryptHasher(cost int) (*BcryptHasher, error) {
	if cost == 0 {
		cost = DefaultBcryptCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, oops.Code("AUTH_INVALID_COST").
			With("cost", cost).
			Errorf("bcrypt cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}

	// Hash of a random throwaway secret at the configured cost.
	dummy, err := bcrypt.GenerateFromPassword([]byte(ulid.Make().String()), cost)
	if err != nil {
		return nil, oops.Code("AUTH_HASH_FAILED").With("cost", cost).Wrap(err)
	}
	return &BcryptHasher{cost: cost, dummy: string(dummy)}, nil
}

// DummyHash returns a hash that matches no password, generated at the
// hasher's cost so verifying against it takes as long as a real check.
func (h *BcryptHasher) DummyHash() string {
	return h.dummy
}

// Cost returns the configured work factor.
func (h *BcryptHasher) Cost() int {
	return h.cost
}

// Hash produces a bcrypt hash of the password.
func (h *BcryptHasher) Hash(password string) (string, error) {
	if err := ValidatePassword(password); err != nil {
		return "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", oops.Code("AUTH_HASH_FAILED").Wrap(err)
	}
	return string(hash), nil
}

// Verify checks if the password matches the bcrypt hash.
// The comparison runs in constant time with respect to the hash contents.
func (h *BcryptHasher) Verify(password, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword),
		errors.Is(err, bcrypt.ErrPasswordTooLong):
		return false, nil
	default:
		return false, oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}
}
