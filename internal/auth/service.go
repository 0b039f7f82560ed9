// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sessiongate Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// TokenService issues and validates session tokens.
type TokenService interface {
	Issue(user *User) (*SessionToken, error)
	Validate(token string) (*Identity, error)
}

var _ TokenService = (*TokenIssuer)(nil)

// Registration is the confirmation returned by a successful Register.
type Registration struct {
	UserID ulid.ULID
	Name   string
	Email  string
}

// Service provides registration and authentication operations.
type Service struct {
	users  UserRepository
	hasher PasswordHasher
	tokens TokenService
	logger *slog.Logger

	// verified when no user matches, so unknown emails cost one comparison too
	dummyHash string
}

// dummyHasher is implemented by hashers that can supply a non-matching hash
// at their own work factor.
type dummyHasher interface {
	DummyHash() string
}

// NewService creates a new Service using the default logger.
func NewService(users UserRepository, hasher PasswordHasher, tokens TokenService) (*Service, error) {
	return NewServiceWithLogger(users, hasher, tokens, slog.Default())
}

// NewServiceWithLogger creates a new Service that logs to logger.
func NewServiceWithLogger(users UserRepository, hasher PasswordHasher, tokens TokenService, logger *slog.Logger) (*Service, error) {
	if users == nil {
		return nil, oops.Code("AUTH_INVALID_SERVICE").Errorf("users repository is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_INVALID_SERVICE").Errorf("password hasher is required")
	}
	if tokens == nil {
		return nil, oops.Code("AUTH_INVALID_SERVICE").Errorf("token service is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	dummy := dummyPasswordHash
	if d, ok := hasher.(dummyHasher); ok && d.DummyHash() != "" {
		dummy = d.DummyHash()
	}
	return &Service{
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		logger:    logger,
		dummyHash: dummy,
	}, nil
}

// dummyPasswordHash is the fallback for hashers without DummyHash. It is a
// well-formed cost-10 bcrypt hash that matches no password.
//
//nolint:gosec // G101: not a credential
const dummyPasswordHash = "$2a$10$7EqJtq98hPqEX7fNZaFWoOhi5BWX4Z3mE4eYH4Wq7PQyZ1dXqy9Pe"

// Register hashes the password and stores a new user.
// Returns an AUTH_DUPLICATE_EMAIL error if the email is taken, AUTH_INVALID_INPUT
// for rejected fields, and AUTH_INTERNAL for anything else.
func (s *Service) Register(ctx context.Context, name, email, password string) (*Registration, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, internalError("hash password", err)
	}

	id, err := s.users.Create(ctx, name, email, hash)
	if errors.Is(err, ErrDuplicateEmail) {
		return nil, oops.Code(CodeDuplicateEmail).
			With("email", email).
			Wrap(ErrDuplicateEmail)
	}
	if err != nil {
		return nil, internalError("create user", err)
	}

	s.logger.InfoContext(ctx, "user registered", "user_id", id.String())

	return &Registration{
		UserID: id,
		Name:   name,
		Email:  email,
	}, nil
}

// Authenticate verifies credentials and issues a session token.
// Unknown emails and wrong passwords both yield AUTH_INVALID_CREDENTIALS.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*SessionToken, error) {
	user, lookupErr := s.users.GetByEmail(ctx, email)

	targetHash := s.dummyHash
	userExists := false

	switch {
	case lookupErr == nil:
		targetHash = user.PasswordHash
		userExists = true
	case errors.Is(lookupErr, ErrNotFound):
	default:
		return nil, internalError("get user by email", lookupErr)
	}

	// Always verify so both branches cost one bcrypt comparison.
	valid, verifyErr := s.hasher.Verify(password, targetHash)
	if verifyErr != nil {
		if !userExists {
			return nil, invalidCredentials()
		}
		return nil, internalError("verify password", verifyErr)
	}

	if !userExists || !valid {
		s.logger.DebugContext(ctx, "authentication rejected")
		return nil, invalidCredentials()
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, internalError("issue token", err)
	}

	s.logger.InfoContext(ctx, "user authenticated", "user_id", user.ID.String())
	return token, nil
}

// ValidateToken checks a session token and returns the identity it carries.
func (s *Service) ValidateToken(token string) (*Identity, error) {
	//nolint:wrapcheck // token service errors are already coded
	return s.tokens.Validate(token)
}

func invalidCredentials() error {
	return oops.Code(CodeInvalidCredentials).Errorf("invalid email or password")
}

// internalError returns a new AUTH_INTERNAL error carrying the text of cause.
// The cause is not wrapped, so codes set by lower layers do not override it.
func internalError(operation string, cause error) error {
	return oops.Code(CodeInternal).
		With("operation", operation).
		With("cause", cause.Error()).
		Errorf("%s: %v", operation, cause)
}
