// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sessiongate Contributors

package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// SessionTokenExpiry is the default lifetime of an issued session token.
const SessionTokenExpiry = 24 * time.Hour

// Claims is the payload carried by a session token.
type Claims struct {
	UserID string `json:"id"`
	Name   string `json:"name"`
	jwt.RegisteredClaims
}

// SessionToken is the result of a successful authentication.
type SessionToken struct {
	Token     string
	UserID    ulid.ULID
	Name      string
	ExpiresAt time.Time
}

// Identity is the subject recovered from a valid session token.
type Identity struct {
	UserID    ulid.ULID
	Name      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenOption configures a TokenIssuer.
type TokenOption func(*TokenIssuer)

// WithClock overrides the time source used for issuing and validating tokens.
func WithClock(now func() time.Time) TokenOption {
	return func(i *TokenIssuer) {
		i.now = now
	}
}

// TokenIssuer signs and verifies HS256 session tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer creates a TokenIssuer. A zero ttl selects SessionTokenExpiry.
func NewTokenIssuer(secret []byte, ttl time.Duration, opts ...TokenOption) (*TokenIssuer, error) {
	if len(secret) == 0 {
		return nil, oops.Code("TOKEN_SECRET_REQUIRED").Errorf("token secret cannot be empty")
	}
	if ttl < 0 {
		return nil, oops.Code("TOKEN_INVALID_TTL").With("ttl", ttl.String()).Errorf("token ttl must be positive")
	}
	if ttl == 0 {
		ttl = SessionTokenExpiry
	}

	i := &TokenIssuer{
		secret: secret,
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// TTL returns the lifetime applied to issued tokens.
func (i *TokenIssuer) TTL() time.Duration {
	return i.ttl
}

// Issue creates a signed token for the user.
func (i *TokenIssuer) Issue(user *User) (*SessionToken, error) {
	issuedAt := i.now()
	expiresAt := issuedAt.Add(i.ttl)

	claims := Claims{
		UserID: user.ID.String(),
		Name:   user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return nil, oops.Code("TOKEN_SIGN_FAILED").With("user_id", user.ID.String()).Wrap(err)
	}

	return &SessionToken{
		Token:     signed,
		UserID:    user.ID,
		Name:      user.Name,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Validate verifies the token signature and expiry and returns its subject.
func (i *TokenIssuer) Validate(token string) (*Identity, error) {
	if token == "" {
		return nil, oops.Code(CodeTokenInvalid).Errorf("token cannot be empty")
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, oops.Code(CodeTokenExpired).Wrap(err)
	}
	if err != nil {
		return nil, oops.Code(CodeTokenInvalid).Wrap(err)
	}

	userID, err := ulid.Parse(claims.UserID)
	if err != nil {
		return nil, oops.Code(CodeTokenInvalid).With("claim", "id").Wrap(err)
	}

	identity := &Identity{
		UserID:    userID,
		Name:      claims.Name,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		identity.IssuedAt = claims.IssuedAt.Time
	}
	return identity, nil
}
