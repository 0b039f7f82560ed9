// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sessiongate Contributors

// Package mocks provides testify mocks for the auth package interfaces.
package mocks

import (
	"context"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/mock"

	"github.com/sessiongate/sessiongate/internal/auth"
)

// MockUserRepository is a mock of auth.UserRepository.
type MockUserRepository struct {
	mock.Mock
}

// NewMockUserRepository creates a MockUserRepository whose expectations are
// asserted when the test finishes.
func NewMockUserRepository(t interface {
	mock.TestingT
	Cleanup(func())
},
) *MockUserRepository {
	m := &MockUserRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Create provides a mock function.
func (m *MockUserRepository) Create(ctx context.Context, name, email, passwordHash string) (ulid.ULID, error) {
	ret := m.Called(ctx, name, email, passwordHash)

	if fn, ok := ret.Get(0).(func(context.Context, string, string, string) (ulid.ULID, error)); ok {
		return fn(ctx, name, email, passwordHash)
	}

	var id ulid.ULID
	if v := ret.Get(0); v != nil {
		id = v.(ulid.ULID)
	}
	return id, ret.Error(1)
}

// GetByEmail provides a mock function.
func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	ret := m.Called(ctx, email)

	var user *auth.User
	if v := ret.Get(0); v != nil {
		user = v.(*auth.User)
	}
	return user, ret.Error(1)
}

// MockPasswordHasher is a mock of auth.PasswordHasher.
type MockPasswordHasher struct {
	mock.Mock
}

// NewMockPasswordHasher creates a MockPasswordHasher whose expectations are
// asserted when the test finishes.
func NewMockPasswordHasher(t interface {
	mock.TestingT
	Cleanup(func())
},
) *MockPasswordHasher {
	m := &MockPasswordHasher{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Hash provides a mock function.
func (m *MockPasswordHasher) Hash(password string) (string, error) {
	ret := m.Called(password)
	return ret.String(0), ret.Error(1)
}

// Verify provides a mock function.
func (m *MockPasswordHasher) Verify(password, hash string) (bool, error) {
	ret := m.Called(password, hash)
	return ret.Bool(0), ret.Error(1)
}

// MockTokenService is a mock of auth.TokenService.
type MockTokenService struct {
	mock.Mock
}

// NewMockTokenService creates a MockTokenService whose expectations are
// asserted when the test finishes.
func NewMockTokenService(t interface {
	mock.TestingT
	Cleanup(func())
},
) *MockTokenService {
	m := &MockTokenService{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Issue provides a mock function.
func (m *MockTokenService) Issue(user *auth.User) (*auth.SessionToken, error) {
	ret := m.Called(user)

	var token *auth.SessionToken
	if v := ret.Get(0); v != nil {
		token = v.(*auth.SessionToken)
	}
	return token, ret.Error(1)
}

// Validate provides a mock function.
func (m *MockTokenService) Validate(token string) (*auth.Identity, error) {
	ret := m.Called(token)

	var identity *auth.Identity
	if v := ret.Get(0); v != nil {
		identity = v.(*auth.Identity)
	}
	return identity, ret.Error(1)
}

var (
	_ auth.UserRepository = (*MockUserRepository)(nil)
	_ auth.PasswordHasher = (*MockPasswordHasher)(nil)
	_ auth.TokenService   = (*MockTokenService)(nil)
)
