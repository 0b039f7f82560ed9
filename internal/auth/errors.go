// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sessiongate Contributors

package auth

import "errors"

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateEmail is returned when a user with the same email already exists.
var ErrDuplicateEmail = errors.New("email already registered")

// ErrStoreUnavailable is returned when the credential store cannot be reached.
var ErrStoreUnavailable = errors.New("credential store unavailable")

// Error codes attached to errors returned by Service.
const (
	CodeInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	CodeDuplicateEmail     = "AUTH_DUPLICATE_EMAIL"
	CodeInvalidInput       = "AUTH_INVALID_INPUT"
	CodeInternal           = "AUTH_INTERNAL"
	CodeTokenExpired       = "TOKEN_EXPIRED"
	CodeTokenInvalid       = "TOKEN_INVALID"
)
