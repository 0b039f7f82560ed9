// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sessiongate Contributors

// Package auth provides credential registration, password verification and
// session token issuance for sessiongate.
//
// # Domain Types
//
//   - User - a stored credential record (name, email, bcrypt hash)
//   - SessionToken - a signed token returned by a successful login
//   - Identity - the claims recovered from a validated token
//
// Users are created by a UserRepository, which assigns the ID and enforces
// email uniqueness. Implementations live in the postgres and memory
// subpackages.
//
// # Services
//
//   - Service - register, authenticate and token validation
//   - TokenIssuer - HS256 signing and verification of session tokens
//   - BcryptHasher - salted one-way password hashing
//
// Services are created with New* constructors that validate dependencies.
package auth
