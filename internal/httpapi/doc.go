// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sessiongate Contributors

// Package httpapi exposes the credential service over HTTP using gin.
//
// Routes:
//
//	POST /signup  {name, email, password} -> 200 {message}
//	POST /login   {email, password}       -> 200 {token, name}
//	GET  /me      Authorization: Bearer   -> 200 {id, name, expires_at}
//
// Failures carry a fixed {"message": ...} body that never echoes the cause.
package httpapi
