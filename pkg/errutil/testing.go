// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sessiongate Contributors

package errutil

import (
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireOops(tb testing.TB, err error) oops.OopsError {
	tb.Helper()
	require.Error(tb, err)
	oopsErr, ok := oops.AsOops(err)
	require.True(tb, ok, "want an oops error, got %T: %v", err, err)
	return oopsErr
}

// AssertErrorCode fails tb unless err carries the given oops code.
func AssertErrorCode(tb testing.TB, err error, code string) {
	tb.Helper()
	requireOops(tb, err)
	assert.Equal(tb, code, Code(err), "error: %v", err)
}

// AssertErrorContext fails tb unless err's oops context maps key to value.
func AssertErrorContext(tb testing.TB, err error, key string, value any) {
	tb.Helper()
	attrs := requireOops(tb, err).Context()
	if assert.Contains(tb, attrs, key) {
		assert.Equal(tb, value, attrs[key], "context key %q", key)
	}
}
