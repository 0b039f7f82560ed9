// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sessiongate Contributors

package errutil_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sessiongate/sessiongate/pkg/errutil"
)

func TestLogError_WithOopsError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	err := oops.Code("TEST_ERROR").
		With("key", "value").
		Errorf("something failed")

	errutil.LogError(logger, "operation failed", err)

	var logEntry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &logEntry))
	assert.Equal(t, "ERROR", logEntry["level"])
	assert.Equal(t, "operation failed", logEntry["msg"])
	assert.Equal(t, "TEST_ERROR", logEntry["code"])
}

func TestLogError_WithStandardError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	err := errors.New("standard error")

	errutil.LogError(logger, "operation failed", err)

	var logEntry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &logEntry))
	assert.Equal(t, "ERROR", logEntry["level"])
	assert.Contains(t, logEntry["error"], "standard error")
}

func TestLogErrorContext_AppendsAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	err := oops.Code("AUTH_INTERNAL").With("operation", "create user").Errorf("boom")

	errutil.LogErrorContext(context.Background(), logger, "signup failed", err, "route", "/signup")

	var logEntry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &logEntry))
	assert.Equal(t, "AUTH_INTERNAL", logEntry["code"])
	assert.Equal(t, "/signup", logEntry["route"])
	assert.Equal(t, map[string]any{"operation": "create user"}, logEntry["context"])
}

func TestCode(t *testing.T) {
	assert.Equal(t, "X_FAILED", errutil.Code(oops.Code("X_FAILED").Errorf("x")))
	assert.Empty(t, errutil.Code(errors.New("plain")))
	assert.Empty(t, errutil.Code(nil))
	assert.Empty(t, errutil.Code(oops.With("k", "v").Errorf("no code")), "uncoded oops error")
	assert.Equal(t, "X_FAILED", errutil.Code(fmt.Errorf("outer: %w", oops.Code("X_FAILED").Errorf("x"))))
}

func TestLogError_OmitsMissingCode(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	errutil.LogError(logger, "operation failed", oops.With("key", "value").Errorf("uncoded"))

	var logEntry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &logEntry))
	assert.NotContains(t, logEntry, "code")
	assert.Equal(t, map[string]any{"key": "value"}, logEntry["context"])
}
