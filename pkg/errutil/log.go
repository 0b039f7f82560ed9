// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sessiongate Contributors

// Package errutil provides helpers for logging and asserting oops errors.
package errutil

import (
	"context"
	"log/slog"

	"github.com/samber/oops"
)

// Code returns the oops code attached to err, or "" for other errors.
func Code(err error) string {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}
	code, _ := oopsErr.Code().(string)
	return code
}

// LogError logs an error with structured context if it's an oops error.
func LogError(logger *slog.Logger, msg string, err error) {
	LogErrorContext(context.Background(), logger, msg, err)
}

// LogErrorContext is LogError with a context, so handlers can attach
// request-scoped attributes. Extra attrs are appended to the record.
func LogErrorContext(ctx context.Context, logger *slog.Logger, msg string, err error, attrs ...any) {
	if oopsErr, ok := oops.AsOops(err); ok {
		fields := []any{"error", oopsErr.Error()}
		if code := Code(err); code != "" {
			fields = append(fields, "code", code)
		}
		if oopsCtx := oopsErr.Context(); len(oopsCtx) > 0 {
			fields = append(fields, "context", oopsCtx)
		}
		logger.ErrorContext(ctx, msg, append(fields, attrs...)...)
		return
	}
	logger.ErrorContext(ctx, msg, append([]any{"error", err}, attrs...)...)
}
