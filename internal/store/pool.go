// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sessiongate Contributors

// Package store provides PostgreSQL connection management and schema migrations.
package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// Defaults for PoolConfig fields left zero.
const (
	DefaultMaxConns       = 10
	DefaultConnectTimeout = 30 * time.Second
)

// Backoff bounds for the initial connection attempts.
const (
	connectBaseDelay = 100 * time.Millisecond
	connectMaxDelay  = 2 * time.Second
)

// PoolConfig configures Connect.
type PoolConfig struct {
	// DSN is a postgres:// URL or key=value connection string.
	DSN string

	// MaxConns caps the pool size.
	MaxConns int32

	// ConnectTimeout bounds the total time spent waiting for the first
	// successful ping.
	ConnectTimeout time.Duration
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Connect opens a pgx pool and waits until the database answers a ping,
// retrying with exponential backoff until cfg.ConnectTimeout elapses.
func Connect(ctx context.Context, cfg PoolConfig, logger *slog.Logger) (*pgxpool.Pool, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxConns <= 0 {
		cfg.MaxConns = DefaultMaxConns
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, oops.Code("DB_CONFIG_INVALID").With("operation", "parse dsn").Wrap(err)
	}
	poolCfg.MaxConns = cfg.MaxConns

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").With("operation", "create pool").Wrap(err)
	}

	if err := waitForDatabase(ctx, pool, cfg.ConnectTimeout, logger); err != nil {
		pool.Close()
		return nil, err
	}

	logger.InfoContext(ctx, "connected to database",
		"host", poolCfg.ConnConfig.Host,
		"database", poolCfg.ConnConfig.Database,
		"max_conns", cfg.MaxConns,
	)
	return pool, nil
}

// waitForDatabase pings p until it succeeds or timeout elapses.
func waitForDatabase(ctx context.Context, p pinger, timeout time.Duration, logger *slog.Logger) error {
	backoff := retry.NewExponential(connectBaseDelay)
	backoff = retry.WithCappedDuration(connectMaxDelay, backoff)
	backoff = retry.WithMaxDuration(timeout, backoff)

	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if pingErr := p.Ping(ctx); pingErr != nil {
			logger.WarnContext(ctx, "database not ready, retrying",
				"attempt", attempt,
				"error", pingErr,
			)
			return retry.RetryableError(pingErr)
		}
		return nil
	})
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").
			With("operation", "ping database").
			With("attempts", attempt).
			Wrap(err)
	}
	return nil
}
