package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/sessiongate/sessiongate/internal/auth"
	"github.com/sessiongate/sessiongate/internal/auth/memory"
	"github.com/sessiongate/sessiongate/internal/auth/postgres"
	"github.com/sessiongate/sessiongate/internal/config"
	"github.com/sessiongate/sessiongate/internal/httpapi"
	"github.com/sessiongate/sessiongate/internal/logging"
	"github.com/sessiongate/sessiongate/internal/observability"
	"github.com/sessiongate/sessiongate/internal/store"
)

const (
	serviceName      = "sessiongate"
	readinessTimeout = 2 * time.Second
	shutdownTimeout  = 10 * time.Second
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long: `Start the HTTP API serving /signup and /login. Pending database
migrations are applied first unless auto-migration is disabled.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runServeWithDeps(cmd.Context(), cfg, cmd, nil)
		},
	}

	config.RegisterFlags(cmd.Flags())

	return cmd
}

func runServeWithDeps(ctx context.Context, cfg *config.Config, cmd *cobra.Command, deps *ServeDeps) error {
	deps = deps.withDefaults()

	if err := cfg.Validate(); err != nil {
		return err
	}

	level, err := cfg.LogLevel()
	if err != nil {
		return err
	}
	logger := logging.Setup(serviceName, version, cfg.Log.Format, level, deps.LogWriter)
	slog.SetDefault(logger)
	gin.SetMode(gin.ReleaseMode)

	logger.Info("starting sessiongate",
		"addr", cfg.HTTP.Addr,
		"store", cfg.Store.Driver,
		"log_format", cfg.Log.Format,
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	users, readiness, closeStore, err := openUserStore(ctx, cfg, deps, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	svc, err := newAuthService(cfg, users, logger)
	if err != nil {
		return err
	}

	var (
		obsServer ObservabilityServer
		obsErrCh  <-chan error
		metrics   *observability.Metrics
	)
	if cfg.Metrics.Addr != "" {
		obsServer = deps.ObservabilityServerFactory(cfg.Metrics.Addr, readiness)
		metrics = obsServer.Metrics()
		obsErrCh, err = obsServer.Start()
		if err != nil {
			return oops.Code("OBSERVABILITY_START_FAILED").With("addr", cfg.Metrics.Addr).Wrap(err)
		}
	}

	router := httpapi.NewRouter(svc, httpapi.RouterOptions{
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		WebDir:         cfg.HTTP.WebDir,
		Logger:         logger,
		Metrics:        metrics,
	})
	httpServer := deps.HTTPServerFactory(httpapi.ServerConfig{
		Addr:         cfg.HTTP.Addr,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}, router, logger)

	httpErrCh, err := httpServer.Start()
	if err != nil {
		stopObservability(obsServer, logger)
		return oops.Code("HTTP_START_FAILED").With("addr", cfg.HTTP.Addr).Wrap(err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	cmd.Println("sessiongate started")
	logger.Info("sessiongate ready", "addr", httpServer.Addr())

	var runErr error
	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig)
	case <-ctx.Done():
		logger.Info("context cancelled, shutting down")
	case serveErr, ok := <-httpErrCh:
		if ok && serveErr != nil {
			runErr = oops.Code("SERVER_FAILED").With("server", "http").Wrap(serveErr)
		}
	case serveErr, ok := <-obsErrCh:
		if ok && serveErr != nil {
			runErr = oops.Code("SERVER_FAILED").With("server", "observability").Wrap(serveErr)
		}
	}

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Warn("error stopping http server", "error", err)
	}
	stopObservability(obsServer, logger)

	logger.Info("shutdown complete")
	return runErr
}

// openUserStore returns the configured credential store, a readiness check
// for it (nil means always ready) and a cleanup function.
func openUserStore(ctx context.Context, cfg *config.Config, deps *ServeDeps, logger *slog.Logger) (auth.UserRepository, observability.ReadinessChecker, func(), error) {
	if cfg.Store.Driver == config.DriverMemory {
		logger.Warn("using in-memory credential store, users are lost on restart")
		return memory.NewUserRepository(), nil, func() {}, nil
	}

	databaseURL := cfg.Database.URL()
	pool, err := deps.PoolConnector(ctx, store.PoolConfig{
		DSN:            databaseURL,
		MaxConns:       cfg.Database.MaxConns,
		ConnectTimeout: cfg.Database.ConnectTimeout,
	}, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	logger.Info("connected to database", "host", cfg.Database.Host, "database", cfg.Database.Name)

	if cfg.Database.AutoMigrate {
		if err := autoMigrate(deps.MigratorFactory, databaseURL, logger); err != nil {
			pool.Close()
			return nil, nil, nil, err
		}
	}

	return postgres.NewUserRepository(pool), observability.PingReadiness(pool, readinessTimeout), pool.Close, nil
}

func autoMigrate(factory func(string) (AutoMigrator, error), databaseURL string, logger *slog.Logger) error {
	migrator, err := factory(databaseURL)
	if err != nil {
		return oops.Code("AUTO_MIGRATE_FAILED").With("operation", "create migrator").Wrap(err)
	}
	defer func() {
		if closeErr := migrator.Close(); closeErr != nil {
			logger.Warn("failed to close migrator", "error", closeErr)
		}
	}()

	if err := migrator.Up(); err != nil {
		return oops.Code("AUTO_MIGRATE_FAILED").With("operation", "apply migrations").Wrap(err)
	}
	logger.Info("database migrations applied")
	return nil
}

func newAuthService(cfg *config.Config, users auth.UserRepository, logger *slog.Logger) (*auth.Service, error) {
	hasher, err := auth.NewBcryptHasher(cfg.Auth.BcryptCost)
	if err != nil {
		return nil, err
	}
	issuer, err := auth.NewTokenIssuer([]byte(cfg.Auth.TokenSecret), cfg.Auth.TokenTTL)
	if err != nil {
		return nil, err
	}
	return auth.NewServiceWithLogger(users, hasher, issuer, logger.With("component", "auth"))
}

func stopObservability(server ObservabilityServer, logger *slog.Logger) {
	if server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Stop(ctx); err != nil {
		logger.Warn("error stopping observability server", "error", err)
	}
}
