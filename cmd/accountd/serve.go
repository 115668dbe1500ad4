// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/accountd/accountd/internal/account"
	acctpostgres "github.com/accountd/accountd/internal/account/postgres"
	"github.com/accountd/accountd/internal/challenge"
	"github.com/accountd/accountd/internal/config"
	"github.com/accountd/accountd/internal/httpapi"
	"github.com/accountd/accountd/internal/logging"
	"github.com/accountd/accountd/internal/mail"
	"github.com/accountd/accountd/internal/observability"
	"github.com/accountd/accountd/internal/store"
	"github.com/accountd/accountd/internal/token"
)

// shutdownTimeout bounds graceful shutdown of the HTTP servers.
const shutdownTimeout = 5 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the account API server",
		Long: `Start the HTTP API server. Pending database migrations are
applied before the server begins accepting requests.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd)
		},
	}

	config.Flags(cmd.Flags())

	return cmd
}

func runServe(cmd *cobra.Command) error {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := logging.Setup("accountd", version, cfg.Log.Format, os.Stderr)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	migrator, err := store.NewMigrator(cfg.Database.URL)
	if err != nil {
		return err
	}
	if migrateErr := migrator.Up(); migrateErr != nil {
		//nolint:errcheck // close error is irrelevant after a failed migration
		migrator.Close()
		return migrateErr
	}
	if err := migrator.Close(); err != nil {
		return err
	}
	logger.Info("database migrations applied")

	pool, err := store.Connect(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() {
		if closeErr := rdb.Close(); closeErr != nil {
			logger.Debug("error closing redis client", "error", closeErr)
		}
	}()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return oops.Code("REDIS_CONNECT_FAILED").With("addr", cfg.Redis.Addr).Wrap(err)
	}

	tokens, err := token.NewIssuer([]byte(cfg.JWT.Secret), cfg.JWT.Issuer, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
	if err != nil {
		return err
	}

	mailer, err := mail.NewSender(cfg.SMTP, logger)
	if err != nil {
		return err
	}

	svc, err := account.NewService(
		acctpostgres.NewAccountRepository(pool),
		acctpostgres.NewSeeder(pool),
		challenge.NewCache(rdb),
		tokens,
		mailer,
		account.NewMD5Hasher(),
		logger,
	)
	if err != nil {
		return err
	}

	var metrics *observability.Metrics
	var obsServer *observability.Server
	if cfg.Server.MetricsAddr != "" {
		obsServer = observability.NewServer(cfg.Server.MetricsAddr, func() bool {
			pingCtx, pingCancel := context.WithTimeout(context.Background(), time.Second)
			defer pingCancel()
			return pool.Ping(pingCtx) == nil
		})
		metrics = obsServer.Metrics()
	}

	api, err := httpapi.NewServer(cfg.Server.Addr, svc, tokens, metrics, logger)
	if err != nil {
		return err
	}

	apiErrCh, err := api.Start()
	if err != nil {
		return err
	}
	go monitorServerErrors(ctx, cancel, apiErrCh, "api")

	if obsServer != nil {
		obsErrCh, obsErr := obsServer.Start()
		if obsErr != nil {
			stopServer(api.Stop, "api", logger)
			return obsErr
		}
		go monitorServerErrors(ctx, cancel, obsErrCh, "observability")
		logger.Info("observability server started", "addr", obsServer.Addr())
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	cmd.Println("Account server started")
	logger.Info("accountd ready", "addr", api.Addr())

	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("context cancelled, shutting down")
	}

	logger.Info("shutting down...")

	stopServer(api.Stop, "api", logger)
	if obsServer != nil {
		stopServer(obsServer.Stop, "observability", logger)
	}

	logger.Info("shutdown complete")
	return nil
}

// stopServer stops a server with a bounded timeout, logging failures
// instead of aborting the rest of the shutdown sequence.
func stopServer(stop func(context.Context) error, name string, logger *slog.Logger) {
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := stop(shutdownCtx); err != nil {
		logger.Warn("error stopping server", "server", name, "error", err)
	}
}

// monitorServerErrors watches a server's error channel and cancels the
// context on error so a failed server brings the whole process down
// gracefully. It exits when an error arrives, the channel closes, or the
// context is cancelled.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			slog.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err,
			)
			cancel()
		}
	case <-ctx.Done():
	}
}
