// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package main

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/spf13/cobra"

	"github.com/accountd/accountd/internal/account"
	acctpostgres "github.com/accountd/accountd/internal/account/postgres"
	"github.com/accountd/accountd/internal/store"
)

// Default timeout for seed command.
const defaultSeedTimeout = 30 * time.Second

// seedConfig holds configuration for the seed command.
type seedConfig struct {
	timeout time.Duration
}

// NewSeedCmd creates the seed subcommand.
func NewSeedCmd() *cobra.Command {
	cfg := &seedConfig{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed the database with initial accounts, roles, and permissions",
		Long: `Creates the initial dataset: two demo permissions, an administrator
role and a general role, and one account per realm. Duplicate seeding
is detected and skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd, args, cfg)
		},
	}

	cmd.Flags().DurationVar(&cfg.timeout, "timeout", defaultSeedTimeout, "timeout for database operations (e.g., 30s, 1m)")

	return cmd
}

func runSeed(cmd *cobra.Command, _ []string, cfg *seedConfig) error {
	url, err := databaseURL()
	if err != nil {
		return err
	}

	// Use cmd.Context() so SIGINT/SIGTERM interrupt the seed.
	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.timeout)
	defer cancel()

	cmd.Println("Running migrations...")
	migrator, err := store.NewMigrator(url)
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

	cmd.Println("Connecting to database...")
	pool, err := store.Connect(ctx, url)
	if err != nil {
		return err
	}
	defer pool.Close()

	seeder := acctpostgres.NewSeeder(pool)
	data := account.DefaultSeedData(account.NewMD5Hasher())

	if err := seeder.SeedInitialData(ctx, data); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			cmd.Println("Initial data already present, skipping seed")
			return nil
		}
		return err
	}

	cmd.Println("Database seeding complete")
	return nil
}
