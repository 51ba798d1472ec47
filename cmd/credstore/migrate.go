// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"fmt"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/credstore/internal/pool"
	"github.com/holomush/credstore/internal/store"
	"github.com/holomush/credstore/pkg/errutil"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage credential schema migrations",
		Long: `Apply, roll back or inspect the credentials schema migrations for the
configured backend. Migrations are embedded in the binary.`,
	}

	cmd.AddCommand(newMigrateUpCmd())
	cmd.AddCommand(newMigrateDownCmd())
	cmd.AddCommand(newMigrateVersionCmd())
	cmd.AddCommand(newMigrateForceCmd())

	return cmd
}

// withMigrator opens the configured backend without creating the schema
// and runs fn against a Migrator over it.
func withMigrator(cmd *cobra.Command, fn func(m *store.Migrator) error) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}

	pc := cfg.PoolConfig()
	pc.SkipSchema = true
	p, err := pool.Open(cmd.Context(), pc, nil)
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
	}

	m, err := store.NewMigrator(p.DB().DB, p.Descriptor())
	if err != nil {
		_ = p.Close() //nolint:errcheck // migrator init error takes precedence
		return err //nolint:wrapcheck // store errors carry their own codes
	}
	defer func() {
		if closeErr := m.Close(); closeErr != nil {
			errutil.LogError(logger, "failed to close migrator", closeErr)
		}
	}()

	return fn(m)
}

func newMigrateUpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, func(m *store.Migrator) error {
				pending, err := m.PendingMigrations()
				if err != nil {
					return err //nolint:wrapcheck // store errors carry their own codes
				}
				if len(pending) == 0 {
					cmd.Println("No pending migrations")
					return nil
				}
				cmd.Printf("Applying %d migration(s)...\n", len(pending))
				if err := m.Up(); err != nil {
					return oops.With("operation", "run migrations").Wrap(err)
				}
				cmd.Println("Migrations completed successfully")
				return nil
			})
		},
	}
}

func newMigrateDownCmd() *cobra.Command {
	var (
		steps int
		yes   bool
	)
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Long: `Roll back --steps migrations, or all of them when --steps is not given.
Rolling back the first migration drops every stored credential.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return oops.Code("CONFIRMATION_REQUIRED").Errorf("rolling back migrations can destroy credentials; pass --yes to confirm")
			}
			return withMigrator(cmd, func(m *store.Migrator) error {
				var err error
				if cmd.Flags().Changed("steps") {
					if steps < 1 {
						return oops.Code("INVALID_STEPS").Errorf("steps must be at least 1, got %d", steps)
					}
					err = m.Steps(-steps)
				} else {
					err = m.Down()
				}
				if err != nil {
					return oops.With("operation", "roll back migrations").Wrap(err)
				}
				cmd.Println("Rollback completed successfully")
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&steps, "steps", 0, "number of migrations to roll back (default: all)")
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the rollback")
	return cmd
}

func newMigrateVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the applied migration version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, func(m *store.Migrator) error {
				v, dirty, err := m.Version()
				if err != nil {
					return err //nolint:wrapcheck // store errors carry their own codes
				}
				pending, err := m.PendingMigrations()
				if err != nil {
					return err //nolint:wrapcheck // store errors carry their own codes
				}
				cmd.Printf("Version: %d\n", v)
				cmd.Printf("Dirty: %t\n", dirty)
				cmd.Printf("Pending: %d\n", len(pending))
				return nil
			})
		},
	}
}

func newMigrateForceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "force <version>",
		Short: "Set the migration version without running migrations",
		Long: `Mark the schema as being at version without running any migration.
Use only to clear a dirty state after repairing the database by hand.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := parseForceVersion(args[0])
			if err != nil {
				return err
			}
			return withMigrator(cmd, func(m *store.Migrator) error {
				if err := m.Force(v); err != nil {
					return err //nolint:wrapcheck // store errors carry their own codes
				}
				cmd.Printf("Forced version %d\n", v)
				return nil
			})
		},
	}
}

// parseForceVersion reads a leading integer from s.
func parseForceVersion(s string) (int, error) {
	var v int
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d", &v); err != nil {
		return 0, oops.Code("INVALID_VERSION").
			With("input", s).
			Errorf("invalid version %q: must be an integer", s)
	}
	return v, nil
}
