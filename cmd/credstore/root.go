// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/holomush/credstore/internal/config"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the credstore CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credstore",
		Short: "credstore - player credential storage for game proxies",
		Long: `credstore manages the player credential database used by proxy
authentication: registrations, password hashes, TOTP secrets and login
records, on PostgreSQL, CockroachDB, MySQL, MariaDB or SQLite.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (default $XDG_CONFIG_HOME/credstore/config.yaml if present)")
	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewPlayerCmd())
	cmd.AddCommand(NewCountCmd())
	cmd.AddCommand(NewSchemaCmd())

	return cmd
}
