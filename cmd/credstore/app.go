// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/credstore/internal/account"
	"github.com/holomush/credstore/internal/config"
	"github.com/holomush/credstore/internal/credential/sqlrepo"
	"github.com/holomush/credstore/internal/logging"
	"github.com/holomush/credstore/internal/pool"
	"github.com/holomush/credstore/internal/xdg"
	"github.com/holomush/credstore/pkg/errutil"
)

// envLookup reads the environment; tests replace it.
var envLookup config.LookupEnv = os.LookupEnv

// findConfig locates the config file used when --config is not given.
var findConfig = xdg.FindConfig

func configPath() string {
	if configFile != "" {
		return configFile
	}
	if path, ok := findConfig(); ok {
		return path
	}
	return ""
}

// setup loads the configuration and installs the default logger.
func setup(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configPath(), cmd.Flags(), envLookup)
	if err != nil {
		return config.Config{}, nil, oops.With("operation", "load configuration").Wrap(err)
	}
	logger := logging.Setup("credstore", version, cfg.Log.Format, cfg.Log.Level, cmd.ErrOrStderr())
	slog.SetDefault(logger)
	return cfg, logger, nil
}

// app is an open pool with the repository and account service over it.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	pool     *pool.Pool
	repo     *sqlrepo.Repository
	accounts *account.Service
}

func openApp(ctx context.Context, cfg config.Config, logger *slog.Logger, opts ...sqlrepo.Option) (*app, error) {
	hasher, err := cfg.Hasher()
	if err != nil {
		return nil, err //nolint:wrapcheck // config errors carry their own codes
	}

	p, err := pool.Open(ctx, cfg.PoolConfig(), nil)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").
			With("operation", "open pool").
			With("backend", cfg.Database.Backend).
			Wrap(err)
	}

	repo := sqlrepo.New(p, append([]sqlrepo.Option{sqlrepo.WithLogger(logger)}, opts...)...)
	accounts, err := account.NewService(repo, hasher,
		account.WithLogger(logger),
		account.WithOldPasswordRequired(cfg.Account.RequireOldPassword),
		account.WithNotifier(eventLogger(logger)),
	)
	if err != nil {
		_ = p.Close() //nolint:errcheck // construction error takes precedence
		return nil, err //nolint:wrapcheck // account errors carry their own codes
	}

	logger.Debug("credential pool opened",
		"backend", cfg.Database.Backend,
		"max_conns", cfg.Database.MaxConns,
	)
	return &app{cfg: cfg, logger: logger, pool: p, repo: repo, accounts: accounts}, nil
}

// Close closes the pool.
func (a *app) Close() {
	if err := a.pool.Close(); err != nil {
		errutil.LogError(a.logger, "failed to close credential pool", err)
	}
}

// withApp runs fn against a freshly opened app and closes it afterwards.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	a, err := openApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

// eventLogger records account events at debug level.
func eventLogger(logger *slog.Logger) account.Notifier {
	return account.NotifierFunc(func(ctx context.Context, e account.Event) {
		logger.DebugContext(ctx, "account event",
			"kind", string(e.Kind),
			"nickname", e.Nickname,
			"hash_changed", e.OldHash != e.NewHash,
		)
	})
}
