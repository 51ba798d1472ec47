// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/credstore/internal/credential/sqlrepo"
	"github.com/holomush/credstore/internal/observability"
	"github.com/holomush/credstore/pkg/errutil"
)

// serveConfig holds configuration for the serve command.
type serveConfig struct {
	refreshInterval  time.Duration
	readinessTimeout time.Duration
}

// Validate checks that the configuration is valid.
func (cfg *serveConfig) Validate() error {
	if cfg.refreshInterval <= 0 {
		return oops.Code("CONFIG_INVALID").Errorf("refresh-interval must be positive, got %s", cfg.refreshInterval)
	}
	if cfg.readinessTimeout <= 0 {
		return oops.Code("CONFIG_INVALID").Errorf("readiness-timeout must be positive, got %s", cfg.readinessTimeout)
	}
	return nil
}

// Default values for serve command flags.
const (
	defaultRefreshInterval  = 30 * time.Second
	defaultReadinessTimeout = 2 * time.Second
	shutdownTimeout         = 5 * time.Second
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cfg := &serveConfig{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Hold the credential pool open and serve metrics and health checks",
		Long: `Open the credential pool, export repository and pool metrics, keep the
registered player gauge current, and answer liveness and readiness probes
until interrupted.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), cmd, cfg)
		},
	}

	cmd.Flags().DurationVar(&cfg.refreshInterval, "refresh-interval", defaultRefreshInterval, "registered player gauge refresh interval")
	cmd.Flags().DurationVar(&cfg.readinessTimeout, "readiness-timeout", defaultReadinessTimeout, "database ping timeout for readiness probes")

	return cmd
}

func runServe(ctx context.Context, cmd *cobra.Command, sc *serveConfig) error {
	if err := sc.Validate(); err != nil {
		return err
	}
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}

	// The readiness probe only runs after Start, by which time a is set.
	var a *app
	obsServer := observability.NewServer(cfg.Metrics.Addr, observability.PingChecker(func(ctx context.Context) error {
		return a.pool.Ping(ctx)
	}, sc.readinessTimeout))
	metrics := obsServer.Metrics()

	a, err = openApp(ctx, cfg, logger, sqlrepo.WithRecorder(metrics))
	if err != nil {
		return err
	}
	defer a.Close()

	if err := obsServer.RegisterDBStats(a.pool.DB().DB, cfg.Database.Backend); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if cfg.Metrics.Addr != "" {
		obsErrChan, err := obsServer.Start()
		if err != nil {
			return oops.Code("OBSERVABILITY_START_FAILED").With("addr", cfg.Metrics.Addr).Wrap(err)
		}
		go monitorServerErrors(ctx, cancel, obsErrChan, "observability")
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer shutdownCancel()
			if err := obsServer.Stop(shutdownCtx); err != nil {
				logger.Warn("error stopping observability server", "error", err)
			}
		}()
	}

	go refreshRegisteredPlayers(ctx, a.repo, metrics, sc.refreshInterval)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	cmd.Println("credstore serving")
	logger.Info("credstore ready",
		"backend", cfg.Database.Backend,
		"metrics_addr", obsServer.Addr(),
	)

	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig)
	case <-ctx.Done():
		logger.Info("context cancelled, shutting down")
	}

	logger.Info("shutting down...")
	return nil
}

// playerCounter is the part of the repository the gauge refresh needs.
type playerCounter interface {
	Count(ctx context.Context) int64
}

// playerGauge receives the registered player count.
type playerGauge interface {
	SetRegisteredPlayers(n int64)
}

// refreshRegisteredPlayers sets the gauge now and on every tick until ctx
// is done.
func refreshRegisteredPlayers(ctx context.Context, repo playerCounter, gauge playerGauge, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		gauge.SetRegisteredPlayers(repo.Count(ctx))
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// monitorServerErrors cancels ctx when a background server fails.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, name string) {
	select {
	case err, ok := <-errCh:
		if ok && err != nil {
			errutil.LogErrorContext(ctx, slog.Default(), name+" server failed", err)
			cancel()
		}
	case <-ctx.Done():
	}
}
