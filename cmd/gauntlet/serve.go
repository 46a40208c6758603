// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/holomush/gauntlet/internal/config"
	"github.com/holomush/gauntlet/internal/observability"
	"github.com/holomush/gauntlet/pkg/errutil"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the metrics and health endpoint",
		Long: `Run the standalone operations process. It serves Prometheus metrics and
health checks, with readiness tied to the database, and validates the
config file each time it changes, until it receives SIGINT or SIGTERM.

Gate checks and game events are not served here: the game host embeds the
challenge service in-process and drives it directly.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd)
		},
	}
	cmd.Flags().String("metrics-addr", "", "observability listen address (empty disables)")
	return cmd
}

func (a *app) serve(cmd *cobra.Command) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	st, err := a.openStores(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	if a.configFile != "" {
		watcher, err := config.Watch(a.configFile, cmd.Flags(), a.reportReload, a.logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := watcher.Stop(); err != nil {
				a.logger.Warn("stopping config watcher failed", "error", err)
			}
		}()
	}

	var obs *observability.Server
	if addr := a.cfg.Metrics.Addr; addr != "" {
		obs = observability.NewServer(addr, func(ctx context.Context) bool {
			return st.Ping == nil || st.Ping(ctx) == nil
		}, a.logger)
		errCh, err := obs.Start()
		if err != nil {
			return err
		}
		go monitorServerErrors(ctx, cancel, errCh, a)
	}

	cmd.Println("Operations endpoint started")
	a.logger.Info("operations endpoint ready",
		"challenge_enabled", a.cfg.Challenge.Enabled, "metrics_addr", a.cfg.Metrics.Addr)

	<-ctx.Done()
	a.logger.Info("shutting down operations endpoint")

	if obs != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := obs.Stop(shutdownCtx); err != nil {
			a.logger.Warn("error stopping observability server", "error", err)
		}
	}
	a.logger.Info("shutdown complete")
	return nil
}

// reportReload records a config edit that passed validation.
func (a *app) reportReload(cfg config.Config) {
	a.logger.Info("challenge settings validated",
		"path", a.configFile, "enabled", cfg.Challenge.Enabled)
}

// monitorServerErrors cancels ctx when the server reports a failure.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, a *app) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			errutil.LogError(a.logger, "observability server failed, shutting down", err)
			cancel()
		}
	case <-ctx.Done():
	}
}
