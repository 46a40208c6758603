// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/holomush/gauntlet/internal/challenge"
	"github.com/holomush/gauntlet/internal/config"
	"github.com/holomush/gauntlet/internal/logging"
	"github.com/holomush/gauntlet/internal/xdg"
)

// app carries state shared by every subcommand.
type app struct {
	configFile string
	cfg        config.Config
	logger     *slog.Logger
	deps       Deps
}

// NewRootCmd creates the root command for the gauntlet CLI.
func NewRootCmd() *cobra.Command {
	return newRootCmd(Deps{})
}

func newRootCmd(deps Deps) *cobra.Command {
	a := &app{deps: deps.withDefaults()}

	cmd := &cobra.Command{
		Use:   "gauntlet",
		Short: "Challenge mode administration",
		Long: `gauntlet manages challenge mode: tiered, self-imposed restrictions
with permadeath. It migrates the challenge schema, assigns and inspects
per-player challenges, and validates configuration.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.load,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&a.configFile, "config", "", "config file path (default $XDG_CONFIG_HOME/gauntlet/gauntlet.yaml)")
	pf.String("database-url", "", "PostgreSQL URL (overrides $"+config.EnvDatabaseURL+")")
	pf.String("log-level", "", "log level (debug, info, warn, error)")
	pf.String("log-format", "", "log format (json or text)")

	cmd.AddCommand(newMigrateCmd(a))
	cmd.AddCommand(newChallengeCmd(a))
	cmd.AddCommand(newConfigCmd(a))
	cmd.AddCommand(newServeCmd(a))

	return cmd
}

func (a *app) load(cmd *cobra.Command, _ []string) error {
	if a.configFile == "" {
		// A missing or unresolvable per-user file means defaults only.
		if path, err := xdg.DefaultConfigFile(); err == nil {
			a.configFile = path
		}
	}
	cfg, err := config.Load(a.configFile, cmd.Flags())
	if err != nil {
		return err
	}
	logger, err := logging.Setup("gauntlet", version, cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	a.cfg, a.logger = cfg, logger
	return nil
}

// openStores connects to the configured database.
func (a *app) openStores(ctx context.Context) (*Stores, error) {
	url, err := a.cfg.RequireDatabase()
	if err != nil {
		return nil, err
	}
	return a.deps.OpenStores(ctx, url)
}

// newService builds a Service without a host. It only reads and writes
// persistence; the caller must Close it.
func (a *app) newService(st *Stores) (*challenge.Service, error) {
	return challenge.NewService(challenge.ServiceConfig{
		Settings:   st.Settings,
		Permadeath: st.Permadeath,
		Runs:       st.Runs,
		Config:     a.cfg.Challenge,
		Logger:     a.logger,
	})
}
