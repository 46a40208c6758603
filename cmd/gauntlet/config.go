// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"os"
	"path/filepath"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/gauntlet/internal/config"
	"github.com/holomush/gauntlet/internal/xdg"
)

func newConfigCmd(_ *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and validate configuration files",
		// Works on explicit files; the global config is not loaded.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	}

	var out string
	schema := &cobra.Command{
		Use:   "schema",
		Short: "Print the configuration JSON Schema",
		Long: `Print the JSON Schema that configuration files are validated
against. Editors can use it for completion and inline checks.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := config.GenerateSchema()
			if err != nil {
				return err
			}
			if out == "" {
				_, err := cmd.OutOrStdout().Write(append(data, '\n'))
				return err
			}
			if err := xdg.EnsureDir(filepath.Dir(out)); err != nil {
				return err
			}
			if err := os.WriteFile(out, data, 0o600); err != nil {
				return oops.Code("SCHEMA_WRITE_FAILED").With("path", out).Wrap(err)
			}
			cmd.Printf("Generated %s\n", out)
			return nil
		},
	}
	schema.Flags().StringVarP(&out, "out", "o", "", "write the schema to this file")
	cmd.AddCommand(schema)

	cmd.AddCommand(&cobra.Command{
		Use:   "validate FILE",
		Short: "Check a configuration file",
		Long: `Validate FILE against the configuration schema and the challenge
rules, then report the effective settings.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(args[0], nil)
			if err != nil {
				return err
			}
			state := "disabled"
			if cfg.Challenge.Enabled {
				state = "enabled"
			}
			cmd.Printf("%s is valid (challenge mode %s)\n", args[0], state)
			return nil
		},
	})

	return cmd
}
