// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package config loads gauntlet configuration from defaults, a YAML file,
// the environment and command-line flags, in increasing precedence.
package config

import (
	"os"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/holomush/gauntlet/internal/challenge"
	"github.com/holomush/gauntlet/internal/logging"
)

// EnvDatabaseURL overrides database.url from the file.
const EnvDatabaseURL = "DATABASE_URL"

// Config is the complete gauntlet configuration.
type Config struct {
	Database  DatabaseConfig   `koanf:"database" json:"database"`
	Log       logging.Config   `koanf:"log" json:"log"`
	Metrics   MetricsConfig    `koanf:"metrics" json:"metrics"`
	Challenge challenge.Config `koanf:"challenge" json:"challenge"`
}

// DatabaseConfig locates PostgreSQL.
type DatabaseConfig struct {
	URL string `koanf:"url" json:"url,omitempty" jsonschema:"description=PostgreSQL connection URL"`
}

// MetricsConfig configures the observability listener. Empty Addr disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr" json:"addr,omitempty"`
}

// FlagKeys maps command-line flag names to configuration keys.
var FlagKeys = map[string]string{
	"database-url": "database.url",
	"log-level":    "log.level",
	"log-format":   "log.format",
	"metrics-addr": "metrics.addr",
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Log:       logging.Config{Format: "json", Level: "info"},
		Challenge: challenge.DefaultConfig(),
	}
}

// Load builds a Config. path may be empty to skip the file, and flags may be
// nil. Only flags the user actually set override lower layers.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	if path != "" {
		fp := file.Provider(path)
		data, err := fp.ReadBytes()
		if err != nil {
			return Config{}, oops.Code("CONFIG_READ_FAILED").With("path", path).Wrap(err)
		}
		if err := Validate(data); err != nil {
			return Config{}, oops.With("path", path).Wrap(err)
		}
		if err := k.Load(fp, yaml.Parser()); err != nil {
			return Config{}, oops.Code("CONFIG_PARSE_FAILED").With("path", path).Wrap(err)
		}
	}

	if url := os.Getenv(EnvDatabaseURL); url != "" {
		if err := k.Set("database.url", url); err != nil {
			return Config{}, oops.Code("CONFIG_PARSE_FAILED").With("key", "database.url").Wrap(err)
		}
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, flagValue), nil); err != nil {
			return Config{}, oops.Code("CONFIG_PARSE_FAILED").With("source", "flags").Wrap(err)
		}
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, oops.Code("CONFIG_PARSE_FAILED").With("path", path).Wrap(err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// flagValue maps changed, known flags to their keys. Everything else is skipped.
func flagValue(f *pflag.Flag) (string, any) {
	key, ok := FlagKeys[f.Name]
	if !ok || !f.Changed {
		return "", nil
	}
	return key, f.Value.String()
}

// Validate checks semantic constraints the schema cannot express.
func (c Config) Validate() error {
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return oops.Code("CONFIG_INVALID").With("field", "log.level").Wrap(err)
	}
	switch c.Log.Format {
	case "", "json", "text":
	default:
		return oops.Code("CONFIG_INVALID").With("field", "log.format").
			Errorf("log format must be json or text, got %q", c.Log.Format)
	}
	return c.Challenge.Validate()
}

// RequireDatabase returns the database URL or a CONFIG_INVALID error.
func (c Config) RequireDatabase() (string, error) {
	if c.Database.URL == "" {
		return "", oops.Code("CONFIG_INVALID").With("field", "database.url").
			Errorf("database URL is required (set database.url, --database-url or %s)", EnvDatabaseURL)
	}
	return c.Database.URL, nil
}
