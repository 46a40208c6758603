// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package config

import (
	"log/slog"

	"github.com/knadh/koanf/providers/file"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/holomush/gauntlet/pkg/errutil"
)

// Watcher reloads a configuration file whenever it changes.
type Watcher struct {
	provider *file.File
}

// Watch calls apply with each configuration that loads cleanly after path
// changes. Invalid edits are logged and leave the running config alone.
func Watch(path string, flags *pflag.FlagSet, apply func(Config), logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	fp := file.Provider(path)
	err := fp.Watch(func(_ any, err error) {
		if err != nil {
			errutil.LogError(logger, "config watch failed", err, "path", path)
			return
		}
		cfg, err := Load(path, flags)
		if err != nil {
			errutil.LogError(logger, "config reload rejected", err, "path", path)
			return
		}
		logger.Info("config reloaded", "path", path)
		apply(cfg)
	})
	if err != nil {
		return nil, oops.Code("CONFIG_WATCH_FAILED").With("path", path).Wrap(err)
	}
	return &Watcher{provider: fp}, nil
}

// Stop ends the watch.
func (w *Watcher) Stop() error {
	if err := w.provider.Unwatch(); err != nil {
		return oops.Code("CONFIG_WATCH_FAILED").Wrap(err)
	}
	return nil
}
