// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package config

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatch_AppliesValidEdits(t *testing.T) {
	t.Setenv(EnvDatabaseURL, "")
	path := writeConfig(t, "challenge:\n  buffs:\n    allow_list: \"1\"\n")

	applied := make(chan Config, 16)
	apply := func(cfg Config) {
		select {
		case applied <- cfg:
		default:
		}
	}
	w, err := Watch(path, nil, apply, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()

	// Rejected edits never reach apply.
	require.NoError(t, os.WriteFile(path, []byte("challenge:\n  bogus: true\n"), 0o600))
	time.Sleep(200 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("challenge:\n  buffs:\n    allow_list: \"2\"\n"), 0o600))

	// A write can surface as several events, some seeing a truncated file.
	deadline := time.After(5 * time.Second)
	for {
		select {
		case cfg := <-applied:
			assert.NotEqual(t, "1", cfg.Challenge.Buffs.AllowList)
			if cfg.Challenge.Buffs.AllowList == "2" {
				return
			}
		case <-deadline:
			t.Fatal("reload was not applied")
		}
	}
}

func TestWatch_MissingFile(t *testing.T) {
	_, err := Watch(filepath.Join(t.TempDir(), "absent.yaml"), nil, func(Config) {}, nil)
	require.Error(t, err)
}
