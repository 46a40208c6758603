// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/gauntlet/pkg/errutil"
)

func TestRootCommand_HasExpectedSubcommands(t *testing.T) {
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--help"})

	require.NoError(t, cmd.Execute())

	output := buf.String()
	for _, sub := range []string{"migrate", "challenge", "config", "serve"} {
		assert.Contains(t, output, sub, "Help missing %q command", sub)
	}
}

func TestRootCommand_LongDescription(t *testing.T) {
	cmd := NewRootCmd()

	assert.Equal(t, "gauntlet", cmd.Use)
	assert.Contains(t, cmd.Long, "permadeath")
}

func TestRootCommand_VersionFlag(t *testing.T) {
	cmd := NewRootCmd()
	cmd.Version = "test-version"
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--version"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "test-version")
}

func TestRootCommand_PersistentFlags(t *testing.T) {
	cmd := NewRootCmd()
	for _, name := range []string{"config", "database-url", "log-level", "log-format"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), "missing --%s", name)
	}
}

func TestRootCommand_ConfigFileErrors(t *testing.T) {
	env := newTestEnv(t)
	missing := filepath.Join(t.TempDir(), "missing.yaml")

	_, err := env.run(t, "--config", missing, "challenge", "status", "01ARZ3NDEKTSV4RRFFQ69G5FAV")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "CONFIG_READ_FAILED")
}

func TestRootCommand_InvalidLogFlag(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "--log-level", "loud", "--database-url", testDatabaseURL,
		"challenge", "status", "01ARZ3NDEKTSV4RRFFQ69G5FAV")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "LOG_LEVEL_INVALID")
}

func TestRootCommand_DefaultConfigFile(t *testing.T) {
	env := newTestEnv(t)
	base := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", base)
	dir := filepath.Join(base, "gauntlet")
	require.NoError(t, os.MkdirAll(dir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "gauntlet.yaml"),
		[]byte("database:\n  url: "+testDatabaseURL+"\n"), 0o600))

	_, err := env.run(t, "migrate", "status")
	require.NoError(t, err, "database url comes from the per-user file")
	assert.True(t, env.migrator.closed)
}
