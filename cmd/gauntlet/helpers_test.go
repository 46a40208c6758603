// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/spf13/cobra"

	"github.com/holomush/gauntlet/internal/challenge"
	"github.com/holomush/gauntlet/internal/config"
	"github.com/holomush/gauntlet/internal/store"
)

const testDatabaseURL = "postgres://gauntlet@localhost/gauntlet_test"

// fakeMigrator records calls made by the migrate commands.
type fakeMigrator struct {
	status  store.Status
	err     error
	ups     int
	downs   int
	steps   []int
	forced  []int
	closed  bool
	initErr error
}

func (f *fakeMigrator) Up() error {
	f.ups++
	if f.err == nil {
		f.status.Applied = append(f.status.Applied, f.status.Pending...)
		f.status.Pending = nil
	}
	return f.err
}

func (f *fakeMigrator) Down() error       { f.downs++; return f.err }
func (f *fakeMigrator) Steps(n int) error { f.steps = append(f.steps, n); return f.err }
func (f *fakeMigrator) Force(v int) error { f.forced = append(f.forced, v); return f.err }
func (f *fakeMigrator) Close() error      { f.closed = true; return nil }

func (f *fakeMigrator) Status() (store.Status, error) {
	if f.err != nil {
		return store.Status{}, f.err
	}
	return f.status, nil
}

// testEnv wires the CLI to in-memory stores and a fake migrator.
type testEnv struct {
	mem      *challenge.MemoryStore
	migrator *fakeMigrator
	openErr  error
	closes   int
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv(config.EnvDatabaseURL, "")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	return &testEnv{mem: challenge.NewMemoryStore(), migrator: &fakeMigrator{}}
}

func (e *testEnv) deps() Deps {
	return Deps{
		OpenStores: func(_ context.Context, url string) (*Stores, error) {
			if e.openErr != nil {
				return nil, e.openErr
			}
			if url == "" {
				return nil, errors.New("empty database url")
			}
			return &Stores{
				Settings:   e.mem,
				Permadeath: e.mem,
				Runs:       e.mem,
				History:    e.mem,
				Ping:       func(context.Context) error { return nil },
				Close:      func() { e.closes++ },
			}, nil
		},
		NewMigrator: func(string) (Migrator, error) {
			if e.migrator.initErr != nil {
				return nil, e.migrator.initErr
			}
			return e.migrator, nil
		},
	}
}

// run executes the CLI with args and returns stdout.
func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return e.runContext(t, context.Background(), args...)
}

func (e *testEnv) runContext(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(e.deps())
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

func findCommand(t *testing.T, root *cobra.Command, path ...string) *cobra.Command {
	t.Helper()
	cmd, _, err := root.Find(path)
	if err != nil {
		t.Fatalf("command %v not found: %v", path, err)
	}
	return cmd
}
