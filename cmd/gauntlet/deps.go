// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"

	"github.com/holomush/gauntlet/internal/challenge"
	"github.com/holomush/gauntlet/internal/challenge/postgres"
	"github.com/holomush/gauntlet/internal/store"
)

// Stores bundles the challenge persistence a command needs.
type Stores struct {
	Settings   challenge.SettingsStore
	Permadeath challenge.PermadeathStore
	Runs       challenge.RunStore
	History    challenge.RunHistory
	Ping       func(ctx context.Context) error
	Close      func()
}

// Migrator is the schema migration surface used by the migrate commands.
type Migrator interface {
	Up() error
	Down() error
	Steps(n int) error
	Force(version int) error
	Status() (store.Status, error)
	Close() error
}

// Deps holds injectable factories. Nil fields use PostgreSQL.
type Deps struct {
	OpenStores  func(ctx context.Context, databaseURL string) (*Stores, error)
	NewMigrator func(databaseURL string) (Migrator, error)
}

func (d Deps) withDefaults() Deps {
	if d.OpenStores == nil {
		d.OpenStores = openPostgresStores
	}
	if d.NewMigrator == nil {
		d.NewMigrator = func(databaseURL string) (Migrator, error) {
			return store.NewMigrator(databaseURL)
		}
	}
	return d
}

func openPostgresStores(ctx context.Context, databaseURL string) (*Stores, error) {
	pool, err := store.OpenPool(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	runs := postgres.NewRunRepository(pool)
	return &Stores{
		Settings:   postgres.NewSettingsRepository(pool),
		Permadeath: postgres.NewPermadeathRepository(pool),
		Runs:       runs,
		History:    runs,
		Ping:       pool.Ping,
		Close:      pool.Close,
	}, nil
}
