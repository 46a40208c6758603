//go:build integration

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package postgres_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	pgcontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/holomush/gauntlet/internal/challenge"
	"github.com/holomush/gauntlet/internal/challenge/postgres"
	"github.com/holomush/gauntlet/internal/store"
)

// testPool is the shared database pool for integration tests.
var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	ctx := context.Background()

	container, err := pgcontainer.Run(ctx,
		"postgres:16-alpine",
		pgcontainer.WithDatabase("gauntlet_test"),
		pgcontainer.WithUsername("gauntlet"),
		pgcontainer.WithPassword("gauntlet"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		panic("failed to start postgres container: " + err.Error())
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		panic("failed to get connection string: " + err.Error())
	}

	migrator, err := store.NewMigrator(connStr)
	if err != nil {
		_ = container.Terminate(ctx)
		panic("failed to create migrator: " + err.Error())
	}
	if err := migrator.Up(); err != nil {
		_ = migrator.Close()
		_ = container.Terminate(ctx)
		panic("failed to run migrations: " + err.Error())
	}
	_ = migrator.Close()

	testPool, err = store.OpenPool(ctx, connStr)
	if err != nil {
		_ = container.Terminate(ctx)
		panic("failed to open pool: " + err.Error())
	}

	code := m.Run()

	testPool.Close()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func TestSettingsRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := postgres.NewSettingsRepository(testPool)
	playerID := ulid.Make()

	_, found, err := repo.GetSetting(ctx, playerID, challenge.SettingTier)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, repo.SetSetting(ctx, playerID, challenge.SettingTier, "1"))
	require.NoError(t, repo.SetSetting(ctx, playerID, challenge.SettingTier, "3"))

	value, found, err := repo.GetSetting(ctx, playerID, challenge.SettingTier)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "3", value)
}

func TestStateStore_OnPostgres(t *testing.T) {
	ctx := context.Background()
	states := challenge.NewStateStore(postgres.NewSettingsRepository(testPool), nil)
	playerID := ulid.Make()

	want := challenge.State{Tier: 2, Flags: challenge.FlagNoMail | challenge.FlagHardcore}
	require.NoError(t, states.Save(ctx, playerID, want))
	assert.Equal(t, want, states.Load(ctx, playerID))
}

func TestPermadeathRepository_Upsert(t *testing.T) {
	ctx := context.Background()
	repo := postgres.NewPermadeathRepository(testPool)
	playerID := ulid.Make()

	got, err := repo.GetPermadeath(ctx, playerID)
	require.NoError(t, err)
	assert.Nil(t, got)

	rec := challenge.PermadeathRecord{
		PlayerID: playerID,
		Dead:     true,
		DiedAt:   time.Now().UTC().Truncate(time.Microsecond),
		Location: challenge.Location{MapID: 1, X: -100.5, Y: 42, Z: 7, Orientation: 3.1},
		Cause:    challenge.CauseDuel,
	}
	require.NoError(t, repo.UpsertPermadeath(ctx, rec))
	require.NoError(t, repo.UpsertPermadeath(ctx, rec), "upsert is idempotent")

	got, err = repo.GetPermadeath(ctx, playerID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, rec.Cause, got.Cause)
	assert.Equal(t, rec.Location, got.Location)
	assert.True(t, rec.DiedAt.Equal(got.DiedAt))
}

func TestRunRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := postgres.NewRunRepository(testPool)
	playerID := ulid.Make()
	start := time.Now().UTC().Truncate(time.Microsecond)

	require.NoError(t, repo.StartRun(ctx, challenge.RunRecord{
		PlayerID: playerID, Tier: 1, PickedFlags: challenge.FlagNoMail, StartedAt: start,
	}))
	require.NoError(t, repo.StartRun(ctx, challenge.RunRecord{
		PlayerID: playerID, Tier: 2, PickedFlags: challenge.FlagPermadeath, StartedAt: start.Add(time.Minute),
	}), "a second active run replaces the first")

	runs, err := repo.ListRuns(ctx, playerID, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 2, runs[0].Tier)
	assert.Equal(t, challenge.RunActive, runs[0].State)

	require.NoError(t, repo.FailActiveRun(ctx, playerID, challenge.FlagPermadeath, start.Add(time.Hour)))
	require.NoError(t, repo.FailActiveRun(ctx, playerID, challenge.FlagPermadeath, start.Add(2*time.Hour)),
		"no active run is a no-op")

	runs, err = repo.ListRuns(ctx, playerID, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, challenge.RunFailed, runs[0].State)
	assert.Equal(t, challenge.FlagPermadeath, runs[0].FailedFlags)
	require.NotNil(t, runs[0].EndedAt)
	assert.True(t, start.Add(time.Hour).Equal(*runs[0].EndedAt))

	require.NoError(t, repo.StartRun(ctx, challenge.RunRecord{
		PlayerID: playerID, Tier: 3, PickedFlags: challenge.FlagSoloOnly, StartedAt: start.Add(3 * time.Hour),
	}))
	runs, err = repo.ListRuns(ctx, playerID, 10)
	require.NoError(t, err)
	assert.Len(t, runs, 2, "failed runs are kept as history")
	assert.Equal(t, 3, runs[0].Tier)
}

func TestRunRepository_RejectsInvalidTier(t *testing.T) {
	err := postgres.NewRunRepository(testPool).StartRun(context.Background(), challenge.RunRecord{
		PlayerID: ulid.Make(), Tier: 9, StartedAt: time.Now(),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, challenge.ErrRejected)
}
