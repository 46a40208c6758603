// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package postgres

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/gauntlet/internal/challenge"
)

// RunRepository implements challenge.RunStore using PostgreSQL.
type RunRepository struct {
	pool poolIface
}

// NewRunRepository creates a new RunRepository.
func NewRunRepository(pool poolIface) *RunRepository {
	return &RunRepository{pool: pool}
}

// StartRun records a new active run. An existing active run for the player
// is overwritten in place; at most one active run exists per player.
func (r *RunRepository) StartRun(ctx context.Context, run challenge.RunRecord) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO challenge_runs (id, player_id, tier, state, picked_flags, failed_flags, successful_flags, started_at)
		VALUES ($1, $2, $3, 'active', $4, 0, 0, $5)
		ON CONFLICT (player_id) WHERE state = 'active' DO UPDATE SET
			tier = $3, picked_flags = $4, failed_flags = 0, successful_flags = 0,
			started_at = $5, ended_at = NULL
	`, ulid.Make().String(), run.PlayerID.String(), run.Tier, int64(run.PickedFlags), run.StartedAt)
	if err != nil {
		return oops.Code("CHALLENGE_RUN_START_FAILED").
			With("player_id", run.PlayerID.String()).
			With("tier", run.Tier).
			Wrap(classify(err))
	}
	return nil
}

// FailActiveRun marks the player's active run failed. It is a no-op when
// there is no active run.
func (r *RunRepository) FailActiveRun(ctx context.Context, playerID ulid.ULID, failed challenge.Flags, endedAt time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE challenge_runs
		SET state = 'failed', failed_flags = failed_flags | $2, ended_at = $3
		WHERE player_id = $1 AND state = 'active'
	`, playerID.String(), int64(failed), endedAt)
	if err != nil {
		return oops.Code("CHALLENGE_RUN_FAIL_FAILED").With("player_id", playerID.String()).Wrap(classify(err))
	}
	return nil
}

// ListRuns returns the player's runs, most recent first.
func (r *RunRepository) ListRuns(ctx context.Context, playerID ulid.ULID, limit int) ([]challenge.RunRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT tier, state, picked_flags, failed_flags, successful_flags, started_at, ended_at
		FROM challenge_runs WHERE player_id = $1
		ORDER BY started_at DESC
		LIMIT $2
	`, playerID.String(), limit)
	if err != nil {
		return nil, oops.With("operation", "list runs").With("player_id", playerID.String()).Wrap(err)
	}
	defer rows.Close()

	var runs []challenge.RunRecord
	for rows.Next() {
		run := challenge.RunRecord{PlayerID: playerID}
		var state string
		var picked, failed, successful int64
		if err := rows.Scan(&run.Tier, &state, &picked, &failed, &successful, &run.StartedAt, &run.EndedAt); err != nil {
			return nil, oops.With("operation", "scan run row").With("player_id", playerID.String()).Wrap(err)
		}
		run.State = challenge.RunState(state)
		run.PickedFlags = challenge.Flags(picked)
		run.FailedFlags = challenge.Flags(failed)
		run.SuccessfulFlags = challenge.Flags(successful)
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.With("operation", "iterate runs").With("player_id", playerID.String()).Wrap(err)
	}
	return runs, nil
}

// Verify interfaces are satisfied.
var (
	_ challenge.SettingsStore   = (*SettingsRepository)(nil)
	_ challenge.PermadeathStore = (*PermadeathRepository)(nil)
	_ challenge.RunStore        = (*RunRepository)(nil)
	_ challenge.RunHistory      = (*RunRepository)(nil)
)
