// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/gauntlet/internal/challenge"
)

// PermadeathRepository implements challenge.PermadeathStore using PostgreSQL.
type PermadeathRepository struct {
	pool poolIface
}

// NewPermadeathRepository creates a new PermadeathRepository.
func NewPermadeathRepository(pool poolIface) *PermadeathRepository {
	return &PermadeathRepository{pool: pool}
}

// GetPermadeath returns the memorial record, or nil when the player has none.
func (r *PermadeathRepository) GetPermadeath(ctx context.Context, playerID ulid.ULID) (*challenge.PermadeathRecord, error) {
	rec := challenge.PermadeathRecord{PlayerID: playerID}
	var cause string
	err := r.pool.QueryRow(ctx, `
		SELECT is_dead, died_at, map_id, x, y, z, orientation, cause
		FROM permadeath WHERE player_id = $1
	`, playerID.String()).Scan(
		&rec.Dead, &rec.DiedAt, &rec.Location.MapID,
		&rec.Location.X, &rec.Location.Y, &rec.Location.Z, &rec.Location.Orientation,
		&cause)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, oops.Code("PERMADEATH_GET_FAILED").With("player_id", playerID.String()).Wrap(err)
	}
	rec.Cause, err = challenge.ParseDeathCause(cause)
	if err != nil {
		return nil, oops.Code("PERMADEATH_GET_FAILED").With("player_id", playerID.String()).Wrap(err)
	}
	return &rec, nil
}

// UpsertPermadeath writes the memorial record, replacing any existing one.
func (r *PermadeathRepository) UpsertPermadeath(ctx context.Context, rec challenge.PermadeathRecord) error {
	loc := rec.Location
	_, err := r.pool.Exec(ctx, `
		INSERT INTO permadeath (player_id, is_dead, died_at, map_id, x, y, z, orientation, cause)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (player_id) DO UPDATE SET
			is_dead = $2, died_at = $3, map_id = $4, x = $5, y = $6, z = $7,
			orientation = $8, cause = $9
	`, rec.PlayerID.String(), rec.Dead, rec.DiedAt, loc.MapID,
		loc.X, loc.Y, loc.Z, loc.Orientation, rec.Cause.String())
	if err != nil {
		return oops.Code("PERMADEATH_UPSERT_FAILED").With("player_id", rec.PlayerID.String()).Wrap(classify(err))
	}
	return nil
}
