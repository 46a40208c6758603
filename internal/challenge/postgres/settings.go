// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// SettingsRepository implements challenge.SettingsStore using PostgreSQL.
type SettingsRepository struct {
	pool poolIface
}

// NewSettingsRepository creates a new SettingsRepository.
func NewSettingsRepository(pool poolIface) *SettingsRepository {
	return &SettingsRepository{pool: pool}
}

// GetSetting returns the stored value for the player and whether one exists.
func (r *SettingsRepository) GetSetting(ctx context.Context, playerID ulid.ULID, name string) (string, bool, error) {
	var value string
	err := r.pool.QueryRow(ctx,
		`SELECT value FROM challenge_settings WHERE player_id = $1 AND name = $2`,
		playerID.String(), name).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, oops.Code("CHALLENGE_SETTING_GET_FAILED").
			With("player_id", playerID.String()).
			With("setting", name).
			Wrap(err)
	}
	return value, true, nil
}

// SetSetting creates or replaces a setting.
func (r *SettingsRepository) SetSetting(ctx context.Context, playerID ulid.ULID, name, value string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO challenge_settings (player_id, name, value, updated_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (player_id, name) DO UPDATE SET value = $3, updated_at = now()`,
		playerID.String(), name, value)
	if err != nil {
		return oops.Code("CHALLENGE_SETTING_SET_FAILED").
			With("player_id", playerID.String()).
			With("setting", name).
			Wrap(classify(err))
	}
	return nil
}
