// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package challenge

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/gauntlet/pkg/errutil"
)

// Setting names used for the active challenge.
const (
	SettingTier  = "challenge.tier"
	SettingFlags = "challenge.flags"
)

// ErrRejected marks a write the backing store refused outright. Such writes
// are not retried.
var ErrRejected = errors.New("write rejected by store")

// SettingsStore is a per-player key-value settings store.
type SettingsStore interface {
	// GetSetting returns the raw value and whether it exists.
	GetSetting(ctx context.Context, playerID ulid.ULID, name string) (string, bool, error)
	// SetSetting creates or replaces a value.
	SetSetting(ctx context.Context, playerID ulid.ULID, name, value string) error
}

// PermadeathStore persists memorial records.
type PermadeathStore interface {
	// GetPermadeath returns nil when the player has no record.
	GetPermadeath(ctx context.Context, playerID ulid.ULID) (*PermadeathRecord, error)
	// UpsertPermadeath must be idempotent.
	UpsertPermadeath(ctx context.Context, rec PermadeathRecord) error
}

// RunStore persists challenge run history. It is write-only from this package.
type RunStore interface {
	// StartRun records a new active run, replacing any active run for the player.
	StartRun(ctx context.Context, run RunRecord) error
	// FailActiveRun marks the active run failed, OR-ing failed into its failed flags.
	// It is a no-op when the player has no active run.
	FailActiveRun(ctx context.Context, playerID ulid.ULID, failed Flags, endedAt time.Time) error
}

// RunHistory reads past runs for reporting.
type RunHistory interface {
	// ListRuns returns at most limit runs, newest first.
	ListRuns(ctx context.Context, playerID ulid.ULID, limit int) ([]RunRecord, error)
}

// StateStore adapts a SettingsStore to challenge State.
type StateStore struct {
	settings SettingsStore
	logger   *slog.Logger
}

// NewStateStore creates a StateStore. A nil logger uses slog.Default().
func NewStateStore(settings SettingsStore, logger *slog.Logger) *StateStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &StateStore{settings: settings, logger: logger}
}

// Load reads a player's state. Missing, unreadable or corrupt values
// degrade to zero rather than failing.
func (s *StateStore) Load(ctx context.Context, playerID ulid.ULID) State {
	tier := s.readUint(ctx, playerID, SettingTier)
	flags := s.readUint(ctx, playerID, SettingFlags)

	clamped := ClampTier(int(min(tier, MaxTier+1)))
	if uint64(clamped) != tier {
		s.logger.Warn("corrupt challenge tier clamped",
			"player_id", playerID.String(), "tier", tier)
	}
	return State{Tier: clamped, Flags: Flags(flags)}
}

// Save writes both settings. The tier is clamped before writing.
func (s *StateStore) Save(ctx context.Context, playerID ulid.ULID, st State) error {
	tier := ClampTier(st.Tier)
	if err := s.settings.SetSetting(ctx, playerID, SettingTier, strconv.Itoa(tier)); err != nil {
		return oops.Code("CHALLENGE_STATE_SAVE_FAILED").
			With("player_id", playerID.String()).With("setting", SettingTier).Wrap(err)
	}
	flags := strconv.FormatUint(uint64(st.Flags), 10)
	if err := s.settings.SetSetting(ctx, playerID, SettingFlags, flags); err != nil {
		return oops.Code("CHALLENGE_STATE_SAVE_FAILED").
			With("player_id", playerID.String()).With("setting", SettingFlags).Wrap(err)
	}
	return nil
}

func (s *StateStore) readUint(ctx context.Context, playerID ulid.ULID, name string) uint64 {
	raw, ok, err := s.settings.GetSetting(ctx, playerID, name)
	if err != nil {
		errutil.LogError(s.logger, "read challenge setting", err,
			"player_id", playerID.String(), "setting", name)
		return 0
	}
	if !ok {
		return 0
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		s.logger.Warn("unparsable challenge setting ignored",
			"player_id", playerID.String(), "setting", name, "value", raw)
		return 0
	}
	return v
}
