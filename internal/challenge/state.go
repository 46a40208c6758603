// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package challenge

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// MaxTier is the highest valid challenge tier.
const MaxTier = 3

// State is the active challenge of a single player.
type State struct {
	Tier  int
	Flags Flags
}

// Active reports whether a challenge is running.
func (s State) Active() bool {
	return s.Tier > 0
}

// EffectiveFlags returns the flags that are actually enforced.
// Flags are meaningless without an active tier.
func (s State) EffectiveFlags() Flags {
	if !s.Active() {
		return 0
	}
	return s.Flags
}

// ClampTier maps any out-of-range tier to 0.
func ClampTier(tier int) int {
	if tier < 0 || tier > MaxTier {
		return 0
	}
	return tier
}

// DeathCause classifies what killed a player.
type DeathCause int

// Death causes in attribution precedence order.
const (
	CauseEnvironment DeathCause = iota
	CausePvE
	CausePvP
	CauseDuel
	CauseBattleground
	CauseArena
)

func (c DeathCause) String() string {
	switch c {
	case CausePvE:
		return "pve"
	case CausePvP:
		return "pvp"
	case CauseDuel:
		return "duel"
	case CauseBattleground:
		return "battleground"
	case CauseArena:
		return "arena"
	default:
		return "environment"
	}
}

// ParseDeathCause is the inverse of DeathCause.String.
func ParseDeathCause(s string) (DeathCause, error) {
	for c := CauseEnvironment; c <= CauseArena; c++ {
		if c.String() == s {
			return c, nil
		}
	}
	return CauseEnvironment, oops.Code("INVALID_DEATH_CAUSE").With("cause", s).Errorf("unknown death cause %q", s)
}

// Location is a point in the world.
type Location struct {
	MapID       uint32  `json:"map_id" koanf:"map"`
	X           float64 `json:"x" koanf:"x"`
	Y           float64 `json:"y" koanf:"y"`
	Z           float64 `json:"z" koanf:"z"`
	Orientation float64 `json:"orientation" koanf:"orientation"`
}

// PermadeathRecord is the persisted memorial status of a character.
type PermadeathRecord struct {
	PlayerID ulid.ULID
	Dead     bool
	DiedAt   time.Time
	Location Location
	Cause    DeathCause
}

// RunState is the lifecycle state of a challenge run.
type RunState string

// Run states.
const (
	RunActive    RunState = "active"
	RunCompleted RunState = "completed"
	RunFailed    RunState = "failed"
)

// RunRecord is one attempt at a tier, kept for reporting.
type RunRecord struct {
	PlayerID        ulid.ULID
	Tier            int
	State           RunState
	PickedFlags     Flags
	FailedFlags     Flags
	SuccessfulFlags Flags
	StartedAt       time.Time
	EndedAt         *time.Time
}

// graceState tracks an in-progress illegal-group violation.
type graceState struct {
	detectedAt time.Time
	deadline   time.Time
	warnedAt   time.Time
}

func (g *graceState) active() bool {
	return !g.deadline.IsZero()
}

// entry is the cache slot of an online player.
type entry struct {
	mu     sync.Mutex
	loaded bool
	state  State

	// Owned by the player's own tick.
	grace    graceState
	buffScan time.Duration
}
