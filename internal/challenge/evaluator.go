// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package challenge

import (
	"context"

	"github.com/oklog/ulid/v2"

	"github.com/holomush/gauntlet/pkg/errutil"
)

// HasRestriction reports whether the restriction applies to the player.
//
// A globally disabled engine restricts nobody. A configured diagnostic
// marker effect forces the restriction on. Otherwise the restriction's flag
// bit is read from the player's state, which is empty whenever the tier is
// zero. Unknown ids are never restricted.
func (s *Service) HasRestriction(ctx context.Context, playerID ulid.ULID, id Restriction) bool {
	flag, ok := FlagFor(id)
	if !ok {
		return false
	}
	return s.restricted(ctx, playerID, flag)
}

// restricted is HasRestriction for an already-resolved flag bit.
func (s *Service) restricted(ctx context.Context, playerID ulid.ULID, flag Flags) bool {
	cfg := s.cfg.Load()
	if !cfg.Enabled {
		return false
	}
	if len(cfg.Diagnostics.Markers) > 0 && s.hasMarker(ctx, cfg, playerID, flag) {
		return true
	}
	return s.cache.Get(ctx, playerID).EffectiveFlags()&flag != 0
}

func (s *Service) hasMarker(ctx context.Context, cfg *Config, playerID ulid.ULID, flag Flags) bool {
	var spellID uint32
	found := false
	for id, effect := range cfg.Diagnostics.Markers {
		if f, ok := FlagFor(Restriction(id)); ok && f == flag {
			spellID, found = effect, true
			break
		}
	}
	if !found {
		return false
	}

	effects, err := s.enforcer.ActiveEffects(ctx, playerID)
	if err != nil {
		errutil.LogError(s.logger, "read effects for diagnostic marker", err,
			"player_id", playerID.String())
		return false
	}
	for _, e := range effects {
		if e.SpellID == spellID {
			return true
		}
	}
	return false
}
