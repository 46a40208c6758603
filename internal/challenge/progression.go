// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package challenge

import (
	"context"

	"github.com/holomush/gauntlet/pkg/errutil"
)

// AdjustTalentPoints returns the number of talent points the player may
// have. NO_TALENTS forces zero.
func (s *Service) AdjustTalentPoints(ctx context.Context, player *Player, points int) int {
	if player == nil {
		return points
	}
	if s.restricted(ctx, player.ID, FlagNoTalents) {
		return 0
	}
	return points
}

// EnforceNoTalents clears any free talent points already accrued.
func (s *Service) EnforceNoTalents(ctx context.Context, player *Player) {
	if player == nil || !s.restricted(ctx, player.ID, FlagNoTalents) {
		return
	}
	if err := s.enforcer.ResetFreeTalentPoints(ctx, player.ID); err != nil {
		errutil.LogError(s.logger, "reset free talent points", err, "player_id", player.ID.String())
		return
	}
	Enforcements.WithLabelValues("talent_reset").Inc()
}

// AdjustXP transforms an experience award.
func (s *Service) AdjustXP(ctx context.Context, player *Player, amount int, source XPSource) int {
	if player == nil || amount <= 0 {
		return amount
	}
	if s.restricted(ctx, player.ID, FlagOnlyQuestXP) && !source.IsQuest() {
		return 0
	}
	if s.restricted(ctx, player.ID, FlagNoQuestXP) && source.IsQuest() {
		return 0
	}

	cfg := s.cfg.Load()
	rate := 1.0
	switch {
	case s.restricted(ctx, player.ID, FlagQuarterXP):
		rate = cfg.Experience.QuarterRate
	case s.restricted(ctx, player.ID, FlagHalfXP):
		rate = cfg.Experience.HalfRate
	}
	rate = max(rate, 0)
	return int(float64(amount) * rate)
}

// AdjustMoney clamps a currency gain so holdings never exceed the tier's
// poverty cap. Losses pass through.
func (s *Service) AdjustMoney(ctx context.Context, player *Player, delta int64) int64 {
	if player == nil || delta <= 0 {
		return delta
	}
	if !s.restricted(ctx, player.ID, FlagPoverty) {
		return delta
	}
	limit, ok := s.Config().Poverty.CapFor(s.cache.Get(ctx, player.ID).Tier)
	if !ok {
		return delta
	}
	return ClampMoneyGain(player.Money, delta, limit)
}

// ClampMoneyGain limits delta so that current+delta does not exceed limit.
func ClampMoneyGain(current, delta, limit int64) int64 {
	if delta <= 0 {
		return delta
	}
	if current >= limit {
		return 0
	}
	if delta > limit-current {
		return limit - current
	}
	return delta
}
