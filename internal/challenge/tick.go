// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package challenge

import (
	"context"
	"fmt"
	"time"

	"github.com/holomush/gauntlet/pkg/errutil"
)

// Tick runs continuous enforcement for one online player. diff is the time
// elapsed since the player's previous tick. Players without an open session
// are skipped.
func (s *Service) Tick(ctx context.Context, player *Player, diff time.Duration) {
	if player == nil {
		return
	}
	e := s.cache.entry(player.ID)
	if e == nil {
		return
	}
	cfg := s.cfg.Load()
	if !cfg.Enabled {
		// A countdown must not survive a disabled period.
		e.grace = graceState{}
		e.buffScan = 0
		return
	}

	s.enforceMount(ctx, cfg, player)
	s.enforceGroup(ctx, cfg, player, e, s.now())
	s.enforceBuffs(ctx, cfg, player, e, diff)
}

func (s *Service) enforceMount(ctx context.Context, cfg *Config, player *Player) {
	if !player.Mounted || !s.restricted(ctx, player.ID, FlagNoMounts) {
		return
	}
	if err := s.enforcer.Dismount(ctx, player.ID); err != nil {
		errutil.LogError(s.logger, "dismount player", err, "player_id", player.ID.String())
		return
	}
	Enforcements.WithLabelValues("dismount").Inc()
	s.messenger.SendMessage(ctx, player.ID, cfg.Messages.MountBlocked)
}

// enforceGroup runs the grace countdown for a player in a manually formed
// group that fails the accept check.
func (s *Service) enforceGroup(ctx context.Context, cfg *Config, player *Player, e *entry, now time.Time) {
	g := player.Group
	if g == nil || g.Matchmade || !s.groupViolation(ctx, cfg, player.ID, g) {
		e.grace = graceState{}
		return
	}

	if !e.grace.active() {
		if cfg.Grouping.GracePeriod <= 0 {
			s.removeFromGroup(ctx, cfg, player, e)
			return
		}
		e.grace = graceState{detectedAt: now, deadline: now.Add(cfg.Grouping.GracePeriod)}
	}

	if !now.Before(e.grace.deadline) {
		s.removeFromGroup(ctx, cfg, player, e)
		return
	}

	last := e.grace.warnedAt
	if last.IsZero() {
		last = e.grace.detectedAt
	}
	if now.Sub(last) < cfg.Grouping.WarningInterval {
		return
	}
	s.messenger.SendMessage(ctx, player.ID,
		fmt.Sprintf(cfg.Messages.GroupGraceWarning, secondsUntil(now, e.grace.deadline)))
	e.grace.warnedAt = now
}

func (s *Service) removeFromGroup(ctx context.Context, cfg *Config, player *Player, e *entry) {
	e.grace = graceState{}
	if err := s.enforcer.LeaveGroup(ctx, player.ID); err != nil {
		errutil.LogError(s.logger, "remove player from group", err, "player_id", player.ID.String())
		return
	}
	Enforcements.WithLabelValues("group_removal").Inc()
	s.messenger.SendMessage(ctx, player.ID, cfg.Messages.GroupRemoved)
	s.logger.Info("removed player from restricted group", "player_id", player.ID.String())
}

// secondsUntil rounds the remaining time up to whole seconds.
func secondsUntil(now, deadline time.Time) int {
	d := deadline.Sub(now)
	return int((d + time.Second - 1) / time.Second)
}

// enforceBuffs strips beneficial effects once per scan interval.
func (s *Service) enforceBuffs(ctx context.Context, cfg *Config, player *Player, e *entry, diff time.Duration) {
	if !s.restricted(ctx, player.ID, FlagNoBuffs) {
		e.buffScan = 0
		return
	}
	if diff > 0 {
		e.buffScan = min(e.buffScan+diff, maxBuffScanBacklog)
	}
	if e.buffScan < cfg.Buffs.ScanInterval {
		return
	}
	e.buffScan = 0

	effects, err := s.enforcer.ActiveEffects(ctx, player.ID)
	if err != nil {
		errutil.LogError(s.logger, "list player effects", err, "player_id", player.ID.String())
		return
	}
	for _, eff := range effects {
		if !eff.Positive {
			continue
		}
		if cfg.Buffs.ExemptPassive && eff.Passive {
			continue
		}
		if s.buffAllow.contains(cfg.Buffs.AllowList, eff.SpellID, s.logger) {
			continue
		}
		if err := s.enforcer.RemoveEffect(ctx, player.ID, eff.SpellID); err != nil {
			errutil.LogError(s.logger, "strip buff", err,
				"player_id", player.ID.String(), "spell_id", eff.SpellID)
			continue
		}
		Enforcements.WithLabelValues("buff_strip").Inc()
	}
}
