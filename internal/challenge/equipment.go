// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package challenge

import (
	"context"

	"github.com/holomush/gauntlet/pkg/errutil"
)

// CanEquip reports whether player may equip item.
func (s *Service) CanEquip(ctx context.Context, player *Player, item Item) bool {
	if player == nil {
		return true
	}
	cfg := s.cfg.Load()
	if s.equipViolation(ctx, cfg, player, item) {
		return s.deny(ctx, player, ActionEquip, cfg.Messages.EquipBlocked)
	}
	return true
}

func (s *Service) equipViolation(ctx context.Context, cfg *Config, player *Player, item Item) bool {
	if s.restricted(ctx, player.ID, FlagLowQualityOnly) && int(item.Quality) > cfg.Equipment.MaxQuality {
		return true
	}
	if s.restricted(ctx, player.ID, FlagSelfCrafted) && item.CreatorID != player.ID {
		return true
	}
	return false
}

// RevalidateEquipment unequips every item that violates the player's
// restrictions and returns how many were removed. Items go to the bags when
// there is room and are mailed back otherwise; nothing is destroyed. An item
// that can neither be moved nor mailed stays equipped.
func (s *Service) RevalidateEquipment(ctx context.Context, player *Player) int {
	if player == nil {
		return 0
	}
	if !s.restricted(ctx, player.ID, FlagLowQualityOnly) && !s.restricted(ctx, player.ID, FlagSelfCrafted) {
		return 0
	}

	items, err := s.inventory.Equipped(ctx, player.ID)
	if err != nil {
		errutil.LogError(s.logger, "list equipped items", err, "player_id", player.ID.String())
		return 0
	}

	cfg := s.cfg.Load()
	removed := 0
	for _, item := range items {
		if !s.equipViolation(ctx, cfg, player, item) {
			continue
		}
		if s.unequip(ctx, cfg, player, item) {
			removed++
		}
	}
	if removed > 0 {
		s.messenger.SendMessage(ctx, player.ID, cfg.Messages.EquipRemoved)
	}
	return removed
}

func (s *Service) unequip(ctx context.Context, cfg *Config, player *Player, item Item) bool {
	attrs := []any{"player_id", player.ID.String(), "item_entry", item.Entry, "slot", item.Slot}

	moved, err := s.inventory.MoveToBags(ctx, player.ID, item)
	if err != nil {
		errutil.LogError(s.logger, "move equipped item to bags", err, attrs...)
	}
	if moved {
		Enforcements.WithLabelValues("unequip_bags").Inc()
		s.logger.Info("unequipped restricted item", attrs...)
		return true
	}

	if err := s.inventory.MailToOwner(ctx, player.ID, item, cfg.Equipment.MailSubject, cfg.Equipment.MailBody); err != nil {
		errutil.LogError(s.logger, "mail restricted item to owner", err, attrs...)
		return false
	}
	Enforcements.WithLabelValues("unequip_mail").Inc()
	s.logger.Info("mailed restricted item to owner", attrs...)
	return true
}
