// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package challenge

import (
	"context"

	"github.com/oklog/ulid/v2"
)

// Gates return true when the action may proceed. A nil actor or target is
// always allowed. On denial the actor is sent the configured message.

// CanTrade reports whether actor may open a trade with target.
func (s *Service) CanTrade(ctx context.Context, actor, target *Player) bool {
	if actor == nil || target == nil {
		return true
	}
	if s.restricted(ctx, actor.ID, FlagNoTrade) || s.restricted(ctx, target.ID, FlagNoTrade) {
		return s.deny(ctx, actor, ActionTrade, s.Config().Messages.TradeBlocked)
	}
	return true
}

// CanSendMail reports whether sender may send mail.
func (s *Service) CanSendMail(ctx context.Context, sender *Player) bool {
	if sender == nil {
		return true
	}
	if s.restricted(ctx, sender.ID, FlagNoMail) {
		return s.deny(ctx, sender, ActionMailSend, s.Config().Messages.MailBlocked)
	}
	return true
}

// CanReceiveMail reports whether mail may be delivered to receiver. The
// receiver is told that the mail was blocked.
func (s *Service) CanReceiveMail(ctx context.Context, receiver *Player) bool {
	if receiver == nil {
		return true
	}
	if s.restricted(ctx, receiver.ID, FlagNoMail) {
		return s.deny(ctx, receiver, ActionMailReceive, s.Config().Messages.MailBlocked)
	}
	return true
}

// CanUseAuction covers browsing, bidding and listing.
func (s *Service) CanUseAuction(ctx context.Context, actor *Player) bool {
	if actor == nil {
		return true
	}
	if s.restricted(ctx, actor.ID, FlagNoAuction) {
		return s.deny(ctx, actor, ActionAuction, s.Config().Messages.AuctionBlocked)
	}
	return true
}

// CanInviteToGroup reports whether inviter may invite target. Solo-only on
// either side denies, and hardcore status must match.
func (s *Service) CanInviteToGroup(ctx context.Context, inviter, target *Player) bool {
	if inviter == nil || target == nil {
		return true
	}
	if s.restricted(ctx, inviter.ID, FlagSoloOnly) || s.restricted(ctx, target.ID, FlagSoloOnly) {
		return s.deny(ctx, inviter, ActionGroupInvite, s.Config().Messages.GroupBlocked)
	}
	if s.restricted(ctx, inviter.ID, FlagHardcore) != s.restricted(ctx, target.ID, FlagHardcore) {
		return s.deny(ctx, inviter, ActionGroupInvite, s.Config().Messages.GroupBlocked)
	}
	return true
}

// CanAcceptGroup reports whether player may join group.
func (s *Service) CanAcceptGroup(ctx context.Context, player *Player, group *Group) bool {
	if player == nil || group == nil {
		return true
	}
	cfg := s.cfg.Load()
	if s.groupViolation(ctx, cfg, player.ID, group) {
		return s.deny(ctx, player, ActionGroupAccept, cfg.Messages.GroupBlocked)
	}
	return true
}

// groupViolation reports whether membership of playerID in g breaks a
// grouping restriction of the player or of any online member.
//
// Manually formed groups always enforce solo-only and require uniform
// hardcore status. Matchmade groups enforce each category only when the
// configuration says so.
func (s *Service) groupViolation(ctx context.Context, cfg *Config, playerID ulid.ULID, g *Group) bool {
	checkSolo := !g.Matchmade || cfg.Grouping.MatchmadeBlocksSoloOnly
	checkHardcore := !g.Matchmade || cfg.Grouping.MatchmadeBlocksHardcore
	if !checkSolo && !checkHardcore {
		return false
	}

	others := make([]ulid.ULID, 0, len(g.Members))
	for _, m := range g.Members {
		if m != playerID {
			others = append(others, m)
		}
	}
	if len(others) == 0 {
		return false
	}

	if checkSolo && s.restricted(ctx, playerID, FlagSoloOnly) {
		return true
	}
	hardcore := s.restricted(ctx, playerID, FlagHardcore)
	for _, m := range others {
		// Offline members have no session state to compare against.
		if !s.cache.Online(m) {
			continue
		}
		if checkSolo && s.restricted(ctx, m, FlagSoloOnly) {
			return true
		}
		if checkHardcore && s.restricted(ctx, m, FlagHardcore) != hardcore {
			return true
		}
	}
	return false
}

// CanTeleport reports whether player may accept a teleport. Only summons,
// which carry a source unit other than the player, are blocked.
func (s *Service) CanTeleport(ctx context.Context, player *Player, req TeleportRequest) bool {
	if player == nil {
		return true
	}
	if req.SourceUnit == (ulid.ULID{}) || req.SourceUnit == player.ID {
		return true
	}
	if s.restricted(ctx, player.ID, FlagNoSummons) {
		return s.deny(ctx, player, ActionTeleport, s.Config().Messages.SummonBlocked)
	}
	return true
}

// CanAccessGuildBank reports whether player may list the guild bank.
func (s *Service) CanAccessGuildBank(ctx context.Context, player *Player) bool {
	if player == nil {
		return true
	}
	if s.restricted(ctx, player.ID, FlagNoGuildBank) {
		return s.deny(ctx, player, ActionGuildBank, s.Config().Messages.GuildBankBlocked)
	}
	return true
}
