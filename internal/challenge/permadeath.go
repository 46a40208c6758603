// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package challenge

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/holomush/gauntlet/pkg/errutil"
)

// DeathOutcome is the result of processing a death event.
type DeathOutcome int

// Death outcomes.
const (
	// DeathIgnored means permadeath does not apply to this player right now.
	DeathIgnored DeathOutcome = iota
	// DeathSurvived means the cause was classified but does not count.
	DeathSurvived
	// DeathPermanent means the character is now a memorial.
	DeathPermanent
)

func (o DeathOutcome) String() string {
	switch o {
	case DeathSurvived:
		return "survived"
	case DeathPermanent:
		return "permanent"
	default:
		return "ignored"
	}
}

// RecordPvPKill marks victim as just killed by a player.
func (s *Service) RecordPvPKill(_ context.Context, victim ulid.ULID) {
	if victim == (ulid.ULID{}) {
		return
	}
	s.attribution.Mark(victim, KillPvP, s.now())
}

// RecordPvEKill marks victim as just killed by a creature.
func (s *Service) RecordPvEKill(_ context.Context, victim ulid.ULID) {
	if victim == (ulid.ULID{}) {
		return
	}
	s.attribution.Mark(victim, KillPvE, s.now())
}

// SweepAttribution drops expired kill marks and returns how many players
// were cleared. Hosts call it periodically; marks are also dropped on death
// and logout.
func (s *Service) SweepAttribution() int {
	return s.attribution.Sweep(s.now(), s.cfg.Load().Permadeath.AttributionWindow)
}

// HandleDeath processes a death event for player.
func (s *Service) HandleDeath(ctx context.Context, player *Player) DeathOutcome {
	if player == nil {
		return DeathIgnored
	}
	now := s.now()
	cfg := s.cfg.Load()

	// Marks are spent by this death whether or not they end up counting.
	pvp, pve := s.attribution.Consume(player.ID, now, cfg.Permadeath.AttributionWindow)

	if !cfg.Enabled || !cfg.Permadeath.Enabled {
		return DeathIgnored
	}
	if !s.restricted(ctx, player.ID, FlagPermadeath) {
		return DeathIgnored
	}
	if s.pendingKick.has(player.ID) || s.IsPermadead(ctx, player.ID) {
		return DeathIgnored
	}

	cause := ClassifyDeath(player, pvp, pve)
	permanent := cfg.Permadeath.Counts(cause)
	DeathsClassified.WithLabelValues(cause.String(), strconv.FormatBool(permanent)).Inc()
	if !permanent {
		s.logger.Info("death does not count toward permadeath",
			"player_id", player.ID.String(), "cause", cause.String())
		return DeathSurvived
	}

	s.recordPermadeath(ctx, cfg, player, cause, now)
	return DeathPermanent
}

// ClassifyDeath picks a death cause. Arena beats battleground beats duel
// beats a recent PvP kill beats a recent PvE kill.
func ClassifyDeath(player *Player, recentPvP, recentPvE bool) DeathCause {
	switch {
	case player.InArena:
		return CauseArena
	case player.InBattleground:
		return CauseBattleground
	case player.InDuel:
		return CauseDuel
	case recentPvP:
		return CausePvP
	case recentPvE:
		return CausePvE
	default:
		return CauseEnvironment
	}
}

func (s *Service) recordPermadeath(ctx context.Context, cfg *Config, player *Player, cause DeathCause, now time.Time) {
	ctx, span := tracer.Start(ctx, "challenge.permadeath",
		trace.WithAttributes(
			attribute.String("player.id", player.ID.String()),
			attribute.String("death.cause", cause.String()),
		),
	)
	defer span.End()

	rec := PermadeathRecord{
		PlayerID: player.ID,
		Dead:     true,
		DiedAt:   now,
		Location: player.Location,
		Cause:    cause,
	}
	s.persist(ctx, "upsert_permadeath", func(ctx context.Context) error {
		return s.permadeaths.UpsertPermadeath(ctx, rec)
	})
	s.permadead.add(player.ID)
	s.pendingKick.add(player.ID)

	if s.cache.Get(ctx, player.ID).Active() {
		s.persist(ctx, "fail_run", func(ctx context.Context) error {
			return s.runs.FailActiveRun(ctx, player.ID, FlagPermadeath, now)
		})
	}

	// The run is over even if the write fails.
	s.persist(ctx, "clear_state", func(ctx context.Context) error {
		return s.store.Save(ctx, player.ID, State{})
	})
	s.cache.set(player.ID, State{})

	if cfg.Permadeath.Announce && cfg.Permadeath.AnnounceTemplate != "" {
		s.messenger.Broadcast(ctx, FormatAnnouncement(cfg.Permadeath.AnnounceTemplate, player))
	}
	s.messenger.SendNotification(ctx, player.ID, cfg.Messages.PermadeathOccurred)

	s.logger.Info("player died permanently",
		"player_id", player.ID.String(), "name", player.Name, "level", player.Level, "cause", cause.String())
	s.scheduleKick(player.ID)
}

// FormatAnnouncement fills {name} and {level} in tmpl.
func FormatAnnouncement(tmpl string, player *Player) string {
	return strings.NewReplacer(
		"{name}", player.Name,
		"{level}", strconv.Itoa(player.Level),
	).Replace(tmpl)
}

// scheduleKick marks the player pending and schedules session termination.
func (s *Service) scheduleKick(playerID ulid.ULID) {
	s.pendingKick.add(playerID)
	delay := s.cfg.Load().Permadeath.KickDelay
	s.scheduler.Schedule(playerID, delay, func() {
		s.kick(context.Background(), playerID)
	})
}

// kick terminates the session. The pending marker is cleared whatever the
// outcome; a session that is already gone needs no kick.
func (s *Service) kick(ctx context.Context, playerID ulid.ULID) {
	defer s.pendingKick.remove(playerID)

	found, err := s.sessions.Terminate(ctx, playerID)
	switch {
	case err != nil:
		SessionKicks.WithLabelValues("error").Inc()
		errutil.LogError(s.logger, "terminate permadeath session", err, "player_id", playerID.String())
	case !found:
		SessionKicks.WithLabelValues("not_found").Inc()
		s.logger.Debug("permadeath session already gone", "player_id", playerID.String())
	default:
		SessionKicks.WithLabelValues("kicked").Inc()
		s.logger.Info("permadeath session terminated", "player_id", playerID.String())
	}
}

// IsPermadeathPending reports whether a deferred kick is outstanding.
func (s *Service) IsPermadeathPending(playerID ulid.ULID) bool {
	return s.pendingKick.has(playerID)
}

// IsPermadead reports whether the character is a memorial. Online players
// are resolved from memory, loaded at login; others are read from storage.
func (s *Service) IsPermadead(ctx context.Context, playerID ulid.ULID) bool {
	if s.permadead.has(playerID) {
		return true
	}
	if s.cache.Online(playerID) {
		return false
	}
	return s.loadPermadead(ctx, playerID)
}

func (s *Service) loadPermadead(ctx context.Context, playerID ulid.ULID) bool {
	rec, err := s.permadeaths.GetPermadeath(ctx, playerID)
	if err != nil {
		errutil.LogError(s.logger, "read permadeath record", err, "player_id", playerID.String())
		return false
	}
	if rec == nil || !rec.Dead {
		return false
	}
	s.permadead.add(playerID)
	return true
}

// CanRepop reports whether player may release to a graveyard.
func (s *Service) CanRepop(ctx context.Context, player *Player) bool {
	if player == nil || !s.pendingKick.has(player.ID) {
		return true
	}
	return s.deny(ctx, player, ActionRepop, "")
}

// GhostReleaseDestination returns where a released ghost goes. Players
// awaiting a permadeath kick are sent to the memorial.
func (s *Service) GhostReleaseDestination(_ context.Context, player *Player, normal Location) Location {
	if player == nil || !s.pendingKick.has(player.ID) {
		return normal
	}
	return s.cfg.Load().Permadeath.Memorial
}

// CanResurrect reports whether player may accept a resurrection.
func (s *Service) CanResurrect(ctx context.Context, player *Player) bool {
	if player == nil || !s.pendingKick.has(player.ID) {
		return true
	}
	return s.deny(ctx, player, ActionResurrect, s.Config().Messages.ResurrectBlocked)
}
