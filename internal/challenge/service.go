// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package challenge

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/holomush/gauntlet/pkg/errutil"
)

var tracer = otel.Tracer("gauntlet/challenge")

// Default write retry policy for fire-and-forget persistence. A write,
// retries included, gives up once DefaultWriteBudget has elapsed.
const (
	DefaultWriteRetries = 3
	DefaultWriteBackoff = 50 * time.Millisecond
	DefaultWriteBudget  = 200 * time.Millisecond
)

// ServiceConfig holds dependencies for Service.
// Host interfaces left nil are replaced by no-ops.
type ServiceConfig struct {
	Settings   SettingsStore
	Permadeath PermadeathStore
	Runs       RunStore

	Messenger Messenger
	Enforcer  Enforcer
	Inventory Inventory
	Sessions  Sessions
	Scheduler Scheduler

	Config Config
	Logger *slog.Logger
	// Now defaults to time.Now.
	Now func() time.Time

	WriteRetries uint64
	WriteBackoff time.Duration
	// WriteBudget bounds the time one persistence write may hold the caller.
	WriteBudget time.Duration
}

// Service enforces challenge restrictions for the players of one process.
// Construct one per server and route host engine events to it.
type Service struct {
	cache       *Cache
	store       *StateStore
	permadeaths PermadeathStore
	runs        RunStore

	messenger Messenger
	enforcer  Enforcer
	inventory Inventory
	sessions  Sessions
	scheduler Scheduler

	cfg    atomic.Pointer[Config]
	logger *slog.Logger
	now    func() time.Time

	attribution *Attribution
	pendingKick *idSet
	permadead   *idSet
	buffAllow   allowList

	writeRetries uint64
	writeBackoff time.Duration
	writeBudget  time.Duration
}

// NewService creates a Service. Settings, Permadeath and Runs are required.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Settings == nil || cfg.Permadeath == nil || cfg.Runs == nil {
		return nil, oops.Code("SERVICE_INVALID").Errorf("settings, permadeath and run stores are required")
	}
	if err := cfg.Config.Validate(); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "challenge")

	nop := nopHost{}
	s := &Service{
		permadeaths:  cfg.Permadeath,
		runs:         cfg.Runs,
		messenger:    cfg.Messenger,
		enforcer:     cfg.Enforcer,
		inventory:    cfg.Inventory,
		sessions:     cfg.Sessions,
		scheduler:    cfg.Scheduler,
		logger:       logger,
		now:          cfg.Now,
		attribution:  NewAttribution(),
		pendingKick:  newIDSet(),
		permadead:    newIDSet(),
		writeRetries: cfg.WriteRetries,
		writeBackoff: cfg.WriteBackoff,
		writeBudget:  cfg.WriteBudget,
	}
	if s.messenger == nil {
		s.messenger = nop
	}
	if s.enforcer == nil {
		s.enforcer = nop
	}
	if s.inventory == nil {
		s.inventory = nop
	}
	if s.sessions == nil {
		s.sessions = nop
	}
	if s.scheduler == nil {
		s.scheduler = NewTimerScheduler()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.writeRetries == 0 {
		s.writeRetries = DefaultWriteRetries
	}
	if s.writeBackoff <= 0 {
		s.writeBackoff = DefaultWriteBackoff
	}
	if s.writeBudget <= 0 {
		s.writeBudget = DefaultWriteBudget
	}

	s.store = NewStateStore(cfg.Settings, logger)
	s.cache = NewCache(s.store)
	conf := cfg.Config
	s.cfg.Store(&conf)
	return s, nil
}

// Config returns the active configuration.
func (s *Service) Config() Config {
	return *s.cfg.Load()
}

// UpdateConfig swaps the configuration used by subsequent events.
func (s *Service) UpdateConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.cfg.Store(&cfg)
	s.logger.Info("challenge configuration updated", "enabled", cfg.Enabled)
	return nil
}

// Cache exposes the active-state cache.
func (s *Service) Cache() *Cache {
	return s.cache
}

// OnLogin opens the player's session state. Memorial characters are
// scheduled for removal; everyone else has their equipment and talents
// re-validated against their restrictions.
func (s *Service) OnLogin(ctx context.Context, p *Player) {
	if p == nil {
		return
	}
	if s.cache.Open(p.ID) {
		OnlinePlayers.Inc()
	}

	if s.permadead.has(p.ID) || s.loadPermadead(ctx, p.ID) {
		s.messenger.SendNotification(ctx, p.ID, s.Config().Messages.PermadeathLockout)
		s.scheduleKick(p.ID)
		return
	}

	st := s.cache.Get(ctx, p.ID)
	if st.Active() {
		s.logger.Debug("challenge session opened",
			"player_id", p.ID.String(), "tier", st.Tier, "flags", DescribeFlags(st.Flags))
	}
	s.RevalidateEquipment(ctx, p)
	s.EnforceNoTalents(ctx, p)
}

// OnLogout discards all per-session state for the player.
func (s *Service) OnLogout(_ context.Context, playerID ulid.ULID) {
	if s.cache.Evict(playerID) {
		OnlinePlayers.Dec()
	}
	s.attribution.Forget(playerID)
	s.pendingKick.remove(playerID)
}

// Close stops background work owned by the service.
func (s *Service) Close() {
	if ts, ok := s.scheduler.(*TimerScheduler); ok {
		ts.Close()
	}
	OnlinePlayers.Sub(float64(s.cache.Reset()))
}

// ActiveState returns the player's current tier and flags.
func (s *Service) ActiveState(ctx context.Context, playerID ulid.ULID) State {
	return s.cache.Get(ctx, playerID)
}

// ActiveTier returns the player's current tier.
func (s *Service) ActiveTier(ctx context.Context, playerID ulid.ULID) int {
	return s.cache.Get(ctx, playerID).Tier
}

// ActiveFlags returns the player's stored flags.
func (s *Service) ActiveFlags(ctx context.Context, playerID ulid.ULID) Flags {
	return s.cache.Get(ctx, playerID).Flags
}

// SetActiveTierFlags assigns a challenge. A zero tier or empty flag set
// clears the challenge instead. The state is written to persistence before
// the cache so that persistence stays authoritative.
func (s *Service) SetActiveTierFlags(ctx context.Context, playerID ulid.ULID, tier int, flags Flags) (err error) {
	if tier < 0 || tier > MaxTier {
		return oops.Code("INVALID_TIER").With("tier", tier).Errorf("tier must be between 0 and %d", MaxTier)
	}
	if tier == 0 || flags == 0 {
		return s.ClearActiveTierFlags(ctx, playerID)
	}

	ctx, span := tracer.Start(ctx, "challenge.set_tier",
		trace.WithAttributes(
			attribute.String("player.id", playerID.String()),
			attribute.Int("challenge.tier", tier),
			attribute.Int64("challenge.flags", int64(flags)),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
		}
		span.End()
	}()

	st := State{Tier: tier, Flags: flags}
	if err := s.store.Save(ctx, playerID, st); err != nil {
		return err
	}
	s.cache.set(playerID, st)

	run := RunRecord{
		PlayerID:    playerID,
		Tier:        tier,
		State:       RunActive,
		PickedFlags: flags,
		StartedAt:   s.now(),
	}
	s.persist(ctx, "start_run", func(ctx context.Context) error {
		return s.runs.StartRun(ctx, run)
	})

	if guild := s.Config().Hardcore.GuildName; flags.Has(FlagHardcore) && guild != "" {
		if err := s.enforcer.JoinGuild(ctx, playerID, guild); err != nil {
			errutil.LogError(s.logger, "hardcore guild auto-join failed", err,
				"player_id", playerID.String(), "guild", guild)
		}
	}

	s.logger.Info("challenge assigned",
		"player_id", playerID.String(), "tier", tier, "flags", DescribeFlags(flags))
	return nil
}

// ClearActiveTierFlags ends the player's challenge.
func (s *Service) ClearActiveTierFlags(ctx context.Context, playerID ulid.ULID) error {
	if err := s.store.Save(ctx, playerID, State{}); err != nil {
		return err
	}
	s.cache.set(playerID, State{})
	s.logger.Info("challenge cleared", "player_id", playerID.String())
	return nil
}

// deny records a blocked action and tells the actor why.
func (s *Service) deny(ctx context.Context, p *Player, action, msg string) bool {
	Denials.WithLabelValues(action).Inc()
	if msg != "" {
		s.messenger.SendMessage(ctx, p.ID, msg)
	}
	s.logger.Debug("challenge action denied", "player_id", p.ID.String(), "action", action)
	return false
}

// persist runs a write with retries within the write budget. Failures are
// logged and counted but never returned: callers treat persistence as
// fire-and-forget.
func (s *Service) persist(ctx context.Context, operation string, fn func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(ctx, s.writeBudget)
	defer cancel()

	b := retry.NewExponential(s.writeBackoff)
	b = retry.WithMaxRetries(s.writeRetries, b)
	b = retry.WithMaxDuration(s.writeBudget, b)
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		err := fn(ctx)
		if err == nil || errors.Is(err, ErrRejected) {
			return err
		}
		return retry.RetryableError(err)
	})
	if err != nil {
		PersistenceFailures.WithLabelValues(operation).Inc()
		errutil.LogError(s.logger, "challenge persistence write failed", err, "operation", operation)
	}
}
