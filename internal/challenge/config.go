// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package challenge

import (
	"time"

	"github.com/samber/oops"
)

// Default configuration values.
const (
	DefaultGracePeriod       = 45 * time.Second
	DefaultWarningInterval   = 10 * time.Second
	DefaultKickDelay         = 30 * time.Second
	DefaultAttributionWindow = 10 * time.Second
	DefaultBuffScanInterval  = time.Second
	DefaultHalfXPRate        = 0.5
	DefaultQuarterXPRate     = 0.25
	DefaultMaxItemQuality    = 1

	// maxBuffScanBacklog bounds how much tick time the no-buffs scan can
	// accumulate between scans.
	maxBuffScanBacklog = 60 * time.Second
)

// Config controls enforcement. All fields are safe to hot-reload.
type Config struct {
	Enabled     bool              `koanf:"enabled" json:"enabled"`
	Hardcore    HardcoreConfig    `koanf:"hardcore" json:"hardcore"`
	Grouping    GroupingConfig    `koanf:"grouping" json:"grouping"`
	Equipment   EquipmentConfig   `koanf:"equipment" json:"equipment"`
	Experience  ExperienceConfig  `koanf:"experience" json:"experience"`
	Poverty     PovertyConfig     `koanf:"poverty" json:"poverty"`
	Permadeath  PermadeathConfig  `koanf:"permadeath" json:"permadeath"`
	Buffs       BuffsConfig       `koanf:"buffs" json:"buffs"`
	Diagnostics DiagnosticsConfig `koanf:"diagnostics" json:"diagnostics"`
	Messages    Messages          `koanf:"messages" json:"messages"`
}

// HardcoreConfig configures the hardcore grouping restriction.
type HardcoreConfig struct {
	// GuildName is joined automatically when the hardcore flag is assigned.
	// Empty disables auto-join.
	GuildName string `koanf:"guild_name" json:"guild_name"`
}

// GroupingConfig configures group gates and the illegal-group grace timer.
type GroupingConfig struct {
	MatchmadeBlocksSoloOnly bool          `koanf:"matchmade_blocks_solo_only" json:"matchmade_blocks_solo_only"`
	MatchmadeBlocksHardcore bool          `koanf:"matchmade_blocks_hardcore" json:"matchmade_blocks_hardcore"`
	GracePeriod             time.Duration `koanf:"grace_period" json:"grace_period"`
	WarningInterval         time.Duration `koanf:"warning_interval" json:"warning_interval"`
}

// EquipmentConfig configures equip restrictions.
type EquipmentConfig struct {
	// MaxQuality is the highest item quality allowed under LOW_QUALITY_ONLY.
	MaxQuality  int    `koanf:"max_quality" json:"max_quality"`
	MailSubject string `koanf:"mail_subject" json:"mail_subject"`
	MailBody    string `koanf:"mail_body" json:"mail_body"`
}

// ExperienceConfig configures XP multipliers.
type ExperienceConfig struct {
	HalfRate    float64 `koanf:"half_rate" json:"half_rate"`
	QuarterRate float64 `koanf:"quarter_rate" json:"quarter_rate"`
}

// PovertyConfig holds the money cap per tier, in copper.
type PovertyConfig struct {
	Tier1Cap int64 `koanf:"tier1_cap" json:"tier1_cap"`
	Tier2Cap int64 `koanf:"tier2_cap" json:"tier2_cap"`
	Tier3Cap int64 `koanf:"tier3_cap" json:"tier3_cap"`
}

// CapFor returns the cap for a tier and whether the tier has one.
func (p PovertyConfig) CapFor(tier int) (int64, bool) {
	switch tier {
	case 1:
		return p.Tier1Cap, true
	case 2:
		return p.Tier2Cap, true
	case 3:
		return p.Tier3Cap, true
	default:
		return 0, false
	}
}

// PermadeathConfig configures the permadeath state machine.
type PermadeathConfig struct {
	Enabled            bool          `koanf:"enabled" json:"enabled"`
	CountsArena        bool          `koanf:"counts_arena" json:"counts_arena"`
	CountsBattleground bool          `koanf:"counts_battleground" json:"counts_battleground"`
	CountsDuel         bool          `koanf:"counts_duel" json:"counts_duel"`
	CountsPvP          bool          `koanf:"counts_pvp" json:"counts_pvp"`
	AttributionWindow  time.Duration `koanf:"attribution_window" json:"attribution_window"`
	KickDelay          time.Duration `koanf:"kick_delay" json:"kick_delay"`
	Announce           bool          `koanf:"announce" json:"announce"`
	// AnnounceTemplate supports {name} and {level}.
	AnnounceTemplate string   `koanf:"announce_template" json:"announce_template"`
	Memorial         Location `koanf:"memorial" json:"memorial"`
}

// Counts reports whether a death of the given cause is permanent.
// PvE and environmental deaths always count.
func (p PermadeathConfig) Counts(cause DeathCause) bool {
	switch cause {
	case CauseArena:
		return p.CountsArena
	case CauseBattleground:
		return p.CountsBattleground
	case CauseDuel:
		return p.CountsDuel
	case CausePvP:
		return p.CountsPvP
	default:
		return true
	}
}

// BuffsConfig configures the NO_BUFFS scan.
type BuffsConfig struct {
	ScanInterval time.Duration `koanf:"scan_interval" json:"scan_interval"`
	// AllowList is a comma-separated list of effect ids that are never stripped.
	AllowList     string `koanf:"allow_list" json:"allow_list"`
	ExemptPassive bool   `koanf:"exempt_passive" json:"exempt_passive"`
}

// DiagnosticsConfig maps restriction ids to marker effect ids. A player
// carrying the marker effect is treated as restricted regardless of tier.
type DiagnosticsConfig struct {
	Markers map[string]uint32 `koanf:"markers" json:"markers"`
}

// Messages holds player-facing texts.
type Messages struct {
	GroupBlocked       string `koanf:"group_blocked" json:"group_blocked"`
	GroupGraceWarning  string `koanf:"group_grace_warning" json:"group_grace_warning"`
	GroupRemoved       string `koanf:"group_removed" json:"group_removed"`
	TradeBlocked       string `koanf:"trade_blocked" json:"trade_blocked"`
	MailBlocked        string `koanf:"mail_blocked" json:"mail_blocked"`
	AuctionBlocked     string `koanf:"auction_blocked" json:"auction_blocked"`
	SummonBlocked      string `koanf:"summon_blocked" json:"summon_blocked"`
	GuildBankBlocked   string `koanf:"guild_bank_blocked" json:"guild_bank_blocked"`
	EquipBlocked       string `koanf:"equip_blocked" json:"equip_blocked"`
	EquipRemoved       string `koanf:"equip_removed" json:"equip_removed"`
	MountBlocked       string `koanf:"mount_blocked" json:"mount_blocked"`
	ResurrectBlocked   string `koanf:"resurrect_blocked" json:"resurrect_blocked"`
	PermadeathLockout  string `koanf:"permadeath_lockout" json:"permadeath_lockout"`
	PermadeathOccurred string `koanf:"permadeath_occurred" json:"permadeath_occurred"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	return Config{
		Enabled: true,
		Grouping: GroupingConfig{
			GracePeriod:     DefaultGracePeriod,
			WarningInterval: DefaultWarningInterval,
		},
		Equipment: EquipmentConfig{
			MaxQuality:  DefaultMaxItemQuality,
			MailSubject: "Challenge equipment returned",
			MailBody:    "This item could not be kept equipped under your active challenge and your bags were full.",
		},
		Experience: ExperienceConfig{
			HalfRate:    DefaultHalfXPRate,
			QuarterRate: DefaultQuarterXPRate,
		},
		Poverty: PovertyConfig{
			Tier1Cap: 1000 * 10000,
			Tier2Cap: 100 * 10000,
			Tier3Cap: 10 * 10000,
		},
		Permadeath: PermadeathConfig{
			Enabled:           true,
			AttributionWindow: DefaultAttributionWindow,
			KickDelay:         DefaultKickDelay,
			Announce:          true,
			AnnounceTemplate:  "{name} (level {level}) has fallen and will not rise again.",
			Memorial: Location{
				MapID:       0,
				X:           -11075.463,
				Y:           -1795.9891,
				Z:           52.717907,
				Orientation: 0.043097086,
			},
		},
		Buffs: BuffsConfig{
			ScanInterval:  DefaultBuffScanInterval,
			ExemptPassive: true,
		},
		Messages: Messages{
			GroupBlocked:       "Grouping is disabled by active Challenge restrictions.",
			GroupGraceWarning:  "Your group violates your Challenge restrictions. You will be removed in %d seconds.",
			GroupRemoved:       "You were removed from a group that violates your Challenge restrictions.",
			TradeBlocked:       "Trading is disabled by active Challenge restrictions.",
			MailBlocked:        "Mail is disabled by active Challenge restrictions.",
			AuctionBlocked:     "Auction House access is disabled by active Challenge restrictions.",
			SummonBlocked:      "Summons are disabled by active Challenge restrictions.",
			GuildBankBlocked:   "Guild Bank access is disabled by active Challenge restrictions.",
			EquipBlocked:       "Equipping this item is disabled by active Challenge restrictions.",
			EquipRemoved:       "An equipped item violated your Challenge restrictions and was removed.",
			MountBlocked:       "Mounts are disabled by active Challenge restrictions.",
			ResurrectBlocked:   "Resurrection is disabled while permadeath is pending.",
			PermadeathLockout:  "This character is permanently dead. You may keep it as a memorial or delete it.",
			PermadeathOccurred: "You have died permanently. Your challenge has ended.",
		},
	}
}

// Validate checks ranges that would otherwise produce nonsense at runtime.
func (c Config) Validate() error {
	if c.Grouping.GracePeriod < 0 {
		return oops.Code("CONFIG_INVALID").With("field", "grouping.grace_period").
			Errorf("grace period must be non-negative, got %s", c.Grouping.GracePeriod)
	}
	if c.Grouping.WarningInterval <= 0 {
		return oops.Code("CONFIG_INVALID").With("field", "grouping.warning_interval").
			Errorf("warning interval must be positive, got %s", c.Grouping.WarningInterval)
	}
	if c.Buffs.ScanInterval <= 0 {
		return oops.Code("CONFIG_INVALID").With("field", "buffs.scan_interval").
			Errorf("scan interval must be positive, got %s", c.Buffs.ScanInterval)
	}
	if c.Permadeath.KickDelay < 0 {
		return oops.Code("CONFIG_INVALID").With("field", "permadeath.kick_delay").
			Errorf("kick delay must be non-negative, got %s", c.Permadeath.KickDelay)
	}
	if c.Permadeath.AttributionWindow <= 0 {
		return oops.Code("CONFIG_INVALID").With("field", "permadeath.attribution_window").
			Errorf("attribution window must be positive, got %s", c.Permadeath.AttributionWindow)
	}
	if c.Equipment.MaxQuality < 0 {
		return oops.Code("CONFIG_INVALID").With("field", "equipment.max_quality").
			Errorf("max quality must be non-negative, got %d", c.Equipment.MaxQuality)
	}
	for id := range c.Diagnostics.Markers {
		if _, ok := FlagFor(Restriction(id)); !ok {
			return oops.Code("CONFIG_INVALID").With("field", "diagnostics.markers").
				Errorf("unknown restriction %q", id)
		}
	}
	return nil
}
