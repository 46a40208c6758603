// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package challenge

import (
	"context"

	"github.com/oklog/ulid/v2"
)

// Player is a snapshot of an online character, supplied by the host engine
// with each event. A nil *Player means the actor could not be resolved.
type Player struct {
	ID       ulid.ULID
	Name     string
	Level    int
	Money    int64
	Mounted  bool
	Group    *Group
	Location Location

	InArena        bool
	InBattleground bool
	InDuel         bool
}

// Group is a party the player belongs to or is joining.
type Group struct {
	ID ulid.ULID
	// Matchmade is true for groups formed by the dungeon finder.
	Matchmade bool
	Members   []ulid.ULID
}

// ItemQuality follows the host's quality scale (0 = poor, 1 = common, ...).
type ItemQuality int

// Item is an equippable item instance.
type Item struct {
	ID      ulid.ULID
	Entry   uint32
	Name    string
	Quality ItemQuality
	// CreatorID is zero when the item was not crafted by a player.
	CreatorID ulid.ULID
	Slot      int
}

// Effect is an aura currently applied to a player.
type Effect struct {
	SpellID  uint32
	Positive bool
	Passive  bool
}

// TeleportRequest describes a pending teleport.
type TeleportRequest struct {
	Destination Location
	// SourceUnit is the unit that initiated the teleport. It is zero for
	// ordinary teleports and set for summons.
	SourceUnit ulid.ULID
}

// XPSource tags where experience comes from.
type XPSource int

// XP sources.
const (
	XPSourceKill XPSource = iota
	XPSourceQuest
	XPSourceExploration
	XPSourceOther
)

// IsQuest reports whether the source is a quest reward.
func (s XPSource) IsQuest() bool {
	return s == XPSourceQuest
}

// Messenger delivers texts to players.
type Messenger interface {
	// SendMessage writes a system line to the player's chat.
	SendMessage(ctx context.Context, playerID ulid.ULID, text string)
	// SendNotification shows a center-screen notification.
	SendNotification(ctx context.Context, playerID ulid.ULID, text string)
	// Broadcast announces to every online player.
	Broadcast(ctx context.Context, text string)
}

// Enforcer applies corrective actions inside the host engine.
type Enforcer interface {
	Dismount(ctx context.Context, playerID ulid.ULID) error
	LeaveGroup(ctx context.Context, playerID ulid.ULID) error
	ActiveEffects(ctx context.Context, playerID ulid.ULID) ([]Effect, error)
	RemoveEffect(ctx context.Context, playerID ulid.ULID, spellID uint32) error
	ResetFreeTalentPoints(ctx context.Context, playerID ulid.ULID) error
	JoinGuild(ctx context.Context, playerID ulid.ULID, guildName string) error
}

// Inventory exposes the equipment operations needed for re-validation.
type Inventory interface {
	Equipped(ctx context.Context, playerID ulid.ULID) ([]Item, error)
	// MoveToBags unequips an item into the player's bags. It returns false
	// when there is no room, leaving the item equipped.
	MoveToBags(ctx context.Context, playerID ulid.ULID, item Item) (bool, error)
	// MailToOwner removes an equipped item and delivers it as a parcel.
	MailToOwner(ctx context.Context, playerID ulid.ULID, item Item, subject, body string) error
}

// Sessions terminates live sessions.
type Sessions interface {
	// Terminate marks a player's session for logout. It returns false when
	// the player is no longer connected.
	Terminate(ctx context.Context, playerID ulid.ULID) (bool, error)
}
