// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package challengetest provides test doubles for the challenge host boundary.
package challengetest

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/holomush/gauntlet/internal/challenge"
)

// FakeHost records every call the challenge service makes into the host
// engine. The zero value is not usable; call NewFakeHost.
type FakeHost struct {
	mu sync.Mutex

	messages      map[ulid.ULID][]string
	notifications map[ulid.ULID][]string
	broadcasts    []string

	dismounts    []ulid.ULID
	groupLeaves  []ulid.ULID
	effects      map[ulid.ULID][]challenge.Effect
	removed      map[ulid.ULID][]uint32
	talentResets []ulid.ULID
	guilds       map[ulid.ULID]string

	equipped map[ulid.ULID][]challenge.Item
	bagsFull map[ulid.ULID]bool
	bagged   map[ulid.ULID][]challenge.Item
	mailed   map[ulid.ULID][]challenge.Item

	sessions   map[ulid.ULID]bool
	terminated []ulid.ULID

	// Errors returned by the corresponding calls when set.
	TerminateErr  error
	LeaveGroupErr error
	MailErr       error
}

// NewFakeHost creates an empty fake host.
func NewFakeHost() *FakeHost {
	return &FakeHost{
		messages:      make(map[ulid.ULID][]string),
		notifications: make(map[ulid.ULID][]string),
		effects:       make(map[ulid.ULID][]challenge.Effect),
		removed:       make(map[ulid.ULID][]uint32),
		guilds:        make(map[ulid.ULID]string),
		equipped:      make(map[ulid.ULID][]challenge.Item),
		bagsFull:      make(map[ulid.ULID]bool),
		bagged:        make(map[ulid.ULID][]challenge.Item),
		mailed:        make(map[ulid.ULID][]challenge.Item),
		sessions:      make(map[ulid.ULID]bool),
	}
}

// SendMessage implements challenge.Messenger.
func (h *FakeHost) SendMessage(_ context.Context, playerID ulid.ULID, text string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages[playerID] = append(h.messages[playerID], text)
}

// SendNotification implements challenge.Messenger.
func (h *FakeHost) SendNotification(_ context.Context, playerID ulid.ULID, text string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.notifications[playerID] = append(h.notifications[playerID], text)
}

// Broadcast implements challenge.Messenger.
func (h *FakeHost) Broadcast(_ context.Context, text string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.broadcasts = append(h.broadcasts, text)
}

// Messages returns the chat lines sent to a player.
func (h *FakeHost) Messages(playerID ulid.ULID) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.messages[playerID]...)
}

// Notifications returns the notifications sent to a player.
func (h *FakeHost) Notifications(playerID ulid.ULID) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.notifications[playerID]...)
}

// Broadcasts returns every server-wide announcement.
func (h *FakeHost) Broadcasts() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.broadcasts...)
}

// Dismount implements challenge.Enforcer.
func (h *FakeHost) Dismount(_ context.Context, playerID ulid.ULID) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dismounts = append(h.dismounts, playerID)
	return nil
}

// Dismounts returns how often the player was dismounted.
func (h *FakeHost) Dismounts(playerID ulid.ULID) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return count(h.dismounts, playerID)
}

// LeaveGroup implements challenge.Enforcer.
func (h *FakeHost) LeaveGroup(_ context.Context, playerID ulid.ULID) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.LeaveGroupErr != nil {
		return h.LeaveGroupErr
	}
	h.groupLeaves = append(h.groupLeaves, playerID)
	return nil
}

// GroupLeaves returns how often the player was removed from a group.
func (h *FakeHost) GroupLeaves(playerID ulid.ULID) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return count(h.groupLeaves, playerID)
}

// SetEffects replaces the player's active effects.
func (h *FakeHost) SetEffects(playerID ulid.ULID, effects ...challenge.Effect) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.effects[playerID] = append([]challenge.Effect(nil), effects...)
}

// ActiveEffects implements challenge.Enforcer.
func (h *FakeHost) ActiveEffects(_ context.Context, playerID ulid.ULID) ([]challenge.Effect, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]challenge.Effect(nil), h.effects[playerID]...), nil
}

// RemoveEffect implements challenge.Enforcer.
func (h *FakeHost) RemoveEffect(_ context.Context, playerID ulid.ULID, spellID uint32) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	kept := h.effects[playerID][:0]
	for _, e := range h.effects[playerID] {
		if e.SpellID != spellID {
			kept = append(kept, e)
		}
	}
	h.effects[playerID] = kept
	h.removed[playerID] = append(h.removed[playerID], spellID)
	return nil
}

// RemovedEffects returns the spell ids stripped from the player.
func (h *FakeHost) RemovedEffects(playerID ulid.ULID) []uint32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]uint32(nil), h.removed[playerID]...)
}

// ResetFreeTalentPoints implements challenge.Enforcer.
func (h *FakeHost) ResetFreeTalentPoints(_ context.Context, playerID ulid.ULID) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.talentResets = append(h.talentResets, playerID)
	return nil
}

// TalentResets returns how often the player's free talent points were cleared.
func (h *FakeHost) TalentResets(playerID ulid.ULID) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return count(h.talentResets, playerID)
}

// JoinGuild implements challenge.Enforcer.
func (h *FakeHost) JoinGuild(_ context.Context, playerID ulid.ULID, guildName string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.guilds[playerID] = guildName
	return nil
}

// Guild returns the guild the player was last put in.
func (h *FakeHost) Guild(playerID ulid.ULID) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.guilds[playerID]
}

// Equip puts items in the player's equipment slots.
func (h *FakeHost) Equip(playerID ulid.ULID, items ...challenge.Item) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.equipped[playerID] = append(h.equipped[playerID], items...)
}

// SetBagsFull controls whether MoveToBags succeeds for the player.
func (h *FakeHost) SetBagsFull(playerID ulid.ULID, full bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.bagsFull[playerID] = full
}

// Equipped implements challenge.Inventory.
func (h *FakeHost) Equipped(_ context.Context, playerID ulid.ULID) ([]challenge.Item, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]challenge.Item(nil), h.equipped[playerID]...), nil
}

// MoveToBags implements challenge.Inventory.
func (h *FakeHost) MoveToBags(_ context.Context, playerID ulid.ULID, item challenge.Item) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.bagsFull[playerID] {
		return false, nil
	}
	h.unequipLocked(playerID, item)
	h.bagged[playerID] = append(h.bagged[playerID], item)
	return true, nil
}

// MailToOwner implements challenge.Inventory.
func (h *FakeHost) MailToOwner(_ context.Context, playerID ulid.ULID, item challenge.Item, _, _ string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.MailErr != nil {
		return h.MailErr
	}
	h.unequipLocked(playerID, item)
	h.mailed[playerID] = append(h.mailed[playerID], item)
	return nil
}

// EquippedItems returns what the player is still wearing.
func (h *FakeHost) EquippedItems(playerID ulid.ULID) []challenge.Item {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]challenge.Item(nil), h.equipped[playerID]...)
}

// Bagged returns items moved into the player's bags.
func (h *FakeHost) Bagged(playerID ulid.ULID) []challenge.Item {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]challenge.Item(nil), h.bagged[playerID]...)
}

// Mailed returns items mailed back to the player.
func (h *FakeHost) Mailed(playerID ulid.ULID) []challenge.Item {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]challenge.Item(nil), h.mailed[playerID]...)
}

func (h *FakeHost) unequipLocked(playerID ulid.ULID, item challenge.Item) {
	kept := h.equipped[playerID][:0]
	for _, it := range h.equipped[playerID] {
		if it.ID != item.ID {
			kept = append(kept, it)
		}
	}
	h.equipped[playerID] = kept
}

// Connect marks a player's session as live.
func (h *FakeHost) Connect(playerID ulid.ULID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions[playerID] = true
}

// Disconnect drops a player's session.
func (h *FakeHost) Disconnect(playerID ulid.ULID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions, playerID)
}

// Terminate implements challenge.Sessions.
func (h *FakeHost) Terminate(_ context.Context, playerID ulid.ULID) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.TerminateErr != nil {
		return false, h.TerminateErr
	}
	if !h.sessions[playerID] {
		return false, nil
	}
	delete(h.sessions, playerID)
	h.terminated = append(h.terminated, playerID)
	return true, nil
}

// Terminated reports whether the player's session was terminated.
func (h *FakeHost) Terminated(playerID ulid.ULID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return count(h.terminated, playerID) > 0
}

func count(ids []ulid.ULID, id ulid.ULID) int {
	n := 0
	for _, v := range ids {
		if v == id {
			n++
		}
	}
	return n
}

type scheduled struct {
	delay time.Duration
	fn    func()
}

// ManualScheduler holds callbacks until a test fires them.
type ManualScheduler struct {
	mu      sync.Mutex
	pending map[ulid.ULID]scheduled
}

// NewManualScheduler creates an empty scheduler.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{pending: make(map[ulid.ULID]scheduled)}
}

// Schedule implements challenge.Scheduler.
func (s *ManualScheduler) Schedule(key ulid.ULID, delay time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[key] = scheduled{delay: delay, fn: fn}
}

// Cancel implements challenge.Scheduler.
func (s *ManualScheduler) Cancel(key ulid.ULID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, key)
}

// Delay returns the delay of the pending callback for key.
func (s *ManualScheduler) Delay(key ulid.ULID) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pending[key]
	return p.delay, ok
}

// Len returns the number of pending callbacks.
func (s *ManualScheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Fire runs and removes the callback for key. It returns false when nothing
// was scheduled.
func (s *ManualScheduler) Fire(key ulid.ULID) bool {
	s.mu.Lock()
	p, ok := s.pending[key]
	delete(s.pending, key)
	s.mu.Unlock()
	if !ok {
		return false
	}
	p.fn()
	return true
}

// FakeClock is a settable time source.
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFakeClock creates a clock stopped at start.
func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Verify interfaces are satisfied.
var (
	_ challenge.Messenger = (*FakeHost)(nil)
	_ challenge.Enforcer  = (*FakeHost)(nil)
	_ challenge.Inventory = (*FakeHost)(nil)
	_ challenge.Sessions  = (*FakeHost)(nil)
	_ challenge.Scheduler = (*ManualScheduler)(nil)
)
