// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package challenge

import (
	"context"
	"sync"

	"github.com/oklog/ulid/v2"
)

// Cache holds the active state of online players.
//
// The map is guarded for insert and erase. Gates read other players'
// entries, so an entry's state is guarded by its own mutex. Grace and buff
// scan fields are touched only by the owning player's tick.
type Cache struct {
	store *StateStore

	mu      sync.RWMutex
	entries map[ulid.ULID]*entry
}

// NewCache creates an empty cache backed by store.
func NewCache(store *StateStore) *Cache {
	return &Cache{
		store:   store,
		entries: make(map[ulid.ULID]*entry),
	}
}

// Open registers an online player and reports whether a new entry was
// created. State is loaded on first use. Opening an already open player
// keeps the existing entry.
func (c *Cache) Open(playerID ulid.ULID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[playerID]; ok {
		return false
	}
	c.entries[playerID] = &entry{}
	return true
}

// Evict drops a player's entry and all transient state with it. It reports
// whether an entry was removed.
func (c *Cache) Evict(playerID ulid.ULID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[playerID]; !ok {
		return false
	}
	delete(c.entries, playerID)
	return true
}

// Online reports whether the player has an open entry.
func (c *Cache) Online(playerID ulid.ULID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.entries[playerID]
	return ok
}

// Len returns the number of open entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Get returns the player's state, loading it from persistence on first use.
// Players without an open entry are read straight from persistence and not
// cached, so offline lookups never leak entries.
func (c *Cache) Get(ctx context.Context, playerID ulid.ULID) State {
	e := c.entry(playerID)
	if e == nil {
		return c.store.Load(ctx, playerID)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.loaded {
		e.state = c.store.Load(ctx, playerID)
		e.loaded = true
	}
	return e.state
}

// set replaces the cached state of an open player. Callers must have
// written the state through to persistence first.
func (c *Cache) set(playerID ulid.ULID, st State) {
	if e := c.entry(playerID); e != nil {
		e.mu.Lock()
		e.state = st
		e.loaded = true
		e.mu.Unlock()
	}
}

func (c *Cache) entry(playerID ulid.ULID) *entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries[playerID]
}

// Reset drops every entry and returns how many were dropped. Used at
// shutdown.
func (c *Cache) Reset() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.entries)
	c.entries = make(map[ulid.ULID]*entry)
	return n
}
