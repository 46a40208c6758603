// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package challenge

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

type settingKey struct {
	playerID ulid.ULID
	name     string
}

// MemoryStore implements SettingsStore, PermadeathStore, RunStore and
// RunHistory in memory. It is safe for concurrent use and is intended for tests and
// single-process hosts without a database.
type MemoryStore struct {
	mu          sync.RWMutex
	settings    map[settingKey]string
	permadeaths map[ulid.ULID]PermadeathRecord
	runs        []RunRecord
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		settings:    make(map[settingKey]string),
		permadeaths: make(map[ulid.ULID]PermadeathRecord),
	}
}

// GetSetting implements SettingsStore.
func (m *MemoryStore) GetSetting(_ context.Context, playerID ulid.ULID, name string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.settings[settingKey{playerID, name}]
	return v, ok, nil
}

// SetSetting implements SettingsStore.
func (m *MemoryStore) SetSetting(_ context.Context, playerID ulid.ULID, name, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[settingKey{playerID, name}] = value
	return nil
}

// GetPermadeath implements PermadeathStore.
func (m *MemoryStore) GetPermadeath(_ context.Context, playerID ulid.ULID) (*PermadeathRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.permadeaths[playerID]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

// UpsertPermadeath implements PermadeathStore.
func (m *MemoryStore) UpsertPermadeath(_ context.Context, rec PermadeathRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.permadeaths[rec.PlayerID] = rec
	return nil
}

// StartRun implements RunStore.
func (m *MemoryStore) StartRun(_ context.Context, run RunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.runs {
		if m.runs[i].PlayerID == run.PlayerID && m.runs[i].State == RunActive {
			m.runs[i] = run
			return nil
		}
	}
	m.runs = append(m.runs, run)
	return nil
}

// FailActiveRun implements RunStore.
func (m *MemoryStore) FailActiveRun(_ context.Context, playerID ulid.ULID, failed Flags, endedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.runs {
		r := &m.runs[i]
		if r.PlayerID != playerID || r.State != RunActive {
			continue
		}
		r.State = RunFailed
		r.FailedFlags |= failed
		ended := endedAt
		r.EndedAt = &ended
		return nil
	}
	return nil
}

// Runs returns a copy of every run recorded for the player, oldest first.
func (m *MemoryStore) Runs(playerID ulid.ULID) []RunRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []RunRecord
	for _, r := range m.runs {
		if r.PlayerID == playerID {
			out = append(out, r)
		}
	}
	return out
}

// ListRuns implements RunHistory.
func (m *MemoryStore) ListRuns(_ context.Context, playerID ulid.ULID, limit int) ([]RunRecord, error) {
	runs := m.Runs(playerID)
	slices.Reverse(runs)
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// idSet is a mutex-guarded set of player ids shared with timer goroutines.
type idSet struct {
	mu  sync.Mutex
	ids map[ulid.ULID]struct{}
}

func newIDSet() *idSet {
	return &idSet{ids: make(map[ulid.ULID]struct{})}
}

func (s *idSet) add(id ulid.ULID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids[id] = struct{}{}
}

func (s *idSet) remove(id ulid.ULID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.ids, id)
}

func (s *idSet) has(id ulid.ULID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[id]
	return ok
}

// nopHost stands in for host interfaces the embedder did not provide.
type nopHost struct{}

func (nopHost) SendMessage(context.Context, ulid.ULID, string) {}
func (nopHost) SendNotification(context.Context, ulid.ULID, string) {}
func (nopHost) Broadcast(context.Context, string) {}

func (nopHost) Dismount(context.Context, ulid.ULID) error { return nil }
func (nopHost) LeaveGroup(context.Context, ulid.ULID) error { return nil }
func (nopHost) ActiveEffects(context.Context, ulid.ULID) ([]Effect, error) {
	return nil, nil
}
func (nopHost) RemoveEffect(context.Context, ulid.ULID, uint32) error { return nil }
func (nopHost) ResetFreeTalentPoints(context.Context, ulid.ULID) error { return nil }
func (nopHost) JoinGuild(context.Context, ulid.ULID, string) error { return nil }
func (nopHost) Equipped(context.Context, ulid.ULID) ([]Item, error) { return nil, nil }
func (nopHost) MoveToBags(context.Context, ulid.ULID, Item) (bool, error) { return true, nil }
func (nopHost) MailToOwner(context.Context, ulid.ULID, Item, string, string) error {
	return nil
}
func (nopHost) Terminate(context.Context, ulid.ULID) (bool, error) { return false, nil }
