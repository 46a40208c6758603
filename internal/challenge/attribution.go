// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package challenge

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// KillKind distinguishes the two attribution marks.
type KillKind int

// Kill kinds.
const (
	KillPvP KillKind = iota
	KillPvE
)

type attributionMarks struct {
	pvp time.Time
	pve time.Time
}

// Attribution correlates kill events with the death events that follow them.
// A mark is usable for one death only and only within the window.
type Attribution struct {
	mu    sync.Mutex
	marks map[ulid.ULID]*attributionMarks
}

// NewAttribution creates an empty table.
func NewAttribution() *Attribution {
	return &Attribution{marks: make(map[ulid.ULID]*attributionMarks)}
}

// Mark records that victim was killed at the given time.
func (a *Attribution) Mark(victim ulid.ULID, kind KillKind, at time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	m, ok := a.marks[victim]
	if !ok {
		m = &attributionMarks{}
		a.marks[victim] = m
	}
	switch kind {
	case KillPvP:
		m.pvp = at
	case KillPvE:
		m.pve = at
	}
}

// Consume removes both marks for victim and reports which were recorded no
// more than window before now. Marks are removed even when stale.
func (a *Attribution) Consume(victim ulid.ULID, now time.Time, window time.Duration) (pvp, pve bool) {
	a.mu.Lock()
	m, ok := a.marks[victim]
	delete(a.marks, victim)
	a.mu.Unlock()
	if !ok {
		return false, false
	}
	return recent(m.pvp, now, window), recent(m.pve, now, window)
}

// Forget drops any marks for victim without judging them.
func (a *Attribution) Forget(victim ulid.ULID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.marks, victim)
}

// Sweep removes marks older than window and returns how many players were cleared.
func (a *Attribution) Sweep(now time.Time, window time.Duration) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for id, m := range a.marks {
		if !recent(m.pvp, now, window) && !recent(m.pve, now, window) {
			delete(a.marks, id)
			n++
		}
	}
	return n
}

func recent(at, now time.Time, window time.Duration) bool {
	if at.IsZero() {
		return false
	}
	return now.Sub(at) <= window
}
