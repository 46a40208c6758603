// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package challenge

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Scheduler runs one-shot callbacks after a delay, addressed by player.
type Scheduler interface {
	// Schedule runs fn after delay. Scheduling again for the same key
	// replaces the pending callback.
	Schedule(key ulid.ULID, delay time.Duration, fn func())
	// Cancel drops a pending callback. Unknown keys are ignored.
	Cancel(key ulid.ULID)
}

type scheduledTimer struct {
	timer *time.Timer
	gen   uint64
}

// TimerScheduler is a Scheduler backed by runtime timers.
// It is safe for concurrent use. Call Close to stop pending timers.
type TimerScheduler struct {
	mu     sync.Mutex
	timers map[ulid.ULID]scheduledTimer
	gen    uint64
	closed bool
	wg     sync.WaitGroup
}

// NewTimerScheduler creates an empty scheduler.
func NewTimerScheduler() *TimerScheduler {
	return &TimerScheduler{timers: make(map[ulid.ULID]scheduledTimer)}
}

// Schedule implements Scheduler.
func (s *TimerScheduler) Schedule(key ulid.ULID, delay time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.stopLocked(key)

	s.gen++
	gen := s.gen
	s.wg.Add(1)
	t := time.AfterFunc(delay, func() {
		defer s.wg.Done()
		s.mu.Lock()
		cur, ok := s.timers[key]
		if !ok || cur.gen != gen {
			s.mu.Unlock()
			return
		}
		delete(s.timers, key)
		s.mu.Unlock()
		fn()
	})
	s.timers[key] = scheduledTimer{timer: t, gen: gen}
}

// Cancel implements Scheduler.
func (s *TimerScheduler) Cancel(key ulid.ULID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked(key)
}

// Pending returns the number of scheduled callbacks.
func (s *TimerScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Close stops all pending timers and waits for running callbacks.
// Schedule is a no-op after Close.
func (s *TimerScheduler) Close() {
	s.mu.Lock()
	s.closed = true
	for key := range s.timers {
		s.stopLocked(key)
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *TimerScheduler) stopLocked(key ulid.ULID) {
	cur, ok := s.timers[key]
	if !ok {
		return
	}
	if cur.timer.Stop() {
		s.wg.Done()
	}
	delete(s.timers, key)
}
