// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package challenge_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/require"

	"github.com/holomush/gauntlet/internal/challenge"
	"github.com/holomush/gauntlet/internal/challenge/challengetest"
)

var errStoreDown = errors.New("store unavailable")

type harness struct {
	svc   *challenge.Service
	store *challenge.MemoryStore
	host  *challengetest.FakeHost
	sched *challengetest.ManualScheduler
	clock *challengetest.FakeClock
}

type harnessOptions struct {
	cfg      challenge.Config
	store    *challenge.MemoryStore
	settings challenge.SettingsStore
	runs     challenge.RunStore
}

type harnessOption func(*harnessOptions)

func withConfig(fn func(*challenge.Config)) harnessOption {
	return func(o *harnessOptions) { fn(&o.cfg) }
}

func withStore(store *challenge.MemoryStore) harnessOption {
	return func(o *harnessOptions) { o.store = store }
}

func withSettings(settings challenge.SettingsStore) harnessOption {
	return func(o *harnessOptions) { o.settings = settings }
}

func withRuns(runs challenge.RunStore) harnessOption {
	return func(o *harnessOptions) { o.runs = runs }
}

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()

	o := harnessOptions{cfg: challenge.DefaultConfig()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.store == nil {
		o.store = challenge.NewMemoryStore()
	}
	var settings challenge.SettingsStore = o.store
	if o.settings != nil {
		settings = o.settings
	}
	var runs challenge.RunStore = o.store
	if o.runs != nil {
		runs = o.runs
	}

	h := &harness{
		store: o.store,
		host:  challengetest.NewFakeHost(),
		sched: challengetest.NewManualScheduler(),
		clock: challengetest.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)),
	}
	svc, err := challenge.NewService(challenge.ServiceConfig{
		Settings:     settings,
		Permadeath:   o.store,
		Runs:         runs,
		Messenger:    h.host,
		Enforcer:     h.host,
		Inventory:    h.host,
		Sessions:     h.host,
		Scheduler:    h.sched,
		Config:       o.cfg,
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:          h.clock.Now,
		WriteRetries: 2,
		WriteBackoff: time.Millisecond,
	})
	require.NoError(t, err)
	t.Cleanup(svc.Close)
	h.svc = svc
	return h
}

// login brings a new player online and assigns a challenge when tier > 0.
func (h *harness) login(t *testing.T, tier int, flags challenge.Flags) *challenge.Player {
	t.Helper()
	p := &challenge.Player{ID: ulid.Make(), Name: "Aldric", Level: 12}
	h.host.Connect(p.ID)
	h.svc.OnLogin(context.Background(), p)
	if tier > 0 {
		require.NoError(t, h.svc.SetActiveTierFlags(context.Background(), p.ID, tier, flags))
	}
	return p
}

// failingSettings fails every read and write.
type failingSettings struct{}

func (failingSettings) GetSetting(context.Context, ulid.ULID, string) (string, bool, error) {
	return "", false, errStoreDown
}

func (failingSettings) SetSetting(context.Context, ulid.ULID, string, string) error {
	return errStoreDown
}

// failingRuns fails every run write.
type failingRuns struct{}

func (failingRuns) StartRun(context.Context, challenge.RunRecord) error { return errStoreDown }

func (failingRuns) FailActiveRun(context.Context, ulid.ULID, challenge.Flags, time.Time) error {
	return errStoreDown
}
