// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package challenge_test

import (
	"context"
	"sync"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/gauntlet/internal/challenge"
)

// Run with -race: one player's gates read another player's entry while that
// player's own session reassigns the challenge.
func TestCache_CrossPlayerReadsDuringAssignment(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	a := h.login(t, 1, challenge.FlagNoMail)
	b := h.login(t, 1, challenge.FlagNoMail)
	group := &challenge.Group{ID: ulid.Make(), Members: []ulid.ULID{b.ID}}

	const rounds = 200
	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		for range rounds {
			h.svc.CanTrade(ctx, a, b)
		}
	}()
	go func() {
		defer wg.Done()
		for range rounds {
			h.svc.CanInviteToGroup(ctx, a, b)
			h.svc.CanAcceptGroup(ctx, a, group)
		}
	}()
	go func() {
		defer wg.Done()
		for i := range rounds {
			flags := challenge.FlagNoTrade
			if i%2 == 1 {
				flags = challenge.FlagSoloOnly
			}
			assert.NoError(t, h.svc.SetActiveTierFlags(ctx, b.ID, 1, flags))
		}
	}()
	wg.Wait()

	assert.Equal(t, challenge.FlagSoloOnly, h.svc.ActiveFlags(ctx, b.ID))
}

func TestCache_ConcurrentFirstLoad(t *testing.T) {
	ctx := context.Background()
	store := challenge.NewMemoryStore()
	p := ulid.Make()
	require.NoError(t, challenge.NewStateStore(store, nil).Save(ctx, p,
		challenge.State{Tier: 2, Flags: challenge.FlagNoAuction}))

	cache := challenge.NewCache(challenge.NewStateStore(store, nil))
	cache.Open(p)

	var wg sync.WaitGroup
	results := make([]challenge.State, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = cache.Get(ctx, p)
		}()
	}
	wg.Wait()

	for _, st := range results {
		assert.Equal(t, challenge.State{Tier: 2, Flags: challenge.FlagNoAuction}, st)
	}
}
