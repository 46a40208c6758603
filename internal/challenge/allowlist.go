// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package challenge

import (
	"log/slog"
	"strconv"
	"strings"
	"sync"
)

// allowList is a parsed comma-separated id list, re-parsed only when the
// configured string changes.
type allowList struct {
	mu  sync.Mutex
	raw string
	ids map[uint32]struct{}
}

func (a *allowList) contains(raw string, id uint32, logger *slog.Logger) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.ids == nil || raw != a.raw {
		a.ids = parseIDList(raw, logger)
		a.raw = raw
	}
	_, ok := a.ids[id]
	return ok
}

func parseIDList(raw string, logger *slog.Logger) map[uint32]struct{} {
	ids := make(map[uint32]struct{})
	for _, tok := range strings.Split(raw, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		id, err := strconv.ParseUint(tok, 10, 32)
		if err != nil {
			logger.Warn("ignoring invalid buff allow-list entry", "entry", tok)
			continue
		}
		ids[uint32(id)] = struct{}{}
	}
	return ids
}
