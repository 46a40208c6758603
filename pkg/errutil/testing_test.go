// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package errutil_test

import (
	"testing"

	"github.com/samber/oops"

	"github.com/holomush/gauntlet/pkg/errutil"
)

func TestAssertErrorCode_MatchingCode(t *testing.T) {
	err := oops.Code("INVALID_FLAGS").Errorf("unknown restriction")
	errutil.AssertErrorCode(t, err, "INVALID_FLAGS")
}

func TestAssertErrorCode_InnermostWins(t *testing.T) {
	inner := oops.Code("LOG_LEVEL_INVALID").Errorf("unknown log level")
	err := oops.Code("CONFIG_INVALID").With("field", "log.level").Wrap(inner)
	errutil.AssertErrorCode(t, err, "LOG_LEVEL_INVALID")
}

func TestAssertErrorContext_MatchingKeyValue(t *testing.T) {
	err := oops.With("tier", 7).Errorf("tier out of range")
	errutil.AssertErrorContext(t, err, "tier", 7)
}

func TestAssertErrorContext_MergesWrappedContext(t *testing.T) {
	inner := oops.With("setting", "challenge.flags").Errorf("write failed")
	err := oops.With("player_id", "01J").Wrap(inner)
	errutil.AssertErrorContext(t, err, "setting", "challenge.flags")
	errutil.AssertErrorContext(t, err, "player_id", "01J")
}
