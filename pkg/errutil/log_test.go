// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package errutil_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/gauntlet/pkg/errutil"
)

func TestLogError_WithOopsError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	err := oops.Code("CHALLENGE_STATE_SAVE_FAILED").
		With("setting", "challenge.tier").
		Errorf("write failed")

	errutil.LogError(logger, "save failed", err, "player_id", "01J0000000000000000000000")

	var logEntry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &logEntry))
	assert.Equal(t, "ERROR", logEntry["level"])
	assert.Equal(t, "save failed", logEntry["msg"])
	assert.Equal(t, "CHALLENGE_STATE_SAVE_FAILED", logEntry["code"])
	assert.Equal(t, "01J0000000000000000000000", logEntry["player_id"])
	assert.Contains(t, logEntry["context"], "setting")
}

func TestLogError_WithStandardError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	errutil.LogError(logger, "operation failed", errors.New("standard error"), "operation", "fail_run")

	var logEntry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &logEntry))
	assert.Equal(t, "ERROR", logEntry["level"])
	assert.Contains(t, logEntry["error"], "standard error")
	assert.Equal(t, "fail_run", logEntry["operation"])
	assert.NotContains(t, logEntry, "code")
}

func TestCode(t *testing.T) {
	assert.Equal(t, "INVALID_TIER", errutil.Code(oops.Code("INVALID_TIER").Errorf("bad")))
	assert.Empty(t, errutil.Code(errors.New("plain")))
	assert.Empty(t, errutil.Code(nil))
}
