// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package log

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestL_NoopBeforeInit(t *testing.T) {
	Reset()
	assert.NotPanics(t, func() { L().Infow("ignored", "k", "v") })
}

func TestInit_WritesToFile(t *testing.T) {
	t.Cleanup(Reset)
	path := filepath.Join(t.TempDir(), "logs", "kvterm.log")

	require.NoError(t, Init(Options{Path: path, Level: "debug"}))
	L().Debugw("dispatch", "command", "GET a")
	Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "logger initialized")
	assert.Contains(t, string(data), "GET a")
}

func TestInit_EmptyPathIsNoOp(t *testing.T) {
	Reset()
	require.NoError(t, Init(Options{}))
	assert.Same(t, noopLogger, L())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("nonsense"))
}
