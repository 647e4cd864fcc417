// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package log provides the process-wide structured logger.
//
// The full-screen console owns stdout, so log output goes to a rotating file
// (see Init). Until Init is called, L returns a no-op logger, which keeps
// packages and tests quiet without any setup.
package log

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	mu     sync.RWMutex
	logger *zap.SugaredLogger

	noopLogger = zap.NewNop().Sugar()

	atomicLevel = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

// Options configures Init.
type Options struct {
	// Path is the log file. Empty disables file logging.
	Path string
	// Level is a zap level name: debug, info, warn, error.
	Level string
	// JSON selects the JSON encoder instead of the console encoder.
	JSON bool
}

// L returns the global logger or a no-op fallback if uninitialized.
func L() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	if logger == nil {
		return noopLogger
	}
	return logger
}

// Init installs a logger that writes to opts.Path through lumberjack
// rotation. It replaces any previous logger.
func Init(opts Options) error {
	if opts.Path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return err
	}

	atomicLevel.SetLevel(ParseLevel(opts.Level))

	writer := zapcore.AddSync(&lumberjack.Logger{
		Filename:   opts.Path,
		MaxSize:    10, // MB
		MaxBackups: 3,
		MaxAge:     14, // days
		Compress:   true,
	})

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	var encoder zapcore.Encoder
	if opts.JSON {
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	} else {
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	}

	core := zapcore.NewCore(encoder, writer, atomicLevel)
	set(zap.New(core, zap.AddCaller()).Sugar())

	L().Infow("logger initialized", "path", opts.Path, "level", atomicLevel.Level().String())
	return nil
}

// InitTest installs a development logger that writes to stdout.
func InitTest() {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	cfg.OutputPaths = []string{"stdout"}
	raw, err := cfg.Build(zap.AddCaller())
	if err != nil {
		return
	}
	set(raw.Sugar())
}

// Reset drops the installed logger; L returns the no-op logger again.
func Reset() {
	Sync()
	set(nil)
}

// Sync flushes any buffered log entries.
func Sync() {
	_ = L().Sync()
}

// SetLevel changes the level of the installed logger at runtime.
func SetLevel(level string) {
	atomicLevel.SetLevel(ParseLevel(level))
}

// ParseLevel maps a level name to a zap level, defaulting to info.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func set(l *zap.SugaredLogger) {
	mu.Lock()
	defer mu.Unlock()
	logger = l
}
