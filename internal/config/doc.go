// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for kvterm.
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Command line flags (applied by the cli package)
//   - Environment variables (KVTERM_*)
//   - ~/.kvterm/config.toml
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	timeout := cfg.TimeoutDuration()
package config
