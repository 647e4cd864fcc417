// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides the kvterm command line.
//
// The root command opens a console session against the configured
// interpreter: the full-screen view when stdin and stdout are terminals,
// line mode with --plain, and a scripted run that reads one command per
// line when stdin is redirected.
//
// # Commands
//
//   - kvterm: interactive console
//   - kvterm history [--clear] [-n N]: saved command history
//   - kvterm config [init|get|set|path]: configuration
//   - kvterm version: build information
//
// # Exit Codes
//
// A scripted run exits with ExitCommandFailed when any command produced an
// error line; configuration problems exit with ExitConfigError.
package cli
