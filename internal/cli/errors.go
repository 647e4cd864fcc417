// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/jeranaias/kvterm/internal/dispatch"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates configuration file or settings error
	ExitConfigError = 3
	// ExitNetworkError indicates the interpreter could not be reached
	ExitNetworkError = 5
	// ExitCommandFailed indicates a scripted command reported an error
	ExitCommandFailed = 9
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// CommandError represents a CLI command error with context.
type CommandError struct {
	Command string // Command that failed (e.g., "history")
	Action  string // Action being performed (e.g., "clear")
	Err     error  // Underlying error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s %s failed: %v", e.Command, e.Action, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ConfigError wraps a failure to load or validate configuration.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("config %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("config: %v", e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// UsageError wraps invalid flags or arguments.
type UsageError struct {
	Err error
}

func (e *UsageError) Error() string {
	return e.Err.Error()
}

func (e *UsageError) Unwrap() error {
	return e.Err
}

// ScriptError reports how many commands in a scripted run did not succeed.
// Transport holds the first transport failure, if any.
type ScriptError struct {
	Failed    int
	Total     int
	Transport error
}

func (e *ScriptError) Error() string {
	msg := fmt.Sprintf("%d of %d commands failed", e.Failed, e.Total)
	if e.Transport != nil {
		msg += " (" + e.Transport.Error() + ")"
	}
	return msg
}

func (e *ScriptError) Unwrap() error {
	return e.Transport
}

// GetExitCode determines the exit code for an error.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var usageErr *UsageError
	if errors.As(err, &usageErr) {
		return ExitUsageError
	}

	var configErr *ConfigError
	if errors.As(err, &configErr) {
		return ExitConfigError
	}

	// Transport failures in a script outrank command errors.
	if errors.Is(err, dispatch.ErrUnreachable) || errors.Is(err, dispatch.ErrTimeout) {
		return ExitNetworkError
	}

	var scriptErr *ScriptError
	if errors.As(err, &scriptErr) {
		return ExitCommandFailed
	}

	return ExitGeneralError
}

// DisplayError prints err in the standard format.
func DisplayError(w io.Writer, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("[ERROR]"), err.Error())
}
