// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package consoleview

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/kvterm/internal/dispatch"
)

// ResponseMsg carries the outcome of a dispatched command.
type ResponseMsg struct {
	Command string
	Result  dispatch.Result
}

// PrimedMsg reports the result of fetching the anti-forgery cookie.
type PrimedMsg struct {
	Err error
}

// Sender dispatches one command. *dispatch.Client implements it.
type Sender interface {
	Send(ctx context.Context, command string) dispatch.Result
}

// Primer obtains the anti-forgery token before the first command.
type Primer interface {
	Prime(ctx context.Context) error
}

// SendCmd creates a command that dispatches command and reports back with
// a ResponseMsg. The request runs to completion; any timeout belongs to the
// sender.
func SendCmd(sender Sender, command string) tea.Cmd {
	return func() tea.Msg {
		if sender == nil {
			return ResponseMsg{Command: command, Result: dispatch.TransportFailure{Cause: dispatch.ErrUnreachable}}
		}
		return ResponseMsg{Command: command, Result: sender.Send(context.Background(), command)}
	}
}

// PrimeCmd creates a command that primes the anti-forgery cookie.
func PrimeCmd(primer Primer) tea.Cmd {
	return func() tea.Msg {
		return PrimedMsg{Err: primer.Prime(context.Background())}
	}
}
