// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/kvterm/internal/ui/styles"
)

// init configures lipgloss for line-mode output, which may be piped.
func init() {
	lipgloss.SetColorProfile(GetColorProfile())
}

// Shared styles for line-mode output and subcommands.
var (
	// PromptStyle renders the line-mode prompt
	PromptStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.Cyan)

	// CommandStyle renders echoed commands in scripted runs
	CommandStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.Cyan)

	// ResultStyle renders result lines verbatim
	ResultStyle = lipgloss.NewStyle()

	// ErrorStyle renders error lines and CLI errors
	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.Rose)

	// DimStyle renders secondary information such as history numbers
	DimStyle = lipgloss.NewStyle().
			Foreground(styles.TextMuted)
)
