// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds all the styled components of the console view.
// It detects the terminal's color capability and adjusts accordingly.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	// Transcript
	Command lipgloss.Style
	Result  lipgloss.Style
	Error   lipgloss.Style

	// Input line
	Prompt      lipgloss.Style
	Input       lipgloss.Style
	Placeholder lipgloss.Style

	// Suggestion list
	Suggestions         lipgloss.Style
	Suggestion          lipgloss.Style
	SuggestionHighlight lipgloss.Style

	// Status bar
	StatusBar     lipgloss.Style
	StatusPending lipgloss.Style
	StatusOK      lipgloss.Style
	StatusError   lipgloss.Style
	Hint          lipgloss.Style
}

// NewTheme creates a theme. mode is "dark", "light" or "auto"; "auto"
// asks the terminal for its background.
func NewTheme(mode string) *Theme {
	colorProfile := termenv.ColorProfile()

	var isDark bool
	switch mode {
	case "dark":
		isDark = true
	case "light":
		isDark = false
	default:
		isDark = termenv.HasDarkBackground()
	}
	lipgloss.SetHasDarkBackground(isDark)

	t := &Theme{
		IsDark:       isDark,
		HasTrueColor: colorProfile == termenv.TrueColor,
		ColorProfile: colorProfile,
	}
	t.initStyles()
	return t
}

// initStyles initializes all the lip gloss styles.
func (t *Theme) initStyles() {
	t.Command = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan)

	t.Result = lipgloss.NewStyle().
		Foreground(TextPrimary)

	// Bold so errors stand out without relying on color alone.
	t.Error = lipgloss.NewStyle().
		Bold(true).
		Foreground(Rose)

	t.Prompt = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan)

	t.Input = lipgloss.NewStyle().
		Foreground(TextPrimary)

	t.Placeholder = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	t.Suggestions = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.Suggestion = lipgloss.NewStyle().
		Foreground(TextSecondary)

	t.SuggestionHighlight = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple).
		Background(SelectionBg)

	t.StatusBar = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Background(SurfaceDim).
		Padding(0, 1)

	t.StatusPending = lipgloss.NewStyle().
		Foreground(Amber)

	t.StatusOK = lipgloss.NewStyle().
		Foreground(Emerald)

	t.StatusError = lipgloss.NewStyle().
		Foreground(Rose)

	t.Hint = lipgloss.NewStyle().
		Foreground(TextMuted)
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// GetLayoutMode returns the current layout mode based on width.
func (t *Theme) GetLayoutMode() LayoutMode {
	if t.Width < 60 {
		return LayoutNarrow
	}
	return LayoutWide
}

// LayoutMode represents the current responsive layout mode.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota // < 60 columns, key hints hidden
	LayoutWide
)
