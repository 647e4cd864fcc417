// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// THEME CREATION TESTS
// =============================================================================

func TestNewTheme_ForcedModes(t *testing.T) {
	if theme := NewTheme("dark"); !theme.IsDark {
		t.Error("NewTheme(\"dark\") should be dark")
	}
	if theme := NewTheme("light"); theme.IsDark {
		t.Error("NewTheme(\"light\") should be light")
	}
}

func TestThemeInitStyles(t *testing.T) {
	theme := NewTheme("dark")

	styles := []struct {
		name  string
		style lipgloss.Style
	}{
		{"Command", theme.Command},
		{"Result", theme.Result},
		{"Error", theme.Error},
		{"Prompt", theme.Prompt},
		{"Suggestion", theme.Suggestion},
		{"SuggestionHighlight", theme.SuggestionHighlight},
		{"StatusBar", theme.StatusBar},
	}

	for _, s := range styles {
		if rendered := s.style.Render("test"); rendered == "" {
			t.Errorf("%s style should be initialized", s.name)
		}
	}
}

func TestThemeErrorIsBold(t *testing.T) {
	theme := NewTheme("light")
	if !theme.Error.GetBold() {
		t.Error("error lines should be bold so they stand out without color")
	}
}

// =============================================================================
// LAYOUT TESTS
// =============================================================================

func TestGetLayoutMode(t *testing.T) {
	tests := []struct {
		width int
		want  LayoutMode
	}{
		{40, LayoutNarrow},
		{59, LayoutNarrow},
		{60, LayoutWide},
		{120, LayoutWide},
	}

	theme := NewTheme("dark")
	for _, tt := range tests {
		theme.SetSize(tt.width, 24)
		if got := theme.GetLayoutMode(); got != tt.want {
			t.Errorf("width %d: GetLayoutMode() = %v, want %v", tt.width, got, tt.want)
		}
	}
}

func TestPendingSpinnerFrames(t *testing.T) {
	if len(PendingSpinner.Frames) == 0 {
		t.Fatal("PendingSpinner has no frames")
	}
	if PendingSpinner.FPS <= 0 {
		t.Error("PendingSpinner needs a positive frame interval")
	}
}
