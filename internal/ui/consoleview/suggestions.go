// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package consoleview

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/kvterm/internal/ui/styles"
)

// suggestionList draws the suggestion container. It holds no selection
// state of its own; items and highlight come from the console.
type suggestionList struct {
	theme      *styles.Theme
	items      []string
	highlight  int
	maxVisible int
	width      int
}

func newSuggestionList(theme *styles.Theme, maxVisible int) *suggestionList {
	if maxVisible <= 0 {
		maxVisible = 9
	}
	return &suggestionList{theme: theme, highlight: -1, maxVisible: maxVisible}
}

func (s *suggestionList) set(items []string, highlight int) {
	s.items = items
	s.highlight = highlight
}

func (s *suggestionList) clear() {
	s.items = nil
	s.highlight = -1
}

func (s *suggestionList) visible() bool {
	return len(s.items) > 0
}

// window returns the visible index range, keeping the highlight in view.
func (s *suggestionList) window() (start, end int) {
	end = len(s.items)
	if len(s.items) <= s.maxVisible {
		return 0, end
	}
	start = s.highlight - s.maxVisible/2
	if start < 0 {
		start = 0
	}
	end = start + s.maxVisible
	if end > len(s.items) {
		end = len(s.items)
		start = end - s.maxVisible
	}
	return start, end
}

// height returns the number of terminal rows View occupies.
func (s *suggestionList) height() int {
	if !s.visible() {
		return 0
	}
	start, end := s.window()
	return end - start + 2 // rounded border
}

func (s *suggestionList) View() string {
	if !s.visible() {
		return ""
	}
	start, end := s.window()

	// Column width from display cells, so wide runes line up.
	col := 0
	for _, item := range s.items[start:end] {
		if w := runewidth.StringWidth(item); w > col {
			col = w
		}
	}
	if limit := s.width - 10; limit > 0 && col > limit {
		col = limit
	}

	rows := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		label := runewidth.FillRight(runewidth.Truncate(s.items[i], col, "..."), col)
		indicator := " "
		style := s.theme.Suggestion
		if i == s.highlight {
			indicator = ">"
			style = s.theme.SuggestionHighlight
		}
		rows = append(rows, fmt.Sprintf("%s %s", indicator, style.Render(label)))
	}
	return s.theme.Suggestions.Render(strings.Join(rows, "\n"))
}
