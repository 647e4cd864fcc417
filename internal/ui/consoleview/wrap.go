// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package consoleview

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// tabWidth matches the tab expansion lipgloss applies when rendering.
const tabWidth = 4

// wrapText hard-wraps text to at most width display cells per row.
// Existing line breaks are kept and no characters are dropped, so
// interpreter output stays verbatim. A width below 1 disables wrapping.
func wrapText(text string, width int) []string {
	text = strings.ReplaceAll(text, "\t", strings.Repeat(" ", tabWidth))
	if width < 1 {
		return strings.Split(text, "\n")
	}

	var rows []string
	for _, line := range strings.Split(text, "\n") {
		var row strings.Builder
		cells := 0
		for _, r := range line {
			w := runewidth.RuneWidth(r)
			if cells > 0 && cells+w > width {
				rows = append(rows, row.String())
				row.Reset()
				cells = 0
			}
			row.WriteRune(r)
			cells += w
		}
		rows = append(rows, row.String())
	}
	return rows
}
