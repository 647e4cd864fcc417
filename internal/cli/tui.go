// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/kvterm/internal/ui/consoleview"
	"github.com/jeranaias/kvterm/internal/ui/styles"
)

// runTUI runs the full-screen console until the user quits.
func runTUI(sess *session) error {
	opts := consoleview.Options{
		Prompt:         sess.cfg.UI.Prompt,
		MaxSuggestions: sess.cfg.UI.MaxSuggestions,
		Endpoint:       sess.client.Endpoint(),
		Theme:          styles.NewTheme(sess.cfg.UI.Theme),
	}
	if sess.cfg.Remote.PrimeCSRF {
		opts.Primer = sess.client
	}

	model := consoleview.New(sess.console, sess.client, opts)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("console exited: %w", err)
	}
	return nil
}
