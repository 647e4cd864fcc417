// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jeranaias/kvterm/internal/history"
)

func newHistoryCommand(flags *rootFlags) *cobra.Command {
	var (
		clear bool
		limit int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show or clear the saved command history",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}

			store, err := history.Open(cfg.History.Path, cfg.History.MaxEntries)
			if err != nil {
				return &CommandError{Command: "history", Action: "open", Err: err}
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			if clear {
				if err := store.Clear(cmd.Context()); err != nil {
					return &CommandError{Command: "history", Action: "clear", Err: err}
				}
				fmt.Fprintln(out, "History cleared.")
				return nil
			}

			entries, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return &CommandError{Command: "history", Action: "list", Err: err}
			}
			width := len(fmt.Sprint(len(entries)))
			for i, e := range entries {
				fmt.Fprintf(out, "%s  %s\n", DimStyle.Render(fmt.Sprintf("%*d", width, i+1)), e)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&clear, "clear", false, "delete all saved history")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "show only the newest N commands")
	return cmd
}
