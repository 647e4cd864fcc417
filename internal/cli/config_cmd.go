// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jeranaias/kvterm/internal/config"
)

func newConfigCommand(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or edit configuration",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), cfg.String())
			return nil
		},
	}

	cmd.AddCommand(
		newConfigInitCommand(flags),
		newConfigGetCommand(flags),
		newConfigSetCommand(flags),
		&cobra.Command{
			Use:   "path",
			Short: "Print the config file path",
			Args:  usageArgs(cobra.NoArgs),
			RunE: func(cmd *cobra.Command, _ []string) error {
				path, err := configFilePath(flags)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			},
		},
	)
	return cmd
}

func newConfigInitCommand(flags *rootFlags) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with default settings",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := configFilePath(flags)
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); err == nil && !force {
				return &CommandError{Command: "config", Action: "init", Err: fmt.Errorf("%s already exists (use --force to overwrite)", path)}
			}
			if err := config.SaveTOML(config.Default(), path); err != nil {
				return &CommandError{Command: "config", Action: "init", Err: err}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func newConfigGetCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "get KEY",
		Short: "Print one setting, e.g. remote.url",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if args[0] == "remote.token" && cfg.Remote.Token != "" {
				fmt.Fprintln(cmd.OutOrStdout(), "[REDACTED]")
				return nil
			}
			v, err := cfg.Get(args[0])
			if err != nil {
				return &CommandError{Command: "config", Action: "get", Err: err}
			}
			fmt.Fprintln(cmd.OutOrStdout(), v)
			return nil
		},
	}
}

// newConfigSetCommand edits the file only; environment overrides are not
// written back.
func newConfigSetCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Change one setting in the config file",
		Args:  usageArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configFilePath(flags)
			if err != nil {
				return err
			}

			cfg := config.Default()
			if _, err := os.Stat(path); err == nil {
				if err := config.LoadTOML(cfg, path); err != nil {
					return &ConfigError{Path: path, Err: err}
				}
			} else if !errors.Is(err, os.ErrNotExist) {
				return &ConfigError{Path: path, Err: err}
			}

			if err := cfg.Set(args[0], args[1]); err != nil {
				return &CommandError{Command: "config", Action: "set", Err: err}
			}
			check := cfg.Clone()
			check.SetDefaults()
			if err := check.Validate(); err != nil {
				return &ConfigError{Path: path, Err: err}
			}
			if err := config.SaveTOML(cfg, path); err != nil {
				return &CommandError{Command: "config", Action: "set", Err: err}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %v\n", args[0], args[1])
			return nil
		},
	}
}
