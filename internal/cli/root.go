// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/jeranaias/kvterm/internal/config"
	"github.com/jeranaias/kvterm/internal/log"
)

// Version is set at build time with -ldflags.
var Version = "dev"

// rootFlags holds the global flags shared by all subcommands.
type rootFlags struct {
	configPath string
	url        string
	plain      bool
	noSound    bool
	noHistory  bool
	noColor    bool
	logLevel   string
}

// NewRootCommand builds the kvterm command tree.
func NewRootCommand() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "kvterm",
		Short: "Terminal console for a remote key-value command interpreter",
		Long: `kvterm is an interactive console for a remote key-value command
interpreter. Commands are sent one at a time; results and errors are
appended to a scrolling transcript.

Keywords (SET, GET, UNSET, COUNTS, FIND, BEGIN, ROLLBACK, COMMIT, END)
are suggested as you type. Up/Down cycle suggestions or recall history,
Tab completes, Enter runs.

When stdin is not a terminal, commands are read one per line and run in
order, which makes kvterm usable from scripts.`,
		Args:          usageArgs(cobra.NoArgs),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if flags.noColor {
				ForceColorsEnabled(false)
				lipgloss.SetColorProfile(GetColorProfile())
			}
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConsole(cmd, flags)
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &UsageError{Err: err}
	})

	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "config file (default ~/.kvterm/config.toml)")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.BoolVar(&flags.noColor, "no-color", false, "disable colored output")

	f := cmd.Flags()
	f.StringVar(&flags.url, "url", "", "interpreter URL (overrides config and KVTERM_URL)")
	f.BoolVar(&flags.plain, "plain", false, "line mode instead of the full-screen console")
	f.BoolVar(&flags.noSound, "no-sound", false, "disable the suggestion bell")
	f.BoolVar(&flags.noHistory, "no-history", false, "do not load or save command history")

	cmd.AddCommand(
		newHistoryCommand(flags),
		newConfigCommand(flags),
		newVersionCommand(),
	)
	return cmd
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := NewRootCommand()
	if err := cmd.ExecuteContext(ctx); err != nil {
		DisplayError(os.Stderr, err)
		return GetExitCode(err)
	}
	return ExitSuccess
}

// usageArgs marks argument validation failures as usage errors.
func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return &UsageError{Err: err}
		}
		return nil
	}
}

// loadConfig loads the config named by --config, or the default one.
func loadConfig(flags *rootFlags) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if flags.configPath != "" {
		cfg, err = config.LoadFromPath(flags.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, &ConfigError{Path: flags.configPath, Err: err}
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	return cfg, nil
}

// configFilePath returns the file --config names, or the default path.
func configFilePath(flags *rootFlags) (string, error) {
	if flags.configPath != "" {
		return flags.configPath, nil
	}
	return config.ConfigPath()
}

func runConsole(cmd *cobra.Command, flags *rootFlags) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	if flags.url != "" {
		cfg.Remote.URL = flags.url
	}
	if flags.noSound {
		cfg.UI.Sound = false
	}
	if flags.noHistory {
		cfg.History.Persist = false
	}

	if err := log.Init(log.Options{Path: cfg.Log.Path, Level: cfg.Log.Level}); err != nil {
		// Logging is diagnostic only.
		DisplayError(cmd.ErrOrStderr(), err)
	}
	defer log.Sync()

	ctx := cmd.Context()
	sess, err := openSession(ctx, cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer sess.Close()

	if flags.plain || !Interactive() {
		sess.prime(ctx)
		scripted := !IsTTY()
		p := newPlainRunner(sess.console, sess.client, cmd.OutOrStdout(), cfg.UI.Prompt, scripted)
		if scripted {
			err := p.runScript(ctx, cmd.InOrStdin())
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		return p.runInteractive(ctx)
	}
	return runTUI(sess)
}
