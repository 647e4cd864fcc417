// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/jeranaias/kvterm/internal/config"
	"github.com/jeranaias/kvterm/internal/console"
	"github.com/jeranaias/kvterm/internal/dispatch"
	"github.com/jeranaias/kvterm/internal/history"
	"github.com/jeranaias/kvterm/internal/log"
	"github.com/jeranaias/kvterm/internal/sound"
	"github.com/jeranaias/kvterm/internal/suggest"
)

// session bundles everything one console run needs.
type session struct {
	cfg     *config.Config
	client  *dispatch.Client
	console *console.Console
	store   *history.Store
	cookies *dispatch.FileTokenSource
}

// openSession wires the console, dispatch client and history store from
// cfg. History persistence failures are logged and the console runs
// without it.
func openSession(ctx context.Context, cfg *config.Config, bell io.Writer) (*session, error) {
	s := &session{cfg: cfg}

	var entries []string
	if cfg.History.Persist {
		store, err := history.Open(cfg.History.Path, cfg.History.MaxEntries)
		if err != nil {
			log.L().Warnw("history persistence disabled", "path", cfg.History.Path, "error", err)
		} else {
			s.store = store
			entries, err = store.Recent(ctx, cfg.History.MaxEntries)
			if err != nil {
				log.L().Warnw("failed to load history", "error", err)
			}
		}
	}

	var sources []dispatch.TokenSource
	if cfg.Remote.Token != "" {
		sources = append(sources, dispatch.StaticTokenSource(cfg.Remote.Token))
	}
	if cfg.Remote.CookieFile != "" {
		cookies, err := dispatch.NewFileTokenSource(cfg.Remote.CookieFile, cfg.Remote.CSRFCookie)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to read cookie file: %w", err)
		}
		if err := cookies.Watch(); err != nil {
			log.L().Warnw("cookie file will not be reloaded", "path", cfg.Remote.CookieFile, "error", err)
		}
		s.cookies = cookies
		sources = append(sources, cookies)
	}

	var opts []dispatch.Option
	if len(sources) > 0 {
		opts = append(opts, dispatch.WithTokenSource(dispatch.Chain(sources...)))
	}
	client, err := dispatch.NewClient(dispatch.Config{
		BaseURL:           cfg.Remote.URL,
		CommandPath:       cfg.Remote.CommandPath,
		CSRFCookie:        cfg.Remote.CSRFCookie,
		CSRFHeader:        cfg.Remote.CSRFHeader,
		Timeout:           cfg.TimeoutDuration(),
		RequestsPerSecond: cfg.Remote.RequestsPerSecond,
		UserAgent:         "kvterm/" + Version,
	}, opts...)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.client = client

	consoleOpts := []console.Option{
		console.WithVocabulary(suggest.NewVocabulary(cfg.UI.Vocabulary)),
		console.WithHistory(entries),
		console.WithPlayer(sound.New(cfg.UI.Sound, bell)),
	}
	if s.store != nil {
		consoleOpts = append(consoleOpts, console.WithJournal(s.store))
	}
	s.console = console.New(consoleOpts...)

	log.L().Infow("session opened",
		"endpoint", client.Endpoint(),
		"history", len(entries),
		"persist", s.store != nil,
	)
	return s, nil
}

// prime fetches the anti-forgery cookie if configured. Failures are
// logged; commands are still sent without a token.
func (s *session) prime(ctx context.Context) {
	if !s.cfg.Remote.PrimeCSRF {
		return
	}
	if err := s.client.Prime(ctx); err != nil {
		log.L().Warnw("failed to prime anti-forgery token", "error", err)
	}
}

// Close releases the cookie watcher and history store.
func (s *session) Close() {
	if s.cookies != nil {
		if err := s.cookies.Close(); err != nil {
			log.L().Debugw("cookie watcher close", "error", err)
		}
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			log.L().Warnw("history store close", "error", err)
		}
	}
}
