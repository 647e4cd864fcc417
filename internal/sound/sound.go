// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package sound provides the short feedback tone played when a suggestion
// is picked.
package sound

import (
	"io"
	"os"
	"sync"

	"github.com/jeranaias/kvterm/internal/log"
)

// Player plays audio feedback. Play is fire-and-forget: implementations
// handle all errors internally.
type Player interface {
	Play()
}

// Noop is a Player that does nothing. Use it when sound is disabled.
type Noop struct{}

// Play does nothing.
func (Noop) Play() {}

// bel is the terminal bell control character.
const bel = "\a"

// Bell rings the terminal bell. Each Play emits a fresh BEL, so rapid picks
// restart the tone rather than queueing behind it.
type Bell struct {
	mu  sync.Mutex
	out io.Writer
}

// NewBell returns a Bell writing to out, or to stderr when out is nil.
// Stderr keeps the bell out of piped stdout.
func NewBell(out io.Writer) *Bell {
	if out == nil {
		out = os.Stderr
	}
	return &Bell{out: out}
}

// Play writes a BEL. Write failures are logged and dropped.
func (b *Bell) Play() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, err := io.WriteString(b.out, bel); err != nil {
		log.L().Debugw("bell write failed", "error", err)
	}
}

// New returns a Bell when enabled and Noop otherwise.
func New(enabled bool, out io.Writer) Player {
	if !enabled {
		return Noop{}
	}
	return NewBell(out)
}
