// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/peterh/liner"

	"github.com/jeranaias/kvterm/internal/console"
	"github.com/jeranaias/kvterm/internal/dispatch"
	"github.com/jeranaias/kvterm/internal/suggest"
	"github.com/jeranaias/kvterm/internal/transcript"
	"github.com/jeranaias/kvterm/internal/ui/consoleview"
)

// plainRunner drives the console in line mode: one command per line,
// each dispatched and resolved before the next is read.
type plainRunner struct {
	console *console.Console
	sender  consoleview.Sender
	out     io.Writer
	prompt  string

	// echo prints Command entries; off when the terminal already shows
	// the typed line.
	echo bool

	total     int
	failures  int
	transport error
}

func newPlainRunner(c *console.Console, sender consoleview.Sender, out io.Writer, prompt string, echo bool) *plainRunner {
	p := &plainRunner{console: c, sender: sender, out: out, prompt: prompt, echo: echo}
	c.Transcript().OnAppend(func(_ int, e transcript.Entry) { p.print(e) })
	return p
}

func (p *plainRunner) print(e transcript.Entry) {
	switch e.Kind {
	case transcript.KindCommand:
		if p.echo {
			fmt.Fprintln(p.out, PromptStyle.Render(p.prompt)+CommandStyle.Render(e.Text))
		}
	case transcript.KindError:
		p.failures++
		fmt.Fprintln(p.out, ErrorStyle.Render(e.Text))
	default:
		fmt.Fprintln(p.out, ResultStyle.Render(e.Text))
	}
}

// submit sends one line through the console and dispatches until no
// submission is outstanding.
func (p *plainRunner) submit(ctx context.Context, line string) {
	effects := p.console.Submit(line)
	for len(effects) > 0 {
		effect := effects[0]
		effects = effects[1:]
		if s, ok := effect.(console.Submit); ok {
			p.total++
			result := p.sender.Send(ctx, s.Command)
			if f, ok := result.(dispatch.TransportFailure); ok && p.transport == nil {
				p.transport = f.Cause
			}
			effects = append(effects, p.console.Resolve(result)...)
		}
	}
}

// runScript reads commands from r until EOF. Blank lines and lines
// starting with # are skipped.
func (p *plainRunner) runScript(ctx context.Context, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Text()
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		p.submit(ctx, line)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read commands: %w", err)
	}
	if p.failures > 0 {
		return &ScriptError{Failed: p.failures, Total: p.total, Transport: p.transport}
	}
	return nil
}

// runInteractive reads lines with liner, which provides line editing,
// history recall and Tab completion of command keywords.
func (p *plainRunner) runInteractive(ctx context.Context) error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	line.SetCompleter(completer(p.console.Vocabulary()))
	for _, h := range p.console.History() {
		line.AppendHistory(h)
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		input, err := line.Prompt(p.prompt)
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(p.out)
				return nil
			}
			return err
		}
		if strings.TrimSpace(input) != "" {
			line.AppendHistory(input)
		}
		p.submit(ctx, input)
	}
}

// completer offers keyword completions for the first word of a line.
func completer(vocab suggest.Vocabulary) liner.Completer {
	return func(line string) []string {
		if strings.Contains(strings.TrimSpace(line), " ") {
			return nil
		}
		matches := vocab.Compute(line)
		out := make([]string, 0, len(matches))
		for _, kw := range matches {
			out = append(out, kw+suggest.Separator)
		}
		return out
	}
}
