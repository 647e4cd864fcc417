// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package console implements the input controller of the command console.
//
// A Console owns the history buffer, suggestion engine, transcript and the
// input field's value. Front ends translate their events into calls on the
// Console and apply the returned Effects; the Console never touches a
// terminal or the network itself. Submissions are serialized: one command
// is in flight at a time and later submissions wait in a FIFO queue, so
// results always appear in submission order.
//
// A Console is not safe for concurrent use. Drive it from one goroutine,
// such as a Bubble Tea Update loop.
package console

import (
	"context"
	"strings"

	"github.com/jeranaias/kvterm/internal/dispatch"
	"github.com/jeranaias/kvterm/internal/history"
	"github.com/jeranaias/kvterm/internal/log"
	"github.com/jeranaias/kvterm/internal/sound"
	"github.com/jeranaias/kvterm/internal/suggest"
	"github.com/jeranaias/kvterm/internal/transcript"
)

// ConnectionErrorPrefix starts the transcript line for a transport failure.
const ConnectionErrorPrefix = "connection error: "

// Journal persists submitted commands. history.Store implements it.
type Journal interface {
	Append(ctx context.Context, command string) error
}

// submission is one accepted command. field is the raw field text it came
// from, used to decide whether the field still shows it on completion.
type submission struct {
	command string
	field   string
}

// Console is one independent console instance.
type Console struct {
	history    *history.Buffer
	engine     *suggest.Engine
	transcript *transcript.Log
	player     sound.Player
	journal    Journal

	field    string
	inFlight *submission
	queue    []submission
}

// Option configures a Console.
type Option func(*Console)

// WithVocabulary replaces the default keyword vocabulary.
func WithVocabulary(v suggest.Vocabulary) Option {
	return func(c *Console) { c.engine = suggest.NewEngine(v) }
}

// WithHistory seeds the history buffer, oldest first.
func WithHistory(entries []string) Option {
	return func(c *Console) { c.history = history.LoadBuffer(entries) }
}

// WithPlayer sets the feedback sound player.
func WithPlayer(p sound.Player) Option {
	return func(c *Console) {
		if p != nil {
			c.player = p
		}
	}
}

// WithJournal persists every recorded command.
func WithJournal(j Journal) Option {
	return func(c *Console) { c.journal = j }
}

// WithTranscript uses an existing transcript log, so a renderer can
// subscribe before the first entry.
func WithTranscript(l *transcript.Log) Option {
	return func(c *Console) {
		if l != nil {
			c.transcript = l
		}
	}
}

// New creates a Console with an empty field and transcript.
func New(opts ...Option) *Console {
	c := &Console{
		history:    history.NewBuffer(),
		engine:     suggest.NewEngine(suggest.DefaultVocabulary()),
		transcript: transcript.NewLog(),
		player:     sound.Noop{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Field returns the input field's current value.
func (c *Console) Field() string { return c.field }

// Transcript returns the transcript log.
func (c *Console) Transcript() *transcript.Log { return c.transcript }

// History returns the recorded commands, oldest first.
func (c *Console) History() []string { return c.history.Entries() }

// HistoryCursor returns the recall cursor, in [0, len(History())].
func (c *Console) HistoryCursor() int { return c.history.Cursor() }

// Suggestions returns the visible match list.
func (c *Console) Suggestions() []string { return c.engine.Matches() }

// Highlight returns the highlighted suggestion index, -1 for none.
func (c *Console) Highlight() int { return c.engine.Highlight() }

// Vocabulary returns the keyword vocabulary.
func (c *Console) Vocabulary() suggest.Vocabulary { return c.engine.Vocabulary() }

// Pending reports whether a command is awaiting its result.
func (c *Console) Pending() bool { return c.inFlight != nil }

// Queued returns how many submissions wait behind the one in flight.
func (c *Console) Queued() int { return len(c.queue) }

// State returns the input controller's state.
func (c *Console) State() State {
	switch {
	case c.engine.Visible():
		return StateSuggesting
	case c.history.Recalling():
		return StateRecalling
	default:
		return StateIdle
	}
}

// =============================================================================
// EVENTS
// =============================================================================

// HandleTextChanged is called when the user edits the field.
func (c *Console) HandleTextChanged(text string) []Effect {
	c.field = text
	if matches := c.engine.Update(text); len(matches) > 0 {
		return []Effect{c.showSuggestions()}
	}
	return []Effect{HideSuggestions{}}
}

// HandleKey handles a key press. handled is true when the front end must
// suppress the key's default behaviour.
func (c *Console) HandleKey(k Key) (effects []Effect, handled bool) {
	switch k {
	case KeyUp:
		if c.engine.Visible() {
			c.engine.HighlightPrevious()
			return []Effect{c.showSuggestions()}, true
		}
		return c.recall(c.history.RecallPrevious), true

	case KeyDown:
		if c.engine.Visible() {
			c.engine.HighlightNext()
			return []Effect{c.showSuggestions()}, true
		}
		return c.recall(c.history.RecallNext), true

	case KeyEnter:
		if kw, ok := c.engine.Highlighted(); ok {
			c.field = kw
			effects = append(effects, SetFieldValue{Value: kw})
		}
		return append(effects, c.Submit(c.field)...), true

	default:
		return nil, false
	}
}

// ClickSuggestion picks the suggestion at index i: the field becomes the
// keyword plus a separator and the feedback sound plays. Nothing is
// submitted.
func (c *Console) ClickSuggestion(i int) []Effect {
	value, ok := c.engine.Select(i)
	if !ok {
		return []Effect{NoOp{}}
	}
	c.field = value
	c.player.Play()
	return []Effect{SetFieldValue{Value: value}, HideSuggestions{}}
}

// Dismiss hides the suggestion list without touching the field.
func (c *Console) Dismiss() []Effect {
	if !c.engine.Visible() {
		return []Effect{NoOp{}}
	}
	c.engine.Hide()
	return []Effect{HideSuggestions{}}
}

// Submit accepts text as a command. Blank text is ignored. The command is
// recorded in history at once; it is echoed to the transcript and returned
// as a Submit effect when it is its turn to be dispatched.
func (c *Console) Submit(text string) []Effect {
	command := strings.TrimSpace(text)
	if command == "" {
		return []Effect{NoOp{}}
	}

	var effects []Effect
	if c.engine.Visible() {
		c.engine.Hide()
		effects = append(effects, HideSuggestions{})
	}

	c.history.Record(command)
	c.persist(command)

	sub := submission{command: command, field: text}
	if c.inFlight != nil {
		c.queue = append(c.queue, sub)
		log.L().Debugw("command queued", "command", command, "queued", len(c.queue))
		return effects
	}
	return append(effects, c.start(sub))
}

// Resolve records the outcome of the command in flight and starts the next
// queued one, if any.
func (c *Console) Resolve(result dispatch.Result) []Effect {
	sub := c.inFlight
	if sub == nil {
		log.L().Warnw("result with no command in flight", "result", dispatch.Describe(result))
		return []Effect{NoOp{}}
	}
	c.inFlight = nil

	var effects []Effect
	switch r := result.(type) {
	case dispatch.Output:
		entries := make([]transcript.Entry, 0, len(r.Lines))
		for _, line := range r.Lines {
			entries = append(entries, transcript.ResultLine(line))
		}
		c.transcript.Append(entries...)
		effects = append(effects, c.clearField(sub)...)

	case dispatch.AppError:
		c.transcript.Append(transcript.ErrorLine(r.Message))
		effects = append(effects, c.clearField(sub)...)

	case dispatch.TransportFailure:
		// Field kept so the user can retry.
		c.transcript.Append(transcript.ErrorLine(ConnectionErrorPrefix + r.Error()))
		log.L().Warnw("command failed", "command", sub.command, "error", r.Cause)

	default:
		c.transcript.Append(transcript.ErrorLine(ConnectionErrorPrefix + "unrecognized result"))
		log.L().Errorw("unrecognized dispatch result", "command", sub.command)
	}

	if len(c.queue) > 0 {
		next := c.queue[0]
		c.queue = c.queue[1:]
		effects = append(effects, c.start(next))
	}
	if len(effects) == 0 {
		return []Effect{NoOp{}}
	}
	return effects
}

// =============================================================================
// HELPERS
// =============================================================================

func (c *Console) start(sub submission) Effect {
	c.inFlight = &sub
	c.transcript.Append(transcript.Command(sub.command))
	return Submit{Command: sub.command}
}

// clearField empties the field unless the user has typed something else
// since the command was submitted.
func (c *Console) clearField(sub *submission) []Effect {
	if c.field != sub.field {
		return nil
	}
	c.field = ""
	return []Effect{SetFieldValue{Value: ""}}
}

func (c *Console) recall(fn func() (string, bool)) []Effect {
	value, ok := fn()
	if !ok {
		return []Effect{NoOp{}}
	}
	c.field = value
	return []Effect{SetFieldValue{Value: value}}
}

func (c *Console) showSuggestions() Effect {
	return ShowSuggestions{Items: c.engine.Matches(), Highlight: c.engine.Highlight()}
}

func (c *Console) persist(command string) {
	if c.journal == nil {
		return
	}
	if err := c.journal.Append(context.Background(), command); err != nil {
		log.L().Warnw("failed to persist history", "command", command, "error", err)
	}
}
