// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package consoleview is the full-screen terminal front end of the console.
//
// The model translates Bubble Tea events into console events, applies the
// returned effects to its widgets and turns Submit effects into commands
// that call the dispatch client. The transcript is drawn in a viewport that
// is scrolled to the bottom in the same Update that appends an entry.
package consoleview

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/kvterm/internal/console"
	"github.com/jeranaias/kvterm/internal/dispatch"
	"github.com/jeranaias/kvterm/internal/log"
	"github.com/jeranaias/kvterm/internal/transcript"
	"github.com/jeranaias/kvterm/internal/ui/styles"
)

// Options configures the view.
type Options struct {
	// Prompt precedes the input field and echoed commands
	Prompt string
	// MaxSuggestions bounds the rows of the suggestion list
	MaxSuggestions int
	// Endpoint is shown in the status bar
	Endpoint string
	// Theme defaults to an auto-detected theme
	Theme *styles.Theme
	// Primer, when set, is asked for the anti-forgery cookie on start
	Primer Primer
}

// Model is the Bubble Tea model of the console.
type Model struct {
	console *console.Console
	sender  Sender
	opts    Options
	keys    KeyMap
	theme   *styles.Theme

	input       textinput.Model
	viewport    viewport.Model
	spinner     spinner.Model
	suggestions *suggestionList

	entries []transcript.Entry
	lines   []string // entries rendered and wrapped to the current width
	dirty   bool
	width  int
	height int
	ready  bool

	status string
}

// New creates the view for c, dispatching through sender.
func New(c *console.Console, sender Sender, opts Options) *Model {
	if opts.Prompt == "" {
		opts.Prompt = transcript.CommandPrompt
	}
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme("auto")
	}

	input := textinput.New()
	input.Prompt = opts.Prompt
	input.PromptStyle = theme.Prompt
	input.TextStyle = theme.Input
	input.PlaceholderStyle = theme.Placeholder
	input.Placeholder = "type a command, e.g. SET a 1"
	input.SetValue(c.Field())
	input.Focus()

	m := &Model{
		console:     c,
		sender:      sender,
		opts:        opts,
		keys:        DefaultKeyMap(),
		theme:       theme,
		input:       input,
		viewport:    viewport.New(80, 20),
		spinner:     spinner.New(spinner.WithSpinner(styles.PendingSpinner), spinner.WithStyle(theme.StatusPending)),
		suggestions: newSuggestionList(theme, opts.MaxSuggestions),
	}

	m.entries = c.Transcript().Entries()
	m.rerender()
	c.Transcript().OnAppend(func(_ int, e transcript.Entry) {
		m.entries = append(m.entries, e)
		m.lines = append(m.lines, m.renderEntry(e))
		m.dirty = true
	})
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if m.opts.Primer != nil {
		cmds = append(cmds, PrimeCmd(m.opts.Primer))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.theme.SetSize(msg.Width, msg.Height)
		m.input.Width = msg.Width - lipgloss.Width(m.opts.Prompt) - 1
		m.suggestions.width = msg.Width
		m.ready = true
		m.rerender()

	case tea.KeyMsg:
		cmds = append(cmds, m.handleKey(msg)...)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)

	case ResponseMsg:
		cmds = append(cmds, m.apply(m.console.Resolve(msg.Result))...)
		switch r := msg.Result.(type) {
		case dispatch.TransportFailure:
			m.status = m.theme.StatusError.Render(styles.StatusIndicators.Error + " " + r.Error())
		default:
			m.status = ""
		}

	case PrimedMsg:
		if msg.Err != nil {
			log.L().Warnw("failed to prime anti-forgery token", "error", msg.Err)
			m.status = m.theme.StatusError.Render(styles.StatusIndicators.Error + " " + msg.Err.Error())
		}

	case spinner.TickMsg:
		if m.console.Pending() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	m.layout()
	return m, tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) []tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return []tea.Cmd{tea.Quit}

	case key.Matches(msg, m.keys.Up):
		effects, _ := m.console.HandleKey(console.KeyUp)
		return m.apply(effects)

	case key.Matches(msg, m.keys.Down):
		effects, _ := m.console.HandleKey(console.KeyDown)
		return m.apply(effects)

	case key.Matches(msg, m.keys.Submit):
		effects, _ := m.console.HandleKey(console.KeyEnter)
		return m.apply(effects)

	case key.Matches(msg, m.keys.Complete):
		if !m.suggestions.visible() {
			return nil
		}
		i := m.console.Highlight()
		if i < 0 {
			i = 0
		}
		return m.apply(m.console.ClickSuggestion(i))

	case key.Matches(msg, m.keys.Dismiss):
		return m.apply(m.console.Dismiss())

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.ViewUp()
		return nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.ViewDown()
		return nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds := []tea.Cmd{cmd}
	if v := m.input.Value(); v != m.console.Field() {
		cmds = append(cmds, m.apply(m.console.HandleTextChanged(v))...)
	}
	return cmds
}

// apply performs console effects on the widgets.
func (m *Model) apply(effects []console.Effect) []tea.Cmd {
	var cmds []tea.Cmd
	for _, effect := range effects {
		switch e := effect.(type) {
		case console.SetFieldValue:
			m.input.SetValue(e.Value)
			m.input.CursorEnd()
		case console.ShowSuggestions:
			m.suggestions.set(e.Items, e.Highlight)
		case console.HideSuggestions:
			m.suggestions.clear()
		case console.Submit:
			cmds = append(cmds, SendCmd(m.sender, e.Command), m.spinner.Tick)
		case console.NoOp:
		}
	}
	return cmds
}

// layout sizes the viewport around the input, suggestions and status bar,
// refreshes its content and follows the newest entry after an append.
func (m *Model) layout() {
	if !m.ready {
		return
	}
	height := m.height - 2 - m.suggestions.height()
	if height < 1 {
		height = 1
	}
	// A viewport left at the bottom stays there when the suggestion box
	// takes or gives back rows.
	wasBottom := m.viewport.AtBottom()
	m.viewport.Width = m.width
	m.viewport.Height = height

	switch {
	case m.dirty:
		m.viewport.SetContent(strings.Join(m.lines, "\n"))
		m.viewport.GotoBottom()
		m.dirty = false
	case wasBottom:
		m.viewport.GotoBottom()
	}
}

// rerender rebuilds every rendered line, e.g. after the width changed.
func (m *Model) rerender() {
	m.lines = m.lines[:0]
	for _, e := range m.entries {
		m.lines = append(m.lines, m.renderEntry(e))
	}
	m.dirty = true
}

// renderEntry styles an entry, wrapped so that no row is wider than the
// viewport. Continuation rows of a command are indented past the prompt.
func (m *Model) renderEntry(e transcript.Entry) string {
	var rows []string
	switch e.Kind {
	case transcript.KindCommand:
		promptWidth := lipgloss.Width(m.opts.Prompt)
		width := m.width - promptWidth
		if m.width > 0 && width < 1 {
			width = 1
		}
		indent := strings.Repeat(" ", promptWidth)
		for i, row := range wrapText(e.Text, width) {
			lead := indent
			if i == 0 {
				lead = m.theme.Prompt.Render(m.opts.Prompt)
			}
			rows = append(rows, lead+m.theme.Command.Render(row))
		}
	case transcript.KindError:
		for _, row := range wrapText(e.Text, m.width) {
			rows = append(rows, m.theme.Error.Render(row))
		}
	default:
		for _, row := range wrapText(e.Text, m.width) {
			rows = append(rows, m.theme.Result.Render(row))
		}
	}
	return strings.Join(rows, "\n")
}

// View implements tea.Model.
func (m *Model) View() string {
	if !m.ready {
		return "Starting..."
	}

	parts := []string{m.viewport.View()}
	if m.suggestions.visible() {
		parts = append(parts, m.suggestions.View())
	}
	parts = append(parts, m.input.View(), m.statusView())
	return strings.Join(parts, "\n")
}

func (m *Model) statusView() string {
	var left string
	switch {
	case m.console.Pending():
		left = m.spinner.View() + " " + m.theme.StatusPending.Render("waiting")
		if n := m.console.Queued(); n > 0 {
			left += m.theme.StatusPending.Render(fmt.Sprintf(" (+%d queued)", n))
		}
	case m.status != "":
		left = m.status
	default:
		left = m.theme.StatusOK.Render(styles.StatusIndicators.Active) + " " + m.opts.Endpoint
	}

	right := ""
	if m.theme.GetLayoutMode() == styles.LayoutWide {
		var hints []string
		for _, b := range m.keys.ShortHelp() {
			hints = append(hints, b.Help().Key+" "+b.Help().Desc)
		}
		right = m.theme.Hint.Render(strings.Join(hints, "  "))
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return m.theme.StatusBar.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

// Lines returns the rendered transcript lines.
func (m *Model) Lines() []string {
	return append([]string(nil), m.lines...)
}

// Input returns the text currently in the input field.
func (m *Model) Input() string {
	return m.input.Value()
}
