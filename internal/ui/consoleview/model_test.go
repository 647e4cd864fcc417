// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package consoleview

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/kvterm/internal/console"
	"github.com/jeranaias/kvterm/internal/dispatch"
	"github.com/jeranaias/kvterm/internal/ui/styles"
)

// fakeSender answers every command with a fixed result.
type fakeSender struct {
	mu       sync.Mutex
	result   dispatch.Result
	commands []string
}

func (f *fakeSender) Send(_ context.Context, command string) dispatch.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, command)
	return f.result
}

func (f *fakeSender) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.commands...)
}

type countingPlayer struct{ plays int }

func (p *countingPlayer) Play() { p.plays++ }

func newTestModel(t *testing.T, result dispatch.Result, opts ...console.Option) (*Model, *fakeSender) {
	t.Helper()
	sender := &fakeSender{result: result}
	m := New(console.New(opts...), sender, Options{
		Endpoint: "http://test/command/",
		Theme:    styles.NewTheme("dark"),
	})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return m, sender
}

// drain runs cmd and returns the messages it produces, expanding batches.
// Commands that block (cursor blink, spinner frames) are abandoned.
func drain(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	select {
	case msg := <-ch:
		if batch, ok := msg.(tea.BatchMsg); ok {
			var out []tea.Msg
			for _, c := range batch {
				out = append(out, drain(c)...)
			}
			return out
		}
		return []tea.Msg{msg}
	case <-time.After(100 * time.Millisecond):
		return nil
	}
}

// press sends a key and feeds any dispatch responses back into the model.
func press(m *Model, msg tea.KeyMsg) tea.Cmd {
	_, cmd := m.Update(msg)
	for _, out := range drain(cmd) {
		if resp, ok := out.(ResponseMsg); ok {
			m.Update(resp)
		}
	}
	return cmd
}

func typeText(m *Model, text string) {
	for _, r := range text {
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func TestModel_SubmitRoundTrip(t *testing.T) {
	m, sender := newTestModel(t, dispatch.Output{Lines: []string{"OK"}})

	typeText(m, "SET a 1")
	assert.Equal(t, "SET a 1", m.Input())

	press(m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, []string{"SET a 1"}, sender.sent())
	lines := m.Lines()
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "SET a 1")
	assert.Contains(t, lines[1], "OK")
	assert.Equal(t, "", m.Input(), "field cleared after output")
	assert.True(t, m.viewport.AtBottom())
}

func TestModel_TransportFailureKeepsField(t *testing.T) {
	m, _ := newTestModel(t, dispatch.TransportFailure{Cause: dispatch.ErrUnreachable})

	typeText(m, "GET a")
	press(m, tea.KeyMsg{Type: tea.KeyEnter})

	lines := m.Lines()
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "Error: connection error: interpreter unreachable")
	assert.Equal(t, "GET a", m.Input())
	assert.Contains(t, m.View(), "interpreter unreachable")
}

func TestModel_SuggestionsAndTabCompletion(t *testing.T) {
	player := &countingPlayer{}
	m, sender := newTestModel(t, dispatch.Output{}, console.WithPlayer(player))

	typeText(m, "co")
	view := m.View()
	assert.Contains(t, view, "COUNTS")
	assert.Contains(t, view, "COMMIT")

	press(m, tea.KeyMsg{Type: tea.KeyDown})
	press(m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, m.console.Highlight())
	assert.Equal(t, "co", m.Input(), "cycling leaves the field alone")

	press(m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, "COMMIT ", m.Input())
	assert.False(t, m.suggestions.visible())
	assert.Equal(t, 1, player.plays)
	assert.Empty(t, sender.sent(), "completion does not submit")
}

func TestModel_EnterUsesHighlightedSuggestion(t *testing.T) {
	m, sender := newTestModel(t, dispatch.Output{Lines: []string{"0"}})

	typeText(m, "be")
	press(m, tea.KeyMsg{Type: tea.KeyDown})
	press(m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, []string{"BEGIN"}, sender.sent())
}

func TestModel_EscDismissesSuggestions(t *testing.T) {
	m, _ := newTestModel(t, dispatch.Output{})

	typeText(m, "s")
	require.True(t, m.suggestions.visible())
	press(m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.suggestions.visible())
	assert.Equal(t, "s", m.Input())
}

func TestModel_HistoryRecall(t *testing.T) {
	m, _ := newTestModel(t, dispatch.Output{}, console.WithHistory([]string{"SET a 1", "GET a"}))

	press(m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, "GET a", m.Input())
	press(m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, "SET a 1", m.Input())
	press(m, tea.KeyMsg{Type: tea.KeyDown})
	press(m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, "", m.Input())
}

func TestModel_ScrollsToNewestEntry(t *testing.T) {
	lines := make([]string, 100)
	for i := range lines {
		lines[i] = fmt.Sprintf("line %d", i)
	}
	m, _ := newTestModel(t, dispatch.Output{Lines: lines})

	typeText(m, "FIND x")
	press(m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.True(t, m.viewport.AtBottom())
	assert.Contains(t, m.viewport.View(), "line 99")
}

func TestModel_WideOutputStaysVisible(t *testing.T) {
	lines := make([]string, 40)
	for i := range lines {
		lines[i] = strings.Repeat("x", 250)
	}
	lines = append(lines, "LAST")
	m, _ := newTestModel(t, dispatch.Output{Lines: lines})

	typeText(m, "GET big")
	press(m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.True(t, m.viewport.AtBottom())
	view := m.viewport.View()
	assert.Contains(t, view, "LAST")
	for _, row := range strings.Split(view, "\n") {
		assert.LessOrEqual(t, lipgloss.Width(row), 100)
	}
	assert.Equal(t, 40*250, strings.Count(strings.Join(m.Lines(), ""), "x"), "wrapping keeps every character")
}

func TestModel_ResizeRewrapsTranscript(t *testing.T) {
	m, _ := newTestModel(t, dispatch.Output{Lines: []string{strings.Repeat("y", 150) + "END"}})

	typeText(m, "GET y")
	press(m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Len(t, m.Lines(), 2)
	assert.Len(t, strings.Split(m.Lines()[1], "\n"), 2)

	m.Update(tea.WindowSizeMsg{Width: 50, Height: 30})
	assert.Len(t, strings.Split(m.Lines()[1], "\n"), 4)
	assert.True(t, m.viewport.AtBottom())
	assert.Contains(t, m.viewport.View(), "END")
}

func TestModel_NewestEntryVisibleWithSuggestions(t *testing.T) {
	lines := make([]string, 100)
	for i := range lines {
		lines[i] = fmt.Sprintf("line %d", i)
	}
	m, _ := newTestModel(t, dispatch.Output{Lines: lines})

	typeText(m, "FIND x")
	press(m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Contains(t, m.viewport.View(), "line 99")

	typeText(m, "c")
	require.True(t, m.suggestions.visible())
	assert.True(t, m.viewport.AtBottom())
	assert.Contains(t, m.viewport.View(), "line 99")

	press(m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.True(t, m.viewport.AtBottom())
	assert.Contains(t, m.viewport.View(), "line 99")
}

func TestModel_ScrolledBackStaysPut(t *testing.T) {
	lines := make([]string, 100)
	for i := range lines {
		lines[i] = fmt.Sprintf("line %d", i)
	}
	m, _ := newTestModel(t, dispatch.Output{Lines: lines})

	typeText(m, "FIND x")
	press(m, tea.KeyMsg{Type: tea.KeyEnter})
	press(m, tea.KeyMsg{Type: tea.KeyPgUp})
	offset := m.viewport.YOffset
	require.False(t, m.viewport.AtBottom())

	typeText(m, "c")
	assert.Equal(t, offset, m.viewport.YOffset)
}

func TestWrapText(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		width int
		want  []string
	}{
		{"fits", "abc", 5, []string{"abc"}},
		{"exact", "abcde", 5, []string{"abcde"}},
		{"hard wrap", "abcdefg", 3, []string{"abc", "def", "g"}},
		{"keeps spaces", "ab  cd", 3, []string{"ab ", " cd"}},
		{"line breaks", "ab\ncdef", 3, []string{"ab", "cde", "f"}},
		{"wide runes", "日本語", 4, []string{"日本", "語"}},
		{"tabs expand", "a\tb", 3, []string{"a  ", "  b"}},
		{"empty", "", 3, []string{""}},
		{"no width", "abcdef", 0, []string{"abcdef"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, wrapText(tt.text, tt.width))
		})
	}
}

func TestModel_PendingStatus(t *testing.T) {
	m, _ := newTestModel(t, dispatch.Output{})

	typeText(m, "GET a")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.True(t, m.console.Pending())
	assert.Contains(t, m.View(), "waiting")

	m.Update(ResponseMsg{Command: "GET a", Result: dispatch.Output{Lines: []string{"1"}}})
	assert.False(t, m.console.Pending())
	assert.NotContains(t, m.View(), "waiting")
}

func TestModel_Quit(t *testing.T) {
	m, _ := newTestModel(t, dispatch.Output{})

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.Contains(t, drain(cmd), tea.QuitMsg{})
}

func TestModel_ViewBeforeResize(t *testing.T) {
	m := New(console.New(), &fakeSender{}, Options{Theme: styles.NewTheme("dark")})
	assert.True(t, strings.HasPrefix(m.View(), "Starting"))
}

func TestSuggestionList_WindowFollowsHighlight(t *testing.T) {
	s := newSuggestionList(styles.NewTheme("dark"), 3)
	s.set([]string{"A", "B", "C", "D", "E"}, 4)

	start, end := s.window()
	assert.Equal(t, 2, start)
	assert.Equal(t, 5, end)
	assert.Equal(t, 5, s.height())

	s.clear()
	assert.Zero(t, s.height())
	assert.Empty(t, s.View())
}
