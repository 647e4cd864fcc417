// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package transcript holds the append-only record of what the console has
// shown: echoed commands, result lines and error lines.
package transcript

// Kind identifies the type of a transcript entry.
type Kind int

const (
	KindCommand Kind = iota // Echoed command
	KindResult              // One line of interpreter output
	KindError               // Application or transport error
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindCommand:
		return "command"
	case KindResult:
		return "result"
	case KindError:
		return "error"
	default:
		return "unknown"
	}
}

// CommandPrompt prefixes echoed commands when rendered.
const CommandPrompt = "> "

// ErrorPrefix prefixes every error line.
const ErrorPrefix = "Error: "

// Entry is one immutable line of the transcript.
type Entry struct {
	Kind Kind
	Text string
}

// Command returns an echoed command entry.
func Command(text string) Entry { return Entry{Kind: KindCommand, Text: text} }

// ResultLine returns a verbatim output line entry.
func ResultLine(text string) Entry { return Entry{Kind: KindResult, Text: text} }

// ErrorLine returns an error entry; message is prefixed with ErrorPrefix.
func ErrorLine(message string) Entry { return Entry{Kind: KindError, Text: ErrorPrefix + message} }

// Format renders an entry as plain text.
func Format(e Entry) string {
	if e.Kind == KindCommand {
		return CommandPrompt + e.Text
	}
	return e.Text
}

// =============================================================================
// LOG
// =============================================================================

// Listener is called after each append with the new entry and its index.
// Renderers use it to draw the entry and scroll to it in the same frame.
type Listener func(index int, e Entry)

// Log is the ordered transcript. Entries are never removed or reordered.
type Log struct {
	entries  []Entry
	listener Listener
}

// NewLog creates an empty transcript.
func NewLog() *Log {
	return &Log{}
}

// OnAppend installs the append listener, replacing any previous one.
func (l *Log) OnAppend(fn Listener) {
	l.listener = fn
}

// Append adds entries in order.
func (l *Log) Append(entries ...Entry) {
	for _, e := range entries {
		l.entries = append(l.entries, e)
		if l.listener != nil {
			l.listener(len(l.entries)-1, e)
		}
	}
}

// Len returns the number of entries.
func (l *Log) Len() int {
	return len(l.entries)
}

// Entries returns a copy of all entries, oldest first.
func (l *Log) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Since returns a copy of the entries from index i on.
func (l *Log) Since(i int) []Entry {
	if i < 0 {
		i = 0
	}
	if i >= len(l.entries) {
		return nil
	}
	out := make([]Entry, len(l.entries)-i)
	copy(out, l.entries[i:])
	return out
}
