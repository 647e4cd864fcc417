// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package history provides the command history buffer and its optional
// on-disk journal.
//
// The Buffer is an ordered log of submitted commands (oldest first) with a
// recall cursor. The cursor always points at a valid entry or at Len(),
// which means "not recalling".
package history

// =============================================================================
// BUFFER
// =============================================================================

// Buffer records submitted commands and recalls them with Previous/Next
// navigation. It is not safe for concurrent use; the console drives it from
// a single event loop.
type Buffer struct {
	entries []string
	cursor  int
}

// NewBuffer creates an empty history buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// LoadBuffer creates a buffer seeded with previously recorded commands,
// oldest first. The cursor starts past the newest entry.
func LoadBuffer(entries []string) *Buffer {
	b := &Buffer{entries: make([]string, len(entries))}
	copy(b.entries, entries)
	b.cursor = len(b.entries)
	return b
}

// Record appends a command and resets the cursor past the newest entry.
// Consecutive duplicates are kept.
func (b *Buffer) Record(command string) {
	b.entries = append(b.entries, command)
	b.cursor = len(b.entries)
}

// RecallPrevious moves the cursor one entry back and returns that entry.
// At the oldest entry it keeps returning the oldest entry. The second
// return value is false when the buffer is empty.
func (b *Buffer) RecallPrevious() (string, bool) {
	if len(b.entries) == 0 {
		return "", false
	}
	if b.cursor > 0 {
		b.cursor--
	}
	return b.entries[b.cursor], true
}

// RecallNext moves the cursor one entry forward and returns that entry.
// Moving past the newest entry parks the cursor at Len() and returns the
// empty string, which clears the field. The second return value is false
// when the buffer is empty.
func (b *Buffer) RecallNext() (string, bool) {
	if len(b.entries) == 0 {
		return "", false
	}
	if b.cursor < len(b.entries)-1 {
		b.cursor++
		return b.entries[b.cursor], true
	}
	b.cursor = len(b.entries)
	return "", true
}

// Recalling reports whether the cursor points at an entry.
func (b *Buffer) Recalling() bool {
	return b.cursor < len(b.entries)
}

// Cursor returns the recall cursor, in [0, Len()].
func (b *Buffer) Cursor() int {
	return b.cursor
}

// Len returns the number of recorded commands.
func (b *Buffer) Len() int {
	return len(b.entries)
}

// Entries returns a copy of the recorded commands, oldest first.
func (b *Buffer) Entries() []string {
	out := make([]string, len(b.entries))
	copy(out, b.entries)
	return out
}
