// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transcript

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLog_AppendKeepsOrderAndNotifies(t *testing.T) {
	l := NewLog()

	var seen []int
	l.OnAppend(func(i int, e Entry) {
		seen = append(seen, i)
		assert.Equal(t, l.Len()-1, i, "listener must run after the entry is stored")
	})

	l.Append(Command("SET a 1"))
	l.Append(ResultLine("SET a 1 OK"), ResultLine(""))

	assert.Equal(t, []Entry{
		{Kind: KindCommand, Text: "SET a 1"},
		{Kind: KindResult, Text: "SET a 1 OK"},
		{Kind: KindResult, Text: ""},
	}, l.Entries())
	assert.Equal(t, []int{0, 1, 2}, seen)
}

func TestLog_EntriesIsACopy(t *testing.T) {
	l := NewLog()
	l.Append(Command("GET a"))

	got := l.Entries()
	got[0].Text = "changed"
	assert.Equal(t, "GET a", l.Entries()[0].Text)
}

func TestLog_Since(t *testing.T) {
	l := NewLog()
	l.Append(Command("GET a"), ResultLine("1"))

	assert.Equal(t, []Entry{ResultLine("1")}, l.Since(1))
	assert.Nil(t, l.Since(2))
	assert.Len(t, l.Since(-3), 2)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "> GET a", Format(Command("GET a")))
	assert.Equal(t, "NULL", Format(ResultLine("NULL")))
	assert.Equal(t, "Error: no such key", Format(ErrorLine("no such key")))
	assert.Equal(t, "error", KindError.String())
}
