// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package suggest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVocabulary_Compute(t *testing.T) {
	vocab := DefaultVocabulary()

	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"prefix", "SE", []string{"SET"}},
		{"empty", "", nil},
		{"whitespace only", "   ", nil},
		{"no match", "Z", nil},
		{"lower case", "co", []string{"COUNTS", "COMMIT"}},
		{"declared order not alphabetical", "E", []string{"END"}},
		{"trimmed", "  ro ", []string{"ROLLBACK"}},
		{"full keyword", "get", []string{"GET"}},
		{"argument typed", "SET a", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, vocab.Compute(tt.input))
		})
	}
}

func TestNewVocabulary_NormalizesKeywords(t *testing.T) {
	vocab := NewVocabulary([]string{"get", " SET ", "", "GET", "find"})
	assert.Equal(t, []string{"GET", "SET", "FIND"}, vocab.Keywords())
	assert.Equal(t, 3, vocab.Len())
}

func TestEngine_SingleMatchCyclesToZero(t *testing.T) {
	e := NewEngine(DefaultVocabulary())
	require.Equal(t, []string{"GET"}, e.Update("g"))
	assert.Equal(t, NoHighlight, e.Highlight())

	e.HighlightNext()
	assert.Equal(t, 0, e.Highlight())
	e.HighlightNext()
	assert.Equal(t, 0, e.Highlight())
	e.HighlightPrevious()
	assert.Equal(t, 0, e.Highlight())
}

func TestEngine_CyclicNavigation(t *testing.T) {
	e := NewEngine(DefaultVocabulary())
	require.Equal(t, []string{"COUNTS", "COMMIT"}, e.Update("C"))

	// From "none", previous wraps to the last entry.
	e.HighlightPrevious()
	assert.Equal(t, 1, e.Highlight())
	e.HighlightNext()
	assert.Equal(t, 0, e.Highlight())
	e.HighlightNext()
	assert.Equal(t, 1, e.Highlight())
	e.HighlightNext()
	assert.Equal(t, 0, e.Highlight())

	got, ok := e.Highlighted()
	require.True(t, ok)
	assert.Equal(t, "COUNTS", got)
}

func TestEngine_UpdateResetsHighlight(t *testing.T) {
	e := NewEngine(DefaultVocabulary())
	e.Update("C")
	e.HighlightNext()
	require.Equal(t, 0, e.Highlight())

	e.Update("CO")
	assert.Equal(t, NoHighlight, e.Highlight())

	e.Update("")
	assert.False(t, e.Visible())
	assert.Equal(t, NoHighlight, e.Highlight())
}

func TestEngine_NavigationOnEmptyIsNoOp(t *testing.T) {
	e := NewEngine(DefaultVocabulary())
	e.HighlightNext()
	e.HighlightPrevious()
	assert.Equal(t, NoHighlight, e.Highlight())
	_, ok := e.Highlighted()
	assert.False(t, ok)
}

func TestEngine_SelectAppendsSeparatorAndHides(t *testing.T) {
	e := NewEngine(DefaultVocabulary())
	e.Update("un")

	got, ok := e.Select(0)
	require.True(t, ok)
	assert.Equal(t, "UNSET ", got)
	assert.False(t, e.Visible())
	assert.Equal(t, NoHighlight, e.Highlight())

	_, ok = e.Select(0)
	assert.False(t, ok)
}

func TestEngine_HideIsIdempotent(t *testing.T) {
	e := NewEngine(DefaultVocabulary())
	e.Update("S")
	e.HighlightNext()

	for i := 0; i < 2; i++ {
		e.Hide()
		assert.Empty(t, e.Matches())
		assert.Equal(t, NoHighlight, e.Highlight())
	}
}
