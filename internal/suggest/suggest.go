// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package suggest provides keyword autocomplete for the console input.
//
// Matching is a case-insensitive prefix test of the trimmed input against a
// fixed Vocabulary. Results keep the vocabulary's declared order.
package suggest

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Separator is appended to a selected keyword so an argument can be typed
// right away.
const Separator = " "

// DefaultKeywords is the command vocabulary of the key-value interpreter.
var DefaultKeywords = []string{"SET", "GET", "UNSET", "COUNTS", "FIND", "BEGIN", "ROLLBACK", "COMMIT", "END"}

var upper = cases.Upper(language.Und)

// =============================================================================
// VOCABULARY
// =============================================================================

// Vocabulary is an immutable, ordered set of command keywords.
type Vocabulary struct {
	keywords []string
}

// NewVocabulary builds a vocabulary. Keywords are upper-cased; blanks and
// repeats are dropped, first occurrence wins.
func NewVocabulary(keywords []string) Vocabulary {
	seen := make(map[string]bool, len(keywords))
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = upper.String(strings.TrimSpace(kw))
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		out = append(out, kw)
	}
	return Vocabulary{keywords: out}
}

// DefaultVocabulary returns the vocabulary built from DefaultKeywords.
func DefaultVocabulary() Vocabulary {
	return NewVocabulary(DefaultKeywords)
}

// Keywords returns a copy of the keywords in declared order.
func (v Vocabulary) Keywords() []string {
	out := make([]string, len(v.keywords))
	copy(out, v.keywords)
	return out
}

// Len returns the number of keywords.
func (v Vocabulary) Len() int {
	return len(v.keywords)
}

// Compute returns every keyword that starts with the upper-cased, trimmed
// input. Empty input yields no matches.
func (v Vocabulary) Compute(input string) []string {
	text := upper.String(strings.TrimSpace(input))
	if text == "" {
		return nil
	}

	var matches []string
	for _, kw := range v.keywords {
		if strings.HasPrefix(kw, text) {
			matches = append(matches, kw)
		}
	}
	return matches
}

// =============================================================================
// ENGINE
// =============================================================================

// NoHighlight is the highlight cursor value when no suggestion is selected.
const NoHighlight = -1

// Engine holds the current match list and highlight cursor.
type Engine struct {
	vocab     Vocabulary
	matches   []string
	highlight int
}

// NewEngine creates an engine over vocab with nothing suggested.
func NewEngine(vocab Vocabulary) *Engine {
	return &Engine{vocab: vocab, highlight: NoHighlight}
}

// Vocabulary returns the engine's vocabulary.
func (e *Engine) Vocabulary() Vocabulary {
	return e.vocab
}

// Update recomputes the matches for input and clears the highlight.
func (e *Engine) Update(input string) []string {
	e.matches = e.vocab.Compute(input)
	e.highlight = NoHighlight
	return e.Matches()
}

// Matches returns a copy of the current match list.
func (e *Engine) Matches() []string {
	if len(e.matches) == 0 {
		return nil
	}
	out := make([]string, len(e.matches))
	copy(out, e.matches)
	return out
}

// Visible reports whether there is anything to suggest.
func (e *Engine) Visible() bool {
	return len(e.matches) > 0
}

// Highlight returns the highlight cursor, NoHighlight when none.
func (e *Engine) Highlight() int {
	return e.highlight
}

// Highlighted returns the highlighted keyword, if any.
func (e *Engine) Highlighted() (string, bool) {
	if e.highlight < 0 || e.highlight >= len(e.matches) {
		return "", false
	}
	return e.matches[e.highlight], true
}

// HighlightNext moves the highlight down, wrapping to the first match.
func (e *Engine) HighlightNext() {
	if len(e.matches) == 0 {
		return
	}
	if e.highlight < len(e.matches)-1 {
		e.highlight++
	} else {
		e.highlight = 0
	}
}

// HighlightPrevious moves the highlight up, wrapping to the last match.
func (e *Engine) HighlightPrevious() {
	if len(e.matches) == 0 {
		return
	}
	if e.highlight > 0 {
		e.highlight--
	} else {
		e.highlight = len(e.matches) - 1
	}
}

// Select returns the keyword at index i followed by Separator and hides
// the list. ok is false for an out-of-range index.
func (e *Engine) Select(i int) (string, bool) {
	if i < 0 || i >= len(e.matches) {
		return "", false
	}
	value := e.matches[i] + Separator
	e.Hide()
	return value, true
}

// Hide clears the match list and highlight. Idempotent.
func (e *Engine) Hide() {
	e.matches = nil
	e.highlight = NoHighlight
}
