// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package console

// Key is a key press the console reacts to. Keys the console does not
// handle are reported as Other and left to the input field.
type Key int

const (
	KeyOther Key = iota
	KeyUp
	KeyDown
	KeyEnter
)

func (k Key) String() string {
	switch k {
	case KeyUp:
		return "up"
	case KeyDown:
		return "down"
	case KeyEnter:
		return "enter"
	default:
		return "other"
	}
}

// =============================================================================
// EFFECTS
// =============================================================================

// Effect is an instruction for the front end produced by a console event.
// It is exactly one of the types below.
type Effect interface {
	isEffect()
}

// NoOp means the event changed nothing visible.
type NoOp struct{}

// SetFieldValue replaces the input field's text.
type SetFieldValue struct {
	Value string
}

// ShowSuggestions displays the match list with the given highlight, which
// is -1 when nothing is highlighted.
type ShowSuggestions struct {
	Items     []string
	Highlight int
}

// HideSuggestions clears the suggestion list.
type HideSuggestions struct{}

// Submit asks the front end to dispatch Command and report the outcome
// through Console.Resolve.
type Submit struct {
	Command string
}

func (NoOp) isEffect()            {}
func (SetFieldValue) isEffect()   {}
func (ShowSuggestions) isEffect() {}
func (HideSuggestions) isEffect() {}
func (Submit) isEffect()          {}

// State is the input controller's coarse state.
type State int

const (
	StateIdle State = iota
	StateSuggesting
	StateRecalling
)

func (s State) String() string {
	switch s {
	case StateSuggesting:
		return "suggesting"
	case StateRecalling:
		return "recalling"
	default:
		return "idle"
	}
}
