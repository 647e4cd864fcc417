// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package dispatch

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// =============================================================================
// RESULT
// =============================================================================

// Result is the outcome of one command round trip. It is exactly one of
// Output, AppError or TransportFailure; callers switch on the concrete type.
type Result interface {
	isResult()
}

// Output carries the interpreter's result lines, in order, verbatim.
type Output struct {
	Lines []string
}

// AppError is an error reported by the interpreter itself.
type AppError struct {
	Message string
}

// TransportFailure means no classifiable response was obtained: the request
// failed, or the body could not be decoded as exactly one of output/error.
type TransportFailure struct {
	Cause error
}

func (Output) isResult()           {}
func (AppError) isResult()         {}
func (TransportFailure) isResult() {}

// Error implements error so a TransportFailure can be logged or wrapped.
func (f TransportFailure) Error() string {
	if f.Cause == nil {
		return "transport failure"
	}
	return f.Cause.Error()
}

// Unwrap returns the underlying cause.
func (f TransportFailure) Unwrap() error {
	return f.Cause
}

// =============================================================================
// ERROR TYPES
// =============================================================================

// ErrorKind categorizes transport errors for handling.
type ErrorKind int

const (
	ErrKindUnknown ErrorKind = iota
	ErrKindUnreachable
	ErrKindTimeout
	ErrKindMalformed
	ErrKindStatus
	ErrKindRequest
)

// Error is a transport-level dispatch error.
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error of the same kind, so wrapped errors compare equal
// to the sentinels below.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinel errors for easy checking with errors.Is.
var (
	ErrUnreachable       = &Error{Kind: ErrKindUnreachable, Message: "interpreter unreachable"}
	ErrTimeout           = &Error{Kind: ErrKindTimeout, Message: "request timed out"}
	ErrMalformedResponse = &Error{Kind: ErrKindMalformed, Message: "malformed response"}
	ErrUnexpectedStatus  = &Error{Kind: ErrKindStatus, Message: "unexpected status"}
)

// =============================================================================
// RESPONSE DECODING
// =============================================================================

// Decode classifies a response body. A body must hold exactly one of an
// "output" array or an "error" string; anything else is malformed.
// Non-string output elements are rendered as their JSON text.
func Decode(body []byte) (Result, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &Error{Kind: ErrKindMalformed, Message: "malformed response", Cause: err}
	}

	outRaw, hasOutput := present(raw, "output")
	errRaw, hasError := present(raw, "error")

	switch {
	case hasOutput && hasError:
		return nil, &Error{Kind: ErrKindMalformed, Message: "malformed response: both output and error present"}

	case hasOutput:
		var items []json.RawMessage
		if err := json.Unmarshal(outRaw, &items); err != nil {
			return nil, &Error{Kind: ErrKindMalformed, Message: "malformed response: output is not a list", Cause: err}
		}
		lines := make([]string, 0, len(items))
		for _, item := range items {
			lines = append(lines, lineText(item))
		}
		return Output{Lines: lines}, nil

	case hasError:
		var msg string
		if err := json.Unmarshal(errRaw, &msg); err != nil {
			return nil, &Error{Kind: ErrKindMalformed, Message: "malformed response: error is not a string", Cause: err}
		}
		return AppError{Message: msg}, nil

	default:
		return nil, &Error{Kind: ErrKindMalformed, Message: "malformed response: neither output nor error present"}
	}
}

// present returns the value under key unless it is missing or JSON null.
func present(raw map[string]json.RawMessage, key string) (json.RawMessage, bool) {
	v, ok := raw[key]
	if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
		return nil, false
	}
	return v, true
}

func lineText(item json.RawMessage) string {
	trimmed := bytes.TrimSpace(item)
	if bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		return s
	}
	return string(trimmed)
}

// Describe returns a short human-readable form of a result for logs.
func Describe(r Result) string {
	switch r := r.(type) {
	case Output:
		return fmt.Sprintf("output(%d lines)", len(r.Lines))
	case AppError:
		return "error(" + r.Message + ")"
	case TransportFailure:
		return "transport(" + r.Error() + ")"
	default:
		return "unknown"
	}
}
