// Package errors provides the typed errors returned by playback commands.
// The command surface maps kinds to user-facing messages; the kinds are the
// contract, not the message text.
package errors

import (
	"errors"
	"fmt"
)

// Kind categorizes an error for the caller.
type Kind string

const (
	// KindValidation indicates malformed user input (bad seek position).
	KindValidation Kind = "validation"

	// KindPrecondition indicates the command is valid but the player or
	// caller is in the wrong state (not in voice, nothing playing).
	KindPrecondition Kind = "precondition"

	// KindNotFound indicates a lookup produced nothing (no search results,
	// no autoplay candidate).
	KindNotFound Kind = "not_found"

	// KindNotSeekable indicates the current track rejects seeking.
	KindNotSeekable Kind = "not_seekable"

	// KindExternal indicates the audio node or search provider failed or
	// timed out.
	KindExternal Kind = "external"
)

// Error is an application error with a kind and optional metadata.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
	Meta    map[string]any
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// WithMeta adds metadata to the error (builder pattern).
func (e *Error) WithMeta(key string, value any) *Error {
	if e.Meta == nil {
		e.Meta = make(map[string]any)
	}
	e.Meta[key] = value
	return e
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Validation(message string) *Error {
	return New(KindValidation, message)
}

func Precondition(message string) *Error {
	return New(KindPrecondition, message)
}

func NotFound(message string) *Error {
	return New(KindNotFound, message)
}

func NotSeekable(message string) *Error {
	return New(KindNotSeekable, message)
}

func External(message string, cause error) *Error {
	return &Error{Kind: KindExternal, Message: message, Cause: cause}
}

// Wrapf wraps err with a formatted message, keeping the kind if err already
// carries one and defaulting to KindExternal otherwise.
func Wrapf(err error, format string, args ...any) *Error {
	kind := KindExternal
	var appErr *Error
	if errors.As(err, &appErr) {
		kind = appErr.Kind
	}
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: err}
}

// KindOf returns the kind of err, or KindExternal for unknown errors.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindExternal
}

// As extracts an *Error from err's chain.
func As(err error, target **Error) bool {
	return errors.As(err, target)
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == kind
}
