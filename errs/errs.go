// Package errs defines the closed error taxonomy surfaced to callers of
// this library: InvalidArgument, UnsupportedEncoding, InvalidQuery,
// Cancelled, ProviderFailure. Every entry point either returns a result or
// fails with one of these.
package errs

import (
	"context"
	"errors"
	"fmt"
)

// Kind identifies which of the five taxa an error belongs to.
type Kind string

const (
	InvalidArgument     Kind = "invalid_argument"
	UnsupportedEncoding Kind = "unsupported_encoding"
	InvalidQuery        Kind = "invalid_query"
	Cancelled           Kind = "cancelled"
	ProviderFailure     Kind = "provider_failure"
)

// Error wraps an underlying cause (if any) with a Kind for dispatch.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// New constructs an Error with no wrapped cause.
func New(kind Kind, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

// Newf constructs an Error with a formatted message.
func Newf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches kind to an externally originating error: provider/tokenizer
// failures propagate unchanged, wrapped in ProviderFailure with the
// original cause attached.
func Wrap(kind Kind, msg string, cause error) error {
	if cause == nil {
		return New(kind, msg)
	}
	return &Error{Kind: kind, Msg: msg, Err: cause}
}

// Is reports whether err (or something it wraps) is an *Error of kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// FromContext converts a context's cancellation into a Cancelled error, or
// returns nil if ctx is not done.
func FromContext(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return Wrap(Cancelled, "operation cancelled", err)
	}
	return nil
}
