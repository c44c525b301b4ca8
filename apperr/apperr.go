// Package apperr implements the error taxonomy shared by every component
// of the job lifecycle subsystem: FRAMING, PARSE, AUTH, USER_CREATION,
// NOT_FOUND, INVALID_REQUEST, DB_ERROR, KDF_ERROR, HANDLER_ERROR and
// INTERNAL.
//
// Components raise a *apperr.Error built from one of those kinds, wrapping
// the underlying cause where one exists (a driver error, an I/O error).
// Callers at a protocol boundary (the Client I/O Server translating to an
// error frame, the Management Server translating to a JSON status string)
// classify an error with KindOf and never need to inspect the wrapped
// cause.
package apperr

import (
	"errors"
	"fmt"
)

// Kind names one of the documented error categories.
type Kind string

const (
	// Framing covers a malformed length prefix, a short read, or a
	// socket closed mid-frame.
	Framing Kind = "FRAMING"

	// Parse covers MetaData or Container payloads that failed to parse
	// or decompress.
	Parse Kind = "PARSE"

	// Auth covers an unknown user, a wrong password, or a blocked user.
	Auth Kind = "AUTH"

	// UserCreation covers a duplicate user name on CREATE_USER.
	UserCreation Kind = "USER_CREATION"

	// NotFound covers a job or user not visible to the caller.
	NotFound Kind = "NOT_FOUND"

	// InvalidRequest covers a well-formed request that is semantically
	// rejected, such as RESULT for a job with no response yet.
	InvalidRequest Kind = "INVALID_REQUEST"

	// DBError covers any persistence failure.
	DBError Kind = "DB_ERROR"

	// KDFError covers a password hashing library failure.
	KDFError Kind = "KDF_ERROR"

	// HandlerError covers a worker that exited non-zero, a timeout, or a
	// memory cap violation.
	HandlerError Kind = "HANDLER_ERROR"

	// Internal covers everything else.
	Internal Kind = "INTERNAL"
)

// Error is the concrete error type raised across package boundaries in
// this repo. Its Kind field is the only part of it that most callers need
// to inspect; Err carries the underlying cause for logging.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the wrapped cause to errors.Is / errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// New builds an *Error with no wrapped cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an *Error around an existing cause. err must be non-nil;
// call sites check the fallible call's result before wrapping.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf classifies err. If err is nil, KindOf returns the empty Kind. If
// err (or something it wraps) is an *Error, its Kind is returned.
// Otherwise KindOf returns Internal, since an unclassified error crossing
// a protocol boundary must still be reported as something.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Is reports whether err carries the given Kind, unwrapping as needed.
// Kind is a plain string type, not an error value, so errors.Is does not
// apply; this helper is the equivalent comparison.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
