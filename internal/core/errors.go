// Centralized error kinds for the core services.
//
// Services return *Error values tagged with a Kind; the web adapter maps
// kinds to HTTP statuses. Lower layers are wrapped with %w so errors.Is /
// errors.As still reach pgx sentinels when needed.
package core

import (
	"errors"
	"fmt"
)

type ErrorKind int

const (
	// KindNotFound: a referenced entity id does not resolve to a live record.
	KindNotFound ErrorKind = iota + 1
	// KindConflict: uniqueness violation (active invoice number, active OR
	// number, name scoped to a client).
	KindConflict
	// KindInvalid: missing/malformed field, invoice-number mismatch,
	// unrecognized payment mode, bad pagination.
	KindInvalid
	// KindUnauthorized: missing or invalid bearer token.
	KindUnauthorized
	// KindForbidden: the caller's role lacks permission for the action.
	KindForbidden
	// KindInternal: unexpected record-store or cache failure.
	KindInternal
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindInvalid:
		return "invalid"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	default:
		return "internal"
	}
}

// Error is the tagged error type carried across the service boundary.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func NotFoundf(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Conflictf(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func Invalidf(format string, args ...any) *Error {
	return &Error{Kind: KindInvalid, Message: fmt.Sprintf(format, args...)}
}

func Unauthorizedf(format string, args ...any) *Error {
	return &Error{Kind: KindUnauthorized, Message: fmt.Sprintf(format, args...)}
}

func Forbiddenf(format string, args ...any) *Error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

// Internal wraps an unexpected lower-layer failure.
func Internal(msg string, err error) *Error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

// KindOf returns the kind of err, or KindInternal for untagged errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }
func IsConflict(err error) bool { return KindOf(err) == KindConflict }
func IsInvalid(err error) bool  { return KindOf(err) == KindInvalid }
