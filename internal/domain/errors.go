package domain

import (
	"errors"
	"fmt"
)

// ─── Error Codes ────────────────────────────────────────────────────────────

// Code is a machine-readable error code. Every error leaving the services
// carries one so the API layer can map it to a transport status without
// string matching.
type Code string

const (
	// CodeValidation covers malformed input: cost out of range, both or
	// neither of card_id and custom_title set, unknown enum values.
	CodeValidation Code = "VALIDATION"

	// CodeUnauthorizedActor means the acting user is not the party the
	// attempted transition belongs to.
	CodeUnauthorizedActor Code = "UNAUTHORIZED_ACTOR"

	// CodeConflict means the proposal's status no longer matches the
	// expected pre-state (e.g. double-accept, edit after response).
	CodeConflict Code = "CONFLICT"

	// CodeNotFound covers unknown proposal/user/card/period ids.
	CodeNotFound Code = "NOT_FOUND"

	// CodeDependencyUnavailable means a collaborator lookup failed (e.g.
	// the card catalog during proposal creation).
	CodeDependencyUnavailable Code = "DEPENDENCY_UNAVAILABLE"
)

// ─── Error Type ─────────────────────────────────────────────────────────────

// Error is the domain error type. Services raise it; nothing inside the core
// retries on it.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// NewError creates a domain error with a code and message.
func NewError(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// NewErrorf creates a domain error with a formatted message.
func NewErrorf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WrapError creates a domain error that wraps an underlying cause.
func WrapError(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// CodeOf extracts the code anywhere in err's chain, or "" when err carries
// no domain error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
