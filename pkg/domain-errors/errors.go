// Package domainerrors provides the coded errors services return across
// the engine boundary. Stores return sentinel errors (pkg/platform/sentinel);
// services translate those facts into one of the codes below so transports
// can map them to responses without inspecting store internals.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies an error for callers and for HTTP translation.
type Code string

const (
	// CodeBadRequest marks malformed or missing input, detected before any
	// store access (empty criteria set, limit out of range, oversized field).
	CodeBadRequest Code = "bad_request"
	// CodeNotFound marks a well-formed lookup whose subject does not exist.
	// Empty search results are not errors and never carry this code.
	CodeNotFound Code = "not_found"
	// CodeConflict marks a request that contradicts current state.
	CodeConflict Code = "conflict"
	// CodeUnavailable marks connectivity/timeout/permission failures of a
	// backing dependency. Distinct from not_found by design: callers surface
	// "service temporarily unavailable", never "no such patient".
	CodeUnavailable Code = "unavailable"
	// CodeInternal marks unexpected failures. The message is logged but
	// never returned to clients.
	CodeInternal Code = "internal_error"
)

// Error is a coded domain error. Message is safe to show for every code
// except CodeInternal.
type Error struct {
	Code    Code
	Message string
	err     error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.err
}

// New builds a coded error with no underlying cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf builds a coded error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and caller-safe message to an underlying error.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, err: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// Is is a readability alias for HasCode at service call sites.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// HTTPStatus maps a code to its transport status. Unknown codes are treated
// as internal.
func HTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
