// Package domainerrors provides coded errors for the service boundary.
// Stores return sentinel errors (pkg/platform/sentinel); services translate
// them into coded errors here so handlers can map them to HTTP statuses
// without inspecting infrastructure details.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies an error for boundary translation.
type Code string

const (
	// CodeBadRequest covers malformed payloads and missing required fields.
	CodeBadRequest Code = "bad_request"

	// CodeInvalidInput covers well-formed payloads carrying invalid values
	// (bad IDs, unknown enum members, oversized uploads).
	CodeInvalidInput Code = "invalid_input"

	// CodeDuplicate signals the phone is already registered and not rejected.
	// Surfaced distinctly so callers can tell the professional to contact
	// support instead of retrying.
	CodeDuplicate Code = "duplicate"

	// CodeInvalidTransition signals a status change not reachable from the
	// current lifecycle state.
	CodeInvalidTransition Code = "invalid_transition"

	// CodeNotFound signals the referenced registration or provider is absent.
	CodeNotFound Code = "not_found"

	// CodeUnauthorized signals missing or invalid moderator credentials.
	CodeUnauthorized Code = "unauthorized"

	// CodeRateLimited signals the client address exceeded intake policy.
	CodeRateLimited Code = "rate_limited"

	// CodeTimeout signals a caller-enforced deadline elapsed.
	CodeTimeout Code = "timeout"

	// CodeUnavailable signals a transient infrastructure failure; safe to retry.
	CodeUnavailable Code = "unavailable"

	// CodeInternal is the catch-all for unexpected failures. Handlers never
	// leak its description to clients.
	CodeInternal Code = "internal_error"
)

// Error carries a code, a human-readable message, and an optional cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a coded error with no underlying cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error, preserving the
// cause for errors.Is/As chains.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// Is is an alias for HasCode kept for call-site readability.
func Is(err error, code Code) bool { return HasCode(err, code) }

// CodeOf extracts the code from err, defaulting to CodeInternal for
// uncoded errors.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf extracts the message from err, or its Error() text for
// uncoded errors.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return err.Error()
}

// ToHTTPStatus maps a code to the HTTP status handlers should emit.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeInvalidInput:
		return http.StatusBadRequest
	case CodeDuplicate:
		return http.StatusConflict
	case CodeInvalidTransition:
		return http.StatusConflict
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeTimeout:
		return http.StatusGatewayTimeout
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
