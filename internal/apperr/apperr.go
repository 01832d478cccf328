// Package apperr defines the operational error taxonomy shared by the
// service and handler layers. Operational errors are expected, carry a
// user-facing status and message, and map directly to HTTP responses.
// Anything that is not an *Error is treated as a programmer error and
// masked from the caller.
package apperr

import (
	"errors"
	"net/http"
)

// Error is an operational, user-facing error.
type Error struct {
	Status  int
	Code    string
	Message string
	// Err is the wrapped cause, if any. Never shown to callers.
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches two operational errors by code, so sentinel instances can
// be compared with errors.Is regardless of wrapped causes.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

// Validation is a 400-class error for malformed or missing input.
func Validation(message string) *Error {
	return &Error{Status: http.StatusBadRequest, Code: "VALIDATION_ERROR", Message: message}
}

// BadRequest is a 400-class error for requests that cannot be honored,
// such as an invalid or expired reset ticket.
func BadRequest(message string) *Error {
	return &Error{Status: http.StatusBadRequest, Code: "BAD_REQUEST", Message: message}
}

// Unauthorized is a 401-class error for missing, invalid, or expired
// credentials.
func Unauthorized(message string) *Error {
	return &Error{Status: http.StatusUnauthorized, Code: "UNAUTHORIZED", Message: message}
}

// Forbidden is a 403-class error for authenticated callers lacking the
// required role.
func Forbidden(message string) *Error {
	return &Error{Status: http.StatusForbidden, Code: "FORBIDDEN", Message: message}
}

// NotFound is a 404-class error.
func NotFound(message string) *Error {
	return &Error{Status: http.StatusNotFound, Code: "NOT_FOUND", Message: message}
}

// Conflict is an error for duplicate unique fields.
func Conflict(message string) *Error {
	return &Error{Status: http.StatusConflict, Code: "CONFLICT", Message: message}
}

// Wrap attaches a cause to an operational error, preserving its
// status, code, and message.
func Wrap(e *Error, cause error) *Error {
	return &Error{Status: e.Status, Code: e.Code, Message: e.Message, Err: cause}
}

// From extracts the operational error from err. Returns nil when err
// is not operational (and must therefore be masked).
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}
