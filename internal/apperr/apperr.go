package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the closed set of error categories the service produces.
// The HTTP boundary matches on Kind exhaustively to pick a status code;
// nothing else about an error leaks into the response envelope.
type Kind int

const (
	// KindValidation is bad input shape (400).
	KindValidation Kind = iota
	// KindConflict is a duplicate or suspended account (400).
	KindConflict
	// KindAuthentication is bad credentials or a missing/invalid/expired token (401).
	KindAuthentication
	// KindAuthorization is a role mismatch (403).
	KindAuthorization
	// KindNotFound is an unknown id (404).
	KindNotFound
	// KindDependency is an unavailable store or queue (500).
	KindDependency
)

// Error is a categorized service error. Message is safe to show to the
// caller; the wrapped cause is for logs only.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// New creates an Error with the given kind and caller-facing message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an Error that carries an underlying cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// Validation returns a 400 validation error.
func Validation(message string) *Error { return New(KindValidation, message) }

// Conflict returns a 400 conflict error.
func Conflict(message string) *Error { return New(KindConflict, message) }

// Authentication returns a 401 error.
func Authentication(message string) *Error { return New(KindAuthentication, message) }

// Authorization returns a 403 error.
func Authorization(message string) *Error { return New(KindAuthorization, message) }

// NotFound returns a 404 error.
func NotFound(message string) *Error { return New(KindNotFound, message) }

// Dependency returns a 500 error wrapping a store or queue failure.
func Dependency(message string, cause error) *Error {
	return Wrap(KindDependency, message, cause)
}

// From extracts an *Error from err, or wraps err as an unexpected
// dependency failure so unknown errors fail closed with a 500.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(KindDependency, "unexpected error", err)
}

// Status maps an error kind to its HTTP status code.
func (k Kind) Status() int {
	switch k {
	case KindValidation, KindConflict:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindDependency:
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}
