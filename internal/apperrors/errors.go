// Package apperrors defines the error taxonomy that service-layer code
// translates low-level failures into before they reach the API boundary.
package apperrors

import (
	"errors"
	"net/http"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials is returned on any login mismatch. The message
	// deliberately does not say whether the username or password was wrong.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrUnauthorized is returned when a request carries no valid session.
	ErrUnauthorized = errors.New("authentication required")
	// ErrAdminExists is returned when signup is attempted after bootstrap.
	ErrAdminExists = errors.New("admin account already exists")
)

// ValidationError marks missing or malformed input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// NewValidation builds a ValidationError with the given message.
func NewValidation(msg string) *ValidationError { return &ValidationError{Message: msg} }

// ConflictError marks a unique-constraint violation surfaced to the caller.
// The slug save path retries internally; only exhaustion reaches the API.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// NewConflict builds a ConflictError with the given message.
func NewConflict(msg string) *ConflictError { return &ConflictError{Message: msg} }

// TransientInfraError wraps storage or network unavailability. Callers may
// retry; it must never be treated as an authentication failure.
type TransientInfraError struct {
	Err error
}

func (e *TransientInfraError) Error() string { return "temporary infrastructure failure: " + e.Err.Error() }
func (e *TransientInfraError) Unwrap() error { return e.Err }

// NewTransient wraps err as a TransientInfraError.
func NewTransient(err error) *TransientInfraError { return &TransientInfraError{Err: err} }

// HTTPStatus maps a taxonomy error to the status code the API returns.
// Unrecognized errors map to 500; the handler logs them and sends a
// generic message so raw storage error text never leaks to clients.
func HTTPStatus(err error) int {
	var (
		ve *ValidationError
		ce *ConflictError
		te *TransientInfraError
	)
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrAdminExists):
		return http.StatusForbidden
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.As(err, &ce):
		// Duplicate title is reported as a client error, matching the
		// duplicate-key handling of the posts API.
		return http.StatusBadRequest
	case errors.As(err, &te):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the message safe to show a client for err. 5xx
// errors get a generic message; the raw cause stays in the server logs.
func PublicMessage(err error) string {
	switch HTTPStatus(err) {
	case http.StatusInternalServerError:
		return "internal server error"
	case http.StatusServiceUnavailable:
		return "service temporarily unavailable, please try again later"
	default:
		return err.Error()
	}
}
