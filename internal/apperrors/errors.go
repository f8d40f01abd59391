package apperrors

import (
	"errors"
	"fmt"
)

// FieldErrors carries per-field validation messages keyed by the JSON field name.
// It unwraps to ErrValidation.
type FieldErrors map[string]string

// Error implements the error interface.
func (f FieldErrors) Error() string {
	return fmt.Sprintf("validation failed on %d field(s)", len(f))
}

// Unwrap makes errors.Is(err, ErrValidation) hold.
func (f FieldErrors) Unwrap() error {
	return ErrValidation
}

// --- Standard Error Definitions ---

var (
	// ErrNotFound indicates a requested resource was not found.
	ErrNotFound = errors.New("resource not found")
	// ErrValidation indicates failure during data validation.
	ErrValidation = errors.New("validation failed")
	// ErrDatabase indicates a general database interaction error.
	ErrDatabase = errors.New("database error")
	// ErrUpstream indicates an outbound HTTP call could not be completed.
	ErrUpstream = errors.New("upstream request failed")
	// ErrUnauthorized indicates an authorization failure.
	ErrUnauthorized = errors.New("unauthorized access")
	// ErrDuplicate indicates a conflict due to duplicate data (e.g., unique constraint).
	ErrDuplicate = errors.New("duplicate resource")
	// ErrBadRequest indicates a malformed or invalid request from the client/caller.
	ErrBadRequest = errors.New("bad request")
	// ErrInvalidEnvelope indicates a request body without service or payload.
	ErrInvalidEnvelope = errors.New("invalid request")
	// ErrUnknownService indicates a service discriminator with no registered handler.
	ErrUnknownService = errors.New("unknown service")
	// ErrTimeout indicates an operation timed out.
	ErrTimeout = errors.New("operation timeout")
	// ErrRateLimited indicates an operation was rate limited.
	ErrRateLimited = errors.New("rate limited")
)

// IsNotFoundError checks if the error is or wraps ErrNotFound.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError checks if the error is or wraps ErrValidation.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsUpstreamError checks if the error is or wraps ErrUpstream.
func IsUpstreamError(err error) bool {
	return errors.Is(err, ErrUpstream)
}

// IsUnauthorizedError checks if the error is or wraps ErrUnauthorized.
func IsUnauthorizedError(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsBadRequestError checks if the error is or wraps ErrBadRequest.
func IsBadRequestError(err error) bool {
	return errors.Is(err, ErrBadRequest)
}

// IsTimeoutError checks if the error is or wraps ErrTimeout.
func IsTimeoutError(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsRateLimitedError checks if the error is or wraps ErrRateLimited.
func IsRateLimitedError(err error) bool {
	return errors.Is(err, ErrRateLimited)
}
