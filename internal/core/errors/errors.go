// Package errors provides centralized error definitions for the application.
// Errors are organized by domain to avoid duplication and provide consistent naming.
//
// Naming conventions:
//   - Exported errors (Err*): Use for errors that callers need to check with errors.Is
//   - Unexported errors (err*): Use for internal package errors
//   - All sentinel errors should be defined as variables, not inline errors.New calls
//   - Use fmt.Errorf with %w to wrap sentinel errors with context
package errors

import (
	"errors"
	"fmt"
)

// Lifecycle errors.
var (
	// ErrInvalidTransition indicates an illegal lifecycle move. State is left unchanged.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrStatusConflict indicates the review changed status between read and write.
	ErrStatusConflict = errors.New("review status changed concurrently")
)

// Lookup errors.
var (
	// ErrNotFound is a generic not found error.
	ErrNotFound = errors.New("not found")

	// ErrReviewNotFound indicates a review id is unknown to the store. It matches ErrNotFound.
	ErrReviewNotFound = fmt.Errorf("review %w", ErrNotFound)

	// ErrPlaceNotFound indicates a place id is unknown to the store.
	ErrPlaceNotFound = fmt.Errorf("place %w", ErrNotFound)
)

// Scoring errors.
var (
	// ErrScoringUnavailable indicates the optional external scorer could not be reached.
	// The heuristic result is used instead.
	ErrScoringUnavailable = errors.New("external scoring unavailable")

	// ErrMalformedReview indicates a review is missing required fields.
	// The review is skipped and counted; the batch continues.
	ErrMalformedReview = errors.New("malformed review")
)

// Storage errors.
var (
	// ErrPersistenceFailure indicates the review store is unreachable or corrupt.
	// The current cycle must abort.
	ErrPersistenceFailure = errors.New("persistence failure")

	// ErrCycleLocked indicates another curation cycle holds the run lock.
	ErrCycleLocked = errors.New("curation cycle already running")
)

// Client and connection errors.
var (
	// ErrCircuitBreakerOpen indicates the circuit breaker has tripped and requests are blocked.
	ErrCircuitBreakerOpen = errors.New("circuit breaker is open")

	// ErrClientDisabled indicates a client or feature is disabled.
	ErrClientDisabled = errors.New("client disabled")

	// ErrMissingAPIKey indicates a provider was configured without credentials.
	ErrMissingAPIKey = errors.New("missing api key")
)

// Response and parsing errors.
var (
	// ErrEmptyResponse indicates an empty response was received.
	ErrEmptyResponse = errors.New("empty response")

	// ErrUnexpectedStatus indicates a provider answered with a non-success HTTP status.
	ErrUnexpectedStatus = errors.New("unexpected response status")
)

// Validation errors.
var (
	// ErrInvalidInput indicates invalid input was provided.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnknownStatus indicates a status string outside the lifecycle enum.
	ErrUnknownStatus = errors.New("unknown status")
)

// Is is a convenience wrapper around errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As is a convenience wrapper around errors.As.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
