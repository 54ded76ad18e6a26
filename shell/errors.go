package shell

import (
	"context"
	"errors"

	"github.com/AntonStoeckl/booklending/server/core"
)

// IsCancellationError checks if the error is due to context cancellation.
func IsCancellationError(err error) bool {
	return errors.Is(err, context.Canceled)
}

// IsTimeoutError checks if the error is due to a context deadline.
func IsTimeoutError(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}

// IsConcurrencyConflictError checks if the error is a store concurrency conflict.
func IsConcurrencyConflictError(err error) bool {
	return errors.Is(err, core.ErrConcurrencyConflict)
}

// StatusOf maps an operation error to the status label used for metrics and spans.
func StatusOf(err error) string {
	switch {
	case err == nil:
		return StatusSuccess
	case IsCancellationError(err):
		return StatusCanceled
	case IsTimeoutError(err):
		return StatusTimeout
	case IsConcurrencyConflictError(err):
		return StatusConcurrencyConflict
	default:
		return StatusError
	}
}

// ErrorType extracts a string representation of the error type for metrics labeling.
func ErrorType(err error) string {
	switch {
	case err == nil:
		return "none"
	case IsConcurrencyConflictError(err):
		return "concurrency_conflict"
	case IsCancellationError(err):
		return "context_canceled"
	case IsTimeoutError(err):
		return "context_deadline_exceeded"
	default:
		return "other"
	}
}
