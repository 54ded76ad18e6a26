package catalog

import (
	"context"
	"errors"
	"fmt"
)

// Error taxonomy. Errors returned by this module wrap exactly one of these sentinels
// (combined with their cause via errors.Join), so callers classify with errors.Is or Classify.
var (
	// ErrTransport is returned for network failures, 5xx responses, and unexpected responses.
	ErrTransport = errors.New("catalog transport failed")

	// ErrNotFound is returned when the record, or the reservation/loan an action requires, does not exist.
	ErrNotFound = errors.New("catalog record not found")

	// ErrValidation is returned for malformed input, either detected locally or rejected by the catalog.
	ErrValidation = errors.New("catalog validation failed")

	// ErrConflict is returned when a record conflicts with an existing one, e.g. a duplicate ISBN.
	ErrConflict = errors.New("catalog record conflicts with an existing record")

	// ErrUnauthorized is returned when the catalog rejects the credentials or the token.
	ErrUnauthorized = errors.New("catalog request unauthorized")

	// ErrForbidden is returned when the signed-in user's role or identity does not permit the request.
	ErrForbidden = errors.New("catalog request forbidden")

	// ErrUnknownStatus is returned when a status value is not one of the enumerated statuses.
	ErrUnknownStatus = errors.New("unknown book status")

	// ErrUnknownAction is returned when an action name is not one of the lifecycle actions.
	ErrUnknownAction = errors.New("unknown lifecycle action")
)

// ErrorKind classifies an error for user-facing messages and metric labels.
type ErrorKind string

// Error kinds.
const (
	KindNone         ErrorKind = "none"
	KindTransport    ErrorKind = "transport"
	KindNotFound     ErrorKind = "not_found"
	KindValidation   ErrorKind = "validation"
	KindConflict     ErrorKind = "conflict"
	KindUnauthorized ErrorKind = "unauthorized"
	KindForbidden    ErrorKind = "forbidden"
	KindCanceled     ErrorKind = "canceled"
)

// Classify maps err onto an ErrorKind. Errors outside the taxonomy count as transport errors.
func Classify(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, context.Canceled):
		return KindCanceled
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	default:
		return KindTransport
	}
}

// RemoteError carries the HTTP-equivalent status code and message of a failed catalog call.
type RemoteError struct {
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("catalog responded with status %d", e.StatusCode)
	}

	return fmt.Sprintf("catalog responded with status %d: %s", e.StatusCode, e.Message)
}

// StatusCodeOf extracts the remote status code from err, or 0 if err carries none.
func StatusCodeOf(err error) int {
	var remoteErr *RemoteError
	if errors.As(err, &remoteErr) {
		return remoteErr.StatusCode
	}

	return 0
}
