package client

import (
	"errors"
	"net/http"

	"github.com/AntonStoeckl/booklending/catalog"
)

var (
	// ErrNilTransport is returned when NewClient is called without a Transport.
	ErrNilTransport = errors.New("transport must not be nil")

	// ErrNilIdentity is returned when NewClient is called without an Identity.
	ErrNilIdentity = errors.New("identity must not be nil")

	// ErrInvalidPageSize is returned when a non-positive page size is supplied to WithPageSize.
	ErrInvalidPageSize = errors.New("page size must be positive")

	// ErrEncodingRequestFailed is returned when a request body cannot be encoded.
	ErrEncodingRequestFailed = errors.New("encoding request body failed")

	// ErrDecodingResponseFailed is returned when a response body cannot be decoded.
	ErrDecodingResponseFailed = errors.New("decoding response body failed")

	// ErrMissingActor is returned when an action is performed without an actor identity.
	ErrMissingActor = errors.New("actor identity must not be empty")
)

// mapStatusCode turns a non-2xx response into an error of the catalog taxonomy.
func mapStatusCode(resp Response) error {
	remote := &catalog.RemoteError{
		StatusCode: resp.StatusCode,
		Message:    decodeErrorMessage(resp.Body),
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		return errors.Join(catalog.ErrNotFound, remote)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return errors.Join(catalog.ErrValidation, remote)
	case http.StatusConflict:
		return errors.Join(catalog.ErrConflict, remote)
	case http.StatusUnauthorized:
		return errors.Join(catalog.ErrUnauthorized, remote)
	case http.StatusForbidden:
		return errors.Join(catalog.ErrForbidden, remote)
	default:
		return errors.Join(catalog.ErrTransport, remote)
	}
}
