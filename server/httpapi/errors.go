package httpapi

import (
	"errors"
	"net/http"

	"github.com/AntonStoeckl/booklending/catalog"
	"github.com/AntonStoeckl/booklending/server/core"
)

var (
	errMissingToken       = errors.New("missing bearer token")
	errInvalidCredentials = errors.New("invalid username or password")
	errActorMismatch      = errors.New("actor does not match the signed-in user")
	errBadRequest         = errors.New("bad request")
)

const (
	logMsgRequestFailed = "http request failed"
	logAttrError        = "error"
	msgInternalError    = "internal server error"
)

// statusCodeFor maps domain and store errors onto HTTP status codes.
func statusCodeFor(err error) int {
	switch {
	case errors.Is(err, errMissingToken), errors.Is(err, ErrInvalidToken), errors.Is(err, errInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, core.ErrRoleNotPermitted), errors.Is(err, errActorMismatch):
		return http.StatusForbidden
	case core.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, core.ErrISBNAlreadyExists),
		errors.Is(err, core.ErrUserAlreadyExists),
		errors.Is(err, core.ErrConcurrencyConflict):
		return http.StatusConflict
	case errors.Is(err, catalog.ErrValidation),
		errors.Is(err, catalog.ErrUnknownAction),
		errors.Is(err, catalog.ErrUnknownStatus),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusCodeFor(err)

	message := err.Error()
	if code == http.StatusInternalServerError {
		s.logError(r.Context(), logMsgRequestFailed, logAttrMethod, r.Method, logAttrRoute, r.URL.Path, logAttrError, err.Error())
		message = msgInternalError
	}

	writeJSON(w, code, errorDTO{Message: message, Error: http.StatusText(code)})
}
