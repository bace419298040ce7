package httpx

import (
	"context"
	"errors"
	"net/http"
)

// Sentinel errors handlers wrap to pick a status.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrUnavailable  = errors.New("service unavailable")
)

// RespondError maps errors to HTTP responses using RFC7807. Details of
// unrecognised errors are not exposed.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrUnauthorized):
		Problem(w, http.StatusUnauthorized, "Unauthorized", "")
	case errors.Is(err, ErrUnavailable):
		Problem(w, http.StatusServiceUnavailable, "Service Unavailable", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		Problem(w, http.StatusGatewayTimeout, "Timeout", "the request took too long to complete")
	case errors.Is(err, context.Canceled):
		Problem(w, 499, "Client Closed Request", "")
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
