package errs

import (
	"errors"
	"net/http"
)

var (
	ErrMissingParameter = errors.New("missing parameter")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrNotFound         = errors.New("not found")

	ErrUpstream = errors.New("upstream error")
)

func ToHTTP(err error) int {
	switch {
	case errors.Is(err, ErrMissingParameter):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
