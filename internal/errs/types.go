package errs

import (
	"net/http"
)

func newHTTPError(status int, message string, override bool, code *string) *HTTPError {
	e := &HTTPError{
		Code:     CodeFor(status),
		Message:  message,
		Status:   status,
		Override: override,
	}
	if code != nil {
		e.Code = *code
	}
	return e
}

func NewUnauthorizedError(message string, override bool) *HTTPError {
	return newHTTPError(http.StatusUnauthorized, message, override, nil)
}

func NewBadRequestError(message string, override bool, code *string, errors []FieldError) *HTTPError {
	e := newHTTPError(http.StatusBadRequest, message, override, code)
	e.Errors = errors
	return e
}

func NewNotFoundError(message string, override bool, code *string) *HTTPError {
	return newHTTPError(http.StatusNotFound, message, override, code)
}

func NewTooManyRequestsError() *HTTPError {
	return newHTTPError(http.StatusTooManyRequests, "Too many requests, slow down", true, nil)
}

// NewInternalServerError never carries detail; the cause is logged instead.
func NewInternalServerError() *HTTPError {
	return newHTTPError(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError), false, nil)
}
