package errs

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrDefault            = errors.New("some error")
	ErrInvalidCredentials = errors.New("invalid user id or password")
	ErrInvalidInput       = errors.New("invalid input")
	ErrCheckoutFailed     = errors.New("checkout failed")
	ErrNoSelection        = errors.New("no items selected")
	ErrInvalidQuantity    = errors.New("quantity must be at least 1")
	ErrSoldOut            = errors.New("book is sold out")
	ErrInsufficientPoints = errors.New("not enough points")
	ErrNotAdmin           = errors.New("admin role required")
	ErrNotAuthenticated   = errors.New("login required")
	ErrCancelled          = errors.New("cancelled by user")
	ErrLoadInProgress     = errors.New("load already in progress")
	ErrCheckoutBusy       = errors.New("checkout already in progress")
)

// APIError is a non-2xx answer from the backend.
type APIError struct {
	StatusCode int
	Message    string
	Body       []byte
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: %d %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// StatusCode maps an error to the HTTP status the storefront server answers with.
func StatusCode(err error) int {
	if apiErr, ok := AsAPIError(err); ok {
		return apiErr.StatusCode
	}
	switch {
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotAdmin):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrLoadInProgress), errors.Is(err, ErrCheckoutBusy):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrNoSelection),
		errors.Is(err, ErrInvalidQuantity), errors.Is(err, ErrSoldOut),
		errors.Is(err, ErrInsufficientPoints), errors.Is(err, ErrCancelled),
		errors.Is(err, ErrCheckoutFailed):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
