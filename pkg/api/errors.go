package api

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNetworkError   = errors.New("network error")
	ErrInvalidRequest = errors.New("invalid request")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrNotFound       = errors.New("not found")
	ErrServerError    = errors.New("server error")
)

// ErrorResponse is the standard API error body.
type ErrorResponse struct {
	Error   string `json:"error"`   // machine-readable error code
	Message string `json:"message"` // human-readable message
}

// APIError is a non-2xx response from the API. It unwraps to one of the
// category sentinels above so callers can branch with errors.Is.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error (status %d, code %s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api error (status %d)", e.Status)
}

func (e *APIError) Unwrap() error {
	switch {
	case e.Status == 400:
		return ErrInvalidRequest
	case e.Status == 401:
		return ErrUnauthorized
	case e.Status == 403:
		return ErrForbidden
	case e.Status == 404:
		return ErrNotFound
	case e.Status >= 500:
		return ErrServerError
	default:
		return ErrInvalidRequest
	}
}

// IsCSRFRejection reports whether the error is the server rejecting a
// request specifically for a missing/expired anti-forgery token: a 403
// whose body names CSRF.
func IsCSRFRejection(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	if apiErr.Status != 403 {
		return false
	}
	indicator := strings.ToLower(apiErr.Code + " " + apiErr.Message)
	return strings.Contains(indicator, "csrf")
}

// HumanMessage derives a message suitable for display: the server-provided
// message when present, otherwise a generic fallback.
func HumanMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
