package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Common errors returned by the client.
var (
	// ErrNetwork indicates the request never produced a response.
	ErrNetwork = errors.New("network error communicating with the vocabulary API")

	// ErrInvalidResponse indicates a body that is not a valid graph payload.
	ErrInvalidResponse = errors.New("invalid response from the vocabulary API")

	// ErrRateLimited indicates the server answered 429.
	ErrRateLimited = errors.New("vocabulary API rate limit exceeded")

	// ErrAuth indicates a missing or rejected token.
	ErrAuth = errors.New("vocabulary API authentication error")
)

// APIError is a non-2xx answer. Message is what the view shows the user.
type APIError struct {
	StatusCode int
	Message    string
	Detail     string
}

func (e *APIError) Error() string {
	return e.Message
}

// Unwrap maps well-known statuses onto the sentinel errors so callers can
// use errors.Is.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrAuth
	case http.StatusTooManyRequests:
		return ErrRateLimited
	}
	return nil
}

// IsAuthError returns true if the error indicates an authentication problem.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrAuth)
}

// IsRateLimited returns true if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// StatusCode extracts the HTTP status from err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

func defaultMessage(status int) string {
	return fmt.Sprintf("HTTP error! status: %d", status)
}
