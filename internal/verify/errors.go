package verify

import (
	"errors"
	"fmt"
)

// Common errors returned by verification sources.
var (
	// ErrNotFound indicates the record was not found at the source.
	ErrNotFound = errors.New("not found at source")

	// ErrAuthError indicates an authentication error (missing/invalid API key).
	ErrAuthError = errors.New("source authentication error")

	// ErrRateLimited indicates the source's rate limit has been exceeded.
	ErrRateLimited = errors.New("source rate limit exceeded")

	// ErrAPIError indicates a general API error.
	ErrAPIError = errors.New("source API error")

	// ErrNetworkError indicates a network connectivity issue.
	ErrNetworkError = errors.New("network error contacting source")

	// ErrInvalidResponse indicates an unexpected API response.
	ErrInvalidResponse = errors.New("invalid response from source")
)

// APIError represents an error response from a verification source.
type APIError struct {
	Source     string // Source name (e.g., "crossref", "s2")
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("%s API error (status %d): %s", e.Source, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Message)
}

// IsNotFound returns true if the error indicates the record was not found.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 404
	}
	return false
}

// IsAuthError returns true if the error indicates an authentication problem.
func IsAuthError(err error) bool {
	if errors.Is(err, ErrAuthError) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 401 || apiErr.StatusCode == 403
	}
	return false
}

// IsRateLimited returns true if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429
	}
	return false
}

// checkHTTPErrors returns an error if the HTTP status indicates a problem.
func checkHTTPErrors(source string, statusCode int) error {
	switch {
	case statusCode == 404:
		return ErrNotFound
	case statusCode == 401 || statusCode == 403:
		return fmt.Errorf("%w: status %d", ErrAuthError, statusCode)
	case statusCode == 429:
		return fmt.Errorf("%w: status %d", ErrRateLimited, statusCode)
	case statusCode >= 400:
		return &APIError{
			Source:     source,
			StatusCode: statusCode,
			Message:    fmt.Sprintf("HTTP %d", statusCode),
		}
	}
	return nil
}
