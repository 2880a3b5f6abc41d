package genai

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNoCredential is returned when no API key was supplied.
	ErrNoCredential = errors.New("genai: no API key configured")

	// ErrInvalidAPIKey is returned when a key fails the provider shape check.
	ErrInvalidAPIKey = errors.New("genai: API key does not look like a valid key")

	// ErrUnauthorized is returned when the endpoint rejects the key.
	ErrUnauthorized = errors.New("genai: API key was rejected by the endpoint")

	// ErrMalformed is returned when the response carries no candidate text.
	ErrMalformed = errors.New("genai: response contained no candidate text")
)

// HTTPError represents a non-2xx response that is not an auth failure.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("genai: HTTP %d: %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("genai: HTTP %d: %s", e.StatusCode, e.Message)
}
