package domain

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound signals that no document matches the identifier or version.
	ErrNotFound = errors.New("not found")
	// ErrValidation signals malformed input: a bad identifier, an unknown field, a bad version.
	ErrValidation = errors.New("validation failed")
	// ErrUnauthorized signals a missing or rejected API key.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrRateLimited signals that the API kept answering 429 after all retries.
	ErrRateLimited = errors.New("rate limited")
	// ErrServer signals a 5xx answer from the API.
	ErrServer = errors.New("server error")
	// ErrTransport signals a network failure before any HTTP status was received.
	ErrTransport = errors.New("transport error")
	// ErrConfig signals an invalid client configuration.
	ErrConfig = errors.New("invalid configuration")
	// ErrBudgetExceeded signals that the assistant spent its daily or monthly token budget.
	ErrBudgetExceeded = errors.New("token budget exceeded")
)

// APIError is a non-2xx answer from the REST API.
type APIError struct {
	Status  int
	URL     string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf(
		"REST query returned with error status code %d on URL %s with message:\n%s",
		e.Status, e.URL, e.Message,
	)
}

// Unwrap maps the HTTP status to a sentinel so callers can use errors.Is.
func (e *APIError) Unwrap() error {
	switch {
	case e.Status == http.StatusNotFound:
		return ErrNotFound
	case e.Status == http.StatusBadRequest, e.Status == http.StatusUnprocessableEntity:
		return ErrValidation
	case e.Status == http.StatusUnauthorized, e.Status == http.StatusForbidden:
		return ErrUnauthorized
	case e.Status == http.StatusTooManyRequests:
		return ErrRateLimited
	case e.Status >= http.StatusInternalServerError:
		return ErrServer
	default:
		return nil
	}
}

// NewAPIError creates an API error for the given status and request URL.
func NewAPIError(status int, url, message string) error {
	return &APIError{Status: status, URL: url, Message: message}
}

// ValidationError describes rejected input. It matches both ErrValidation and the cause.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %v", ErrValidation.Error(), e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", ErrValidation.Error(), e.Field, e.Err)
}

func (e *ValidationError) Unwrap() []error { return []error{ErrValidation, e.Err} }

// Invalid builds a ValidationError for a single field.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Err: fmt.Errorf(format, args...)}
}

// WrapValidation marks err (typically ozzo-validation output) as a validation failure.
func WrapValidation(err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{Err: err}
}
