package api

import (
	"errors"
	"fmt"
)

// Common API errors
var (
	// ErrInvalidBaseURL is returned when the configured API URL cannot be used.
	ErrInvalidBaseURL = errors.New("invalid API base URL")

	// ErrMissingReceiptID is returned when an operation is called without a receipt id.
	ErrMissingReceiptID = errors.New("missing receipt id")

	// ErrTransport is returned when the request never produced a response.
	ErrTransport = errors.New("request failed")

	// ErrUnauthorized is returned for 401 and 403 responses.
	ErrUnauthorized = errors.New("not authorized")

	// ErrNotFound is returned for 404 responses.
	ErrNotFound = errors.New("receipt not found")

	// ErrUnexpectedStatus is returned for any other non-2xx response.
	ErrUnexpectedStatus = errors.New("unexpected response status")

	// ErrInvalidJSON is returned when a non-empty response body is not JSON.
	ErrInvalidJSON = errors.New("response is not valid JSON")
)

// APIError wraps errors with the failing operation and, when the server
// answered, its status code.
type APIError struct {
	// Op is the operation that failed (e.g., "GetModal", "SaveModal").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string

	// StatusCode is the HTTP status, zero when no response arrived.
	StatusCode int
}

// Error implements the error interface.
func (e *APIError) Error() string {
	msg := fmt.Sprintf("api: %s failed", e.Op)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	if e.Details != "" {
		return fmt.Sprintf("%s: %s: %v", msg, e.Details, e.Err)
	}
	return fmt.Sprintf("%s: %v", msg, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *APIError) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *APIError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewAPIError creates a new APIError.
func NewAPIError(op string, err error, details string, statusCode int) *APIError {
	return &APIError{
		Op:         op,
		Err:        err,
		Details:    details,
		StatusCode: statusCode,
	}
}

// WrapAPIError wraps an error as an APIError if it isn't already one.
func WrapAPIError(op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return err
	}

	return NewAPIError(op, err, details, 0)
}

// StatusCode returns the HTTP status carried by err, or zero.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
