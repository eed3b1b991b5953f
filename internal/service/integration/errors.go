package integration

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ValidationError is returned before any request is sent when caller input
// is rejected. Field names the offending input.
type ValidationError struct {
	Field   string
	Reasons []string
}

func NewValidationError(field string, reasons ...string) *ValidationError {
	return &ValidationError{Field: field, Reasons: reasons}
}

func (e *ValidationError) Error() string {
	if len(e.Reasons) == 0 {
		return fmt.Sprintf("invalid %s", e.Field)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, strings.Join(e.Reasons, "; "))
}

// NetworkError means no response was received.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error during %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// APIError is a non-2xx response. Message is the server's message verbatim
// when one was supplied.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

func (e *APIError) IsServerError() bool {
	return e.Status >= http.StatusInternalServerError
}

// SchemaError is a 2xx response whose payload could not be decoded or
// failed validation.
type SchemaError struct {
	Path string
	Err  error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("malformed response from %s: %v", e.Path, e.Err)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is a failure worth polling through:
// transport errors and 5xx responses.
func IsTransient(err error) bool {
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.IsServerError()
	}
	return false
}
