// Package errors carries the two error shapes the harness speaks: APIError
// for the success/error envelope of the operation endpoints, and RFC 7807
// problem documents for everything the router rejects before an operation
// runs.
package errors

import (
	"fmt"
	"net/http"

	"github.com/go-chi/render"
)

// APIError is a structured error with an HTTP status and a stable code.
// Handlers unwrap it to choose the envelope status; the error handler maps
// it onto a problem document when it escapes past the envelope layer.
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

// Render sets the response status for chi/render.
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// New builds an APIError.
func New(statusCode int, errorCode, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
	}
}

// NewWithDetails builds an APIError carrying a details payload.
func NewWithDetails(statusCode int, errorCode, message string, details interface{}) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
		Details:    details,
	}
}

// Errors the harness raises on its own behalf. Operation failures reported
// by the driver flow through the envelope instead and never reach these.
var (
	ErrInvalidRequest      = New(http.StatusBadRequest, "INVALID_REQUEST", "Invalid request format")
	ErrUnknownOperation    = New(http.StatusNotFound, "UNKNOWN_OPERATION", "Operation not supported")
	ErrRunInProgress       = New(http.StatusConflict, "RUN_IN_PROGRESS", "An operation run is already in progress")
	ErrRateLimitExceeded   = New(http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "Rate limit exceeded")
	ErrOperationFailed     = New(http.StatusInternalServerError, "OPERATION_FAILED", "Operation execution failed")
	ErrDatabaseUnavailable = New(http.StatusServiceUnavailable, "DATABASE_UNAVAILABLE", "Database is not reachable")
)

// InvalidRequestWithError wraps a body-level failure as a 400.
func InvalidRequestWithError(err error) *APIError {
	return NewWithDetails(http.StatusBadRequest, "INVALID_REQUEST", "Invalid request format", err.Error())
}

// OperationFailed wraps a named operation's execution failure.
func OperationFailed(operation string, err error) *APIError {
	return NewWithDetails(http.StatusInternalServerError, "OPERATION_FAILED",
		fmt.Sprintf("Operation %s failed", operation), err.Error())
}

// ValidationError is one field-level validation failure.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors bundles field failures for the details payload.
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

// ErrValidation builds a 400 describing a single bad field.
func ErrValidation(field, message string) *APIError {
	return NewWithDetails(http.StatusBadRequest, "VALIDATION_FAILED", "Request validation failed", ValidationError{
		Field:   field,
		Message: message,
	})
}

// NewValidationErrors builds a 400 carrying every failed field.
func NewValidationErrors(errors []ValidationError) *APIError {
	return NewWithDetails(
		http.StatusBadRequest,
		"VALIDATION_FAILED",
		"Request validation failed",
		ValidationErrors{Errors: errors},
	)
}
