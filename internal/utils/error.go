package utils

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Error codes with HTTP status mapping
const (
	// General errors
	ErrCodeInvalidRequest   = "INVALID_REQUEST"
	ErrCodeValidationFailed = "VALIDATION_ERROR"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeInternalError    = "INTERNAL_ERROR"

	// Engine errors
	ErrCodeConnectionFailed = "CONNECTION_FAILED"
	ErrCodeQueryFailed      = "QUERY_FAILED"
	ErrCodeQueryTimeout     = "QUERY_TIMEOUT"
	ErrCodePoolExhausted    = "POOL_EXHAUSTED"
)

// HTTPStatus maps error codes to HTTP status codes
var HTTPStatus = map[string]int{
	ErrCodeInvalidRequest:   http.StatusBadRequest,
	ErrCodeValidationFailed: http.StatusUnprocessableEntity,
	ErrCodeNotFound:         http.StatusNotFound,
	ErrCodeInternalError:    http.StatusInternalServerError,

	ErrCodeConnectionFailed: http.StatusServiceUnavailable,
	ErrCodeQueryFailed:      http.StatusInternalServerError,
	ErrCodeQueryTimeout:     http.StatusRequestTimeout,
	ErrCodePoolExhausted:    http.StatusTooManyRequests,
}

// AppError represents an application error with additional context
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	Cause   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s - %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// StatusCode returns the HTTP status for the error code, defaulting to 500.
func (e *AppError) StatusCode() int {
	if status, ok := HTTPStatus[e.Code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func newAppError(code, message string, cause error) *AppError {
	details := ""
	if cause != nil {
		details = cause.Error()
	}
	return &AppError{Code: code, Message: message, Details: details, Cause: cause}
}

// NewConnectionError wraps a network/auth/host failure. Retryable by the
// caller, never retried by the engine.
func NewConnectionError(message string, cause error) *AppError {
	return newAppError(ErrCodeConnectionFailed, message, cause)
}

// NewQueryError wraps a failed metadata or data query.
func NewQueryError(message string, cause error) *AppError {
	return newAppError(ErrCodeQueryFailed, message, cause)
}

// NewTimeoutError wraps an operation that exceeded its time limit.
func NewTimeoutError(message string, cause error) *AppError {
	return newAppError(ErrCodeQueryTimeout, message, cause)
}

// NewPoolExhaustedError reports that the connection ceiling was hit.
func NewPoolExhaustedError(message string) *AppError {
	return newAppError(ErrCodePoolExhausted, message, nil)
}

// NewValidationError reports a malformed descriptor, rejected before any I/O.
func NewValidationError(message string, cause error) *AppError {
	return newAppError(ErrCodeValidationFailed, message, cause)
}

// AsAppError extracts an AppError from an error chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func hasCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

// IsConnectionError reports whether err is a connectivity failure.
func IsConnectionError(err error) bool { return hasCode(err, ErrCodeConnectionFailed) }

// IsTimeout reports whether err is a timeout, including raw context deadline
// errors that were not wrapped yet.
func IsTimeout(err error) bool {
	return hasCode(err, ErrCodeQueryTimeout) || errors.Is(err, context.DeadlineExceeded)
}

// IsPoolExhausted reports whether err means the pool hit its ceiling.
func IsPoolExhausted(err error) bool { return hasCode(err, ErrCodePoolExhausted) }
