package errors

import (
	"fmt"
	"net/http"

	"github.com/cockroachdb/errors"
)

// Common error types that can be used across the application
var (
	ErrNotFound          = newError(ErrCodeNotFound, "resource not found")
	ErrAlreadyExists     = newError(ErrCodeAlreadyExists, "resource already exists")
	ErrValidation        = newError(ErrCodeValidation, "validation error")
	ErrInvalidOperation  = newError(ErrCodeInvalidOperation, "invalid operation")
	ErrHTTPClient        = newError(ErrCodeHTTPClient, "http client error")
	ErrDatabase          = newError(ErrCodeDatabase, "database error")
	ErrSystem            = newError(ErrCodeSystemError, "system error")
	ErrRateLimitExceeded = newError(ErrCodeRateLimitExceeded, "rate limit exceeded")
	ErrCircuitOpen       = newError(ErrCodeCircuitOpen, "circuit breaker open")

	// maps errors to http status codes
	statusCodeMap = map[error]int{
		ErrHTTPClient:        http.StatusInternalServerError,
		ErrDatabase:          http.StatusInternalServerError,
		ErrNotFound:          http.StatusNotFound,
		ErrAlreadyExists:     http.StatusConflict,
		ErrValidation:        http.StatusBadRequest,
		ErrInvalidOperation:  http.StatusBadRequest,
		ErrRateLimitExceeded: http.StatusTooManyRequests,
		ErrCircuitOpen:       http.StatusServiceUnavailable,
		ErrSystem:            http.StatusInternalServerError,
	}
)

const (
	ErrCodeHTTPClient        = "http_client_error"
	ErrCodeSystemError       = "system_error"
	ErrCodeNotFound          = "not_found"
	ErrCodeAlreadyExists     = "already_exists"
	ErrCodeValidation        = "validation_error"
	ErrCodeInvalidOperation  = "invalid_operation"
	ErrCodeDatabase          = "database_error"
	ErrCodeRateLimitExceeded = "rate_limit_exceeded"
	ErrCodeCircuitOpen       = "circuit_open"
)

// InternalError represents a domain error
type InternalError struct {
	Code    string // Machine-readable error code
	Message string // Human-readable error message
	Op      string // Logical operation name
	Err     error  // Underlying error
}

func (e *InternalError) Error() string {
	if e.Err == nil {
		return e.DisplayError()
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Err.Error())
}

func (e *InternalError) DisplayError() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

// Is implements error matching for wrapped errors
func (e *InternalError) Is(target error) bool {
	if target == nil {
		return false
	}

	t, ok := target.(*InternalError)
	if !ok {
		return errors.Is(e.Err, target)
	}

	return e.Code == t.Code
}

func newError(code string, message string) *InternalError {
	return &InternalError{
		Code:    code,
		Message: message,
	}
}

// New creates a new InternalError with the given code and message
func New(code string, message string) *InternalError {
	return newError(code, message)
}

func As(err error, target any) bool {
	return errors.As(err, target)
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if an error is an already exists error
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsInvalidOperation checks if an error is an invalid operation error
func IsInvalidOperation(err error) bool {
	return errors.Is(err, ErrInvalidOperation)
}

// IsHTTPClient checks if an error is an http client error
func IsHTTPClient(err error) bool {
	return errors.Is(err, ErrHTTPClient)
}

// IsDatabase checks if an error is a database error
func IsDatabase(err error) bool {
	return errors.Is(err, ErrDatabase)
}

// IsRateLimitExceeded checks if an error is a rate limit error
func IsRateLimitExceeded(err error) bool {
	return errors.Is(err, ErrRateLimitExceeded)
}

// IsCircuitOpen checks if an error is a circuit breaker error
func IsCircuitOpen(err error) bool {
	return errors.Is(err, ErrCircuitOpen)
}

// IsDataError reports whether an error is a non-retryable data problem
// (bad or missing reference data, null required fields)
func IsDataError(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsProcessingError reports whether an error is a retryable-context problem
// (database or transport failures, unexpected errors)
func IsProcessingError(err error) bool {
	return errors.Is(err, ErrDatabase) ||
		errors.Is(err, ErrHTTPClient) ||
		errors.Is(err, ErrSystem)
}

func HTTPStatusFromErr(err error) int {
	for e, status := range statusCodeMap {
		if errors.Is(err, e) {
			return status
		}
	}
	return http.StatusInternalServerError
}
