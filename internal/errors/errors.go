// Package errors provides error types and handling for zero.
// It includes custom error types with HTTP status codes and error codes,
// plus the helpers the CLI uses to turn an error into an exit status.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// AppError represents an application error with an associated HTTP status code.
type AppError struct {
	// Code is an optional error code string for programmatic handling
	Code string
	// Message is a user-friendly error message
	Message string
	// StatusCode is the HTTP status code to return
	StatusCode int
	// Cause is the underlying error (for error wrapping)
	Cause error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error for error unwrapping.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is allows errors.Is to work with AppError.
func (e *AppError) Is(target error) bool {
	if t, ok := target.(*AppError); ok {
		return e.Code != "" && e.Code == t.Code
	}
	return false
}

// Predefined error codes.
const (
	// Client error codes.
	ErrCodeInvalidRequest = "INVALID_REQUEST"
	ErrCodeValidation     = "VALIDATION_ERROR"
	ErrCodeNotFound       = "NOT_FOUND"
	ErrCodeAlreadyExists  = "ALREADY_EXISTS"

	// Server error codes.
	ErrCodeDriverError        = "DRIVER_ERROR"
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// NewClientError creates a new client error (4xx status codes).
func NewClientError(statusCode int, code, message string, cause error) *AppError {
	if statusCode < 400 || statusCode >= 500 {
		panic(fmt.Sprintf("NewClientError called with non-client status code: %d", statusCode))
	}
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Cause:      cause,
	}
}

// NewServerError creates a new server error (5xx status codes).
func NewServerError(statusCode int, code, message string, cause error) *AppError {
	if statusCode < 500 || statusCode >= 600 {
		panic(fmt.Sprintf("NewServerError called with non-server status code: %d", statusCode))
	}
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Cause:      cause,
	}
}

// ErrBadRequest creates a bad request error (400).
func ErrBadRequest(message string, cause error) *AppError {
	return NewClientError(http.StatusBadRequest, ErrCodeInvalidRequest, message, cause)
}

// ErrValidation creates a validation error (400) for well-formed requests
// whose fields are missing or out of range.
func ErrValidation(message string, cause error) *AppError {
	return NewClientError(http.StatusBadRequest, ErrCodeValidation, message, cause)
}

// ErrNotFound creates a not found error (404).
func ErrNotFound(message string, cause error) *AppError {
	return NewClientError(http.StatusNotFound, ErrCodeNotFound, message, cause)
}

// ErrAlreadyExists creates a conflict error (409).
func ErrAlreadyExists(message string, cause error) *AppError {
	return NewClientError(http.StatusConflict, ErrCodeAlreadyExists, message, cause)
}

// ErrDriver creates an error (502) for failures reported by a compute,
// storage or network driver.
func ErrDriver(message string, cause error) *AppError {
	return NewServerError(http.StatusBadGateway, ErrCodeDriverError, message, cause)
}

// ErrInternalError creates an internal server error (500).
func ErrInternalError(message string, cause error) *AppError {
	return NewServerError(http.StatusInternalServerError, ErrCodeInternalError, message, cause)
}

// ErrServiceUnavailable creates a service unavailable error (503).
func ErrServiceUnavailable(message string, cause error) *AppError {
	return NewServerError(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, message, cause)
}

// GetStatusCode extracts the HTTP status code from an error.
// Returns 500 if the error is not an AppError.
func GetStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}

// GetErrorCode extracts the error code from an error.
// Returns empty string if the error is not an AppError.
func GetErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// GetErrorMessage extracts a user-friendly message from an error.
func GetErrorMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

// GetErrorDetails extracts detailed error information including the underlying cause.
// Returns the underlying error message if available, otherwise returns the main error message.
func GetErrorDetails(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		if appErr.Cause != nil {
			return appErr.Cause.Error()
		}
		return appErr.Message
	}
	return err.Error()
}

// ErrUsage marks errors caused by malformed command-line input.
var ErrUsage = errors.New("usage error")

// Process exit codes.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// UsageError wraps err so that errors.Is(err, ErrUsage) holds.
func UsageError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrUsage, err)
}

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrUsage):
		return ExitUsage
	default:
		return ExitFailure
	}
}

// FormatChain renders err and each error it wraps, one per line.
// The first line carries the full message; following lines list the causes.
func FormatChain(err error) string {
	if err == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString("Error: ")
	b.WriteString(err.Error())

	causes := collectCauses(err, nil)
	if len(causes) == 0 {
		return b.String()
	}

	b.WriteString("\n\nCaused by:")
	for i, c := range causes {
		fmt.Fprintf(&b, "\n    %d: %s", i, c)
	}
	return b.String()
}

// collectCauses appends the messages of every error wrapped by err, depth
// first, following both Unwrap() error and Unwrap() []error.
func collectCauses(err error, causes []string) []string {
	switch x := err.(type) {
	case interface{ Unwrap() []error }:
		for _, cause := range x.Unwrap() {
			if cause != nil {
				causes = collectCauses(cause, append(causes, cause.Error()))
			}
		}
	case interface{ Unwrap() error }:
		if cause := x.Unwrap(); cause != nil {
			causes = collectCauses(cause, append(causes, cause.Error()))
		}
	}
	return causes
}
