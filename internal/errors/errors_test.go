package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		expected string
	}{
		{
			name: "error with cause",
			err: &AppError{
				Code:       ErrCodeValidation,
				Message:    "validation failed",
				StatusCode: http.StatusBadRequest,
				Cause:      errors.New("field image is required"),
			},
			expected: "validation failed: field image is required",
		},
		{
			name: "error without cause",
			err: &AppError{
				Code:       ErrCodeNotFound,
				Message:    "queue not found",
				StatusCode: http.StatusNotFound,
			},
			expected: "queue not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := ErrInternalError("something went wrong", cause)

	assert.Equal(t, cause, err.Unwrap())
}

func TestAppError_Is(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		target   error
		expected bool
	}{
		{
			name:     "same error code matches",
			err:      ErrNotFound("user not found", nil),
			target:   &AppError{Code: ErrCodeNotFound},
			expected: true,
		},
		{
			name:     "different error code does not match",
			err:      ErrNotFound("user not found", nil),
			target:   &AppError{Code: ErrCodeAlreadyExists},
			expected: false,
		},
		{
			name:     "empty code never matches",
			err:      &AppError{Message: "anonymous"},
			target:   &AppError{},
			expected: false,
		},
		{
			name:     "non AppError target",
			err:      ErrNotFound("user not found", nil),
			target:   errors.New("user not found"),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Is(tt.target))
		})
	}
}

func TestNewClientError(t *testing.T) {
	t.Run("valid client error", func(t *testing.T) {
		err := NewClientError(http.StatusBadRequest, ErrCodeInvalidRequest, "test error", nil)
		assert.Equal(t, ErrCodeInvalidRequest, err.Code)
		assert.Equal(t, "test error", err.Message)
		assert.Equal(t, http.StatusBadRequest, err.StatusCode)
	})

	t.Run("panics with non-client status code", func(t *testing.T) {
		assert.Panics(t, func() {
			_ = NewClientError(http.StatusInternalServerError, "CODE", "test", nil)
		})
	})

	t.Run("panics with status code below 400", func(t *testing.T) {
		assert.Panics(t, func() {
			_ = NewClientError(http.StatusOK, "CODE", "test", nil)
		})
	})
}

func TestNewServerError(t *testing.T) {
	t.Run("valid server error", func(t *testing.T) {
		err := NewServerError(http.StatusInternalServerError, ErrCodeInternalError, "test error", nil)
		assert.Equal(t, ErrCodeInternalError, err.Code)
		assert.Equal(t, http.StatusInternalServerError, err.StatusCode)
	})

	t.Run("panics with non-server status code", func(t *testing.T) {
		assert.Panics(t, func() {
			_ = NewServerError(http.StatusBadRequest, "CODE", "test", nil)
		})
	})

	t.Run("panics with status code 600+", func(t *testing.T) {
		assert.Panics(t, func() {
			_ = NewServerError(600, "CODE", "test", nil)
		})
	})
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		code   string
		status int
	}{
		{"bad request", ErrBadRequest("bad", nil), ErrCodeInvalidRequest, http.StatusBadRequest},
		{"validation", ErrValidation("invalid", nil), ErrCodeValidation, http.StatusBadRequest},
		{"not found", ErrNotFound("missing", nil), ErrCodeNotFound, http.StatusNotFound},
		{"already exists", ErrAlreadyExists("dup", nil), ErrCodeAlreadyExists, http.StatusConflict},
		{"driver", ErrDriver("docker", nil), ErrCodeDriverError, http.StatusBadGateway},
		{"internal", ErrInternalError("boom", nil), ErrCodeInternalError, http.StatusInternalServerError},
		{"unavailable", ErrServiceUnavailable("later", nil), ErrCodeServiceUnavailable, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.StatusCode)
		})
	}
}

func TestGetters(t *testing.T) {
	plain := errors.New("plain failure")
	wrapped := fmt.Errorf("handler: %w", ErrNotFound("table not found", errors.New("no such table: users")))

	assert.Equal(t, http.StatusInternalServerError, GetStatusCode(plain))
	assert.Equal(t, http.StatusNotFound, GetStatusCode(wrapped))

	assert.Empty(t, GetErrorCode(plain))
	assert.Equal(t, ErrCodeNotFound, GetErrorCode(wrapped))

	assert.Equal(t, "plain failure", GetErrorMessage(plain))
	assert.Equal(t, "table not found", GetErrorMessage(wrapped))

	assert.Equal(t, "plain failure", GetErrorDetails(plain))
	assert.Equal(t, "no such table: users", GetErrorDetails(wrapped))
	assert.Equal(t, "bare", GetErrorDetails(ErrBadRequest("bare", nil)))
}

func TestErrorWrapping(t *testing.T) {
	baseErr := errors.New("base error")
	appErr := ErrInternalError("wrapped error", baseErr)

	require.True(t, errors.Is(appErr, baseErr))

	var targetErr *AppError
	require.True(t, errors.As(appErr, &targetErr))
	assert.Equal(t, ErrCodeInternalError, targetErr.Code)
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil is success", nil, ExitOK},
		{"usage error", UsageError(errors.New(`unknown command "bogus"`)), ExitUsage},
		{"wrapped usage error", fmt.Errorf("parse: %w", UsageError(errors.New("bad flag"))), ExitUsage},
		{"dispatch error", errors.New("failed to init engine"), ExitFailure},
		{"app error", ErrNotFound("missing", nil), ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExitCode(tt.err))
		})
	}
}

func TestUsageError(t *testing.T) {
	assert.NoError(t, UsageError(nil))

	cause := errors.New("required flag(s) \"image\" not set")
	err := UsageError(cause)
	assert.ErrorIs(t, err, ErrUsage)
	assert.ErrorIs(t, err, cause)
}

func TestFormatChain(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		assert.Empty(t, FormatChain(nil))
	})

	t.Run("single error", func(t *testing.T) {
		assert.Equal(t, "Error: boom", FormatChain(errors.New("boom")))
	})

	t.Run("cause chain", func(t *testing.T) {
		root := errors.New("connection refused")
		err := fmt.Errorf("failed to init engine: %w", ErrDriver("docker unreachable", root))

		expected := "Error: failed to init engine: docker unreachable: connection refused\n\n" +
			"Caused by:\n" +
			"    0: docker unreachable: connection refused\n" +
			"    1: connection refused"
		assert.Equal(t, expected, FormatChain(err))
	})

	t.Run("usage error lists both wrapped errors", func(t *testing.T) {
		err := UsageError(errors.New("unknown flag: --bogus"))

		expected := "Error: usage error: unknown flag: --bogus\n\n" +
			"Caused by:\n" +
			"    0: usage error\n" +
			"    1: unknown flag: --bogus"
		assert.Equal(t, expected, FormatChain(err))
	})
}
