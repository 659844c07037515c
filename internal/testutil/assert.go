package testutil

import (
	"encoding/json"
	"testing"

	"github.com/cloudemu/zero/internal/api"
	apperrors "github.com/cloudemu/zero/internal/errors"

	"github.com/stretchr/testify/assert"
)

// AssertAppErrorCode checks if the error has a specific error code.
func AssertAppErrorCode(t *testing.T, err error, expectedCode string) bool {
	t.Helper()
	code := apperrors.GetErrorCode(err)
	if code != expectedCode {
		return assert.Fail(t, "Error code mismatch", "Expected error code %q, got %q (%v)", expectedCode, code, err)
	}
	return true
}

// AssertAppErrorStatus checks if the error has a specific HTTP status code.
func AssertAppErrorStatus(t *testing.T, err error, expectedStatus int) bool {
	t.Helper()
	status := apperrors.GetStatusCode(err)
	if status != expectedStatus {
		return assert.Fail(t, "Status code mismatch", "Expected status %d, got %d (%v)", expectedStatus, status, err)
	}
	return true
}

// AssertErrorResponse checks the status and error code of an error response.
func AssertErrorResponse(t *testing.T, resp *api.Response, expectedStatus int, expectedCode string) bool {
	t.Helper()
	if !assert.NotNil(t, resp) {
		return false
	}
	if !assert.Equal(t, expectedStatus, resp.Status, "body: %s", resp.Body) {
		return false
	}

	var body api.ErrorResponse
	if !assert.NoError(t, json.Unmarshal(resp.Body, &body)) {
		return false
	}
	return assert.Equal(t, expectedCode, body.Code)
}

// DecodeBody unmarshals a response body into T, failing the test on error.
func DecodeBody[T any](t *testing.T, resp *api.Response) T {
	t.Helper()
	var v T
	if !assert.NoError(t, json.Unmarshal(resp.Body, &v), "body: %s", resp.Body) {
		t.FailNow()
	}
	return v
}
