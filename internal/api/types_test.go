package api

import (
	"errors"
	"net/http"
	"testing"

	"github.com/cloudemu/zero/internal/constants"
	apperrors "github.com/cloudemu/zero/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequest(t *testing.T) {
	t.Run("with body", func(t *testing.T) {
		req, err := NewRequest(http.MethodPost, "/v1/workloads", CreateWorkloadRequest{ID: "web", Image: "nginx"})
		require.NoError(t, err)

		assert.Equal(t, http.MethodPost, req.Method)
		assert.Equal(t, "/v1/workloads", req.Path)
		assert.JSONEq(t, `{"id":"web","image":"nginx"}`, string(req.Body))
		assert.Equal(t, constants.ContentTypeJSON, req.Headers[constants.ContentTypeHeader])
	})

	t.Run("without body", func(t *testing.T) {
		req, err := NewRequest(http.MethodGet, "/v1/nodes", nil)
		require.NoError(t, err)
		assert.Empty(t, req.Body)
		assert.NotNil(t, req.Headers)
	})

	t.Run("unencodable body", func(t *testing.T) {
		_, err := NewRequest(http.MethodPost, "/v1/x", make(chan int))
		assert.Error(t, err)
	})
}

func TestJSONResponse(t *testing.T) {
	resp, err := JSON(http.StatusOK, StatusResponse{Status: "Deleted", ID: "web"})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, constants.ContentTypeJSON, resp.Headers[constants.ContentTypeHeader])
	assert.JSONEq(t, `{"status":"Deleted","id":"web"}`, string(resp.Body))
	assert.False(t, resp.IsError())
	assert.NoError(t, resp.AsError())

	var decoded StatusResponse
	require.NoError(t, resp.Decode(&decoded))
	assert.Equal(t, "web", decoded.ID)
}

func TestOK(t *testing.T) {
	resp := OK([]byte("pong"))
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "pong", string(resp.Body))
}

func TestErrorRoundTrip(t *testing.T) {
	original := apperrors.ErrNotFound("queue not found", errors.New("no queue named jobs"))

	resp := Error(original)
	assert.Equal(t, http.StatusNotFound, resp.Status)
	assert.True(t, resp.IsError())
	assert.JSONEq(t,
		`{"error":"queue not found","code":"NOT_FOUND","details":"no queue named jobs"}`,
		string(resp.Body))

	err := resp.AsError()
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrCodeNotFound, appErr.Code)
	assert.Equal(t, http.StatusNotFound, appErr.StatusCode)
	assert.Equal(t, "queue not found: no queue named jobs", err.Error())
}

func TestErrorFromPlainError(t *testing.T) {
	resp := Error(errors.New("disk full"))
	assert.Equal(t, http.StatusInternalServerError, resp.Status)

	err := resp.AsError()
	assert.Equal(t, "disk full", err.Error())
}

func TestAsErrorWithNonJSONBody(t *testing.T) {
	resp := &Response{Status: http.StatusBadGateway, Body: []byte("upstream exploded")}

	err := resp.AsError()
	require.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, apperrors.GetStatusCode(err))
	assert.Equal(t, "Bad Gateway: upstream exploded", err.Error())
}
