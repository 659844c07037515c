// Package api defines the API types and structures used across zero.
// It contains the generic request/response envelope exchanged with every
// service plus the request and response bodies of each route.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/cloudemu/zero/internal/constants"
	apperrors "github.com/cloudemu/zero/internal/errors"
)

// Request is a transport-neutral HTTP-like request handled by a Service.
type Request struct {
	Method  string            `json:"method"`
	Path    string            `json:"path"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    []byte            `json:"body,omitempty"`
}

// NewRequest builds a request whose body is the JSON encoding of body.
// A nil body produces an empty request body.
func NewRequest(method, path string, body any) (*Request, error) {
	req := &Request{
		Method:  method,
		Path:    path,
		Headers: map[string]string{},
	}
	if body == nil {
		return req, nil
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}
	req.Body = data
	req.Headers[constants.ContentTypeHeader] = constants.ContentTypeJSON
	return req, nil
}

// Response is a transport-neutral HTTP-like response returned by a Service.
type Response struct {
	Status  int               `json:"status"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    []byte            `json:"body,omitempty"`
}

// OK returns a 200 response with a raw body.
func OK(body []byte) *Response {
	return &Response{
		Status:  http.StatusOK,
		Headers: map[string]string{},
		Body:    body,
	}
}

// JSON returns a response with the JSON encoding of v.
func JSON(status int, v any) (*Response, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode response body: %w", err)
	}
	return &Response{
		Status:  status,
		Headers: map[string]string{constants.ContentTypeHeader: constants.ContentTypeJSON},
		Body:    data,
	}, nil
}

// Error returns the error response for err.
func Error(err error) *Response {
	resp, encErr := JSON(apperrors.GetStatusCode(err), ErrorResponse{
		Error:   apperrors.GetErrorMessage(err),
		Code:    apperrors.GetErrorCode(err),
		Details: apperrors.GetErrorDetails(err),
	})
	if encErr != nil {
		return &Response{Status: http.StatusInternalServerError, Body: []byte(err.Error())}
	}
	return resp
}

// IsError reports whether the response carries an error status.
func (r *Response) IsError() bool {
	return r.Status >= http.StatusBadRequest
}

// Decode unmarshals the response body into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response body: %w", err)
	}
	return nil
}

// AsError converts an error response back into an *AppError.
// It returns nil for successful responses.
func (r *Response) AsError() error {
	if !r.IsError() {
		return nil
	}

	var body ErrorResponse
	if err := json.Unmarshal(r.Body, &body); err != nil || body.Error == "" {
		body.Error = http.StatusText(r.Status)
		if len(r.Body) > 0 {
			body.Details = string(r.Body)
		}
	}

	var cause error
	if body.Details != "" && body.Details != body.Error {
		cause = fmt.Errorf("%s", body.Details)
	}

	return &apperrors.AppError{
		Code:       body.Code,
		Message:    body.Error,
		StatusCode: r.Status,
		Cause:      cause,
	}
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// HealthResponse represents the response to a health check request
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// MessageResponse is returned for paths no service claims.
type MessageResponse struct {
	Message string `json:"message"`
}

// StatusResponse is the generic acknowledgement of a mutation.
type StatusResponse struct {
	Status string `json:"status"`
	ID     string `json:"id,omitempty"`
	Name   string `json:"name,omitempty"`
}
