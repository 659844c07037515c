package constants

import "time"

// ContentTypeHeader is the HTTP Content-Type header name.
const ContentTypeHeader = "Content-Type"

// ContentTypeJSON is the media type of every API response body.
const ContentTypeJSON = "application/json"

// RequestIDHeader is the header carrying the request ID on facade responses.
const RequestIDHeader = "X-Request-Id"

// HTTPStatusBadRequest is the HTTP status code for bad requests (400)
const HTTPStatusBadRequest = 400

// HTTPStatusServerError is the HTTP status code for server errors (500)
const HTTPStatusServerError = 500

// APIPrefix is the path prefix of every ZeroCloud API route.
const APIPrefix = "/v1"

// EventsPath is the websocket endpoint streaming resource events.
const EventsPath = APIPrefix + "/events"

// ServerReadTimeout is the HTTP server read timeout
const ServerReadTimeout = 15 * time.Second

// ServerWriteTimeout is the HTTP server write timeout. It outlasts
// DefaultFunctionTimeout so synchronous invocations can complete.
const ServerWriteTimeout = 60 * time.Second

// ServerIdleTimeout is the HTTP server idle timeout
const ServerIdleTimeout = 60 * time.Second

// ServerShutdownTimeout is the timeout for graceful server shutdown
const ServerShutdownTimeout = 5 * time.Second

// CORSMaxAge is the max age, in seconds, of CORS preflight responses.
const CORSMaxAge = 3600
