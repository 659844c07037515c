// Package provider implements the ZeroCloud control plane: a chi router
// exposing every service under /v1, usable in-process through
// HandleRequest or mounted on the HTTP facade.
package provider

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/cloudemu/zero/internal/api"
	"github.com/cloudemu/zero/internal/constants"
	"github.com/cloudemu/zero/internal/engine"
	"github.com/cloudemu/zero/internal/events"
	"github.com/cloudemu/zero/internal/logger"
	"github.com/cloudemu/zero/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Service is implemented by anything that can answer API requests: the
// in-process provider and the remote HTTP client.
type Service interface {
	HandleRequest(ctx context.Context, req *api.Request) (*api.Response, error)
}

// Provider routes API requests to the engine and the services.
type Provider struct {
	engine   *engine.Engine
	svc      *services.Services
	events   events.Publisher
	router   *chi.Mux
	validate *validator.Validate
	logger   *slog.Logger
}

// New creates a provider. A nil publisher discards events.
func New(eng *engine.Engine, svc *services.Services, pub events.Publisher, log *slog.Logger) *Provider {
	if pub == nil {
		pub = events.Discard{}
	}
	if log == nil {
		log = slog.Default()
	}

	p := &Provider{
		engine:   eng,
		svc:      svc,
		events:   pub,
		validate: newValidator(),
		logger:   log,
	}
	p.router = p.routes()
	return p
}

// Handler returns the provider's router.
func (p *Provider) Handler() http.Handler {
	return p.router
}

// HandleRequest serves req in-process. Responses with an error status are
// returned as *errors.AppError. Requests without a request ID in ctx get a
// fresh one, echoed in the X-Request-Id response header.
func (p *Provider) HandleRequest(ctx context.Context, req *api.Request) (*api.Response, error) {
	requestID := logger.GetRequestID(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
		ctx = logger.WithRequestID(ctx, requestID)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.Path, bytes.NewReader(req.Body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request %s %s: %w", req.Method, req.Path, err)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	rec := newRecorder()
	rec.header.Set(constants.RequestIDHeader, requestID)
	p.router.ServeHTTP(rec, httpReq)

	resp := rec.response()
	if resp.IsError() {
		return nil, resp.AsError()
	}
	return resp, nil
}

// recorder is an in-memory http.ResponseWriter.
type recorder struct {
	header http.Header
	body   bytes.Buffer
	status int
}

func newRecorder() *recorder {
	return &recorder{header: http.Header{}}
}

func (r *recorder) Header() http.Header { return r.header }

func (r *recorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.body.Write(b)
}

func (r *recorder) WriteHeader(status int) {
	if r.status == 0 {
		r.status = status
	}
}

func (r *recorder) response() *api.Response {
	status := r.status
	if status == 0 {
		status = http.StatusOK
	}

	headers := make(map[string]string, len(r.header))
	for k := range r.header {
		headers[k] = r.header.Get(k)
	}
	return &api.Response{Status: status, Headers: headers, Body: r.body.Bytes()}
}
