// Package client provides HTTP client functionality for a remote ZeroCloud
// API. It implements the same request contract as the in-process provider
// and streams resource events over a websocket.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/cloudemu/zero/internal/api"
	"github.com/cloudemu/zero/internal/constants"
	"github.com/cloudemu/zero/internal/events"
	"github.com/cloudemu/zero/internal/logger"

	"github.com/gorilla/websocket"
)

// Client talks to a ZeroCloud API endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
	dialer     *websocket.Dialer
	logger     *slog.Logger
}

// New creates a new API client for endpoint, e.g. http://localhost:8080.
func New(endpoint string, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		endpoint:   strings.TrimRight(endpoint, "/"),
		httpClient: &http.Client{},
		dialer:     websocket.DefaultDialer,
		logger:     log,
	}
}

// buildURL constructs the full API URL from path and query string
func (c *Client) buildURL(path string) (string, error) {
	pathPart, queryString, _ := strings.Cut(path, "?")

	apiURL, err := url.JoinPath(c.endpoint, pathPart)
	if err != nil {
		return "", err
	}
	if queryString != "" {
		apiURL = apiURL + "?" + queryString
	}
	return apiURL, nil
}

// HandleRequest sends req to the endpoint. Responses with an error status
// are returned as *errors.AppError.
func (c *Client) HandleRequest(ctx context.Context, req *api.Request) (*api.Response, error) {
	apiURL, err := c.buildURL(req.Path)
	if err != nil {
		return nil, fmt.Errorf("invalid API endpoint: %w", err)
	}

	var bodyReader io.Reader
	if len(req.Body) > 0 {
		bodyReader = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, apiURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	if len(req.Body) > 0 && httpReq.Header.Get(constants.ContentTypeHeader) == "" {
		httpReq.Header.Set(constants.ContentTypeHeader, constants.ContentTypeJSON)
	}

	logArgs := []any{
		"operation", "HTTP.Request",
		"method", req.Method,
		"url", apiURL,
		"bodySize", len(req.Body),
	}
	logArgs = append(logArgs, logger.GetDeadlineInfo(ctx)...)
	c.logger.Debug("calling external service", logArgs...)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer func() {
		_ = httpResp.Body.Close()
	}()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug("received HTTP response",
		"status", httpResp.StatusCode,
		"bodySize", len(body),
		"method", req.Method,
		"url", apiURL)

	resp := &api.Response{
		Status:  httpResp.StatusCode,
		Headers: make(map[string]string, len(httpResp.Header)),
		Body:    body,
	}
	for k := range httpResp.Header {
		resp.Headers[k] = httpResp.Header.Get(k)
	}
	if resp.IsError() {
		return nil, resp.AsError()
	}
	return resp, nil
}

// eventsURL maps the endpoint onto the websocket events URL.
func (c *Client) eventsURL() (string, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http", "":
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + constants.EventsPath
	return u.String(), nil
}

// StreamEvents calls fn for every event published by the endpoint until
// ctx is done, the server closes the stream, or fn returns an error.
func (c *Client) StreamEvents(ctx context.Context, fn func(events.Event) error) error {
	wsURL, err := c.eventsURL()
	if err != nil {
		return fmt.Errorf("invalid API endpoint: %w", err)
	}

	conn, httpResp, err := c.dialer.DialContext(ctx, wsURL, nil)
	if httpResp != nil && httpResp.Body != nil {
		defer func() {
			_ = httpResp.Body.Close()
		}()
	}
	if err != nil {
		return fmt.Errorf("failed to connect to websocket: %w", err)
	}
	defer func() {
		_ = conn.Close()
	}()
	c.logger.Debug("connected to event stream", "url", wsURL)

	stop := context.AfterFunc(ctx, func() {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		_ = conn.Close()
	})
	defer stop()

	for {
		_, data, readErr := conn.ReadMessage()
		if readErr != nil {
			if ctx.Err() != nil {
				return nil
			}
			if websocket.IsCloseError(readErr, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("event stream closed: %w", readErr)
		}

		var ev events.Event
		if err = json.Unmarshal(data, &ev); err != nil {
			c.logger.Debug("skipping malformed event", "error", err)
			continue
		}
		if err = fn(ev); err != nil {
			if errors.Is(err, ErrStopStreaming) {
				return nil
			}
			return err
		}
	}
}

// ErrStopStreaming may be returned by a StreamEvents callback to end the
// stream without error.
var ErrStopStreaming = errors.New("stop streaming")
