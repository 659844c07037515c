package client

import (
	"context"

	"github.com/cloudemu/zero/internal/api"
	"github.com/cloudemu/zero/internal/events"
)

// Interface defines the API client interface for dependency injection and testing
type Interface interface {
	HandleRequest(ctx context.Context, req *api.Request) (*api.Response, error)
	StreamEvents(ctx context.Context, fn func(events.Event) error) error
}

// Compile-time check to ensure Client implements Interface
var _ Interface = (*Client)(nil)
