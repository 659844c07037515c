// Package logger provides structured logging utilities for zero.
// It includes context-aware logging and log level management.
package logger

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cloudemu/zero/internal/constants"
)

type contextKey string

const (
	requestIDContextKey contextKey = "requestID"
)

// ContextExtractor pulls a request ID out of a context populated by some
// other component, such as a router middleware.
type ContextExtractor interface {
	ExtractRequestID(ctx context.Context) (string, bool)
}

var (
	extractorsMu      sync.RWMutex
	contextExtractors []ContextExtractor
)

// RegisterContextExtractor adds an extractor consulted by GetRequestID when
// the context carries no request ID of its own.
func RegisterContextExtractor(e ContextExtractor) {
	extractorsMu.Lock()
	defer extractorsMu.Unlock()
	contextExtractors = append(contextExtractors, e)
}

// ClearContextExtractors removes every registered extractor.
func ClearContextExtractors() {
	extractorsMu.Lock()
	defer extractorsMu.Unlock()
	contextExtractors = nil
}

// WithRequestID returns a copy of ctx carrying requestID.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDContextKey, requestID)
}

// GetRequestID extracts the request ID from the context.
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(requestIDContextKey).(string); ok && requestID != "" {
		return requestID
	}

	extractorsMu.RLock()
	defer extractorsMu.RUnlock()
	for _, e := range contextExtractors {
		if requestID, ok := e.ExtractRequestID(ctx); ok && requestID != "" {
			return requestID
		}
	}

	return ""
}

// DeriveRequestLogger returns a logger enriched with request-scoped fields
// available in the provided context.
func DeriveRequestLogger(ctx context.Context, base *slog.Logger) *slog.Logger {
	if base == nil {
		base = slog.Default()
	}

	if requestID := GetRequestID(ctx); requestID != "" {
		return base.With(constants.RequestIDLogField, requestID)
	}

	return base
}

// GetDeadlineInfo returns logging attributes for context deadline information.
// Returns the absolute deadline time and remaining duration if set, or "none" if no deadline.
func GetDeadlineInfo(ctx context.Context) []any {
	deadline, ok := ctx.Deadline()
	if !ok {
		return []any{"deadline", "none", "deadline_remaining", "none"}
	}

	remaining := time.Until(deadline)
	return []any{
		"deadline", deadline.Format(time.RFC3339),
		"deadline_remaining", remaining.String(),
	}
}
