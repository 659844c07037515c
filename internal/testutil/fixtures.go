// Package testutil provides shared testing utilities and helpers.
package testutil

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"

	"github.com/cloudemu/zero/internal/constants"
	"github.com/cloudemu/zero/internal/engine"
)

// PolicyBuilder provides a fluent interface for building IAM policy documents.
type PolicyBuilder struct {
	statements []map[string]any
}

// NewPolicyBuilder creates an empty policy document.
func NewPolicyBuilder() *PolicyBuilder {
	return &PolicyBuilder{}
}

// Allow adds an Allow statement.
func (b *PolicyBuilder) Allow(action, resource any) *PolicyBuilder {
	return b.statement("Allow", action, resource)
}

// Deny adds a Deny statement.
func (b *PolicyBuilder) Deny(action, resource any) *PolicyBuilder {
	return b.statement("Deny", action, resource)
}

func (b *PolicyBuilder) statement(effect string, action, resource any) *PolicyBuilder {
	b.statements = append(b.statements, map[string]any{
		"Effect":   effect,
		"Action":   action,
		"Resource": resource,
	})
	return b
}

// Build returns the policy document as JSON.
func (b *PolicyBuilder) Build() json.RawMessage {
	data, _ := json.Marshal(map[string]any{
		"Version":   "2012-10-17",
		"Statement": b.statements,
	})
	return data
}

// NewTestEngine returns a mocked engine with an in-memory database and
// storage under a temporary directory. It is closed when the test ends.
func NewTestEngine(t *testing.T) *engine.Engine {
	t.Helper()
	eng, err := engine.MockLocal(engine.Options{StorageDir: t.TempDir()})
	if err != nil {
		t.Fatalf("failed to create test engine: %v", err)
	}
	t.Cleanup(func() { _ = eng.Close() })
	return eng
}

// TestContext returns a context bounded by the standard test timeout.
func TestContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), constants.TestContextTimeout)
	t.Cleanup(cancel)
	return ctx
}

// TestLogger returns a logger writing debug output to stderr.
func TestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// SilentLogger returns a logger that discards everything.
func SilentLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
