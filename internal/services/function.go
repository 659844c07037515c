package services

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/cloudemu/zero/internal/api"
	"github.com/cloudemu/zero/internal/constants"
	apperrors "github.com/cloudemu/zero/internal/errors"
)

// ExecResult is the outcome of a finished process.
type ExecResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Executor runs a program to completion. It returns an error only when the
// program could not be started or was cancelled; a non-zero exit is
// reported through ExecResult.
type Executor interface {
	Execute(ctx context.Context, program string, args ...string) (*ExecResult, error)
}

// ProcessExecutor runs programs with os/exec.
type ProcessExecutor struct{}

// Execute implements Executor.
func (ProcessExecutor) Execute(ctx context.Context, program string, args ...string) (*ExecResult, error) {
	cmd := exec.CommandContext(ctx, program, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
	default:
		return nil, err
	}

	return &ExecResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: cmd.ProcessState.ExitCode(),
	}, nil
}

// FuncService stores function code and runs it with a local runtime.
type FuncService struct {
	db       *sql.DB
	executor Executor
	timeout  time.Duration
	logger   *slog.Logger
}

func (s *FuncService) migrate(ctx context.Context) error {
	return execAll(ctx, s.db, `CREATE TABLE IF NOT EXISTS functions (
		name TEXT PRIMARY KEY,
		handler TEXT NOT NULL,
		code TEXT NOT NULL
	)`)
}

// CreateFunction stores or replaces a function.
func (s *FuncService) CreateFunction(ctx context.Context, name, handler, code string) error {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return apperrors.ErrValidation(fmt.Sprintf("invalid function name %q", name), nil)
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO functions (name, handler, code) VALUES (?, ?, ?)", name, handler, code)
	if err != nil {
		return internalError("store function "+name, err)
	}
	return nil
}

// ListFunctions returns function names.
func (s *FuncService) ListFunctions(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM functions ORDER BY name")
	if err != nil {
		return nil, internalError("list functions", err)
	}
	defer func() { _ = rows.Close() }()

	names := []string{}
	for rows.Next() {
		var name string
		if err = rows.Scan(&name); err != nil {
			return nil, internalError("scan function", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// runtimeFor picks the interpreter and entry file for a handler.
func runtimeFor(handler string) (program, file string) {
	if strings.Contains(handler, "py") {
		return "python3", "main.py"
	}
	return "node", "index.js"
}

// Invoke runs the function with payload as its single argument. When the
// runtime is not installed a mock result is returned instead.
func (s *FuncService) Invoke(ctx context.Context, name string, payload json.RawMessage) (*api.InvokeResponse, error) {
	var handler, code string
	err := s.db.QueryRowContext(ctx, "SELECT handler, code FROM functions WHERE name = ?", name).Scan(&handler, &code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrNotFound(fmt.Sprintf("Function %s not found", name), nil)
	}
	if err != nil {
		return nil, internalError("load function "+name, err)
	}

	if len(bytes.TrimSpace(payload)) == 0 {
		payload = json.RawMessage("{}")
	}
	var compact bytes.Buffer
	if err = json.Compact(&compact, payload); err != nil {
		return nil, apperrors.ErrValidation("payload must be valid JSON", err)
	}

	dir, err := os.MkdirTemp("", "zero-func-")
	if err != nil {
		return nil, internalError("prepare function sandbox", err)
	}
	defer func() { _ = os.RemoveAll(dir) }()

	program, file := runtimeFor(handler)
	path := filepath.Join(dir, file)
	if err = os.WriteFile(path, []byte(code), 0o600); err != nil {
		return nil, internalError("write function code", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	s.logger.Debug("invoking function", "function", name, "runtime", program)
	result, err := s.executor.Execute(runCtx, program, path, compact.String())
	switch {
	case err == nil:
		exitCode := result.ExitCode
		return &api.InvokeResponse{
			Status:   "Executed",
			Function: name,
			Stdout:   result.Stdout,
			Stderr:   result.Stderr,
			ExitCode: &exitCode,
		}, nil
	case errors.Is(err, context.DeadlineExceeded):
		return nil, apperrors.ErrDriver(fmt.Sprintf("function %s timed out after %s", name, s.timeout), err)
	case errors.Is(err, context.Canceled):
		return nil, err
	default:
		s.logger.Warn("function runtime unavailable, returning mock result", "function", name, "error", err)
		return &api.InvokeResponse{
			Status:   "MockExecuted",
			Function: name,
			Warning:  fmt.Sprintf("Runtime execution failed: %v. Falling back to mock.", err),
			Result:   constants.MockFunctionResult,
		}, nil
	}
}
