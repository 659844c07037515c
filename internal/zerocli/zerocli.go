// Package zerocli implements the zero command dispatcher: it turns a parsed
// Cli into API requests against either an in-process engine or a remote
// endpoint and renders the responses.
package zerocli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/cloudemu/zero/internal/api"
	"github.com/cloudemu/zero/internal/client"
	"github.com/cloudemu/zero/internal/config"
	"github.com/cloudemu/zero/internal/constants"
	"github.com/cloudemu/zero/internal/engine"
	apperrors "github.com/cloudemu/zero/internal/errors"
	"github.com/cloudemu/zero/internal/events"
	"github.com/cloudemu/zero/internal/logger"
	"github.com/cloudemu/zero/internal/output"
	"github.com/cloudemu/zero/internal/provider"
	"github.com/cloudemu/zero/internal/services"
)

// Cli is a fully parsed invocation of zero.
type Cli struct {
	// Native forces the OS virtualisation drivers instead of Docker.
	Native bool
	// Command is the action to run.
	Command Command

	Endpoint   string
	Output     constants.OutputFormat
	Timeout    time.Duration
	Debug      bool
	Verbose    bool
	ConfigPath string

	// Stdout and Stderr default to the process streams.
	Stdout io.Writer
	Stderr io.Writer
}

func (c *Cli) streams() (io.Writer, io.Writer) {
	stdout, stderr := c.Stdout, c.Stderr
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	return stdout, stderr
}

// longRunning reports whether the command runs until interrupted, in which
// case --timeout does not apply.
func (c *Cli) longRunning() bool {
	switch cmd := c.Command.(type) {
	case Serve, Events:
		return true
	case FuncDeploy:
		return cmd.Watch
	}
	return false
}

// RunCLI executes cli. A nil error means the command succeeded.
func RunCLI(ctx context.Context, cli *Cli) error {
	if cli == nil || cli.Command == nil {
		return fmt.Errorf("no command given: %w", apperrors.ErrUsage)
	}
	stdout, stderr := cli.streams()
	out := output.New(stdout, stderr, cli.Output)

	cfg, err := config.Load(cli.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cli.Endpoint != "" {
		cfg.Endpoint = cli.Endpoint
	}

	log := newLogger(cli, cfg, stderr)
	if cli.Verbose {
		out.Infof("CLI build: %s", output.Bold(*constants.GetVersion()))
		if cfg.IsRemote() {
			out.Infof("API endpoint: %s", output.Bold(cfg.Endpoint))
		}
	}

	if cli.Timeout > 0 && !cli.longRunning() {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cli.Timeout)
		defer cancel()
		if cli.Verbose {
			out.Infof("Timeout: %s", cli.Timeout)
		}
	}

	if runtime.GOOS == "linux" {
		if hint := engine.CheckWSL(); hint != "" {
			out.Warningf("%s", hint)
		}
	}

	start := time.Now()
	defer func() {
		if cli.Verbose {
			out.Infof("Time elapsed: %s", output.Bold(time.Since(start).String()))
		}
	}()

	switch cmd := cli.Command.(type) {
	case Serve:
		return runServe(ctx, cli, cmd, cfg, out, log)
	case Events:
		return runEvents(ctx, cfg, out, log)
	}

	svc, closeBackend, err := newBackend(ctx, cli, cfg, out, log)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := closeBackend(); closeErr != nil {
			log.Warn("failed to close engine", "error", closeErr)
		}
	}()

	if deploy, ok := cli.Command.(FuncDeploy); ok && deploy.Watch {
		return watchAndDeploy(ctx, deploy, svc, out, log)
	}
	return ExecuteCommand(ctx, cli.Command, svc, out)
}

func newLogger(cli *Cli, cfg *config.Config, stderr io.Writer) *slog.Logger {
	level := cfg.GetLogLevel()
	if cli.Debug {
		level = slog.LevelDebug
	} else if _, isServe := cli.Command.(Serve); !isServe && level < slog.LevelWarn {
		// keep one-shot commands quiet unless asked
		level = slog.LevelWarn
	}

	env := constants.CLI
	if cfg.LogFormat == "json" {
		env = constants.Production
	}
	log := slog.New(logger.NewHandler(stderr, env, level))
	slog.SetDefault(log)
	return log
}

// newBackend returns the service commands are sent to and a function
// releasing it.
func newBackend(
	ctx context.Context, cli *Cli, cfg *config.Config, out *output.Printer, log *slog.Logger,
) (provider.Service, func() error, error) {
	if cfg.IsRemote() {
		log.Debug("using remote endpoint", "endpoint", cfg.Endpoint)
		return client.New(cfg.Endpoint, log), func() error { return nil }, nil
	}

	if cli.Native {
		out.Infof("Forcing native OS drivers...")
	}
	eng, err := newEngine(ctx, cli.Native, false, cfg)
	if err != nil {
		return nil, nil, err
	}

	p, err := newProvider(ctx, eng, cfg, fmt.Sprintf("http://localhost:%d", cfg.Port), nil, log)
	if err != nil {
		_ = eng.Close()
		return nil, nil, err
	}
	return p, eng.Close, nil
}

func newEngine(ctx context.Context, native, mock bool, cfg *config.Config) (*engine.Engine, error) {
	opts := engine.Options{
		StorageDir:   cfg.StorageDir,
		DatabasePath: cfg.DatabasePath,
		DockerHost:   cfg.DockerHost,
	}

	var (
		eng *engine.Engine
		err error
	)
	switch {
	case mock:
		eng, err = engine.MockLocal(opts)
	case native:
		eng, err = engine.Native(opts)
	default:
		eng, err = engine.Auto(ctx, opts)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to init engine: %w", err)
	}
	return eng, nil
}

func newProvider(
	ctx context.Context,
	eng *engine.Engine,
	cfg *config.Config,
	baseURL string,
	pub events.Publisher,
	log *slog.Logger,
) (*provider.Provider, error) {
	svc, err := services.New(ctx, eng, services.Options{
		FunctionTimeout:        cfg.FunctionTimeout,
		QueueVisibilityTimeout: cfg.QueueVisibilityTimeout,
		QueueBaseURL:           baseURL,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to init services: %w", err)
	}
	return provider.New(eng, svc, pub, log), nil
}

// ExecuteCommand sends the request behind cmd to svc and renders the response.
func ExecuteCommand(ctx context.Context, cmd Command, svc provider.Service, out *output.Printer) error {
	rc, ok := cmd.(requestCommand)
	if !ok {
		return fmt.Errorf("command %q cannot be sent as a request", cmd.Name())
	}

	req, err := rc.request()
	if err != nil {
		return fmt.Errorf("%s: %w", cmd.Name(), err)
	}
	if msg := rc.progress(); msg != "" {
		out.Infof("%s", msg)
	}

	resp, err := svc.HandleRequest(ctx, req)
	if err != nil {
		return fmt.Errorf("%s failed: %w", cmd.Name(), err)
	}
	return render(out, resp)
}

func render(out *output.Printer, resp *api.Response) error {
	if resp == nil {
		return errors.New("empty response")
	}
	return out.Render(resp.Body)
}
