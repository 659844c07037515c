package zerocli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudemu/zero/internal/client"
	"github.com/cloudemu/zero/internal/config"
	"github.com/cloudemu/zero/internal/constants"
	"github.com/cloudemu/zero/internal/events"
	"github.com/cloudemu/zero/internal/output"
	"github.com/cloudemu/zero/internal/server"
)

// runServe starts the HTTP facade and blocks until interrupted.
func runServe(
	ctx context.Context, cli *Cli, cmd Serve, cfg *config.Config, out *output.Printer, log *slog.Logger,
) error {
	port := cfg.Port
	if cmd.Port != 0 {
		port = cmd.Port
	}

	if cli.Native {
		out.Infof("Forcing native OS drivers...")
	}
	eng, err := newEngine(ctx, cli.Native, cmd.Mock, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := eng.Close(); closeErr != nil {
			log.Warn("failed to close engine", "error", closeErr)
		}
	}()

	hub := events.NewHub(log)
	p, err := newProvider(ctx, eng, cfg, fmt.Sprintf("http://localhost:%d", port), hub, log)
	if err != nil {
		return err
	}

	out.Infof("Serving ZeroCloud API on :%d (compute=%s storage=%s network=%s, Ctrl+C to stop)",
		port, eng.Compute.Name(), eng.Storage.Name(), eng.Network.Name())
	return server.New(p.Handler(), hub, log).Run(ctx, fmt.Sprintf(":%d", port))
}

// runEvents prints every event published by a running facade until
// interrupted. Without a configured endpoint the local facade is used.
func runEvents(ctx context.Context, cfg *config.Config, out *output.Printer, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("http://localhost:%d", cfg.Port)
	}

	out.Infof("Streaming events from %s (Ctrl+C to stop)...", endpoint)
	err := client.New(endpoint, log).StreamEvents(ctx, func(ev events.Event) error {
		if out.Format != constants.OutputText {
			data, marshalErr := json.Marshal(ev)
			if marshalErr != nil {
				return fmt.Errorf("failed to encode event: %w", marshalErr)
			}
			return out.Render(data)
		}
		out.Println(ev.Time.Format(time.TimeOnly), ev.Type, ev.Resource, ev.ID)
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
