package zerocli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/cloudemu/zero/internal/constants"
	apperrors "github.com/cloudemu/zero/internal/errors"
	"github.com/cloudemu/zero/internal/output"
	"github.com/cloudemu/zero/internal/provider"

	"github.com/fsnotify/fsnotify"
)

// watchAndDeploy deploys cmd and redeploys it every time its code file
// changes, until ctx is done or the process is interrupted.
func watchAndDeploy(
	ctx context.Context, cmd FuncDeploy, svc provider.Service, out *output.Printer, log *slog.Logger,
) error {
	path, ok := cmd.codeFile()
	if !ok {
		return fmt.Errorf("--watch requires --code to be a file: %w", apperrors.ErrUsage)
	}
	cmd.fromFile = true

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Editors often replace files on save, so watch the directory.
	if err = watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}

	if err = ExecuteCommand(ctx, cmd, svc, out); err != nil {
		return err
	}
	out.Infof("Watching %s for changes (Ctrl+C to stop)...", path)

	return watchLoop(ctx, watcher, filepath.Clean(path), redeployer(ctx, cmd, svc, out), log)
}

// redeployer returns the redeploy step of the watch loop. A code file that
// is missing at that moment (mid rename-on-save) skips the redeploy; the
// following create event triggers the next one.
func redeployer(ctx context.Context, cmd FuncDeploy, svc provider.Service, out *output.Printer) func() {
	return func() {
		if _, ok := cmd.codeFile(); !ok {
			out.Warningf("%s is not readable, skipping redeploy of %s", cmd.Code, cmd.Function)
			return
		}
		if err := ExecuteCommand(ctx, cmd, svc, out); err != nil {
			out.Warningf("Redeploy of %s failed: %v", cmd.Function, err)
			return
		}
		out.Successf("Function %s redeployed", cmd.Function)
	}
}

// watchLoop calls redeploy once per burst of writes to path.
func watchLoop(
	ctx context.Context, watcher *fsnotify.Watcher, path string, redeploy func(), log *slog.Logger,
) error {
	debounce := time.NewTimer(constants.FuncWatchDebounce)
	debounce.Stop()
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path || !event.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			log.Debug("function code changed", "path", event.Name, "op", event.Op.String())
			debounce.Reset(constants.FuncWatchDebounce)

		case <-debounce.C:
			redeploy()

		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("watch error", "error", watchErr)
		}
	}
}
