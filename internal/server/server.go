// Package server implements the ZeroCloud HTTP facade started by
// `zero serve`: the provider's routes behind request-scoped middleware plus
// a websocket endpoint streaming resource events.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/cloudemu/zero/internal/constants"
	"github.com/cloudemu/zero/internal/events"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"
)

// Server is the HTTP facade in front of an API handler.
type Server struct {
	api      http.Handler
	hub      *events.Hub
	router   *chi.Mux
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// New creates a server serving api and streaming events from hub.
func New(api http.Handler, hub *events.Hub, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	registerRequestIDExtractor()

	s := &Server{
		api:    api,
		hub:    hub,
		logger: log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	s.router = s.routes()
	return s
}

// Handler returns the fully wired router.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.requestLoggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)

	r.Get(constants.EventsPath, s.handleEvents)
	r.Mount("/", s.api)
	return r
}

// Run listens on addr and serves until ctx is done or the process receives
// SIGINT or SIGTERM.
func (s *Server) Run(ctx context.Context, addr string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully. The
// event hub is closed on shutdown so websocket streams terminate.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.router,
		ReadTimeout:  constants.ServerReadTimeout,
		WriteTimeout: constants.ServerWriteTimeout,
		IdleTimeout:  constants.ServerIdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("starting server",
			"addr", ln.Addr().String(),
			"version", *constants.GetVersion(),
		)
		s.logger.Debug("health check available",
			"url", fmt.Sprintf("http://%s%s/health", ln.Addr().String(), constants.APIPrefix))

		if serveErr := srv.Serve(ln); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			return fmt.Errorf("failed to start server: %w", serveErr)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ServerShutdownTimeout)
		defer cancel()

		if s.hub != nil {
			s.hub.Close()
		}
		if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
			return fmt.Errorf("server shutdown error: %w", shutdownErr)
		}

		s.logger.Info("server shutdown complete")
		return nil
	})

	return g.Wait()
}
