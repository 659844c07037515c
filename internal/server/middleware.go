package server

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/cloudemu/zero/internal/constants"
	"github.com/cloudemu/zero/internal/logger"

	"github.com/go-chi/chi/v5/middleware"
)

// chiRequestIDExtractor exposes chi's request ID to the logger package.
type chiRequestIDExtractor struct{}

// ExtractRequestID returns the ID assigned by middleware.RequestID.
func (chiRequestIDExtractor) ExtractRequestID(ctx context.Context) (string, bool) {
	id := middleware.GetReqID(ctx)
	return id, id != ""
}

var registerExtractorOnce sync.Once

func registerRequestIDExtractor() {
	registerExtractorOnce.Do(func() {
		logger.RegisterContextExtractor(chiRequestIDExtractor{})
	})
}

// requestLoggingMiddleware logs incoming requests and their responses and
// echoes the request ID back to the client.
func (s *Server) requestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		log := logger.DeriveRequestLogger(req.Context(), s.logger)
		start := time.Now()

		if id := logger.GetRequestID(req.Context()); id != "" {
			w.Header().Set(constants.RequestIDHeader, id)
		}
		wrapped := middleware.NewWrapResponseWriter(w, req.ProtoMajor)

		log.Debug("processing incoming client request", "request", map[string]string{
			"method":     req.Method,
			"path":       req.URL.Path,
			"remoteAddr": req.RemoteAddr,
		})

		next.ServeHTTP(wrapped, req)

		status := wrapped.Status()
		if status == 0 {
			status = http.StatusOK
		}
		log.Info("response sent to client", "response", map[string]any{
			"method":   req.Method,
			"path":     req.URL.Path,
			"status":   status,
			"duration": time.Since(start).String(),
		})
	})
}

// corsMiddleware handles CORS headers for cross-origin requests
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		origin := req.Header.Get("Origin")
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+constants.RequestIDHeader)
		w.Header().Set("Access-Control-Max-Age", strconv.Itoa(constants.CORSMaxAge))

		if req.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, req)
	})
}
