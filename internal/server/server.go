// Package server exposes the deployment history over a small read-only
// HTTP API for dashboards and CI checks. Mutating operations stay on the
// CLI; the server never writes the history file.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"tagroll/internal/controller"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	HTTPReadTimeout  = 10 * time.Second
	HTTPWriteTimeout = 10 * time.Second
	HTTPIdleTimeout  = 60 * time.Second

	RequestTimeout = 10 * time.Second

	// Requests per minute per client IP.
	RateLimit = 60
)

// Server serves the read-only history API.
type Server struct {
	Controller   *controller.Controller
	Logger       *slog.Logger
	DefaultLimit int
}

// NewServer creates a server instance.
func NewServer(ctrl *controller.Controller, logger *slog.Logger, defaultLimit int) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{Controller: ctrl, Logger: logger, DefaultLimit: defaultLimit}
}

// Router creates and configures the HTTP router.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(RequestTimeout))
	r.Use(NewRateLimitMiddleware(RateLimit, s.Logger))

	// Logging middleware
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)

			defer func() {
				s.Logger.Info("http_request",
					"method", req.Method,
					"path", req.URL.Path,
					"status", ww.Status(),
					"duration_ms", time.Since(start).Milliseconds())
			}()

			next.ServeHTTP(ww, req)
		})
	})

	r.Get("/healthz", s.HandleHealth)
	r.Get("/api/status", s.HandleStatus)
	r.Get("/api/history", s.HandleHistory)

	return r
}

// Start runs the HTTP server until ctx is canceled.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  HTTPReadTimeout,
		WriteTimeout: HTTPWriteTimeout,
		IdleTimeout:  HTTPIdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.Logger.Info("serving history API", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
