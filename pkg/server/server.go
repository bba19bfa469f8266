// Package server provides the HTTP server of the inspection orchestrator.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"mediatrust-hq/orchestrator/pkg/config"
	"mediatrust-hq/orchestrator/pkg/inspection"
	"mediatrust-hq/orchestrator/pkg/server/certs"
	"mediatrust-hq/orchestrator/pkg/server/middleware"
	"mediatrust-hq/orchestrator/pkg/telemetry/health"
	"mediatrust-hq/orchestrator/pkg/telemetry/metrics"
	"mediatrust-hq/orchestrator/pkg/telemetry/tracing"
)

// Inspector runs inspections and serves stored reports.
type Inspector interface {
	Inspect(ctx context.Context, req *inspection.Request) (*inspection.InspectResponse, error)
	GetReport(ctx context.Context, assetID string) (*inspection.ReportResponse, error)
}

// Dependencies are the collaborators the server routes to. Health and
// Metrics are optional.
type Dependencies struct {
	Inspector   Inspector
	Health      *health.Checker
	Metrics     *metrics.Collector
	MetricsPath string
	Version     health.VersionInfo
}

// Server is the orchestrator's HTTP server.
type Server struct {
	config       *config.ServerConfig
	deps         Dependencies
	httpServer   *http.Server
	logger       *slog.Logger
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// NewServer creates a new server.
func NewServer(cfg *config.ServerConfig, deps Dependencies) *Server {
	return &Server{
		config: cfg,
		deps:   deps,
		logger: slog.Default().With("component", "server"),
	}
}

// Start serves HTTP and blocks until ctx is cancelled or the listener
// fails. Cancellation triggers a graceful shutdown bounded by the
// configured shutdown timeout.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}

	var reloader *certs.Reloader
	httpServer := &http.Server{
		Addr:           s.config.ListenAddress,
		Handler:        s.Handler(),
		ReadTimeout:    s.config.ReadTimeout,
		WriteTimeout:   s.config.WriteTimeout,
		IdleTimeout:    s.config.IdleTimeout,
		MaxHeaderBytes: s.config.MaxHeaderBytes,
	}
	if s.config.TLS.Enabled {
		tlsConfig, r, err := certs.Load(&s.config.TLS)
		if err != nil {
			s.mu.Unlock()
			return fmt.Errorf("failed to configure TLS: %w", err)
		}
		httpServer.TLSConfig = tlsConfig
		reloader = r
	}
	s.httpServer = httpServer
	s.isRunning = true
	s.mu.Unlock()

	if reloader != nil {
		go reloader.Watch(ctx)
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting orchestrator server",
			"address", s.config.ListenAddress,
			"tls", reloader != nil,
			"auth", len(s.config.Auth.APIKeys) > 0,
		)
		var err error
		if reloader != nil {
			err = httpServer.ListenAndServeTLS("", "")
		} else {
			err = httpServer.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case err := <-errChan:
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
		return err
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.isRunning {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		s.logger.Info("initiating graceful shutdown", "timeout", s.config.ShutdownTimeout.String())

		shutdownCtx := ctx
		if s.config.ShutdownTimeout > 0 {
			var cancel context.CancelFunc
			shutdownCtx, cancel = context.WithTimeout(ctx, s.config.ShutdownTimeout)
			defer cancel()
		}

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("error during server shutdown", "error", err)
			shutdownErr = fmt.Errorf("server shutdown error: %w", err)
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		s.logger.Info("orchestrator server stopped")
	})

	return shutdownErr
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Handler returns the configured HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(tracing.HTTPMiddleware)
	r.Use(middleware.Logging)
	if s.deps.Metrics != nil {
		r.Use(middleware.Metrics(s.deps.Metrics))
	}
	r.Use(chimw.StripSlashes)
	r.Use(middleware.CORS(&s.config.CORS))

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(s.config.RequestTimeout))
		r.Use(middleware.APIKey(&s.config.Auth))
		r.Use(middleware.BodyLimit(s.config.MaxBodyBytes))

		r.Post("/inspect", s.handleInspect)
		r.Get("/report/{assetId}", s.handleReport)
	})

	if s.deps.Health != nil {
		r.Get("/health", s.deps.Health.LivenessHandler())
		r.Head("/health", s.deps.Health.LivenessHandler())
		r.Get("/ready", s.deps.Health.ReadinessHandler())
		r.Head("/ready", s.deps.Health.ReadinessHandler())
	}
	r.Get("/version", health.VersionHandler(s.deps.Version))

	if s.deps.Metrics != nil {
		path := s.deps.MetricsPath
		if path == "" {
			path = config.DefaultMetricsPath
		}
		r.Handle(path, s.deps.Metrics.Handler())
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		middleware.WriteError(w, http.StatusNotFound, middleware.ErrorDetail{
			Code:    middleware.CodeNotFound,
			Message: "route not found",
		})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		middleware.WriteError(w, http.StatusMethodNotAllowed, middleware.ErrorDetail{
			Code:    middleware.CodeInvalidRequest,
			Message: "method not allowed",
		})
	})

	return r
}
