package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/kozaktomas/image-compare/internal/config"
	"github.com/kozaktomas/image-compare/internal/search"
	"github.com/kozaktomas/image-compare/internal/web/handlers"
	"github.com/kozaktomas/image-compare/internal/web/middleware"
)

// Services are the domain components the HTTP API is built on.
type Services struct {
	Searcher      search.Searcher
	Comparer      handlers.Comparer
	Fingerprinter handlers.Fingerprinter
}

// Server represents the web server
type Server struct {
	config     *config.Config
	services   Services
	jobs       *handlers.JobManager
	router     *chi.Mux
	httpServer *http.Server
	log        logrus.FieldLogger
}

// NewServer creates a new web server
func NewServer(cfg *config.Config, services Services, log logrus.FieldLogger) *Server {
	r := chi.NewRouter()

	s := &Server{
		config:   cfg,
		services: services,
		jobs:     handlers.NewJobManager(),
		router:   r,
		log:      log,
	}

	// Set up middleware stack
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger(log))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(5 * time.Minute))
	r.Use(middleware.CORS(cfg.Web.AllowedOrigins))

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      5 * time.Minute, // Multi-page comparisons can take minutes
		IdleTimeout:       60 * time.Second,
	}

	return s
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.WithField("addr", s.httpServer.Addr).Info("Starting web server")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down web server")
	if n := s.jobs.CancelAll(); n > 0 {
		s.log.WithField("jobs", n).Info("Cancelled running comparison jobs")
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Router returns the chi router for testing
func (s *Server) Router() *chi.Mux {
	return s.router
}
