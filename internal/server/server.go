// Package server sets up the HTTP server, router, and all route definitions.
//
// This package is the "wiring" layer: it decides which URL patterns map to
// which handlers, which middleware runs in front of them, and how the server
// starts and stops.
//
// DEPENDENCY INJECTION FLOW:
//
//	main.go opens:   store (SQLite or Postgres), event publisher
//	Server.New():    store → metrics wrapper → CandidateService → handlers
//
// All dependencies are wired here (the "composition root") rather than
// scattered across the codebase.
package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sakif/interview-tracker/internal/events"
	"github.com/sakif/interview-tracker/internal/handler"
	"github.com/sakif/interview-tracker/internal/middleware"
	"github.com/sakif/interview-tracker/internal/repository"
	"github.com/sakif/interview-tracker/internal/service"
)

// Config holds server configuration.
type Config struct {
	Port               int
	RateLimitPerMinute int // 0 disables rate limiting
	CORSOrigins        []string
	RequestLogging     bool
	StoreName          string // shown in the startup log only
}

// Server represents the HTTP server and all its dependencies.
//
// The Server owns the store: Start closes it once the listener is down.
type Server struct {
	router   *chi.Mux
	config   Config
	logger   *slog.Logger
	repo     repository.CandidateRepository
	registry *prometheus.Registry
}

// New wires the store and event publisher into services and handlers.
// The store must already be open and reachable.
func New(cfg Config, logger *slog.Logger, repo repository.CandidateRepository, publisher events.Publisher) (*Server, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	s := &Server{
		router:   chi.NewRouter(),
		config:   cfg,
		logger:   logger,
		repo:     repository.Instrument(repo, registry),
		registry: registry,
	}

	if err := s.setupRoutes(publisher); err != nil {
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	GET    /_health                               → liveness (JSON)
//	GET    /metrics                               → Prometheus metrics
//	GET    /users?domain=                         → list candidates (JSON)
//	POST   /users                                 → create candidate (JSON)
//	GET    /users/{id}                            → one candidate (JSON)
//	POST   /users/remarks/{id}                    → add remark (JSON)
//	PUT    /users/{userId}/remarks/{remarkId}     → edit remark (JSON)
//	DELETE /users/{userId}/remarks/{remarkId}     → delete remark (JSON)
//	GET    /                                      → dashboard (HTML)
//	GET    /view/{id}                             → candidate page (HTML)
//	POST   /view/{id}/remarks                     → add remark form
//	POST   /view/{id}/remarks/{remarkId}          → edit remark form
//	POST   /view/{id}/remarks/{remarkId}/delete   → delete remark form
//
// MIDDLEWARE ORDER MATTERS. Ours:
//  1. RequestID: tags each request for log correlation
//  2. RealIP: client IP from proxy headers, which the rate limiter keys on
//  3. Recoverer: a panic becomes a JSON 500
//  4. Logger (skipped in production)
//  5. Metrics
//  6. Security headers and CORS
//  7. Rate limiter
func (s *Server) setupRoutes(publisher events.Publisher) error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Recoverer(s.logger))
	if s.config.RequestLogging {
		s.router.Use(middleware.Logger(s.logger))
	}
	s.router.Use(middleware.NewMetrics(s.registry).Handler)
	s.router.Use(middleware.SecureHeaders)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.config.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"RateLimit-Limit", "RateLimit-Remaining", "Retry-After"},
		MaxAge:         300,
	}))
	s.router.Use(middleware.NewRateLimiter(s.config.RateLimitPerMinute, time.Minute).Handler)

	s.router.NotFound(handler.NotFound)
	s.router.MethodNotAllowed(handler.MethodNotAllowed)

	// DEPENDENCY CHAIN:
	//   s.repo implements repository.CandidateRepository
	//   CandidateService receives the repository interface
	//   the handlers receive the service
	candidateService := service.NewCandidateService(s.repo, publisher, s.logger)
	candidateHandler := handler.NewCandidateHandler(candidateService, s.logger)

	dashboardHandler, err := handler.NewDashboardHandler(candidateService, s.logger)
	if err != nil {
		return fmt.Errorf("creating dashboard handler: %w", err)
	}

	s.router.Get("/_health", handler.HandleHealth)
	s.router.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	s.router.Route("/users", func(r chi.Router) {
		r.Get("/", candidateHandler.HandleList)
		r.Post("/", candidateHandler.HandleCreate)
		r.Get("/{id}", candidateHandler.HandleGetByID)
		r.Post("/remarks/{id}", candidateHandler.HandleAddRemark)
		r.Put("/{userId}/remarks/{remarkId}", candidateHandler.HandleEditRemark)
		r.Delete("/{userId}/remarks/{remarkId}", candidateHandler.HandleDeleteRemark)
	})

	s.router.Get("/", dashboardHandler.HandleIndex)
	s.router.Route("/view/{id}", func(r chi.Router) {
		r.Get("/", dashboardHandler.HandleCandidate)
		r.Post("/remarks", dashboardHandler.HandleAddRemark)
		r.Post("/remarks/{remarkId}", dashboardHandler.HandleEditRemark)
		r.Post("/remarks/{remarkId}/delete", dashboardHandler.HandleDeleteRemark)
	})

	return nil
}

// Start runs the HTTP server until SIGINT/SIGTERM, then closes the store.
//
// SHUTDOWN IS IMMEDIATE:
// srv.Close drops open connections without waiting for in-flight requests.
// Every request is a single store round trip, so nothing is left half-done
// beyond what the store's own transaction already guarantees.
func (s *Server) Start() error {
	defer func() {
		if err := s.repo.Close(); err != nil {
			s.logger.Error("closing store", slog.String("error", err.Error()))
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("store", s.config.StoreName),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutting down", slog.String("signal", sig.String()))
		if err := srv.Close(); err != nil {
			return fmt.Errorf("closing server: %w", err)
		}
	}

	return nil
}
