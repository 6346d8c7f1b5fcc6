// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the wiring layer. It connects handlers, middleware, and routes,
// and decides:
//   - Which URL patterns map to which handler functions
//   - What middleware runs on which routes
//   - How the server starts and stops gracefully
//
// DEPENDENCY INJECTION FLOW:
// main.go loads a config.Config and passes it here. New then builds:
//
//	sqlite.DB        → ProjectService → ProjectHandler
//	github.Client    → WidgetService  → WidgetHandler
//	                                  → PreviewService → PreviewHandler
//	enhance.Client   → EnhanceHandler
//	metrics.Provider → hooks on all of the above
//
// This is the "composition root" pattern: all dependencies are wired in one
// place (New/setupRoutes), rather than scattered across the codebase.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/readme-widgets/internal/auth"
	"github.com/sakif/readme-widgets/internal/cache"
	"github.com/sakif/readme-widgets/internal/clock"
	"github.com/sakif/readme-widgets/internal/config"
	"github.com/sakif/readme-widgets/internal/enhance"
	"github.com/sakif/readme-widgets/internal/github"
	"github.com/sakif/readme-widgets/internal/handler"
	"github.com/sakif/readme-widgets/internal/metrics"
	"github.com/sakif/readme-widgets/internal/middleware"
	"github.com/sakif/readme-widgets/internal/model"
	sqliteRepo "github.com/sakif/readme-widgets/internal/repository/sqlite"
	"github.com/sakif/readme-widgets/internal/service"
	"github.com/sakif/readme-widgets/internal/widget"
)

// Deps overrides collaborators New would otherwise build from the config.
// Zero fields get the real implementation; tests fill them with fakes.
type Deps struct {
	Fetcher  service.Fetcher
	Enhancer handler.Enhancer
	Clock    clock.Clock
}

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the database connection and every preview controller. Both
// are released in Start during graceful shutdown.
type Server struct {
	router   *chi.Mux
	config   config.Config
	logger   *slog.Logger
	db       *sqliteRepo.DB
	metrics  *metrics.Provider
	tokens   *auth.TokenService
	widgets  *service.WidgetService
	previews *service.PreviewService
	projects *service.ProjectService
	enhancer handler.Enhancer
	rendered *cache.TTL[uint64, model.Artifact]
}

// New creates a Server from cfg.
//
// Each layer only receives what it needs:
//   - Services get interfaces (repository, Fetcher), not concrete clients
//   - Handlers get services, never the database or the GitHub client
//
// IMPORT ALIAS:
// repository/sqlite is imported as `sqliteRepo` to avoid confusion with the
// sqlite driver package.
func New(cfg config.Config, logger *slog.Logger, deps Deps) (*Server, error) {
	clk := deps.Clock
	if clk == nil {
		clk = clock.Real()
	}

	// === CREATE DATABASE ===
	if cfg.DBPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router:  chi.NewRouter(),
		config:  cfg,
		logger:  logger,
		db:      db,
		metrics: metrics.New(),
	}
	if err := s.build(clk, deps); err != nil {
		db.Close() // Clean up DB if wiring fails
		return nil, err
	}
	s.setupRoutes()
	return s, nil
}

// build creates the services. Metrics hooks are attached here so no service
// imports the metrics package.
func (s *Server) build(clk clock.Clock, deps Deps) error {
	cfg := s.config

	if cfg.JWTSecret != "" {
		tokens, err := auth.NewTokenService(cfg.JWTSecret)
		if err != nil {
			return fmt.Errorf("creating token service: %w", err)
		}
		s.tokens = tokens
	}

	fetcher := deps.Fetcher
	if fetcher == nil {
		gh, err := github.New(github.Options{
			BaseURL:       cfg.GitHubBaseURL,
			Token:         cfg.GitHubToken,
			Timeout:       cfg.UpstreamTimeout,
			TTL:           cfg.UpstreamTTL,
			MaxRepos:      cfg.GitHubMaxRepos,
			RPS:           cfg.GitHubRPS,
			Clock:         clk,
			Logger:        s.logger,
			OnRequest:     s.metrics.ObserveUpstream,
			OnCacheLookup: s.metrics.CacheLookup("upstream"),
		})
		if err != nil {
			return fmt.Errorf("creating github client: %w", err)
		}
		fetcher = gh
	}

	s.widgets = service.NewWidgetService(fetcher, cfg.PublicBaseURL, clk, s.logger)
	s.widgets.OnRender = s.metrics.ObserveRender

	rendered, err := cache.New[uint64, model.Artifact](cfg.GenerationCacheSize, cfg.GenerationTTL, clk)
	if err != nil {
		return fmt.Errorf("creating render cache: %w", err)
	}
	rendered.OnLookup = s.metrics.CacheLookup("render")
	s.rendered = rendered

	s.previews, err = service.NewPreviewService(service.PreviewOptions{
		Widgets:      s.widgets,
		Clock:        clk,
		Debounce:     cfg.Debounce,
		Timeout:      cfg.GenerationTimeout,
		CacheSize:    cfg.GenerationCacheSize,
		CacheTTL:     cfg.GenerationTTL,
		MaxPreviews:  cfg.MaxPreviews,
		Logger:       s.logger,
		OnCount:      s.metrics.SetPreviews,
		OnCacheProbe: s.metrics.CacheLookup("preview"),
	})
	if err != nil {
		return fmt.Errorf("creating preview service: %w", err)
	}

	s.projects = service.NewProjectService(s.db, cfg.PublicBaseURL, s.logger)

	s.enhancer = deps.Enhancer
	if s.enhancer == nil {
		s.enhancer = enhance.New(enhance.Options{
			URL:    cfg.EnhanceURL,
			APIKey: cfg.EnhanceAPIKey,
			RPM:    cfg.EnhanceRPM,
			Logger: s.logger,
		})
	}
	return nil
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	GET    /healthz                       → liveness + database ping
//	GET    /metrics                       → Prometheus exposition
//	GET    /api/{widget-type}             → SVG widget (one route per type)
//	GET    /api/widgets                   → widget catalog
//	POST   /api/widgets/url               → embed URL + markdown for a config
//	POST   /api/widgets/parse             → widgets found in markdown
//	POST   /api/previews                  → start a preview
//	PUT    /api/previews/{id}             → edit a preview
//	GET    /api/previews/{id}             → preview snapshot
//	GET    /api/previews/{id}/svg         → preview image
//	POST   /api/previews/{id}/retry       → regenerate a failed preview
//	DELETE /api/previews/{id}             → stop a preview
//	GET    /api/projects                  → list projects
//	GET    /api/projects/{id}             → get project
//	GET    /api/projects/{id}/readme      → assembled README markdown
//	POST   /api/projects                  → create project          [auth]
//	PUT    /api/projects/{id}             → update project          [auth]
//	DELETE /api/projects/{id}             → delete project          [auth]
//	POST   /api/enhance                   → AI rewrite              [auth]
//	DELETE /api/cache/github/{username}   → drop cached GitHub data [auth]
//
// MIDDLEWARE ORDER MATTERS:
// 1. RequestID: assigns a unique ID to each request (for tracing)
// 2. RealIP: extracts the real client IP from proxy headers
// 3. Logger: logs each request and feeds the request histogram
// 4. Recoverer: catches panics and returns 500 instead of crashing
// 5. CORS: answers preflights before routing can reject them
func (s *Server) setupRoutes() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger, s.metrics.ObserveRequest))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.CORS(http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions))

	s.router.Get("/healthz", s.handleHealth)
	s.router.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	widgetHandler := handler.NewWidgetHandler(s.widgets, s.rendered, s.config.WidgetMaxAge, s.logger)
	previewHandler := handler.NewPreviewHandler(s.previews, s.logger)
	projectHandler := handler.NewProjectHandler(s.projects, s.logger)
	enhanceHandler := handler.NewEnhanceHandler(s.enhancer, s.logger)

	s.router.Route("/api", func(r chi.Router) {
		// Widget types are registered one by one so an unknown type is a plain
		// 404 and each gets its own route label in metrics.
		for _, t := range widget.Types {
			r.Get("/"+string(t), widgetHandler.HandleWidget(t))
		}

		r.Get("/widgets", widgetHandler.HandleCatalog)
		r.Post("/widgets/url", widgetHandler.HandleLink)
		r.Post("/widgets/parse", widgetHandler.HandleParse)

		r.Post("/previews", previewHandler.HandleCreate)
		r.Put("/previews/{id}", previewHandler.HandleUpdate)
		r.Get("/previews/{id}", previewHandler.HandleGet)
		r.Get("/previews/{id}/svg", previewHandler.HandleSVG)
		r.Post("/previews/{id}/retry", previewHandler.HandleRetry)
		r.Delete("/previews/{id}", previewHandler.HandleDelete)

		r.Get("/projects", projectHandler.HandleList)
		r.Get("/projects/{id}", projectHandler.HandleGet)
		r.Get("/projects/{id}/readme", projectHandler.HandleReadme)

		// Write routes. Without a JWT secret RequireAuth lets everyone through.
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(s.tokens))
			r.Post("/projects", projectHandler.HandleCreate)
			r.Put("/projects/{id}", projectHandler.HandleUpdate)
			r.Delete("/projects/{id}", projectHandler.HandleDelete)
			r.Post("/enhance", enhanceHandler.HandleEnhance)
			r.Delete("/cache/github/{username}", widgetHandler.HandleInvalidate)
		})
	})
}

// Handler exposes the router, for tests and for embedding.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	status, code := "ok", http.StatusOK
	if err := s.db.Ping(ctx); err != nil {
		s.logger.Error("health check failed", slog.String("error", err.Error()))
		status, code = "database unavailable", http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	fmt.Fprintf(w, "{\"status\":%q,\"previews\":%d}\n", status, s.previews.Len())
}

// prunePreviews closes previews the editor abandoned without deleting them.
func (s *Server) prunePreviews(ctx context.Context) {
	interval := max(s.config.PreviewIdle/4, time.Second)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.previews.Prune(s.config.PreviewIdle)
		}
	}
}

// Close releases the previews and the database. Start calls it on shutdown.
func (s *Server) Close() error {
	s.previews.CloseAll()
	return s.db.Close()
}

// Start starts the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new HTTP connections
// 2. Wait for in-flight requests to finish (ShutdownTimeout)
// 3. Stop preview controllers, cancelling their renders
// 4. Close the database connection (flushes WAL, releases file lock)
func (s *Server) Start() error {
	defer s.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: s.config.UpstreamTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.prunePreviews(ctx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", s.config.PublicBaseURL),
			slog.String("database", s.config.DBPath),
			slog.Bool("auth", s.tokens != nil),
			slog.Bool("enhance", s.enhancer.Enabled()),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
