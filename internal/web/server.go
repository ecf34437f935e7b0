// Package web provides the HTTP server that triggers imports and reports
// on the imported people.
package web

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/peopleimport/internal/config"
	"github.com/JonMunkholm/peopleimport/internal/core"
	mw "github.com/JonMunkholm/peopleimport/internal/web/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// ImportService is the part of core.Service the handlers use.
type ImportService interface {
	ResolveCSVPath(requested string) (string, error)
	Import(ctx context.Context, path string) (core.ImportResult, error)
	AgeDistribution(ctx context.Context) (core.AgeDistribution, error)
	LogAgeDistribution(ctx context.Context, d core.AgeDistribution)
	Ping(ctx context.Context) error
	ImportLimiterStatus() core.ImportLimiterStatus
	ImportStatus(importID string) (core.ImportStatus, bool)
	RecentImports() []core.ImportStatus
}

// Server is the HTTP server for the importer.
type Server struct {
	service ImportService
	cfg     config.ServerConfig
	router  *chi.Mux
	server  *http.Server
}

// NewServer creates a new Server instance.
func NewServer(service ImportService, cfg config.ServerConfig) *Server {
	s := &Server{
		service: service,
		cfg:     cfg,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(securityHeaders)
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/", s.handleIndex)
	s.router.Get("/healthz", s.handleHealth)

	s.router.With(mw.APIKeyAuth(s.cfg.APIKey)).Post("/import", s.handleImport)

	s.router.Get("/stats/age", s.handleAgeStats)

	s.router.Get("/imports", s.handleListImports)
	s.router.Get("/imports/{importID}", s.handleImportStatus)
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	slog.Info("server started", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}
