// Package server wires the chi router, middleware and routes of the medbot
// chat server and manages its lifecycle.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/giygas/medbot/config"
	"github.com/giygas/medbot/handlers"
	"github.com/giygas/medbot/html"
	"github.com/giygas/medbot/logging"
	"github.com/giygas/medbot/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ChatCloser cancels pending chat replies on shutdown
type ChatCloser interface {
	Shutdown()
}

// Server represents the HTTP server
type Server struct {
	server      *http.Server
	router      chi.Router
	handler     *handlers.HTTPHandlerImpl
	chats       ChatCloser
	rateLimiter *RateLimiter
	config      *config.Config
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config, handler *handlers.HTTPHandlerImpl, chats ChatCloser) *Server {
	router := chi.NewRouter()

	server := &Server{
		server: &http.Server{
			Handler:      router,
			Addr:         cfg.Address + ":" + cfg.Port,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		router:      router,
		handler:     handler,
		chats:       chats,
		rateLimiter: NewRateLimiter(),
		config:      cfg,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures all middleware
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(BlockDirectAccessMiddleware) // before RealIPMiddleware so it sees the original RemoteAddr
	s.router.Use(RealIPMiddleware)
	s.router.Use(logging.LoggingMiddleware(requestLogger()))
	s.router.Use(middleware.RedirectSlashes)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"Retry-After", "X-RateLimit-Remaining"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	s.router.Use(RequestSizeMiddleware(s.config))
	s.router.Use(middleware.Compress(5, "application/json", "text/html"))
	s.router.Use(metrics.Metrics)
	s.router.Use(s.rateLimiter.Middleware)
}

// requestLogger falls back to slog's default when InitLogger was not called
func requestLogger() *slog.Logger {
	if logging.DefaultLoggingService != nil && logging.DefaultLoggingService.Logger != nil {
		return logging.DefaultLoggingService.Logger
	}
	return slog.Default()
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/", s.serveIndex)

	s.router.Get("/symptoms", s.handler.ListSymptoms)
	s.router.Get("/symptoms/{name}", s.handler.GetSymptom)
	s.router.Post("/diagnose", s.handler.Diagnose)

	s.router.Route("/chat/sessions", func(r chi.Router) {
		r.Post("/", s.handler.OpenSession)
		r.Get("/{id}", s.handler.GetSession)
		r.Post("/{id}/messages", s.handler.SendMessage)
		r.Delete("/{id}", s.handler.CloseSession)
	})

	s.router.Get("/health", s.handler.HealthCheck)
	s.router.Handle("/metrics", promhttp.Handler())
}

// serveIndex serves the chat page
func (s *Server) serveIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "public, max-age=3600") // 1 hour
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(html.Index)
}

// Router exposes the configured router, mainly for tests
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the server and blocks until it stops
func (s *Server) Start() error {
	stop := s.rateLimiter.StartCleanup(30 * time.Minute)
	defer stop()

	logging.Info(fmt.Sprintf("Starting chat server at: http://%s:%s", s.config.Address, s.config.Port))
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down server...")

	if s.chats != nil {
		s.chats.Shutdown()
	}

	if err := s.server.Shutdown(ctx); err != nil {
		logging.Error("Server forced to shutdown", "error", err)
		if err := s.server.Close(); err != nil {
			logging.Error("Server close error", "error", err)
			return err
		}
	}

	logging.Info("Server shutdown complete")
	return nil
}
