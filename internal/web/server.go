package web

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/kozaktomas/face-compare/internal/config"
	"github.com/kozaktomas/face-compare/internal/session"
	"github.com/kozaktomas/face-compare/internal/web/middleware"
	"github.com/kozaktomas/face-compare/internal/workflow"
)

// Server represents the web server
type Server struct {
	config     *config.Config
	router     *chi.Mux
	httpServer *http.Server
	controller *workflow.Controller
	gate       *session.Gate
	timeout    time.Duration // per request, except event streams
}

// NewServer creates a new web server
func NewServer(cfg *config.Config, port int, host, allowedOrigins string, controller *workflow.Controller, gate *session.Gate) *Server {
	r := chi.NewRouter()

	s := &Server{
		config:     cfg,
		router:     r,
		controller: controller,
		gate:       gate,
		timeout:    cfg.Service.Timeout + time.Minute,
	}

	// Set up middleware stack
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS(allowedOrigins))
	r.Use(middleware.SecurityHeaders())

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", host, port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       5 * time.Minute, // a full batch upload can be 2.5GB
		WriteTimeout:      0,               // SSE streams stay open
		IdleTimeout:       60 * time.Second,
	}

	return s
}

// Start starts the HTTP server
func (s *Server) Start() error {
	log.Printf("Starting web server on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server and abandons any in-flight comparison
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down web server...")

	s.controller.Reset()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Router returns the chi router for testing
func (s *Server) Router() *chi.Mux {
	return s.router
}
