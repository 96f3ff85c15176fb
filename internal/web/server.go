package web

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/hemedy99/facegate/internal/auth"
	"github.com/hemedy99/facegate/internal/config"
	"github.com/hemedy99/facegate/internal/database"
	"github.com/hemedy99/facegate/internal/enroll"
	"github.com/hemedy99/facegate/internal/predict"
	"github.com/hemedy99/facegate/internal/trainer"
	"github.com/hemedy99/facegate/internal/vision"
	"github.com/hemedy99/facegate/internal/web/middleware"
)

// Deps collects the services the web layer exposes.
type Deps struct {
	Verifier  *auth.Verifier
	Registry  *enroll.Registry
	Capturer  *enroll.Capturer
	Trainer   *trainer.Orchestrator
	Predictor *predict.Service
	Detector  vision.Detector
	Labels    database.LabelStore
}

// Server represents the web server
type Server struct {
	config         *config.Config
	deps           Deps
	router         *chi.Mux
	httpServer     *http.Server
	sessionManager *middleware.SessionManager
}

// NewServer creates a new web server
func NewServer(cfg *config.Config, deps Deps) *Server {
	r := chi.NewRouter()

	sessionManager := middleware.NewSessionManager(cfg.Web.SessionSecret)

	s := &Server{
		config:         cfg,
		deps:           deps,
		router:         r,
		sessionManager: sessionManager,
	}

	// Set up middleware stack. No request timeout here; the websocket
	// streams are long-lived by design.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS())

	// Set up routes
	s.setupRoutes(sessionManager)

	// Create HTTP server. Write timeout stays generous; hijacked
	// websocket connections are not subject to it anyway.
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
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

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down web server...")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Router returns the chi router for testing
func (s *Server) Router() *chi.Mux {
	return s.router
}
