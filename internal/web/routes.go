package web

import (
	"github.com/go-chi/chi/v5"

	"github.com/hemedy99/facegate/internal/web/handlers"
	"github.com/hemedy99/facegate/internal/web/middleware"
)

func (s *Server) setupRoutes(sessionManager *middleware.SessionManager) {
	// Create handlers
	authHandler := handlers.NewAuthHandler(s.deps.Verifier, sessionManager)
	enrollHandler := handlers.NewEnrollHandler(s.deps.Registry, sessionManager)
	adminHandler := handlers.NewAdminHandler(s.deps.Trainer)
	socketHandler := handlers.NewSocketHandler(
		s.deps.Detector,
		s.deps.Capturer,
		s.deps.Predictor,
		s.deps.Labels,
		sessionManager,
	)

	// Health check (no auth required)
	s.router.Get("/api/v1/health", handlers.HealthCheck)

	// Enrollment setup sets the signed label cookie the harvest stream reads.
	s.router.Post("/enrol", enrollHandler.Setup)

	s.router.Route("/api/v1/admin", func(r chi.Router) {
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
		r.Get("/status", authHandler.Status)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(sessionManager))

			r.Post("/train", adminHandler.Train)
			r.Post("/enrol", adminHandler.Enrol)
		})
	})

	// Websocket video streams
	s.router.Handle("/ws/facedetect", socketHandler.FaceDetect())
	s.router.Handle("/ws/harvest", socketHandler.Harvest())
	s.router.Handle("/ws/predict", socketHandler.Predict())
}
