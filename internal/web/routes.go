package web

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/kozaktomas/face-compare/internal/web/handlers"
	"github.com/kozaktomas/face-compare/internal/web/middleware"
)

func (s *Server) setupRoutes() {
	authHandler := handlers.NewAuthHandler(s.gate, &s.config.Messages)
	compareHandler := handlers.NewCompareHandler(s.controller, &s.config.Messages)

	// Health check (no auth required)
	s.router.Get("/api/v1/health", handlers.HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		// SSE stream lives as long as the client, no request timeout
		r.With(middleware.RequireAuth(s.gate)).Get("/compare/events", compareHandler.Events)

		r.Group(func(r chi.Router) {
			r.Use(chiMiddleware.Timeout(s.timeout))

			r.Post("/auth/login", authHandler.Login)
			r.Post("/auth/logout", authHandler.Logout)
			r.Get("/auth/status", authHandler.Status)

			// Everything else sits behind the session gate
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth(s.gate))

				r.Get("/state", compareHandler.State)
				r.Post("/reference", compareHandler.SelectReference)
				r.Post("/candidates", compareHandler.SelectCandidates)
				r.Post("/compare", compareHandler.Compare)
				r.Get("/report", compareHandler.Report)
				r.Get("/previews", compareHandler.Previews)
				r.Post("/reset", compareHandler.Reset)
			})
		})
	})
}
