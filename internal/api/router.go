package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		// Health check (no auth required)
		r.Get("/health", s.handleHealth)

		// Conversational entry point
		r.Post("/chat", s.handleChat)

		// Device control, heartbeat, and status. Controllers
		// authenticate per-request with their shared key; there is no
		// session layer.
		r.Route("/device", func(r chi.Router) {
			r.Post("/", s.handleDeviceControl)
			r.Put("/", s.handleDeviceUpdate)
			r.Get("/", s.handleDeviceStatus)
		})
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"clients": s.registry.ClientCount(),
	})
}
