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

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Get("/targets", s.handleListTargets)
		r.Get("/features", s.handleListFeatures)

		r.Route("/matrix", func(r chi.Router) {
			r.Get("/", s.handleGetMatrix)
			r.Put("/{target}/{feature}", s.handleSetMatrixCell)
		})

		r.Route("/reconcile", func(r chi.Router) {
			r.Post("/preview", s.handlePreview)
			r.Post("/apply", s.handleApply)
		})
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
