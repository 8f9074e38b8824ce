package handlers

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RegisterRoutes registers all evaluation routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		// Large exports with many simulations can take a while
		r.Use(middleware.Timeout(120 * time.Second))

		r.Post("/evaluate", h.HandleEvaluate)

		r.Route("/history", func(r chi.Router) {
			r.Get("/", h.HandleListHistory)
			r.Get("/{id}", h.HandleGetRun)
			r.Get("/{id}/report", h.HandleGetRunReport)
			r.Delete("/{id}", h.HandleDeleteRun)
		})
	})
}
