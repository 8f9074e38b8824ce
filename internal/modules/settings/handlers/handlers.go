// Package handlers exposes the persisted evaluation settings over HTTP.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/MathematicalSoftware/AdEvaluator/internal/config"
	"github.com/MathematicalSoftware/AdEvaluator/internal/modules/settings"
)

// Handler serves the settings endpoints.
type Handler struct {
	cfg  *config.Config
	repo *settings.Repository
	log  zerolog.Logger
}

// NewHandler creates the settings handler.
func NewHandler(cfg *config.Config, repo *settings.Repository, log zerolog.Logger) *Handler {
	return &Handler{
		cfg:  cfg,
		repo: repo,
		log:  log.With().Str("component", "settings_handlers").Logger(),
	}
}

// RegisterRoutes registers all settings routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/settings", func(r chi.Router) {
		r.Get("/", h.HandleGetSettings)
		r.Put("/", h.HandleUpdateSettings)
	})
}

// HandleGetSettings returns the resolved settings (stored values with
// environment fallbacks applied).
func (h *Handler) HandleGetSettings(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.repo.Snapshot(h.cfg)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load settings")
		respondError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}
	respondJSON(w, http.StatusOK, snapshot)
}

// HandleUpdateSettings stores a full settings snapshot. The settings dialog
// submits all fields, so a partial-update surface is not needed.
func (h *Handler) HandleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var snapshot settings.Snapshot
	if err := json.NewDecoder(r.Body).Decode(&snapshot); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if snapshot.BoundaryDate != "" {
		if _, err := snapshot.Boundary(); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	if err := h.repo.Apply(&snapshot); err != nil {
		h.log.Error().Err(err).Msg("Failed to store settings")
		respondError(w, http.StatusInternalServerError, "failed to store settings")
		return
	}

	h.log.Info().Msg("Settings updated")
	respondJSON(w, http.StatusOK, snapshot)
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}
