// Package server provides the HTTP server and routing for AdEvaluator.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/MathematicalSoftware/AdEvaluator/internal/config"
	"github.com/MathematicalSoftware/AdEvaluator/internal/database"
	evaluationhandlers "github.com/MathematicalSoftware/AdEvaluator/internal/modules/evaluation/handlers"
	settingshandlers "github.com/MathematicalSoftware/AdEvaluator/internal/modules/settings/handlers"
)

// Config holds server configuration
type Config struct {
	Port               int
	DevMode            bool
	Log                zerolog.Logger
	Cfg                *config.Config
	SettingsDB         *database.DB
	HistoryDB          *database.DB
	EvaluationHandlers *evaluationhandlers.Handler
	SettingsHandlers   *settingshandlers.Handler
}

// Server represents the HTTP server
type Server struct {
	router *chi.Mux
	server *http.Server
	log    zerolog.Logger
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if cfg.DevMode {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	systemHandlers := NewSystemHandlers(cfg.SettingsDB, cfg.HistoryDB, cfg.Log)
	systemHandlers.RegisterRoutes(r)

	cfg.EvaluationHandlers.RegisterRoutes(r)
	cfg.SettingsHandlers.RegisterRoutes(r)

	return &Server{
		router: r,
		log:    cfg.Log.With().Str("component", "server").Logger(),
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      r,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 150 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
	}
}

// Start begins listening for HTTP requests
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("HTTP server listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Router exposes the router for tests
func (s *Server) Router() *chi.Mux {
	return s.router
}
