// Package server provides the HTTP API for mentorlink.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hyperjump/mentorlink/internal/config"
	"github.com/hyperjump/mentorlink/internal/engine"
	"github.com/hyperjump/mentorlink/pkg/utils"
)

// Server is the HTTP server for the mentorlink API.
type Server struct {
	engine *engine.Engine
	config *config.Config
	logger *zap.Logger
	server *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(e *engine.Engine, cfg *config.Config, logger *zap.Logger) *Server {
	return &Server{
		engine: e,
		config: cfg,
		logger: utils.OrNop(logger),
	}
}

// Router returns the HTTP handler with all routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/questions", s.handleAskQuestion)
		r.Get("/questions/{id}", s.handleGetQuestion)
		r.Post("/questions/{id}/experience", s.handleSubmitExperience)
		r.Post("/questions/{id}/close", s.handleCloseQuestion)
		r.Post("/questions/{id}/delivered", s.handleMarkDelivered)
		r.Post("/followups/{id}/answer", s.handleAnswerFollowUp)
		r.Get("/cards/{id}", s.handleGetCard)
		r.Post("/cards/{id}/feedback", s.handleFeedback)
		r.Get("/status", s.handleStatus)
	})
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
