// Package service exposes the advisor operations over HTTP.
package service

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/averlane/northstar/internal/advisor"
	"github.com/averlane/northstar/internal/config"
	"github.com/averlane/northstar/internal/db"
	"github.com/averlane/northstar/internal/prediction"
)

// DefaultHTTPTimeout is the default timeout for HTTP requests.
const DefaultHTTPTimeout = 120 * time.Second

// Service is the HTTP surface over the advisor engine and prediction ledger.
type Service struct {
	engine   *advisor.Engine
	ledger   *prediction.Ledger
	recs     db.RecommendationStore
	feedback db.FeedbackStore
	cfg      *config.Config
	router   *chi.Mux
	server   *http.Server
	logger   zerolog.Logger
}

// NewService wires the HTTP service.
func NewService(engine *advisor.Engine, ledger *prediction.Ledger, recs db.RecommendationStore, feedback db.FeedbackStore, cfg *config.Config, logger zerolog.Logger) *Service {
	s := &Service{
		engine:   engine,
		ledger:   ledger,
		recs:     recs,
		feedback: feedback,
		cfg:      cfg,
		logger:   logger.With().Str("component", "service").Logger(),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/generate", s.handleGenerate)
		r.Post("/generate-all", s.handleGenerateAll)
		r.Post("/top-picks", s.handleTopPicks)

		r.Get("/recommendations/top", s.handleTopRecommendations)
		r.Post("/recommendations/{id}/status", s.handleUpdateStatus)
		r.Post("/recommendations/{id}/feedback", s.handleRecommendationFeedback)

		r.Post("/feedback-events", s.handleFeedbackEvent)

		r.Get("/predictions/stats", s.handlePredictionStats)
		r.Get("/predictions/pending", s.handlePendingPredictions)
		r.Post("/predictions/{id}/resolve", s.handleResolvePrediction)
	})

	s.router = r
	return s
}

// Start begins serving HTTP on the configured port.
func (s *Service) Start() error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf("127.0.0.1:%d", s.cfg.ServicePort),
		Handler:      s.router,
		ReadTimeout:  DefaultHTTPTimeout,
		WriteTimeout: DefaultHTTPTimeout,
	}

	s.logger.Info().Int("port", s.cfg.ServicePort).Msg("Advisor service listening")

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("HTTP server failed")
		}
	}()
	return nil
}

// Shutdown stops the HTTP server gracefully.
func (s *Service) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router exposes the chi router, used by tests.
func (s *Service) Router() http.Handler {
	return s.router
}
