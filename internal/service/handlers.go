package service

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/averlane/northstar/pkg/models"
)

// requestLogger attaches a correlation id and logs each request.
func (s *Service) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		w.Header().Set("X-Request-ID", requestID)
		start := time.Now()

		next.ServeHTTP(w, r)

		s.logger.Debug().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("elapsed", time.Since(start)).
			Msg("Request handled")
	})
}

// writeJSON encodes v as a JSON response.
func (s *Service) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

// writeError encodes an error response.
func (s *Service) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type generateRequest struct {
	Category        string `json:"category"`
	MaxItems        int    `json:"max_items"`
	WithActionPlans bool   `json:"with_action_plans"`
}

func (s *Service) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	recs, err := s.engine.Generate(r.Context(), models.Category(req.Category), req.MaxItems, req.WithActionPlans)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{"recommendations": recs})
}

type generateAllRequest struct {
	MaxPerCategory int `json:"max_per_category"`
}

func (s *Service) handleGenerateAll(w http.ResponseWriter, r *http.Request) {
	var req generateAllRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	results, err := s.engine.GenerateAll(r.Context(), req.MaxPerCategory)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

type topPicksRequest struct {
	MaxPicks int     `json:"max_picks"`
	PoolSize int     `json:"pool_size"`
	MinScore float64 `json:"min_score"`
}

func (s *Service) handleTopPicks(w http.ResponseWriter, r *http.Request) {
	var req topPicksRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	text, err := s.engine.GenerateTopPicks(r.Context(), req.MaxPicks, req.PoolSize, req.MinScore)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"picks": text})
}

func (s *Service) handleTopRecommendations(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	minScore := 0.0
	if v := r.URL.Query().Get("min_score"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			minScore = parsed
		}
	}

	recs, err := s.engine.TopRecommendations(r.Context(), limit, minScore)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{"recommendations": recs})
}

type statusRequest struct {
	Status string `json:"status"`
}

func (s *Service) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid recommendation id")
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.recs.UpdateRecommendationStatus(r.Context(), id, models.Status(req.Status)); err != nil {
		s.writeError(w, http.StatusConflict, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]bool{"updated": true})
}

func (s *Service) handleRecommendationFeedback(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid recommendation id")
		return
	}

	var feedback models.UserFeedback
	if err := json.NewDecoder(r.Body).Decode(&feedback); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.recs.AppendRecommendationFeedback(r.Context(), id, feedback); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]bool{"recorded": true})
}

type feedbackEventRequest struct {
	Category         string `json:"category"`
	Kind             string `json:"kind"`
	RecommendationID int64  `json:"recommendation_id,omitempty"`
}

func (s *Service) handleFeedbackEvent(w http.ResponseWriter, r *http.Request) {
	var req feedbackEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	event := &models.FeedbackEvent{
		Category:         models.Category(req.Category),
		Kind:             models.FeedbackKind(req.Kind),
		RecommendationID: req.RecommendationID,
	}
	id, err := s.feedback.RecordFeedbackEvent(r.Context(), event)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]int64{"id": id})
}

func (s *Service) handlePredictionStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.ledger.Stats(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, stats)
}

func (s *Service) handlePendingPredictions(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	preds, err := s.ledger.Pending(r.Context(), limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{"predictions": preds})
}

type resolveRequest struct {
	Outcome string `json:"outcome"`
	Notes   string `json:"notes,omitempty"`
}

func (s *Service) handleResolvePrediction(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid prediction id")
		return
	}

	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resolved, err := s.ledger.Resolve(r.Context(), id, models.Outcome(req.Outcome), req.Notes)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !resolved {
		s.writeError(w, http.StatusConflict, "prediction missing or already resolved")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]bool{"resolved": true})
}
