// Package prediction maintains the falsifiable-claim ledger that closes the
// recommendation feedback loop.
package prediction

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/averlane/northstar/internal/db"
	"github.com/averlane/northstar/pkg/models"
)

// RecordThreshold is the score a recommendation must reach at save time for
// a prediction to be derived from it.
const RecordThreshold = 7.0

// SourceManual marks outcomes recorded by an explicit reviewer call.
const SourceManual = "manual"

// Ledger derives predictions from high-scoring recommendations and records
// their eventual outcomes. Outcome statistics feed the scorer's outcome
// boost on subsequent runs.
type Ledger struct {
	store     db.PredictionStore
	threshold float64
	logger    zerolog.Logger
}

// NewLedger creates a prediction ledger. A non-positive threshold falls back
// to RecordThreshold.
func NewLedger(store db.PredictionStore, threshold float64, logger zerolog.Logger) *Ledger {
	if threshold <= 0 {
		threshold = RecordThreshold
	}
	return &Ledger{
		store:     store,
		threshold: threshold,
		logger:    logger.With().Str("component", "prediction-ledger").Logger(),
	}
}

// RecordFromRecommendation derives a pending prediction from a saved
// recommendation. Returns 0 without error when the recommendation scores
// below the threshold; this is the expected no-op path.
func (l *Ledger) RecordFromRecommendation(ctx context.Context, rec *models.Recommendation) (int64, error) {
	if rec.Score < l.threshold {
		return 0, nil
	}

	confidence := rec.Confidence()
	bucket := models.BucketMedium
	if rec.Metadata.Reasoning != nil {
		bucket = models.BucketForConfidence(confidence)
	}

	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	pred := &models.Prediction{
		RecommendationID: rec.ID,
		Category:         rec.Category,
		ClaimText:        buildClaim(rec),
		Confidence:       confidence,
		ConfidenceBucket: bucket,
		SourceIntelIDs:   rec.Metadata.IntelIDs,
		CreatedAt:        createdAt,
		EvaluationDue:    createdAt.AddDate(0, 0, models.HorizonDays(rec.Category)),
		Outcome:          models.OutcomePending,
	}

	id, err := l.store.StorePrediction(ctx, pred)
	if err != nil {
		return 0, fmt.Errorf("record prediction: %w", err)
	}

	l.logger.Debug().
		Int64("prediction_id", id).
		Int64("recommendation_id", rec.ID).
		Str("category", string(rec.Category)).
		Time("evaluation_due", pred.EvaluationDue).
		Msg("Prediction recorded")

	return id, nil
}

// Resolve records a terminal outcome for a pending prediction. Returns false
// when the prediction does not exist or was already resolved; stored state is
// untouched in both cases.
func (l *Ledger) Resolve(ctx context.Context, id int64, outcome models.Outcome, notes string) (bool, error) {
	resolved, err := l.store.ResolvePrediction(ctx, id, outcome, notes, SourceManual)
	if err != nil {
		return false, fmt.Errorf("resolve prediction %d: %w", id, err)
	}
	if !resolved {
		l.logger.Debug().Int64("prediction_id", id).Msg("Resolve skipped: missing or already resolved")
	}
	return resolved, nil
}

// Stats returns the aggregate outcome report: per-category and per-bucket
// counts with accuracy ratios, plus the number of predictions past their
// evaluation deadline while still pending.
func (l *Ledger) Stats(ctx context.Context) (*models.PredictionStats, error) {
	return l.store.PredictionStats(ctx, time.Now())
}

// Pending lists unresolved predictions, oldest deadline first.
func (l *Ledger) Pending(ctx context.Context, limit int) ([]*models.Prediction, error) {
	return l.store.ListPendingPredictions(ctx, limit)
}

// buildClaim derives the falsifiable claim text from a recommendation's
// title and rationale.
func buildClaim(rec *models.Recommendation) string {
	claim := rec.Title
	if rec.Rationale != "" {
		claim = claim + ". " + rec.Rationale
	}
	return claim
}
