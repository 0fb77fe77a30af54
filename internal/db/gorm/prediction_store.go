// Package gorm provides GORM-based database operations for northstar.
package gorm

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/averlane/northstar/pkg/models"
)

// PredictionStore provides prediction-related database operations.
type PredictionStore struct {
	db *gorm.DB
}

// NewPredictionStore creates a new prediction store.
func NewPredictionStore(store *Store) *PredictionStore {
	return &PredictionStore{db: store.DB}
}

// StorePrediction persists a pending prediction and returns its id.
func (s *PredictionStore) StorePrediction(ctx context.Context, pred *models.Prediction) (int64, error) {
	row := &Prediction{
		RecommendationID:   pred.RecommendationID,
		Category:           string(pred.Category),
		ClaimText:          pred.ClaimText,
		Confidence:         pred.Confidence,
		ConfidenceBucket:   string(pred.ConfidenceBucket),
		SourceIntelIDs:     pred.SourceIntelIDs,
		Outcome:            string(models.OutcomePending),
		EvaluationDueEpoch: pred.EvaluationDue.UnixMilli(),
	}
	if !pred.CreatedAt.IsZero() {
		row.CreatedAtEpoch = pred.CreatedAt.UnixMilli()
		row.CreatedAt = pred.CreatedAt.Format(time.RFC3339)
	}

	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return 0, fmt.Errorf("store prediction: %w", err)
	}

	pred.ID = row.ID
	pred.Outcome = models.OutcomePending
	pred.CreatedAt = time.UnixMilli(row.CreatedAtEpoch)
	return row.ID, nil
}

// GetPredictionByID retrieves a single prediction.
func (s *PredictionStore) GetPredictionByID(ctx context.Context, id int64) (*models.Prediction, error) {
	var row Prediction
	err := s.db.WithContext(ctx).First(&row, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return row.toModel(), nil
}

// ResolvePrediction records a terminal outcome for a pending prediction.
// Returns false without modifying state when the prediction does not exist
// or has already been resolved. The WHERE clause on outcome makes the
// pending check and the update a single atomic statement.
func (s *PredictionStore) ResolvePrediction(ctx context.Context, id int64, outcome models.Outcome, notes, source string) (bool, error) {
	if !models.ValidOutcome(outcome) || !outcome.Resolved() {
		return false, fmt.Errorf("invalid resolution outcome: %q", outcome)
	}

	result := s.db.WithContext(ctx).
		Model(&Prediction{}).
		Where("id = ? AND outcome = ?", id, string(models.OutcomePending)).
		Updates(map[string]interface{}{
			"outcome":          string(outcome),
			"outcome_at_epoch": sql.NullInt64{Int64: time.Now().UnixMilli(), Valid: true},
			"outcome_notes":    sql.NullString{String: notes, Valid: notes != ""},
			"outcome_source":   sql.NullString{String: source, Valid: source != ""},
		})
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

// ListPendingPredictions returns pending predictions, oldest evaluation
// deadline first.
func (s *PredictionStore) ListPendingPredictions(ctx context.Context, limit int) ([]*models.Prediction, error) {
	q := s.db.WithContext(ctx).
		Where("outcome = ?", string(models.OutcomePending)).
		Order("evaluation_due_epoch ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var rows []Prediction
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}

	preds := make([]*models.Prediction, 0, len(rows))
	for i := range rows {
		preds = append(preds, rows[i].toModel())
	}
	return preds, nil
}

// outcomeCount is a scan target for grouped outcome aggregates.
type outcomeCount struct {
	Key     string
	Outcome string
	Count   int
}

// ResolvedCountsByCategory aggregates confirmed/rejected/pending counts per
// category. Consumed by the scorer's outcome boost.
func (s *PredictionStore) ResolvedCountsByCategory(ctx context.Context) (map[models.Category]models.BucketStats, error) {
	var rows []outcomeCount
	err := s.db.WithContext(ctx).
		Model(&Prediction{}).
		Select("category AS key, outcome, COUNT(*) AS count").
		Group("category, outcome").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	return groupStats(rows, func(key string) models.Category { return models.Category(key) }), nil
}

// PredictionStats aggregates outcomes per category and per confidence
// bucket, plus the count of predictions past their evaluation deadline while
// still pending.
func (s *PredictionStore) PredictionStats(ctx context.Context, now time.Time) (*models.PredictionStats, error) {
	byCategory, err := s.ResolvedCountsByCategory(ctx)
	if err != nil {
		return nil, err
	}

	var bucketRows []outcomeCount
	err = s.db.WithContext(ctx).
		Model(&Prediction{}).
		Select("confidence_bucket AS key, outcome, COUNT(*) AS count").
		Group("confidence_bucket, outcome").
		Scan(&bucketRows).Error
	if err != nil {
		return nil, err
	}
	byBucket := groupStats(bucketRows, func(key string) models.ConfidenceBucket { return models.ConfidenceBucket(key) })

	var reviewDue int64
	err = s.db.WithContext(ctx).
		Model(&Prediction{}).
		Where("outcome = ? AND evaluation_due_epoch < ?", string(models.OutcomePending), now.UnixMilli()).
		Count(&reviewDue).Error
	if err != nil {
		return nil, err
	}

	return &models.PredictionStats{
		ByCategory: byCategory,
		ByBucket:   byBucket,
		ReviewDue:  int(reviewDue),
	}, nil
}

// groupStats folds grouped outcome counts into per-key BucketStats, deriving
// the accuracy ratio where at least one resolution exists.
func groupStats[K comparable](rows []outcomeCount, keyFn func(string) K) map[K]models.BucketStats {
	stats := make(map[K]models.BucketStats)
	for _, row := range rows {
		key := keyFn(row.Key)
		entry := stats[key]
		switch models.Outcome(row.Outcome) {
		case models.OutcomeConfirmed:
			entry.Confirmed += row.Count
		case models.OutcomeRejected:
			entry.Rejected += row.Count
		case models.OutcomePending:
			entry.Pending += row.Count
		}
		stats[key] = entry
	}

	for key, entry := range stats {
		resolved := entry.Confirmed + entry.Rejected
		if resolved > 0 {
			accuracy := float64(entry.Confirmed) / float64(resolved)
			entry.Accuracy = &accuracy
			stats[key] = entry
		}
	}
	return stats
}
