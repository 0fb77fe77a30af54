// Package gorm provides GORM-based database operations for northstar.
package gorm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/averlane/northstar/internal/db"
	"github.com/averlane/northstar/pkg/models"
)

// ErrInvalidTransition is returned when a status update violates the
// forward-only lifecycle.
var ErrInvalidTransition = errors.New("invalid status transition")

// RecommendationStore provides recommendation-related database operations.
type RecommendationStore struct {
	db *gorm.DB
}

// NewRecommendationStore creates a new recommendation store.
func NewRecommendationStore(store *Store) *RecommendationStore {
	return &RecommendationStore{db: store.DB}
}

// StoreRecommendation persists a recommendation and returns its id.
// The caller is expected to have passed threshold and dedup checks; the store
// performs one logical write and does not re-verify them.
func (s *RecommendationStore) StoreRecommendation(ctx context.Context, rec *models.Recommendation) (int64, error) {
	row := &Recommendation{
		Category:      string(rec.Category),
		Title:         rec.Title,
		Description:   rec.Description,
		Rationale:     rec.Rationale,
		Score:         rec.Score,
		Status:        string(models.StatusSuggested),
		Metadata:      rec.Metadata,
		EmbeddingHash: rec.EmbeddingHash,
	}
	if !rec.CreatedAt.IsZero() {
		row.CreatedAtEpoch = rec.CreatedAt.UnixMilli()
		row.CreatedAt = rec.CreatedAt.Format(time.RFC3339)
	}

	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return 0, fmt.Errorf("store recommendation: %w", err)
	}

	rec.ID = row.ID
	rec.Status = models.StatusSuggested
	rec.CreatedAt = time.UnixMilli(row.CreatedAtEpoch)
	return row.ID, nil
}

// GetRecommendationByID retrieves a single recommendation.
func (s *RecommendationStore) GetRecommendationByID(ctx context.Context, id int64) (*models.Recommendation, error) {
	var row Recommendation
	err := s.db.WithContext(ctx).First(&row, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return row.toModel(), nil
}

// ListRecommendations returns recommendations matching the filter, newest
// first. Zero-valued filter fields are ignored.
func (s *RecommendationStore) ListRecommendations(ctx context.Context, filter db.RecommendationFilter) ([]*models.Recommendation, error) {
	q := s.db.WithContext(ctx).Model(&Recommendation{})

	if filter.Category != "" {
		q = q.Where("category = ?", string(filter.Category))
	}
	if filter.Status != "" {
		q = q.Where("status = ?", string(filter.Status))
	}
	if filter.MinScore > 0 {
		q = q.Where("score >= ?", filter.MinScore)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	var rows []Recommendation
	if err := q.Order("created_at_epoch DESC").Find(&rows).Error; err != nil {
		return nil, err
	}

	recs := make([]*models.Recommendation, 0, len(rows))
	for i := range rows {
		recs = append(recs, rows[i].toModel())
	}
	return recs, nil
}

// GetTopRecommendations returns the highest-scoring recommendations that are
// not in a terminal state, best first.
func (s *RecommendationStore) GetTopRecommendations(ctx context.Context, limit int, minScore float64) ([]*models.Recommendation, error) {
	var rows []Recommendation
	err := s.db.WithContext(ctx).
		Where("status NOT IN ?", []string{string(models.StatusCompleted), string(models.StatusDismissed)}).
		Where("score >= ?", minScore).
		Order("score DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	recs := make([]*models.Recommendation, 0, len(rows))
	for i := range rows {
		recs = append(recs, rows[i].toModel())
	}
	return recs, nil
}

// HashExistsSince reports whether a recommendation with the given content
// hash was created at or after the given time. Used for dedup-window checks.
func (s *RecommendationStore) HashExistsSince(ctx context.Context, hash string, since time.Time) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&Recommendation{}).
		Where("embedding_hash = ? AND created_at_epoch >= ?", hash, since.UnixMilli()).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// UpdateRecommendationStatus moves a recommendation to a new status,
// enforcing the forward-only lifecycle. Terminal states cannot be left.
func (s *RecommendationStore) UpdateRecommendationStatus(ctx context.Context, id int64, status models.Status) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row Recommendation
		if err := tx.First(&row, id).Error; err != nil {
			return err
		}

		if !models.ValidStatusTransition(models.Status(row.Status), status) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, row.Status, status)
		}

		return tx.Model(&Recommendation{}).
			Where("id = ?", id).
			Update("status", string(status)).Error
	})
}

// AppendRecommendationFeedback attaches a user rating to a recommendation's
// metadata. Ratings outside 1-5 are rejected.
func (s *RecommendationStore) AppendRecommendationFeedback(ctx context.Context, id int64, feedback models.UserFeedback) error {
	if feedback.Rating < 1 || feedback.Rating > 5 {
		return fmt.Errorf("feedback rating out of range: %d", feedback.Rating)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row Recommendation
		if err := tx.First(&row, id).Error; err != nil {
			return err
		}

		row.Metadata.Feedback = &feedback
		return tx.Model(&Recommendation{}).
			Where("id = ?", id).
			Update("metadata", row.Metadata).Error
	})
}
