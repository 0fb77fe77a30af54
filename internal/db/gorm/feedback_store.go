// Package gorm provides GORM-based database operations for northstar.
package gorm

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/averlane/northstar/pkg/models"
)

// FeedbackStore provides engagement feedback database operations.
type FeedbackStore struct {
	db *gorm.DB
}

// NewFeedbackStore creates a new feedback store.
func NewFeedbackStore(store *Store) *FeedbackStore {
	return &FeedbackStore{db: store.DB}
}

// RecordFeedbackEvent appends one engagement signal.
func (s *FeedbackStore) RecordFeedbackEvent(ctx context.Context, event *models.FeedbackEvent) (int64, error) {
	if !models.ValidFeedbackKind(event.Kind) {
		return 0, fmt.Errorf("invalid feedback kind: %q", event.Kind)
	}

	row := &FeedbackEvent{
		Category: string(event.Category),
		Kind:     string(event.Kind),
	}
	if event.RecommendationID > 0 {
		row.RecommendationID = sql.NullInt64{Int64: event.RecommendationID, Valid: true}
	}
	if !event.CreatedAt.IsZero() {
		row.CreatedAtEpoch = event.CreatedAt.UnixMilli()
		row.CreatedAt = event.CreatedAt.Format(time.RFC3339)
	}

	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return 0, fmt.Errorf("record feedback event: %w", err)
	}

	event.ID = row.ID
	event.CreatedAt = time.UnixMilli(row.CreatedAtEpoch)
	return row.ID, nil
}

// FeedbackCountsSince tallies useful/irrelevant events per category from the
// given time onward. Consumed by the scorer's engagement boost.
func (s *FeedbackStore) FeedbackCountsSince(ctx context.Context, since time.Time) (map[models.Category]models.FeedbackCounts, error) {
	type kindCount struct {
		Category string
		Kind     string
		Count    int
	}

	var rows []kindCount
	err := s.db.WithContext(ctx).
		Model(&FeedbackEvent{}).
		Select("category, kind, COUNT(*) AS count").
		Where("created_at_epoch >= ?", since.UnixMilli()).
		Group("category, kind").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[models.Category]models.FeedbackCounts)
	for _, row := range rows {
		category := models.Category(row.Category)
		entry := counts[category]
		switch models.FeedbackKind(row.Kind) {
		case models.FeedbackUseful:
			entry.Useful += row.Count
		case models.FeedbackIrrelevant:
			entry.Irrelevant += row.Count
		}
		counts[category] = entry
	}
	return counts, nil
}
