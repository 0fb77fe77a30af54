// Package db defines database interfaces for the northstar stores.
package db

import (
	"context"
	"time"

	"github.com/averlane/northstar/pkg/models"
)

// RecommendationFilter narrows recommendation queries.
type RecommendationFilter struct {
	Category models.Category
	Status   models.Status
	MinScore float64
	Limit    int
}

// RecommendationReader defines read operations for recommendations.
type RecommendationReader interface {
	GetRecommendationByID(ctx context.Context, id int64) (*models.Recommendation, error)
	ListRecommendations(ctx context.Context, filter RecommendationFilter) ([]*models.Recommendation, error)
	GetTopRecommendations(ctx context.Context, limit int, minScore float64) ([]*models.Recommendation, error)
	HashExistsSince(ctx context.Context, hash string, since time.Time) (bool, error)
}

// RecommendationWriter defines write operations for recommendations.
type RecommendationWriter interface {
	StoreRecommendation(ctx context.Context, rec *models.Recommendation) (int64, error)
	UpdateRecommendationStatus(ctx context.Context, id int64, status models.Status) error
	AppendRecommendationFeedback(ctx context.Context, id int64, feedback models.UserFeedback) error
}

// RecommendationStore combines read and write operations for recommendations.
type RecommendationStore interface {
	RecommendationReader
	RecommendationWriter
}

// PredictionStore defines operations for the prediction ledger's persistence.
type PredictionStore interface {
	StorePrediction(ctx context.Context, pred *models.Prediction) (int64, error)
	GetPredictionByID(ctx context.Context, id int64) (*models.Prediction, error)
	ResolvePrediction(ctx context.Context, id int64, outcome models.Outcome, notes, source string) (bool, error)
	ListPendingPredictions(ctx context.Context, limit int) ([]*models.Prediction, error)
	ResolvedCountsByCategory(ctx context.Context) (map[models.Category]models.BucketStats, error)
	PredictionStats(ctx context.Context, now time.Time) (*models.PredictionStats, error)
}

// FeedbackStore defines operations for engagement feedback events.
type FeedbackStore interface {
	RecordFeedbackEvent(ctx context.Context, event *models.FeedbackEvent) (int64, error)
	FeedbackCountsSince(ctx context.Context, since time.Time) (map[models.Category]models.FeedbackCounts, error)
}
