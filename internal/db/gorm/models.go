// Package gorm provides GORM-based database operations for northstar.
package gorm

import (
	"database/sql"
	"time"

	"gorm.io/gorm"

	"github.com/averlane/northstar/pkg/models"
)

// GORM Models

// Note: JSON column types (Metadata, JSONStringArray) are imported from
// pkg/models and already implement sql.Scanner and driver.Valuer.

// Recommendation is the persisted form of models.Recommendation.
type Recommendation struct {
	Category       string          `gorm:"type:text;index:idx_recommendations_category;not null"`
	Title          string          `gorm:"not null"`
	Description    string          `gorm:"type:text"`
	Rationale      string          `gorm:"type:text"`
	Status         string          `gorm:"type:text;check:status IN ('suggested', 'in_progress', 'completed', 'dismissed');default:'suggested';index:idx_recommendations_status"`
	Metadata       models.Metadata `gorm:"type:text"`
	EmbeddingHash  string          `gorm:"index:idx_recommendations_hash;not null"`
	CreatedAt      string          `gorm:"not null"`
	ID             int64           `gorm:"primaryKey;autoIncrement"`
	Score          float64         `gorm:"type:real;index:idx_recommendations_score,sort:desc"`
	CreatedAtEpoch int64           `gorm:"index:idx_recommendations_created,sort:desc;not null"`
}

func (Recommendation) TableName() string { return "recommendations" }

// BeforeCreate hook to ensure timestamps are set.
func (r *Recommendation) BeforeCreate(tx *gorm.DB) error {
	if r.CreatedAtEpoch == 0 {
		r.CreatedAtEpoch = time.Now().UnixMilli()
	}
	if r.CreatedAt == "" {
		r.CreatedAt = time.Now().Format(time.RFC3339)
	}
	if r.Status == "" {
		r.Status = string(models.StatusSuggested)
	}
	return nil
}

// Prediction is the persisted form of models.Prediction.
type Prediction struct {
	Category           string                 `gorm:"type:text;index:idx_predictions_category;not null"`
	ClaimText          string                 `gorm:"type:text;not null"`
	ConfidenceBucket   string                 `gorm:"type:text;check:confidence_bucket IN ('Low', 'Medium', 'High');not null"`
	SourceIntelIDs     models.JSONStringArray `gorm:"type:text"`
	CreatedAt          string                 `gorm:"not null"`
	Outcome            string                 `gorm:"type:text;check:outcome IN ('pending', 'confirmed', 'rejected', 'expired', 'skipped');default:'pending';index:idx_predictions_outcome"`
	OutcomeNotes       sql.NullString         `gorm:"type:text"`
	OutcomeSource      sql.NullString         `gorm:"type:text"`
	OutcomeAtEpoch     sql.NullInt64          `gorm:"column:outcome_at_epoch"`
	ID                 int64                  `gorm:"primaryKey;autoIncrement"`
	RecommendationID   int64                  `gorm:"index:idx_predictions_recommendation;not null"`
	Confidence         float64                `gorm:"type:real;not null"`
	CreatedAtEpoch     int64                  `gorm:"not null"`
	EvaluationDueEpoch int64                  `gorm:"index:idx_predictions_due;not null"`
}

func (Prediction) TableName() string { return "predictions" }

// BeforeCreate hook to ensure defaults are set.
func (p *Prediction) BeforeCreate(tx *gorm.DB) error {
	if p.CreatedAtEpoch == 0 {
		p.CreatedAtEpoch = time.Now().UnixMilli()
	}
	if p.CreatedAt == "" {
		p.CreatedAt = time.Now().Format(time.RFC3339)
	}
	if p.Outcome == "" {
		p.Outcome = string(models.OutcomePending)
	}
	return nil
}

// FeedbackEvent is one persisted engagement signal.
type FeedbackEvent struct {
	Category         string        `gorm:"type:text;index:idx_feedback_category;not null"`
	Kind             string        `gorm:"type:text;check:kind IN ('useful', 'irrelevant');not null"`
	RecommendationID sql.NullInt64 `gorm:"index:idx_feedback_recommendation"`
	CreatedAt        string        `gorm:"not null"`
	ID               int64         `gorm:"primaryKey;autoIncrement"`
	CreatedAtEpoch   int64         `gorm:"index:idx_feedback_created,sort:desc;not null"`
}

func (FeedbackEvent) TableName() string { return "feedback_events" }

// BeforeCreate hook to ensure timestamps are set.
func (f *FeedbackEvent) BeforeCreate(tx *gorm.DB) error {
	if f.CreatedAtEpoch == 0 {
		f.CreatedAtEpoch = time.Now().UnixMilli()
	}
	if f.CreatedAt == "" {
		f.CreatedAt = time.Now().Format(time.RFC3339)
	}
	return nil
}

// Conversion helpers

func (r *Recommendation) toModel() *models.Recommendation {
	return &models.Recommendation{
		ID:            r.ID,
		Category:      models.Category(r.Category),
		Title:         r.Title,
		Description:   r.Description,
		Rationale:     r.Rationale,
		Score:         r.Score,
		Status:        models.Status(r.Status),
		Metadata:      r.Metadata,
		EmbeddingHash: r.EmbeddingHash,
		CreatedAt:     time.UnixMilli(r.CreatedAtEpoch),
	}
}

func (p *Prediction) toModel() *models.Prediction {
	pred := &models.Prediction{
		ID:               p.ID,
		RecommendationID: p.RecommendationID,
		Category:         models.Category(p.Category),
		ClaimText:        p.ClaimText,
		Confidence:       p.Confidence,
		ConfidenceBucket: models.ConfidenceBucket(p.ConfidenceBucket),
		SourceIntelIDs:   p.SourceIntelIDs,
		CreatedAt:        time.UnixMilli(p.CreatedAtEpoch),
		EvaluationDue:    time.UnixMilli(p.EvaluationDueEpoch),
		Outcome:          models.Outcome(p.Outcome),
		OutcomeNotes:     p.OutcomeNotes.String,
		OutcomeSource:    p.OutcomeSource.String,
	}
	if p.OutcomeAtEpoch.Valid {
		at := time.UnixMilli(p.OutcomeAtEpoch.Int64)
		pred.OutcomeAt = &at
	}
	return pred
}
