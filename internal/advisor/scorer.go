package advisor

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/averlane/northstar/internal/config"
	"github.com/averlane/northstar/internal/db"
	"github.com/averlane/northstar/pkg/models"
)

// Scorer computes feedback-adjusted scores. Each boost is computed lazily
// from freshly-queried history and memoized for the scorer's lifetime, so a
// long-lived process constructs a fresh Scorer per generation run to pick up
// new feedback and outcomes. There is no shared instance.
type Scorer struct {
	feedback       db.FeedbackStore
	predictions    db.PredictionStore
	feedbackWindow time.Duration
	logger         zerolog.Logger

	engagementOnce sync.Once
	engagement     map[models.Category]float64

	outcomeOnce sync.Once
	outcome     map[models.Category]float64
}

// NewScorer creates a scorer over the given history stores. feedbackWindow
// bounds how far back engagement events count (default 30 days when zero).
func NewScorer(feedback db.FeedbackStore, predictions db.PredictionStore, feedbackWindow time.Duration, logger zerolog.Logger) *Scorer {
	if feedbackWindow <= 0 {
		feedbackWindow = time.Duration(config.DefaultFeedbackWindowDays) * 24 * time.Hour
	}
	return &Scorer{
		feedback:       feedback,
		predictions:    predictions,
		feedbackWindow: feedbackWindow,
		logger:         logger.With().Str("component", "scorer").Logger(),
	}
}

// Adjust computes the final score for a raw sub-score blend:
//
//	score = clamp(raw + engagementBoost(category) + outcomeBoost(category), 0, 10)
func (s *Scorer) Adjust(ctx context.Context, raw float64, category models.Category) float64 {
	adjusted := raw + s.EngagementBoost(ctx, category) + s.OutcomeBoost(ctx, category)
	return clamp(adjusted, 0, 10)
}

// EngagementBoost returns the score adjustment derived from useful vs
// irrelevant feedback over the trailing window. Categories with fewer than
// MinBoostSamples events get no boost. A 100% useful ratio yields
// +MaxEngagementBoost, 0% yields the negative bound, 50% yields zero.
func (s *Scorer) EngagementBoost(ctx context.Context, category models.Category) float64 {
	s.engagementOnce.Do(func() {
		s.engagement = s.computeEngagement(ctx)
	})
	return s.engagement[category]
}

// OutcomeBoost returns the score adjustment derived from resolved prediction
// accuracy, with the same shape as the engagement boost but a tighter bound.
func (s *Scorer) OutcomeBoost(ctx context.Context, category models.Category) float64 {
	s.outcomeOnce.Do(func() {
		s.outcome = s.computeOutcome(ctx)
	})
	return s.outcome[category]
}

func (s *Scorer) computeEngagement(ctx context.Context) map[models.Category]float64 {
	since := time.Now().Add(-s.feedbackWindow)
	counts, err := s.feedback.FeedbackCountsSince(ctx, since)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Feedback query failed, engagement boost disabled for this run")
		return nil
	}

	boosts := make(map[models.Category]float64, len(counts))
	for category, c := range counts {
		if c.Total() < config.MinBoostSamples {
			continue
		}
		ratio := float64(c.Useful) / float64(c.Total())
		boosts[category] = config.MaxEngagementBoost * (2*ratio - 1)
	}
	return boosts
}

func (s *Scorer) computeOutcome(ctx context.Context) map[models.Category]float64 {
	stats, err := s.predictions.ResolvedCountsByCategory(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Prediction query failed, outcome boost disabled for this run")
		return nil
	}

	boosts := make(map[models.Category]float64, len(stats))
	for category, entry := range stats {
		resolved := entry.Confirmed + entry.Rejected
		if resolved < config.MinBoostSamples {
			continue
		}
		ratio := float64(entry.Confirmed) / float64(resolved)
		boosts[category] = config.MaxOutcomeBoost * (2*ratio - 1)
	}
	return boosts
}

// ContentHash computes the dedup fingerprint for a recommendation: sha256
// over the normalized (title, description) pair. Equal hashes within the
// dedup window are treated as the same recommendation.
func ContentHash(title, description string) string {
	normalized := strings.ToLower(strings.TrimSpace(title)) + "|" + strings.ToLower(strings.TrimSpace(description))
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}
