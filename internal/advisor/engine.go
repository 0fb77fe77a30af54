// Package advisor implements the generation, critique, scoring, and
// persistence pipeline for personalized recommendations.
package advisor

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/averlane/northstar/internal/config"
	"github.com/averlane/northstar/internal/db"
	"github.com/averlane/northstar/internal/llm"
	"github.com/averlane/northstar/internal/prediction"
	"github.com/averlane/northstar/pkg/models"
)

// generationMaxTokens bounds one category's generation reply.
const generationMaxTokens = 4096

// Engine drives the full pipeline: generate candidates for a category,
// screen them (score, threshold, dedup), critique them, persist survivors,
// and record predictions for the high scorers.
type Engine struct {
	gens     llm.TieredGenerator
	contexts ContextSource
	recs     db.RecommendationStore
	feedback db.FeedbackStore
	preds    db.PredictionStore
	ledger   *prediction.Ledger
	critic   *CritiqueOrchestrator
	cfg      *config.Config
	logger   zerolog.Logger
}

// NewEngine wires the pipeline. mode selects critique scheduling; callers
// dispatching the engine from inside their own fan-out must pass
// DispatchSequential.
func NewEngine(
	gens llm.TieredGenerator,
	contexts ContextSource,
	recs db.RecommendationStore,
	feedback db.FeedbackStore,
	preds db.PredictionStore,
	ledger *prediction.Ledger,
	cfg *config.Config,
	mode DispatchMode,
	logger zerolog.Logger,
) *Engine {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Engine{
		gens:     gens,
		contexts: contexts,
		recs:     recs,
		feedback: feedback,
		preds:    preds,
		ledger:   ledger,
		critic:   NewCritiqueOrchestrator(gens.Tier(llm.TierCheap), gens.Tier(llm.TierPrimary), mode, logger),
		cfg:      cfg,
		logger:   logger.With().Str("component", "advisor-engine").Logger(),
	}
}

// Generate produces, hardens, and persists recommendations for one category.
// It always returns the subset that survived threshold and dedup, even when
// individual critique or action-plan calls failed.
func (e *Engine) Generate(ctx context.Context, category models.Category, maxItems int, withActionPlans bool) ([]*models.Recommendation, error) {
	if !models.ValidCategory(category) {
		return nil, fmt.Errorf("unknown category: %q", category)
	}
	if maxItems <= 0 {
		maxItems = e.cfg.MaxItemsPerCategory
	}

	start := time.Now()

	profile := e.loadContext(ctx, "profile", func() (string, error) { return e.contexts.ProfileContext(ctx) })
	journal := e.loadContext(ctx, "journal", func() (string, error) { return e.contexts.JournalContext(ctx, string(category)) })
	intel := e.loadContext(ctx, "intel", func() (string, error) { return e.contexts.FilteredIntelContext(ctx, string(category)) })

	reply, err := e.gens.Tier(llm.TierPrimary).Generate(ctx,
		generationSystemPrompt,
		buildGenerationPrompt(category, maxItems, profile, journal, intel),
		generationMaxTokens)
	if err != nil {
		return nil, fmt.Errorf("generate %s recommendations: %w", category, err)
	}

	parsed := ParseCandidates(reply, category)
	if len(parsed) > maxItems {
		parsed = parsed[:maxItems]
	}

	// A fresh scorer per run picks up the latest feedback and outcomes.
	scorer := NewScorer(e.feedback, e.preds, time.Duration(e.cfg.FeedbackWindowDays)*24*time.Hour, e.logger)
	survivors := e.screen(ctx, scorer, parsed)

	e.critic.RunWaves(ctx, survivors, profile, intel)
	if withActionPlans {
		e.critic.RunActionPlans(ctx, survivors, e.cfg.PredictionThreshold)
	}

	recs := e.persist(ctx, survivors)

	e.logger.Info().
		Str("category", string(category)).
		Int("parsed", len(parsed)).
		Int("survived", len(survivors)).
		Int("persisted", len(recs)).
		Dur("elapsed", time.Since(start)).
		Msg("Generation run complete")

	return recs, nil
}

// GenerateAll runs Generate for every category sequentially, collecting the
// per-category results. A category whose run fails is logged and omitted.
func (e *Engine) GenerateAll(ctx context.Context, maxPerCategory int) (map[models.Category][]*models.Recommendation, error) {
	results := make(map[models.Category][]*models.Recommendation, len(models.AllCategories))
	for _, category := range models.AllCategories {
		recs, err := e.Generate(ctx, category, maxPerCategory, false)
		if err != nil {
			e.logger.Error().Err(err).Str("category", string(category)).Msg("Category generation failed")
			continue
		}
		results[category] = recs
	}
	return results, nil
}

// TopRecommendations returns the highest-scoring unresolved recommendations.
func (e *Engine) TopRecommendations(ctx context.Context, limit int, minScore float64) ([]*models.Recommendation, error) {
	if limit <= 0 {
		limit = 10
	}
	return e.recs.GetTopRecommendations(ctx, limit, minScore)
}

// screen adjusts each candidate's raw score and drops those failing the
// threshold or the dedup window. Both checks must pass.
func (e *Engine) screen(ctx context.Context, scorer *Scorer, candidates []*Candidate) []*Candidate {
	dedupSince := time.Now().AddDate(0, 0, -e.cfg.DedupWindowDays)

	survivors := make([]*Candidate, 0, len(candidates))
	for _, c := range candidates {
		c.Score = scorer.Adjust(ctx, c.Raw(), c.Category)
		if c.Score < e.cfg.MinScoreThreshold {
			e.logger.Debug().Str("title", c.Title).Float64("score", c.Score).Msg("Candidate below threshold")
			continue
		}

		exists, err := e.recs.HashExistsSince(ctx, ContentHash(c.Title, c.Description), dedupSince)
		if err != nil {
			e.logger.Warn().Err(err).Str("title", c.Title).Msg("Dedup lookup failed, keeping candidate")
		} else if exists {
			e.logger.Debug().Str("title", c.Title).Msg("Duplicate within dedup window, dropped")
			continue
		}

		survivors = append(survivors, c)
	}
	return survivors
}

// persist saves screened candidates and records a prediction for each saved
// recommendation that clears the prediction threshold. A store failure
// drops that one candidate, never the batch.
func (e *Engine) persist(ctx context.Context, candidates []*Candidate) []*models.Recommendation {
	recs := make([]*models.Recommendation, 0, len(candidates))
	for _, c := range candidates {
		rec := c.ToRecommendation()
		if _, err := e.recs.StoreRecommendation(ctx, rec); err != nil {
			e.logger.Error().Err(err).Str("title", c.Title).Msg("Failed to persist recommendation")
			continue
		}

		if _, err := e.ledger.RecordFromRecommendation(ctx, rec); err != nil {
			e.logger.Error().Err(err).Int64("recommendation_id", rec.ID).Msg("Failed to record prediction")
		}

		recs = append(recs, rec)
	}
	return recs
}

// loadContext fetches one collaborator context string, degrading to empty on
// failure.
func (e *Engine) loadContext(ctx context.Context, name string, fetch func() (string, error)) string {
	text, err := fetch()
	if err != nil {
		e.logger.Warn().Err(err).Str("context", name).Msg("Context assembly failed, proceeding without")
		return ""
	}
	return text
}
