package advisor

import (
	"context"
	"fmt"
	"strings"

	"github.com/averlane/northstar/internal/llm"
	"github.com/averlane/northstar/pkg/models"
)

// topPicksMaxTokens bounds the ranking and contrarian replies.
const topPicksMaxTokens = 1536

// GenerateTopPicks consolidates the highest-scoring unresolved
// recommendations across all categories into a formatted shortlist. When the
// pool already fits the requested pick count it is formatted directly with
// no generation call; otherwise one ranking call selects the picks, and
// exactly one contrarian check runs against the single highest-scored
// candidate.
func (e *Engine) GenerateTopPicks(ctx context.Context, maxPicks, poolSize int, minScore float64) (string, error) {
	if maxPicks <= 0 {
		maxPicks = 3
	}
	if poolSize <= 0 {
		poolSize = maxPicks * 3
	}

	pool, err := e.recs.GetTopRecommendations(ctx, poolSize, minScore)
	if err != nil {
		return "", fmt.Errorf("load top-picks pool: %w", err)
	}
	if len(pool) == 0 {
		return "No recommendations meet the bar right now.", nil
	}

	if len(pool) <= maxPicks {
		return formatPicks(pool), nil
	}

	ranking, err := e.gens.Tier(llm.TierPrimary).Generate(ctx,
		topPicksSystemPrompt,
		buildTopPicksPrompt(pool, maxPicks),
		topPicksMaxTokens)
	if err != nil {
		e.logger.Warn().Err(err).Msg("Ranking call failed, falling back to score order")
		return formatPicks(pool[:maxPicks]), nil
	}
	ranking = strings.TrimSpace(ranking)

	// One contrarian pass against the top-scored candidate. FLIP appends a
	// dissenting note; anything else leaves the ranking untouched.
	dissent := e.contrarianCheck(ctx, pool[0])
	if dissent != "" {
		ranking = ranking + "\n\nDISSENT on \"" + pool[0].Title + "\": " + dissent
	}

	return ranking, nil
}

// contrarianCheck returns the contrarian's reasoning when it signals FLIP,
// empty otherwise.
func (e *Engine) contrarianCheck(ctx context.Context, top *models.Recommendation) string {
	reply, err := e.gens.Tier(llm.TierCheap).Generate(ctx,
		contrarianSystemPrompt,
		buildContrarianPrompt(top),
		topPicksMaxTokens)
	if err != nil {
		e.logger.Warn().Err(err).Msg("Contrarian check failed")
		return ""
	}

	trimmed := strings.TrimSpace(reply)
	upper := strings.ToUpper(trimmed)
	if !strings.HasPrefix(upper, "FLIP") {
		return ""
	}

	reasoning := strings.TrimSpace(trimmed[len("FLIP"):])
	reasoning = strings.TrimLeft(reasoning, ":,. ")
	return reasoning
}

// formatPicks renders recommendations directly, used when the pool needs no
// ranking call.
func formatPicks(picks []*models.Recommendation) string {
	var b strings.Builder
	for i, rec := range picks {
		fmt.Fprintf(&b, "%d. [%s] %s (score %.1f)\n", i+1, rec.Category, rec.Title, rec.Score)
		if rec.Description != "" {
			fmt.Fprintf(&b, "   %s\n", rec.Description)
		}
		if rec.Metadata.NextStep != "" {
			fmt.Fprintf(&b, "   Next step: %s\n", rec.Metadata.NextStep)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
