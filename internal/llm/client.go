// Package llm defines the text-generation collaborator boundary.
//
// The generation service itself (retries, model selection, auth) lives
// outside this module; the advisor consumes it through Generator and treats
// every failure as recoverable.
package llm

import "context"

// Tier selects which generation tier a call runs against.
type Tier string

const (
	// TierPrimary is the full-strength model used for drafting
	// recommendations, action plans, and top-pick ranking.
	TierPrimary Tier = "primary"
	// TierCheap is the low-cost model used for the critique waves.
	TierCheap Tier = "cheap"
)

// Generator produces text from a system/user prompt pair. Implementations
// own their timeout and retry policy; callers never retry.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error)
}

// TieredGenerator exposes both generation tiers.
type TieredGenerator interface {
	Tier(t Tier) Generator
}

// Tiers is a trivial TieredGenerator backed by two Generators.
type Tiers struct {
	Primary Generator
	Cheap   Generator
}

// Tier returns the generator for the requested tier, falling back to the
// primary generator when no cheap tier is configured.
func (g Tiers) Tier(t Tier) Generator {
	if t == TierCheap && g.Cheap != nil {
		return g.Cheap
	}
	return g.Primary
}
