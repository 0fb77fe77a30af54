package advisor

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/averlane/northstar/pkg/models"
)

func newCandidate(title string, score float64) *Candidate {
	return &Candidate{
		Category:    models.CategoryLearning,
		Title:       title,
		Description: "description for " + title,
		Rationale:   "rationale for " + title,
		Score:       score,
		Reasoning:   models.ReasoningTrace{Confidence: 0.9},
	}
}

func TestContradictionCheckSkipsEmptyIntel(t *testing.T) {
	gen := &fakeGenerator{reply: func(_, _ string) (string, error) {
		return "VERDICT: CONTRADICTED\nshould never run", nil
	}}
	o := NewCritiqueOrchestrator(gen, gen, DispatchSequential, zerolog.Nop())

	c := newCandidate("skip me", 8)
	o.contradictionCheck(context.Background(), c, "   ")

	assert.Zero(t, gen.callCount(), "empty intel must not trigger a call")
	assert.Empty(t, c.Critique.IntelContradictions)
}

func TestContradictionCheckSupportedLeavesNoRecord(t *testing.T) {
	gen := &fakeGenerator{reply: func(_, _ string) (string, error) {
		return "VERDICT: SUPPORTED\nEverything checks out.", nil
	}}
	o := NewCritiqueOrchestrator(gen, gen, DispatchSequential, zerolog.Nop())

	c := newCandidate("supported", 8)
	o.contradictionCheck(context.Background(), c, "market intel text")

	assert.Equal(t, 1, gen.callCount())
	assert.Empty(t, c.Critique.IntelContradictions)
}

func TestContradictionCheckStoresFullReply(t *testing.T) {
	reply := "VERDICT: CONTRADICTED\nRecent layoffs in the sector undermine the premise."
	gen := &fakeGenerator{reply: func(_, _ string) (string, error) {
		return reply + "\n", nil
	}}
	o := NewCritiqueOrchestrator(gen, gen, DispatchSequential, zerolog.Nop())

	c := newCandidate("contradicted", 8)
	o.contradictionCheck(context.Background(), c, "market intel text")

	assert.Equal(t, reply, c.Critique.IntelContradictions, "full reply stored verbatim")
}

func TestContradictionCheckMissingVerdictTreatedAsSupported(t *testing.T) {
	gen := &fakeGenerator{reply: func(_, _ string) (string, error) {
		return "No structured verdict here.", nil
	}}
	o := NewCritiqueOrchestrator(gen, gen, DispatchSequential, zerolog.Nop())

	c := newCandidate("unstructured", 8)
	o.contradictionCheck(context.Background(), c, "intel")

	assert.Empty(t, c.Critique.IntelContradictions)
}

func TestAdversarialCritiqueAppliesFields(t *testing.T) {
	gen := &fakeGenerator{reply: func(_, _ string) (string, error) {
		return `CHALLENGE: Assumes free evenings that the journal contradicts.
MISSING_CONTEXT: No data on current workload.
ALTERNATIVE: A lighter weekly cadence.
CONFIDENCE: Low
CONFIDENCE_RATIONALE: Thin evidence either way.`, nil
	}}
	o := NewCritiqueOrchestrator(gen, gen, DispatchSequential, zerolog.Nop())

	c := newCandidate("critiqued", 8)
	o.adversarialCritique(context.Background(), c, "profile text")

	assert.Equal(t, "Assumes free evenings that the journal contradicts.", c.Critique.Challenge)
	assert.Equal(t, "No data on current workload.", c.Critique.MissingContext)
	assert.Equal(t, "A lighter weekly cadence.", c.Critique.Alternative)
	assert.Equal(t, "Low", c.Critique.Confidence)
	assert.Equal(t, "Thin evidence either way.", c.Critique.ConfidenceRationale)
	assert.InDelta(t, 0.25, c.Reasoning.Confidence, 0.0001, "critic label overwrites generator confidence")
}

func TestAdversarialCritiqueFailureLeavesCandidate(t *testing.T) {
	gen := &fakeGenerator{reply: func(_, _ string) (string, error) {
		return "", errors.New("model unavailable")
	}}
	o := NewCritiqueOrchestrator(gen, gen, DispatchSequential, zerolog.Nop())

	c := newCandidate("untouched", 8)
	o.adversarialCritique(context.Background(), c, "profile")

	assert.Empty(t, c.Critique.Challenge)
	assert.InDelta(t, 0.9, c.Reasoning.Confidence, 0.0001)
}

func TestParseCriticFieldsRegexFallback(t *testing.T) {
	// Only two recognizable fields, so the fallback rescan runs. A field
	// buried mid-line stays unparsed either way.
	reply := `Let me think about this recommendation carefully.

The core problem is time, and CHALLENGE: this inline text is not a field.
  CONFIDENCE: Medium because the evidence is mixed
  ALTERNATIVE: null`

	fields := parseCriticFields(reply)

	assert.Contains(t, fields["CONFIDENCE"], "Medium")
	assert.Equal(t, "null", fields["ALTERNATIVE"])
	assert.NotContains(t, fields, "CHALLENGE")
}

func TestParseCriticFieldsPrefixWinsWhenComplete(t *testing.T) {
	reply := `CHALLENGE: first
MISSING_CONTEXT: second
CONFIDENCE: High
CHALLENGE: duplicate must not overwrite`

	fields := parseCriticFields(reply)

	assert.Equal(t, "first", fields["CHALLENGE"])
	assert.Equal(t, "second", fields["MISSING_CONTEXT"])
	assert.Equal(t, "High", fields["CONFIDENCE"])
}

func TestApplyCritiqueNullAlternative(t *testing.T) {
	c := newCandidate("no alt", 8)
	applyCritique(c, map[string]string{
		"CHALLENGE":   "something",
		"ALTERNATIVE": "NULL",
		"CONFIDENCE":  "High",
	})

	assert.Empty(t, c.Critique.Alternative)
	assert.Equal(t, "High", c.Critique.Confidence)
	assert.InDelta(t, 0.85, c.Reasoning.Confidence, 0.0001)
}

func TestExtractConfidenceLabel(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"High", "High"},
		{"high confidence given the evidence", "High"},
		{"Medium, mixed signals", "Medium"},
		{"LOW", "Low"},
		{"no idea", "Medium"},
		{"", "Medium"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, extractConfidenceLabel(tt.text), "text %q", tt.text)
	}
}

func TestRunWavesOrdersAndCoversAllCandidates(t *testing.T) {
	gen := &fakeGenerator{reply: func(systemPrompt, _ string) (string, error) {
		if systemPrompt == contradictionSystemPrompt {
			return "VERDICT: SUPPORTED", nil
		}
		return "CHALLENGE: x\nMISSING_CONTEXT: y\nCONFIDENCE: Medium", nil
	}}
	o := NewCritiqueOrchestrator(gen, gen, DispatchConcurrent, zerolog.Nop())

	candidates := []*Candidate{
		newCandidate("one", 7),
		newCandidate("two", 8),
		newCandidate("three", 9),
	}
	o.RunWaves(context.Background(), candidates, "profile", "intel")

	assert.Equal(t, 6, gen.callCount(), "two waves over three candidates")
	for _, c := range candidates {
		assert.Equal(t, "x", c.Critique.Challenge)
		assert.InDelta(t, 0.55, c.Reasoning.Confidence, 0.0001)
	}
}

func TestRunActionPlansRespectsThreshold(t *testing.T) {
	primary := &fakeGenerator{reply: func(_, _ string) (string, error) {
		return "1. Block two evenings a week.\n2. Ship something in 30 days.", nil
	}}
	cheap := &fakeGenerator{reply: func(_, _ string) (string, error) {
		return "", errors.New("cheap tier must not be used for plans")
	}}
	o := NewCritiqueOrchestrator(cheap, primary, DispatchSequential, zerolog.Nop())

	high := newCandidate("high", 7.5)
	low := newCandidate("low", 6.9)
	o.RunActionPlans(context.Background(), []*Candidate{high, low}, 7.0)

	assert.Equal(t, 1, primary.callCount())
	assert.Zero(t, cheap.callCount())
	assert.NotEmpty(t, high.ActionPlan)
	assert.Empty(t, low.ActionPlan)
}
