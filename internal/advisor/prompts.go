package advisor

import (
	"fmt"
	"strings"

	"github.com/averlane/northstar/pkg/models"
)

// generationSystemPrompt instructs the generator to emit candidates in the
// field format the parser understands.
const generationSystemPrompt = `You are a personal advisor generating concrete, actionable recommendations.

Format every recommendation as a markdown block:

## <short imperative title>
DESCRIPTION: <what to do, 1-3 sentences>
RATIONALE: <why this, for this person, now>
RELEVANCE: <0-10>
FEASIBILITY: <0-10>
IMPACT: <0-10>
INTEL_TRIGGER: <the external signal that prompted this, if any>
PREMORTEM: <the most likely way this fails>
NEXT_STEP: <the first concrete action>
SOURCE: <signal source: journal, profile, intel>
PROFILE_MATCH: <which part of the profile this matches>
CONFIDENCE: <0-1>
CAVEATS: <what would change your mind>

Rules:
- Every block MUST start with a "##" heading.
- Scores are bare numbers, no prose on the score lines.
- If an idea is not ready to recommend, title it with the word "parked".
- No preamble, no closing remarks, only recommendation blocks.`

// contradictionSystemPrompt runs the first critique wave: does recent
// intelligence contradict the recommendation's implicit claim?
const contradictionSystemPrompt = `You are a fact-checker. You receive one recommendation and a digest of recent external intelligence.

Decide whether the intelligence CONTRADICTS the recommendation's implicit claim.

Reply in exactly this format:
VERDICT: SUPPORTED | CONTRADICTED | COMPLICATED
<one short paragraph of reasoning citing the specific intelligence items>

SUPPORTED means nothing in the intelligence undermines the recommendation.
CONTRADICTED means the intelligence directly undermines it.
COMPLICATED means the picture is mixed and the user should know.`

// criticSystemPrompt runs the second critique wave: an adversarial critic
// that must challenge the recommendation.
const criticSystemPrompt = `You are an adversarial critic. Your job is to find the strongest honest case AGAINST the recommendation you are given.

Reply with exactly these five fields, one per line:
CHALLENGE: <the strongest argument against doing this>
MISSING_CONTEXT: <what the recommendation ignores about the person or situation>
ALTERNATIVE: <a concretely better use of the same time or money, or the word null>
CONFIDENCE: <High | Medium | Low, your confidence that the recommendation survives your critique>
CONFIDENCE_RATIONALE: <one sentence on why>

Do not soften the critique. Do not add fields.`

// actionPlanSystemPrompt requests a concrete plan for a surviving
// high-scoring recommendation.
const actionPlanSystemPrompt = `You are a pragmatic planner. Produce a concrete action plan for the recommendation you are given.

Format:
- 3 to 6 numbered steps, each starting with a verb
- each step small enough to finish in one sitting
- last step names a measurable completion signal

No preamble, just the numbered steps.`

// topPicksSystemPrompt ranks a pool of recommendations down to the
// requested picks.
const topPicksSystemPrompt = `You are a prioritization assistant. You receive a numbered pool of recommendations with scores.

Select the requested number of top picks. For each pick output:
<rank>. <title> (score <score>)
   WHY: <one sentence justification>

Order by expected value for the user, not just the score. Output only the picks.`

// contrarianSystemPrompt challenges the single highest-scored pick.
const contrarianSystemPrompt = `You are a contrarian reviewer looking at the single top-ranked recommendation.

If you believe it should NOT be the top pick, start your reply with the word FLIP followed by your reasoning.
If the ranking should stand, start your reply with the word STAND.`

// buildGenerationPrompt assembles the user prompt for one category's
// generation call.
func buildGenerationPrompt(category models.Category, maxItems int, profile, journal, intel string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate up to %d recommendations in the %q category.\n\n", maxItems, category)
	if profile != "" {
		fmt.Fprintf(&b, "PROFILE:\n%s\n\n", profile)
	}
	if journal != "" {
		fmt.Fprintf(&b, "RECENT JOURNAL:\n%s\n\n", journal)
	}
	if intel != "" {
		fmt.Fprintf(&b, "RECENT INTELLIGENCE:\n%s\n\n", intel)
	}
	return b.String()
}

// buildContradictionPrompt assembles the wave-1 user prompt for one candidate.
func buildContradictionPrompt(c *Candidate, intel string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "RECOMMENDATION:\nTitle: %s\nDescription: %s\nRationale: %s\n\n", c.Title, c.Description, c.Rationale)
	fmt.Fprintf(&b, "INTELLIGENCE:\n%s\n", intel)
	return b.String()
}

// buildCriticPrompt assembles the wave-2 user prompt, feeding wave 1's
// verdict back in.
func buildCriticPrompt(c *Candidate, profile string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "RECOMMENDATION:\nTitle: %s\nDescription: %s\nRationale: %s\nScore: %.1f\n\n", c.Title, c.Description, c.Rationale, c.Score)
	if profile != "" {
		fmt.Fprintf(&b, "PROFILE:\n%s\n\n", profile)
	}
	if c.Critique.IntelContradictions != "" {
		fmt.Fprintf(&b, "INTELLIGENCE CHECK RAISED:\n%s\n\n", c.Critique.IntelContradictions)
	}
	return b.String()
}

// buildActionPlanPrompt assembles the enrichment prompt for one candidate.
func buildActionPlanPrompt(c *Candidate) string {
	return fmt.Sprintf("Title: %s\nDescription: %s\nRationale: %s\nNext step already suggested: %s\n",
		c.Title, c.Description, c.Rationale, c.NextStep)
}

// buildTopPicksPrompt assembles the ranking prompt over the candidate pool.
func buildTopPicksPrompt(pool []*models.Recommendation, maxPicks int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Select the top %d from this pool of %d:\n\n", maxPicks, len(pool))
	for i, rec := range pool {
		fmt.Fprintf(&b, "%d. [%s] %s (score %.1f)\n   %s\n", i+1, rec.Category, rec.Title, rec.Score, rec.Description)
	}
	return b.String()
}

// buildContrarianPrompt assembles the contrarian check for the top pick.
func buildContrarianPrompt(top *models.Recommendation) string {
	return fmt.Sprintf("TOP PICK:\nTitle: %s\nCategory: %s\nScore: %.1f\nDescription: %s\nRationale: %s\n",
		top.Title, top.Category, top.Score, top.Description, top.Rationale)
}
