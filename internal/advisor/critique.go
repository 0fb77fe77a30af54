package advisor

import (
	"context"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/averlane/northstar/internal/llm"
)

// DispatchMode selects how per-candidate critique calls are scheduled.
// Callers already running inside a concurrent dispatch loop must choose
// DispatchSequential rather than nest fan-outs.
type DispatchMode int

const (
	// DispatchConcurrent fans each wave out across candidates.
	DispatchConcurrent DispatchMode = iota
	// DispatchSequential runs each wave's calls one candidate at a time.
	DispatchSequential
)

// critiqueMaxTokens bounds each critique-wave reply.
const critiqueMaxTokens = 1024

// actionPlanMaxTokens bounds action-plan replies.
const actionPlanMaxTokens = 2048

// Confidence labels mapped to the numeric values that overwrite the
// generator's self-reported confidence. The critic's verdict wins.
var confidenceValues = map[string]float64{
	"High":   0.85,
	"Medium": 0.55,
	"Low":    0.25,
}

// criticFieldRegexes back the fallback parse: each finds its field anywhere
// in verbose critic output.
var criticFieldRegexes = map[string]*regexp.Regexp{
	"CHALLENGE":            regexp.MustCompile(`(?im)^\s*CHALLENGE:\s*(.+)$`),
	"MISSING_CONTEXT":      regexp.MustCompile(`(?im)^\s*MISSING_CONTEXT:\s*(.+)$`),
	"ALTERNATIVE":          regexp.MustCompile(`(?im)^\s*ALTERNATIVE:\s*(.+)$`),
	"CONFIDENCE":           regexp.MustCompile(`(?im)^\s*CONFIDENCE:\s*(.+)$`),
	"CONFIDENCE_RATIONALE": regexp.MustCompile(`(?im)^\s*CONFIDENCE_RATIONALE:\s*(.+)$`),
}

var verdictRegex = regexp.MustCompile(`(?im)^\s*VERDICT:\s*([A-Z]+)`)

// CritiqueOrchestrator hardens candidates through two waves of critique
// calls plus an optional action-plan pass. It never fails a batch: a
// candidate whose call errors keeps whatever metadata it already had.
type CritiqueOrchestrator struct {
	cheap   llm.Generator
	primary llm.Generator
	mode    DispatchMode
	logger  zerolog.Logger
}

// NewCritiqueOrchestrator creates an orchestrator. cheap serves both
// critique waves; primary serves the action-plan pass.
func NewCritiqueOrchestrator(cheap, primary llm.Generator, mode DispatchMode, logger zerolog.Logger) *CritiqueOrchestrator {
	return &CritiqueOrchestrator{
		cheap:   cheap,
		primary: primary,
		mode:    mode,
		logger:  logger.With().Str("component", "critique").Logger(),
	}
}

// RunWaves executes the contradiction wave and then the adversarial-critic
// wave over all candidates. Each wave joins fully before the next starts;
// wave 2 consumes wave 1's per-candidate result but candidates never depend
// on each other. The shared context strings are read-only; each task writes
// only into its own candidate.
func (o *CritiqueOrchestrator) RunWaves(ctx context.Context, candidates []*Candidate, profile, intel string) {
	if len(candidates) == 0 {
		return
	}

	o.forEach(ctx, candidates, func(c *Candidate) {
		o.contradictionCheck(ctx, c, intel)
	})

	o.forEach(ctx, candidates, func(c *Candidate) {
		o.adversarialCritique(ctx, c, profile)
	})
}

// RunActionPlans issues one primary-tier call per candidate at or above the
// threshold, storing the plan in metadata. Pure enrichment: failures leave
// the candidate unchanged and below-threshold candidates are skipped.
func (o *CritiqueOrchestrator) RunActionPlans(ctx context.Context, candidates []*Candidate, threshold float64) {
	eligible := make([]*Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Score >= threshold {
			eligible = append(eligible, c)
		}
	}
	if len(eligible) == 0 {
		return
	}

	o.forEach(ctx, eligible, func(c *Candidate) {
		plan, err := o.primary.Generate(ctx, actionPlanSystemPrompt, buildActionPlanPrompt(c), actionPlanMaxTokens)
		if err != nil {
			o.logger.Warn().Err(err).Str("title", c.Title).Msg("Action plan call failed")
			return
		}
		c.ActionPlan = strings.TrimSpace(plan)
	})
}

// forEach dispatches fn once per candidate under the configured scheduling
// mode and joins before returning. fn must confine its writes to its own
// candidate.
func (o *CritiqueOrchestrator) forEach(ctx context.Context, candidates []*Candidate, fn func(*Candidate)) {
	if o.mode == DispatchSequential {
		for _, c := range candidates {
			fn(c)
		}
		return
	}

	g, _ := errgroup.WithContext(ctx)
	for _, c := range candidates {
		c := c
		g.Go(func() error {
			fn(c)
			return nil
		})
	}
	_ = g.Wait() // Tasks log their own failures and never return errors
}

// contradictionCheck runs wave 1 for one candidate. An empty intel context
// yields no contradiction without a call; a SUPPORTED verdict yields no
// contradiction; any other verdict stores the full reply verbatim.
func (o *CritiqueOrchestrator) contradictionCheck(ctx context.Context, c *Candidate, intel string) {
	if strings.TrimSpace(intel) == "" {
		return
	}

	reply, err := o.cheap.Generate(ctx, contradictionSystemPrompt, buildContradictionPrompt(c, intel), critiqueMaxTokens)
	if err != nil {
		o.logger.Warn().Err(err).Str("title", c.Title).Msg("Contradiction check failed")
		return
	}

	verdict := "SUPPORTED"
	if m := verdictRegex.FindStringSubmatch(reply); m != nil {
		verdict = strings.ToUpper(m[1])
	}
	if verdict == "SUPPORTED" {
		return
	}

	c.Critique.IntelContradictions = strings.TrimSpace(reply)
}

// adversarialCritique runs wave 2 for one candidate: parse the five critic
// fields and overwrite the reasoning-trace confidence with the critic's
// label.
func (o *CritiqueOrchestrator) adversarialCritique(ctx context.Context, c *Candidate, profile string) {
	reply, err := o.cheap.Generate(ctx, criticSystemPrompt, buildCriticPrompt(c, profile), critiqueMaxTokens)
	if err != nil {
		o.logger.Warn().Err(err).Str("title", c.Title).Msg("Adversarial critique failed")
		return
	}

	fields := parseCriticFields(reply)
	applyCritique(c, fields)
}

// parseCriticFields recovers critic fields from the reply. Line-prefix
// parsing runs first; when fewer than 3 fields come back, a regex fallback
// rescans the whole reply for the same field names.
func parseCriticFields(reply string) map[string]string {
	fields := make(map[string]string)
	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(line)
		idx := strings.Index(line, ":")
		if idx <= 0 {
			continue
		}
		name := strings.ToUpper(strings.TrimSpace(line[:idx]))
		if _, known := criticFieldRegexes[name]; !known {
			continue
		}
		if _, seen := fields[name]; seen {
			continue
		}
		fields[name] = strings.TrimSpace(line[idx+1:])
	}

	if len(fields) >= 3 {
		return fields
	}

	// Verbose or malformed reply: fall back to scanning anywhere in the text.
	for name, re := range criticFieldRegexes {
		if _, seen := fields[name]; seen {
			continue
		}
		if m := re.FindStringSubmatch(reply); m != nil {
			fields[name] = strings.TrimSpace(m[1])
		}
	}
	return fields
}

// applyCritique writes parsed critic fields into the candidate. The critic's
// confidence label is authoritative: its numeric mapping always overwrites
// the generator's self-reported confidence.
func applyCritique(c *Candidate, fields map[string]string) {
	if v := fields["CHALLENGE"]; v != "" {
		c.Critique.Challenge = v
	}
	if v := fields["MISSING_CONTEXT"]; v != "" {
		c.Critique.MissingContext = v
	}
	if v := fields["ALTERNATIVE"]; v != "" && !strings.EqualFold(v, "null") {
		c.Critique.Alternative = v
	}
	if v := fields["CONFIDENCE_RATIONALE"]; v != "" {
		c.Critique.ConfidenceRationale = v
	}

	label := extractConfidenceLabel(fields["CONFIDENCE"])
	c.Critique.Confidence = label
	c.Reasoning.Confidence = confidenceValues[label]
}

// extractConfidenceLabel pulls High/Medium/Low out of possibly verbose
// confidence text ("High - strong evidence from multiple sources" yields
// "High"). Unrecognizable text degrades to Medium.
func extractConfidenceLabel(text string) string {
	lower := strings.ToLower(text)
	for _, label := range []string{"High", "Medium", "Low"} {
		if strings.Contains(lower, strings.ToLower(label)) {
			return label
		}
	}
	return "Medium"
}
