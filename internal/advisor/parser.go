package advisor

import (
	"bufio"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/averlane/northstar/pkg/models"
)

// DefaultRawScore is used when a candidate carries neither a full sub-score
// triple nor an explicit SCORE field.
const DefaultRawScore = 5.0

// Candidate is a parsed-but-not-yet-persisted recommendation, before
// threshold and dedup filtering. Optional numeric fields are pointers so a
// missing value is distinguishable from zero.
type Candidate struct {
	Category    models.Category
	Title       string
	Description string
	Rationale   string

	IntelTrigger string
	Premortem    string
	NextStep     string

	Relevance   *float64
	Feasibility *float64
	Impact      *float64
	RawScore    *float64

	Reasoning models.ReasoningTrace
	Critique  models.Critique

	ActionPlan string

	// Score is the final feedback-adjusted score, set during screening.
	Score float64
}

// Raw returns the raw score blend for the candidate: the weighted
// relevance/feasibility/impact combination when all three sub-scores are
// present, otherwise the explicit SCORE field, otherwise the default.
func (c *Candidate) Raw() float64 {
	if c.Relevance != nil && c.Feasibility != nil && c.Impact != nil {
		return 0.5*(*c.Relevance) + 0.2*(*c.Feasibility) + 0.3*(*c.Impact)
	}
	if c.RawScore != nil {
		return *c.RawScore
	}
	return DefaultRawScore
}

// SubScores returns the candidate's sub-score triple when complete.
func (c *Candidate) SubScores() *models.SubScores {
	if c.Relevance == nil || c.Feasibility == nil || c.Impact == nil {
		return nil
	}
	return &models.SubScores{
		Relevance:   *c.Relevance,
		Feasibility: *c.Feasibility,
		Impact:      *c.Impact,
	}
}

// ToRecommendation converts a screened candidate into its persistable form.
func (c *Candidate) ToRecommendation() *models.Recommendation {
	meta := models.Metadata{
		SubScores:    c.SubScores(),
		Reasoning:    &c.Reasoning,
		IntelTrigger: c.IntelTrigger,
		Premortem:    c.Premortem,
		NextStep:     c.NextStep,
		ActionPlan:   c.ActionPlan,
	}
	if c.Critique != (models.Critique{}) {
		critique := c.Critique
		meta.Critique = &critique
	}

	return &models.Recommendation{
		Category:      c.Category,
		Title:         c.Title,
		Description:   c.Description,
		Rationale:     c.Rationale,
		Score:         c.Score,
		Status:        models.StatusSuggested,
		Metadata:      meta,
		EmbeddingHash: ContentHash(c.Title, c.Description),
	}
}

// parkedMarkers drop a heading's candidate when present: the generator
// intentionally shelves these ideas.
var parkedMarkers = []string{"parked", "later"}

// ParseCandidates turns one block of generated free text into zero or more
// candidates. Malformed numeric fields are logged and skipped; a candidate
// only needs a title to survive parsing.
func ParseCandidates(text string, category models.Category) []*Candidate {
	var candidates []*Candidate
	var current *Candidate

	flush := func() {
		if current == nil {
			return
		}
		current.Title = strings.TrimSpace(current.Title)
		current.Description = strings.TrimSpace(current.Description)
		if current.Title != "" {
			candidates = append(candidates, current)
		}
		current = nil
	}

	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if heading, ok := parseHeading(line); ok {
			flush()
			if isParked(heading) {
				log.Debug().Str("title", heading).Msg("Dropping parked candidate")
				continue
			}
			current = &Candidate{Category: category, Title: heading}
			continue
		}

		if current == nil {
			continue // Prose before the first heading
		}

		if field, value, ok := splitField(line); ok {
			applyField(current, field, value)
			continue
		}

		// Free-text accumulation: prose lines extend the description
		// until an explicit DESCRIPTION field has been seen.
		if current.Description == "" {
			current.Description = line
		}
	}
	flush()

	return candidates
}

// parseHeading recognizes markdown-style headings and returns the heading
// text.
func parseHeading(line string) (string, bool) {
	if !strings.HasPrefix(line, "#") {
		return "", false
	}
	heading := strings.TrimSpace(strings.TrimLeft(line, "#"))
	return heading, heading != ""
}

// isParked reports whether a heading marks an intentionally dropped idea.
func isParked(heading string) bool {
	lower := strings.ToLower(heading)
	for _, marker := range parkedMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// splitField splits a "FIELD: value" line into its parts.
func splitField(line string) (field, value string, ok bool) {
	idx := strings.Index(line, ":")
	if idx <= 0 {
		return "", "", false
	}
	field = strings.ToUpper(strings.TrimSpace(line[:idx]))
	value = strings.TrimSpace(line[idx+1:])
	switch field {
	case "DESCRIPTION", "RATIONALE", "INTEL_TRIGGER", "PREMORTEM", "NEXT_STEP",
		"RELEVANCE", "FEASIBILITY", "IMPACT", "SCORE",
		"SOURCE", "PROFILE_MATCH", "CONFIDENCE", "CAVEATS":
		return field, value, true
	}
	return "", "", false
}

// applyField populates one recognized field on the open candidate.
func applyField(c *Candidate, field, value string) {
	switch field {
	case "DESCRIPTION":
		c.Description = value
	case "RATIONALE":
		c.Rationale = value
	case "INTEL_TRIGGER":
		c.IntelTrigger = value
	case "PREMORTEM":
		c.Premortem = value
	case "NEXT_STEP":
		c.NextStep = value
	case "RELEVANCE":
		c.Relevance = parseScoreField(field, value)
	case "FEASIBILITY":
		c.Feasibility = parseScoreField(field, value)
	case "IMPACT":
		c.Impact = parseScoreField(field, value)
	case "SCORE":
		c.RawScore = parseScoreField(field, value)
	case "SOURCE":
		c.Reasoning.Source = value
	case "PROFILE_MATCH":
		c.Reasoning.ProfileMatch = value
	case "CONFIDENCE":
		if v, err := strconv.ParseFloat(value, 64); err == nil {
			c.Reasoning.Confidence = clamp(v, 0, 1)
		} else {
			log.Warn().Str("value", value).Msg("Unparseable confidence field, ignoring")
		}
	case "CAVEATS":
		c.Reasoning.Caveats = value
	}
}

// parseScoreField parses a 0-10 numeric field, clamping into range.
// Unparseable values are logged and ignored.
func parseScoreField(field, value string) *float64 {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		log.Warn().Str("field", field).Str("value", value).Msg("Unparseable score field, ignoring")
		return nil
	}
	v = clamp(v, 0, 10)
	return &v
}

// clamp bounds v into [lo, hi].
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
