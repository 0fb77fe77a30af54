package models

import "time"

// Outcome represents the resolution state of a prediction.
type Outcome string

const (
	OutcomePending   Outcome = "pending"
	OutcomeConfirmed Outcome = "confirmed"
	OutcomeRejected  Outcome = "rejected"
	OutcomeExpired   Outcome = "expired"
	OutcomeSkipped   Outcome = "skipped"
)

// ValidOutcome reports whether o is a known outcome value.
func ValidOutcome(o Outcome) bool {
	switch o {
	case OutcomePending, OutcomeConfirmed, OutcomeRejected, OutcomeExpired, OutcomeSkipped:
		return true
	}
	return false
}

// Resolved reports whether the outcome is terminal. Pending is the only
// non-terminal state; a prediction resolves exactly once.
func (o Outcome) Resolved() bool {
	return o != OutcomePending
}

// ConfidenceBucket is a coarse label for a continuous confidence value.
type ConfidenceBucket string

const (
	BucketLow    ConfidenceBucket = "Low"
	BucketMedium ConfidenceBucket = "Medium"
	BucketHigh   ConfidenceBucket = "High"
)

// BucketForConfidence maps a 0-1 confidence value to its coarse bucket.
func BucketForConfidence(confidence float64) ConfidenceBucket {
	switch {
	case confidence >= 0.7:
		return BucketHigh
	case confidence >= 0.4:
		return BucketMedium
	default:
		return BucketLow
	}
}

// EvaluationHorizons contains the per-category number of days after which a
// prediction's claim should be checked against reality.
var EvaluationHorizons = map[Category]int{
	CategoryLearning:        90,
	CategoryCareer:          180,
	CategoryEntrepreneurial: 90,
	CategoryInvestment:      60,
	CategoryEvents:          30,
	CategoryProjects:        60,
}

// DefaultHorizonDays is used for categories missing from EvaluationHorizons.
const DefaultHorizonDays = 90

// HorizonDays returns the evaluation horizon for a category in days.
func HorizonDays(c Category) int {
	if days, ok := EvaluationHorizons[c]; ok {
		return days
	}
	return DefaultHorizonDays
}

// Prediction is a falsifiable claim derived from a high-scoring
// recommendation. The back-reference to the recommendation is informational,
// not an ownership edge.
type Prediction struct {
	ID               int64            `json:"id"`
	RecommendationID int64            `json:"recommendation_id"`
	Category         Category         `json:"category"`
	ClaimText        string           `json:"claim_text"`
	Confidence       float64          `json:"confidence"`
	ConfidenceBucket ConfidenceBucket `json:"confidence_bucket"`
	SourceIntelIDs   JSONStringArray  `json:"source_intel_ids,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	EvaluationDue    time.Time        `json:"evaluation_due"`
	Outcome          Outcome          `json:"outcome"`
	OutcomeAt        *time.Time       `json:"outcome_at,omitempty"`
	OutcomeNotes     string           `json:"outcome_notes,omitempty"`
	OutcomeSource    string           `json:"outcome_source,omitempty"`
}

// ReviewDue reports whether the prediction is still pending past its
// evaluation horizon.
func (p *Prediction) ReviewDue(now time.Time) bool {
	return p.Outcome == OutcomePending && now.After(p.EvaluationDue)
}

// BucketStats aggregates prediction outcomes for one grouping key.
type BucketStats struct {
	Confirmed int      `json:"confirmed"`
	Rejected  int      `json:"rejected"`
	Pending   int      `json:"pending"`
	Accuracy  *float64 `json:"accuracy,omitempty"`
}

// PredictionStats is the aggregate outcome report for the ledger.
type PredictionStats struct {
	ByCategory map[Category]BucketStats         `json:"by_category"`
	ByBucket   map[ConfidenceBucket]BucketStats `json:"by_bucket"`
	ReviewDue  int                              `json:"review_due"`
}
