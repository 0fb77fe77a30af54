// Package models contains domain models for northstar.
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Category represents a recommendation category.
type Category string

const (
	CategoryLearning        Category = "learning"
	CategoryCareer          Category = "career"
	CategoryEntrepreneurial Category = "entrepreneurial"
	CategoryInvestment      Category = "investment"
	CategoryEvents          Category = "events"
	CategoryProjects        Category = "projects"
)

// AllCategories lists every recommendation category in generation order.
var AllCategories = []Category{
	CategoryLearning,
	CategoryCareer,
	CategoryEntrepreneurial,
	CategoryInvestment,
	CategoryEvents,
	CategoryProjects,
}

// ValidCategory reports whether c is a known category.
func ValidCategory(c Category) bool {
	for _, known := range AllCategories {
		if c == known {
			return true
		}
	}
	return false
}

// Status represents the lifecycle state of a recommendation.
type Status string

const (
	StatusSuggested  Status = "suggested"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusDismissed  Status = "dismissed"
)

// validStatusTransitions maps each status to the statuses it may move to.
// Completed and dismissed are terminal.
var validStatusTransitions = map[Status][]Status{
	StatusSuggested:  {StatusInProgress, StatusDismissed},
	StatusInProgress: {StatusCompleted},
	StatusCompleted:  {},
	StatusDismissed:  {},
}

// ValidStatusTransition reports whether a recommendation may move from one
// status to another.
func ValidStatusTransition(from, to Status) bool {
	for _, allowed := range validStatusTransitions[from] {
		if to == allowed {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status permits no further transitions.
func (s Status) IsTerminal() bool {
	return len(validStatusTransitions[s]) == 0
}

// SubScores holds the generator's raw sub-scores for a candidate.
type SubScores struct {
	Relevance   float64 `json:"relevance"`
	Feasibility float64 `json:"feasibility"`
	Impact      float64 `json:"impact"`
}

// ReasoningTrace captures the generator's self-reported reasoning for a
// recommendation. Confidence is later overwritten by the adversarial critic.
type ReasoningTrace struct {
	Source       string  `json:"source,omitempty"`
	ProfileMatch string  `json:"profile_match,omitempty"`
	Confidence   float64 `json:"confidence"`
	Caveats      string  `json:"caveats,omitempty"`
}

// Critique holds the outputs of the adversarial critique waves.
type Critique struct {
	Challenge           string `json:"challenge,omitempty"`
	MissingContext      string `json:"missing_context,omitempty"`
	Alternative         string `json:"alternative,omitempty"`
	Confidence          string `json:"confidence,omitempty"`
	ConfidenceRationale string `json:"confidence_rationale,omitempty"`
	IntelContradictions string `json:"intel_contradictions,omitempty"`
}

// UserFeedback is an explicit user rating attached to a recommendation.
type UserFeedback struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment,omitempty"`
}

// Metadata is the closed set of optional enrichments carried by a
// recommendation. Every consumer sees the full schema; there is no
// free-form key/value bag.
type Metadata struct {
	SubScores    *SubScores      `json:"sub_scores,omitempty"`
	Reasoning    *ReasoningTrace `json:"reasoning,omitempty"`
	Critique     *Critique       `json:"critique,omitempty"`
	ActionPlan   string          `json:"action_plan,omitempty"`
	Feedback     *UserFeedback   `json:"feedback,omitempty"`
	IntelTrigger string          `json:"intel_trigger,omitempty"`
	Premortem    string          `json:"premortem,omitempty"`
	NextStep     string          `json:"next_step,omitempty"`
	IntelIDs     JSONStringArray `json:"intel_ids,omitempty"`
}

// Scan implements sql.Scanner for Metadata.
func (m *Metadata) Scan(src interface{}) error {
	if src == nil {
		*m = Metadata{}
		return nil
	}

	var data []byte
	switch v := src.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("Metadata: unsupported type %T", src)
	}

	if len(data) == 0 {
		*m = Metadata{}
		return nil
	}

	return json.Unmarshal(data, m)
}

// Value implements driver.Valuer for Metadata.
func (m Metadata) Value() (driver.Value, error) {
	return json.Marshal(m)
}

// JSONStringArray is a custom type for handling JSON string arrays in SQLite.
type JSONStringArray []string

// Scan implements sql.Scanner for JSONStringArray.
func (j *JSONStringArray) Scan(src interface{}) error {
	if src == nil {
		*j = nil
		return nil
	}

	var data []byte
	switch v := src.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("JSONStringArray: unsupported type %T", src)
	}

	if len(data) == 0 {
		*j = nil
		return nil
	}

	return json.Unmarshal(data, j)
}

// Value implements driver.Valuer for JSONStringArray.
func (j JSONStringArray) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Recommendation is one suggested action item.
type Recommendation struct {
	ID            int64     `json:"id"`
	Category      Category  `json:"category"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Rationale     string    `json:"rationale"`
	Score         float64   `json:"score"`
	Status        Status    `json:"status"`
	Metadata      Metadata  `json:"metadata"`
	EmbeddingHash string    `json:"embedding_hash"`
	CreatedAt     time.Time `json:"created_at"`
}

// Confidence returns the recommendation's reasoning-trace confidence,
// defaulting to 0.5 when no trace exists.
func (r *Recommendation) Confidence() float64 {
	if r.Metadata.Reasoning == nil {
		return 0.5
	}
	return r.Metadata.Reasoning.Confidence
}
