package models

import "time"

// FeedbackKind classifies an engagement feedback event.
type FeedbackKind string

const (
	// FeedbackUseful marks a recommendation the user acted on or endorsed.
	FeedbackUseful FeedbackKind = "useful"
	// FeedbackIrrelevant marks a recommendation the user rejected as noise.
	FeedbackIrrelevant FeedbackKind = "irrelevant"
)

// ValidFeedbackKind reports whether k is a known feedback kind.
func ValidFeedbackKind(k FeedbackKind) bool {
	return k == FeedbackUseful || k == FeedbackIrrelevant
}

// FeedbackEvent is one engagement signal tagged with a category. Events feed
// the scorer's engagement boost; they are append-only.
type FeedbackEvent struct {
	ID               int64        `json:"id"`
	Category         Category     `json:"category"`
	Kind             FeedbackKind `json:"kind"`
	RecommendationID int64        `json:"recommendation_id,omitempty"`
	CreatedAt        time.Time    `json:"created_at"`
}

// FeedbackCounts holds the useful/irrelevant tallies for one category.
type FeedbackCounts struct {
	Useful     int `json:"useful"`
	Irrelevant int `json:"irrelevant"`
}

// Total returns the number of events behind the counts.
func (c FeedbackCounts) Total() int {
	return c.Useful + c.Irrelevant
}
