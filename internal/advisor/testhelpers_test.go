package advisor

import (
	"context"
	"sync"
	"time"

	"github.com/averlane/northstar/internal/db"
	"github.com/averlane/northstar/pkg/models"
)

// fakeGenerator scripts generation replies and records calls.
type fakeGenerator struct {
	mu      sync.Mutex
	reply   func(systemPrompt, userPrompt string) (string, error)
	calls   int
	prompts []string
}

func (g *fakeGenerator) Generate(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error) {
	g.mu.Lock()
	g.calls++
	g.prompts = append(g.prompts, userPrompt)
	g.mu.Unlock()
	return g.reply(systemPrompt, userPrompt)
}

func (g *fakeGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

// fakeContextSource returns fixed context strings.
type fakeContextSource struct {
	profile string
	journal string
	intel   string
}

func (f *fakeContextSource) ProfileContext(ctx context.Context) (string, error) {
	return f.profile, nil
}

func (f *fakeContextSource) JournalContext(ctx context.Context, query string) (string, error) {
	return f.journal, nil
}

func (f *fakeContextSource) IntelContext(ctx context.Context, query string) (string, error) {
	return f.intel, nil
}

func (f *fakeContextSource) FilteredIntelContext(ctx context.Context, query string) (string, error) {
	return f.intel, nil
}

// fakeFeedbackStore serves canned engagement counts and tracks query volume.
type fakeFeedbackStore struct {
	mu      sync.Mutex
	counts  map[models.Category]models.FeedbackCounts
	queries int
	err     error
}

func (f *fakeFeedbackStore) RecordFeedbackEvent(ctx context.Context, event *models.FeedbackEvent) (int64, error) {
	return 1, nil
}

func (f *fakeFeedbackStore) FeedbackCountsSince(ctx context.Context, since time.Time) (map[models.Category]models.FeedbackCounts, error) {
	f.mu.Lock()
	f.queries++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.counts, nil
}

// fakePredictionStore serves canned outcome stats and records stores.
type fakePredictionStore struct {
	mu      sync.Mutex
	stats   map[models.Category]models.BucketStats
	stored  []*models.Prediction
	queries int
	err     error
}

func (f *fakePredictionStore) StorePrediction(ctx context.Context, pred *models.Prediction) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pred.ID = int64(len(f.stored) + 1)
	f.stored = append(f.stored, pred)
	return pred.ID, nil
}

func (f *fakePredictionStore) GetPredictionByID(ctx context.Context, id int64) (*models.Prediction, error) {
	return nil, nil
}

func (f *fakePredictionStore) ResolvePrediction(ctx context.Context, id int64, outcome models.Outcome, notes, source string) (bool, error) {
	return false, nil
}

func (f *fakePredictionStore) ListPendingPredictions(ctx context.Context, limit int) ([]*models.Prediction, error) {
	return nil, nil
}

func (f *fakePredictionStore) ResolvedCountsByCategory(ctx context.Context) (map[models.Category]models.BucketStats, error) {
	f.mu.Lock()
	f.queries++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.stats, nil
}

func (f *fakePredictionStore) PredictionStats(ctx context.Context, now time.Time) (*models.PredictionStats, error) {
	return &models.PredictionStats{ByCategory: f.stats}, nil
}

// fakeRecommendationStore holds recommendations in memory and answers dedup
// lookups against what has been stored.
type fakeRecommendationStore struct {
	mu     sync.Mutex
	stored []*models.Recommendation
	top    []*models.Recommendation
	topErr error
}

func (f *fakeRecommendationStore) StoreRecommendation(ctx context.Context, rec *models.Recommendation) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec.ID = int64(len(f.stored) + 1)
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	f.stored = append(f.stored, rec)
	return rec.ID, nil
}

func (f *fakeRecommendationStore) GetRecommendationByID(ctx context.Context, id int64) (*models.Recommendation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rec := range f.stored {
		if rec.ID == id {
			return rec, nil
		}
	}
	return nil, nil
}

func (f *fakeRecommendationStore) ListRecommendations(ctx context.Context, filter db.RecommendationFilter) ([]*models.Recommendation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*models.Recommendation(nil), f.stored...), nil
}

func (f *fakeRecommendationStore) GetTopRecommendations(ctx context.Context, limit int, minScore float64) ([]*models.Recommendation, error) {
	if f.topErr != nil {
		return nil, f.topErr
	}
	if len(f.top) > limit {
		return f.top[:limit], nil
	}
	return f.top, nil
}

func (f *fakeRecommendationStore) HashExistsSince(ctx context.Context, hash string, since time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rec := range f.stored {
		if rec.EmbeddingHash == hash && rec.CreatedAt.After(since) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRecommendationStore) UpdateRecommendationStatus(ctx context.Context, id int64, status models.Status) error {
	return nil
}

func (f *fakeRecommendationStore) AppendRecommendationFeedback(ctx context.Context, id int64, feedback models.UserFeedback) error {
	return nil
}

var (
	_ db.FeedbackStore       = (*fakeFeedbackStore)(nil)
	_ db.PredictionStore     = (*fakePredictionStore)(nil)
	_ db.RecommendationStore = (*fakeRecommendationStore)(nil)
)
