// Package gorm provides GORM-based database operations for northstar.
package gorm

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/averlane/northstar/internal/db"
	"github.com/averlane/northstar/pkg/models"
)

// testRecommendationStore creates a RecommendationStore with a temporary database for testing.
func testRecommendationStore(t *testing.T) (*RecommendationStore, *Store, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "gorm_recommendation_test_*")
	if err != nil {
		t.Fatalf("create temp dir: %v", err)
	}

	dbPath := filepath.Join(tmpDir, "test.db")
	cfg := Config{
		Path:     dbPath,
		MaxConns: 4,
		LogLevel: logger.Silent,
	}

	store, err := NewStore(cfg)
	if err != nil {
		os.RemoveAll(tmpDir)
		t.Fatalf("NewStore failed: %v", err)
	}

	recStore := NewRecommendationStore(store)

	cleanup := func() {
		store.Close()
		os.RemoveAll(tmpDir)
	}

	return recStore, store, cleanup
}

func sampleRecommendation(title string, score float64) *models.Recommendation {
	return &models.Recommendation{
		Category:      models.CategoryLearning,
		Title:         title,
		Description:   "description of " + title,
		Rationale:     "rationale of " + title,
		Score:         score,
		EmbeddingHash: title + "-hash",
		Metadata: models.Metadata{
			NextStep:  "do the thing",
			Reasoning: &models.ReasoningTrace{Confidence: 0.7},
		},
	}
}

func TestRecommendationStore_StoreAndGet(t *testing.T) {
	recStore, _, cleanup := testRecommendationStore(t)
	defer cleanup()

	ctx := context.Background()
	rec := sampleRecommendation("Learn Zig", 7.2)

	id, err := recStore.StoreRecommendation(ctx, rec)
	require.NoError(t, err)
	assert.Greater(t, id, int64(0))
	assert.Equal(t, models.StatusSuggested, rec.Status)
	assert.False(t, rec.CreatedAt.IsZero())

	got, err := recStore.GetRecommendationByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Learn Zig", got.Title)
	assert.Equal(t, models.CategoryLearning, got.Category)
	assert.InDelta(t, 7.2, got.Score, 0.0001)
	assert.Equal(t, "do the thing", got.Metadata.NextStep)
	require.NotNil(t, got.Metadata.Reasoning)
	assert.InDelta(t, 0.7, got.Metadata.Reasoning.Confidence, 0.0001)
}

func TestRecommendationStore_GetMissingReturnsNil(t *testing.T) {
	recStore, _, cleanup := testRecommendationStore(t)
	defer cleanup()

	got, err := recStore.GetRecommendationByID(context.Background(), 9999)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRecommendationStore_ListFilters(t *testing.T) {
	recStore, _, cleanup := testRecommendationStore(t)
	defer cleanup()
	ctx := context.Background()

	learning := sampleRecommendation("Learning pick", 8.0)
	_, err := recStore.StoreRecommendation(ctx, learning)
	require.NoError(t, err)

	career := sampleRecommendation("Career pick", 6.5)
	career.Category = models.CategoryCareer
	career.EmbeddingHash = "career-hash"
	_, err = recStore.StoreRecommendation(ctx, career)
	require.NoError(t, err)

	byCategory, err := recStore.ListRecommendations(ctx, db.RecommendationFilter{Category: models.CategoryCareer})
	require.NoError(t, err)
	require.Len(t, byCategory, 1)
	assert.Equal(t, "Career pick", byCategory[0].Title)

	byScore, err := recStore.ListRecommendations(ctx, db.RecommendationFilter{MinScore: 7.0})
	require.NoError(t, err)
	require.Len(t, byScore, 1)
	assert.Equal(t, "Learning pick", byScore[0].Title)
}

func TestRecommendationStore_GetTopExcludesTerminal(t *testing.T) {
	recStore, _, cleanup := testRecommendationStore(t)
	defer cleanup()
	ctx := context.Background()

	best := sampleRecommendation("Best but done", 9.5)
	bestID, err := recStore.StoreRecommendation(ctx, best)
	require.NoError(t, err)
	require.NoError(t, recStore.UpdateRecommendationStatus(ctx, bestID, models.StatusInProgress))
	require.NoError(t, recStore.UpdateRecommendationStatus(ctx, bestID, models.StatusCompleted))

	second := sampleRecommendation("Second", 8.0)
	second.EmbeddingHash = "second-hash"
	_, err = recStore.StoreRecommendation(ctx, second)
	require.NoError(t, err)

	third := sampleRecommendation("Third", 7.0)
	third.EmbeddingHash = "third-hash"
	_, err = recStore.StoreRecommendation(ctx, third)
	require.NoError(t, err)

	top, err := recStore.GetTopRecommendations(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "Second", top[0].Title, "best score first")
	assert.Equal(t, "Third", top[1].Title)
}

func TestRecommendationStore_HashExistsSince(t *testing.T) {
	recStore, _, cleanup := testRecommendationStore(t)
	defer cleanup()
	ctx := context.Background()

	rec := sampleRecommendation("Windowed", 7.0)
	rec.CreatedAt = time.Now().AddDate(0, 0, -10)
	_, err := recStore.StoreRecommendation(ctx, rec)
	require.NoError(t, err)

	within, err := recStore.HashExistsSince(ctx, "Windowed-hash", time.Now().AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.True(t, within)

	outside, err := recStore.HashExistsSince(ctx, "Windowed-hash", time.Now().AddDate(0, 0, -5))
	require.NoError(t, err)
	assert.False(t, outside, "creation predates the window start")

	missing, err := recStore.HashExistsSince(ctx, "never-stored", time.Now().AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.False(t, missing)
}

func TestRecommendationStore_DuplicateHashAllowed(t *testing.T) {
	recStore, _, cleanup := testRecommendationStore(t)
	defer cleanup()
	ctx := context.Background()

	// The dedup window is enforced by the caller's HashExistsSince check,
	// not by a uniqueness constraint, so re-inserting the same hash after
	// the window must succeed.
	first := sampleRecommendation("Same content", 7.0)
	_, err := recStore.StoreRecommendation(ctx, first)
	require.NoError(t, err)

	second := sampleRecommendation("Same content", 7.0)
	id, err := recStore.StoreRecommendation(ctx, second)
	require.NoError(t, err)
	assert.Greater(t, id, first.ID)
}

func TestRecommendationStore_StatusLifecycle(t *testing.T) {
	recStore, _, cleanup := testRecommendationStore(t)
	defer cleanup()
	ctx := context.Background()

	id, err := recStore.StoreRecommendation(ctx, sampleRecommendation("Lifecycle", 7.0))
	require.NoError(t, err)

	require.NoError(t, recStore.UpdateRecommendationStatus(ctx, id, models.StatusInProgress))
	require.NoError(t, recStore.UpdateRecommendationStatus(ctx, id, models.StatusCompleted))

	// Terminal states cannot be left.
	err = recStore.UpdateRecommendationStatus(ctx, id, models.StatusInProgress)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	got, err := recStore.GetRecommendationByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.Status)
}

func TestRecommendationStore_InvalidTransitionRejected(t *testing.T) {
	recStore, _, cleanup := testRecommendationStore(t)
	defer cleanup()
	ctx := context.Background()

	id, err := recStore.StoreRecommendation(ctx, sampleRecommendation("Jumpy", 7.0))
	require.NoError(t, err)

	// suggested -> completed skips in_progress.
	err = recStore.UpdateRecommendationStatus(ctx, id, models.StatusCompleted)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	got, err := recStore.GetRecommendationByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSuggested, got.Status, "failed update leaves status unchanged")
}

func TestRecommendationStore_AppendFeedback(t *testing.T) {
	recStore, _, cleanup := testRecommendationStore(t)
	defer cleanup()
	ctx := context.Background()

	id, err := recStore.StoreRecommendation(ctx, sampleRecommendation("Rated", 7.0))
	require.NoError(t, err)

	err = recStore.AppendRecommendationFeedback(ctx, id, models.UserFeedback{Rating: 4, Comment: "solid"})
	require.NoError(t, err)

	got, err := recStore.GetRecommendationByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got.Metadata.Feedback)
	assert.Equal(t, 4, got.Metadata.Feedback.Rating)
	assert.Equal(t, "solid", got.Metadata.Feedback.Comment)

	err = recStore.AppendRecommendationFeedback(ctx, id, models.UserFeedback{Rating: 6})
	assert.Error(t, err, "rating outside 1-5 is rejected")
}
