package badger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketpulse/internal/interfaces"
	"github.com/ternarybob/marketpulse/internal/models"
)

func newTestStorage(t *testing.T) *InsightStorage {
	t.Helper()
	logger := arbor.NewLogger()
	db, err := NewBadgerDB(logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewInsightStorage(db, logger)
}

func TestInsightStorage_GetMissing(t *testing.T) {
	storage := newTestStorage(t)

	result, err := storage.GetInsight(context.Background(), models.NewCacheKey("Beauty", models.LanguageModeNative))
	assert.Nil(t, result)
	assert.ErrorIs(t, err, interfaces.ErrInsightNotFound)
}

func TestInsightStorage_SaveAndGet(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()
	key := models.NewCacheKey("Beauty", models.LanguageModeNative)

	saved := &models.InsightResult{
		ID:        "ins_1",
		Vertical:  "Beauty",
		Mode:      models.LanguageModeNative,
		Text:      "## Executive Summary\nSteady growth.",
		Sources:   []models.Source{{URI: "https://example.com/a", Title: "A"}},
		FetchedAt: time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC),
		Provider:  "gemini",
		Model:     "gemini-2.5-flash",
	}
	require.NoError(t, storage.SaveInsight(ctx, key, saved))

	got, err := storage.GetInsight(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, got.ID)
	assert.Equal(t, saved.Text, got.Text)
	assert.Equal(t, saved.Sources, got.Sources)
	assert.True(t, saved.FetchedAt.Equal(got.FetchedAt))

	// Other language mode is a different key
	_, err = storage.GetInsight(ctx, models.NewCacheKey("Beauty", models.LanguageModeEnglish))
	assert.ErrorIs(t, err, interfaces.ErrInsightNotFound)
}

func TestInsightStorage_SaveReplaces(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()
	key := models.NewCacheKey("Fashion", models.LanguageModeEnglish)

	require.NoError(t, storage.SaveInsight(ctx, key, &models.InsightResult{ID: "first", Text: "one"}))
	require.NoError(t, storage.SaveInsight(ctx, key, &models.InsightResult{ID: "second", Text: "two"}))

	got, err := storage.GetInsight(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "second", got.ID)

	count, err := storage.CountInsights(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestInsightStorage_SaveNil(t *testing.T) {
	storage := newTestStorage(t)
	err := storage.SaveInsight(context.Background(), models.NewCacheKey("Fashion", models.LanguageModeEnglish), nil)
	assert.Error(t, err)
}
