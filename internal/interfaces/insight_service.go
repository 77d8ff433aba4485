package interfaces

import (
	"context"

	"github.com/ternarybob/marketpulse/internal/models"
)

// InsightFetcher retrieves a fresh market-insight report. It never reads or writes the cache.
type InsightFetcher interface {
	FetchInsights(ctx context.Context, vertical string, mode models.LanguageMode) (*models.InsightResult, error)
}

// ResultCache stores insight results for the session, keyed by vertical and language mode
type ResultCache interface {
	Get(ctx context.Context, vertical string, mode models.LanguageMode) (*models.InsightResult, bool)
	Put(ctx context.Context, vertical string, mode models.LanguageMode, result *models.InsightResult) error
}
