package interfaces

import (
	"context"
	"errors"

	"github.com/ternarybob/marketpulse/internal/models"
)

// ErrInsightNotFound is returned when no insight is stored under a key
var ErrInsightNotFound = errors.New("insight not found")

// InsightStorage stores insight results by composite cache key
type InsightStorage interface {
	GetInsight(ctx context.Context, key models.CacheKey) (*models.InsightResult, error)
	SaveInsight(ctx context.Context, key models.CacheKey, result *models.InsightResult) error
	CountInsights(ctx context.Context) (int, error)
	Close() error
}

// StorageManager owns the session store and its typed accessors
type StorageManager interface {
	InsightStorage() InsightStorage
	Close() error
}
