package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketpulse/internal/interfaces"
	"github.com/ternarybob/marketpulse/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// insightRecord is the stored form of a cached report
type insightRecord struct {
	Key      string
	Result   models.InsightResult
	StoredAt time.Time
}

// InsightStorage implements interfaces.InsightStorage for Badger
type InsightStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewInsightStorage creates a new InsightStorage instance
func NewInsightStorage(db *BadgerDB, logger arbor.ILogger) *InsightStorage {
	return &InsightStorage{
		db:     db,
		logger: logger,
	}
}

// GetInsight returns the report stored under key or interfaces.ErrInsightNotFound
func (s *InsightStorage) GetInsight(ctx context.Context, key models.CacheKey) (*models.InsightResult, error) {
	var record insightRecord
	err := s.db.Store().Get(key.String(), &record)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return nil, interfaces.ErrInsightNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get insight %s: %w", key, err)
	}

	result := record.Result
	return &result, nil
}

// SaveInsight replaces whatever is stored under key
func (s *InsightStorage) SaveInsight(ctx context.Context, key models.CacheKey, result *models.InsightResult) error {
	if result == nil {
		return fmt.Errorf("cannot save nil insight for %s", key)
	}

	record := insightRecord{
		Key:      key.String(),
		Result:   *result,
		StoredAt: time.Now(),
	}

	if err := s.db.Store().Upsert(record.Key, &record); err != nil {
		return fmt.Errorf("failed to save insight %s: %w", key, err)
	}

	s.logger.Debug().
		Str("key", record.Key).
		Int("sources", len(result.Sources)).
		Msg("Insight stored")

	return nil
}

// CountInsights returns the number of stored reports
func (s *InsightStorage) CountInsights(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&insightRecord{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count insights: %w", err)
	}
	return int(count), nil
}

// Close closes the underlying store
func (s *InsightStorage) Close() error {
	return s.db.Close()
}
