package cache

import (
	"context"
	"errors"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketpulse/internal/interfaces"
	"github.com/ternarybob/marketpulse/internal/models"
)

// Service is the session result cache. Entries are never evicted; a refresh
// replaces the entry for its key.
type Service struct {
	storage interfaces.InsightStorage
	logger  arbor.ILogger
}

// NewService creates a result cache over the given storage
func NewService(storage interfaces.InsightStorage, logger arbor.ILogger) *Service {
	return &Service{
		storage: storage,
		logger:  logger,
	}
}

// Get returns the cached report for (vertical, mode). Storage failures read as a miss.
func (s *Service) Get(ctx context.Context, vertical string, mode models.LanguageMode) (*models.InsightResult, bool) {
	key := models.NewCacheKey(vertical, mode)
	result, err := s.storage.GetInsight(ctx, key)
	if err != nil {
		if !errors.Is(err, interfaces.ErrInsightNotFound) {
			s.logger.Warn().Err(err).Str("key", key.String()).Msg("Cache read failed, treating as miss")
		}
		return nil, false
	}
	return result, true
}

// Put stores result under (vertical, mode), replacing any previous entry
func (s *Service) Put(ctx context.Context, vertical string, mode models.LanguageMode, result *models.InsightResult) error {
	key := models.NewCacheKey(vertical, mode)
	if err := s.storage.SaveInsight(ctx, key, result); err != nil {
		return err
	}
	s.logger.Debug().Str("key", key.String()).Str("id", result.ID).Msg("Cached insight result")
	return nil
}

// Len returns the number of cached reports
func (s *Service) Len(ctx context.Context) int {
	count, err := s.storage.CountInsights(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to count cached insights")
		return 0
	}
	return count
}
