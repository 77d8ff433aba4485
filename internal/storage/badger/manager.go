package badger

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketpulse/internal/interfaces"
)

// Manager implements the StorageManager interface for Badger
type Manager struct {
	db      *BadgerDB
	insight interfaces.InsightStorage
	logger  arbor.ILogger
}

// NewManager creates a new Badger storage manager
func NewManager(logger arbor.ILogger) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:      db,
		insight: NewInsightStorage(db, logger),
		logger:  logger,
	}

	logger.Info().Msg("Badger storage manager initialized")

	return manager, nil
}

// InsightStorage returns the insight storage interface
func (m *Manager) InsightStorage() interfaces.InsightStorage {
	return m.insight
}

// Close closes the database connection
func (m *Manager) Close() error {
	return m.db.Close()
}
