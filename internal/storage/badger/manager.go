package badger

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribo/internal/common"
	"github.com/ternarybob/scribo/internal/interfaces"
)

// Manager implements the StorageManager interface for Badger
type Manager struct {
	db      *BadgerDB
	catalog interfaces.CatalogStorage
	history interfaces.HistoryStorage
	logger  arbor.ILogger
}

// NewManager creates a new Badger storage manager
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:      db,
		catalog: NewCatalogStorage(db, logger),
		history: NewHistoryStorage(db, logger),
		logger:  logger,
	}

	logger.Info().Msg("Badger storage manager initialized")

	return manager, nil
}

// Catalog returns the page catalogue storage
func (m *Manager) Catalog() interfaces.CatalogStorage {
	return m.catalog
}

// History returns the optimization history storage
func (m *Manager) History() interfaces.HistoryStorage {
	return m.history
}

// Close closes the underlying database
func (m *Manager) Close() error {
	return m.db.Close()
}
