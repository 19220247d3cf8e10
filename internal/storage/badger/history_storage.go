package badger

import (
	"context"
	"fmt"
	"sort"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribo/internal/interfaces"
	"github.com/ternarybob/scribo/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// HistoryStorage implements the HistoryStorage interface for Badger
type HistoryStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewHistoryStorage creates a new HistoryStorage instance
func NewHistoryStorage(db *BadgerDB, logger arbor.ILogger) interfaces.HistoryStorage {
	return &HistoryStorage{
		db:     db,
		logger: logger,
	}
}

// SaveRecord persists one optimization outcome
func (s *HistoryStorage) SaveRecord(ctx context.Context, record *models.OptimizationRecord) error {
	if record.ID == "" {
		return fmt.Errorf("record ID is required")
	}

	if err := s.db.Store().Upsert(record.ID, record); err != nil {
		return fmt.Errorf("failed to save optimization record: %w", err)
	}
	return nil
}

// ListRecords returns optimization records, newest first. pageURL filters to
// one page when non-empty; limit caps the result when positive.
func (s *HistoryStorage) ListRecords(ctx context.Context, pageURL string, limit int) ([]*models.OptimizationRecord, error) {
	var records []*models.OptimizationRecord

	var query *badgerhold.Query
	if pageURL != "" {
		query = badgerhold.Where("PageURL").Eq(pageURL).Index("PageURL")
	}
	if err := s.db.Store().Find(&records, query); err != nil {
		return nil, fmt.Errorf("failed to list optimization records: %w", err)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}
