package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribo/internal/interfaces"
	"github.com/ternarybob/scribo/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// CatalogStorage implements the CatalogStorage interface for Badger
type CatalogStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewCatalogStorage creates a new CatalogStorage instance
func NewCatalogStorage(db *BadgerDB, logger arbor.ILogger) interfaces.CatalogStorage {
	return &CatalogStorage{
		db:     db,
		logger: logger,
	}
}

// SavePage upserts a page catalogue entry keyed by URL
func (s *CatalogStorage) SavePage(ctx context.Context, page *models.PageEntry) error {
	if page.URL == "" {
		return fmt.Errorf("page URL is required")
	}

	if err := s.db.Store().Upsert(page.URL, page); err != nil {
		return fmt.Errorf("failed to save page: %w", err)
	}
	return nil
}

// GetPage returns the catalogue entry for a URL
func (s *CatalogStorage) GetPage(ctx context.Context, url string) (*models.PageEntry, error) {
	var page models.PageEntry
	if err := s.db.Store().Get(url, &page); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("page not found: %s", url)
		}
		return nil, fmt.Errorf("failed to get page: %w", err)
	}
	return &page, nil
}

// ListPages returns all catalogue entries
func (s *CatalogStorage) ListPages(ctx context.Context) ([]*models.PageEntry, error) {
	var pages []*models.PageEntry
	if err := s.db.Store().Find(&pages, nil); err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	return pages, nil
}

// DeletePage removes a catalogue entry
func (s *CatalogStorage) DeletePage(ctx context.Context, url string) error {
	if err := s.db.Store().Delete(url, &models.PageEntry{}); err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to delete page: %w", err)
	}
	return nil
}
