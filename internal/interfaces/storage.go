package interfaces

import (
	"context"

	"github.com/ternarybob/scribo/internal/models"
)

// CatalogStorage persists the page catalogue (health scores, titles)
type CatalogStorage interface {
	SavePage(ctx context.Context, page *models.PageEntry) error
	GetPage(ctx context.Context, url string) (*models.PageEntry, error)
	ListPages(ctx context.Context) ([]*models.PageEntry, error)
	DeletePage(ctx context.Context, url string) error
}

// HistoryStorage persists per-page optimization history records
type HistoryStorage interface {
	SaveRecord(ctx context.Context, record *models.OptimizationRecord) error
	ListRecords(ctx context.Context, pageURL string, limit int) ([]*models.OptimizationRecord, error)
}

// StorageManager aggregates the storage backends
type StorageManager interface {
	Catalog() CatalogStorage
	History() HistoryStorage
	Close() error
}
