package badger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribo/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

func newTestDB(t *testing.T) *BadgerDB {
	t.Helper()
	tmpDir := t.TempDir()

	options := badgerhold.DefaultOptions
	options.Dir = tmpDir
	options.ValueDir = tmpDir
	options.Logger = nil

	store, err := badgerhold.Open(options)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return &BadgerDB{store: store, logger: arbor.NewLogger()}
}

func TestCatalogStorageRoundTrip(t *testing.T) {
	storage := NewCatalogStorage(newTestDB(t), arbor.NewLogger())
	ctx := context.Background()

	page := &models.PageEntry{
		URL:         "https://example.com/winter-tyres",
		Title:       "Winter Tyre Guide",
		HealthScore: 42.5,
		WordCount:   1200,
		CreatedAt:   time.Now(),
	}
	require.NoError(t, storage.SavePage(ctx, page))

	loaded, err := storage.GetPage(ctx, page.URL)
	require.NoError(t, err)
	assert.Equal(t, page.Title, loaded.Title)
	assert.Equal(t, page.HealthScore, loaded.HealthScore)

	// Upsert replaces the entry
	page.HealthScore = 80
	require.NoError(t, storage.SavePage(ctx, page))
	loaded, err = storage.GetPage(ctx, page.URL)
	require.NoError(t, err)
	assert.Equal(t, 80.0, loaded.HealthScore)
}

func TestCatalogStorageGetMissing(t *testing.T) {
	storage := NewCatalogStorage(newTestDB(t), arbor.NewLogger())

	_, err := storage.GetPage(context.Background(), "https://example.com/nope")
	assert.Error(t, err)
}

func TestCatalogStorageListAndDelete(t *testing.T) {
	storage := NewCatalogStorage(newTestDB(t), arbor.NewLogger())
	ctx := context.Background()

	for _, url := range []string{"https://example.com/a", "https://example.com/b"} {
		require.NoError(t, storage.SavePage(ctx, &models.PageEntry{URL: url, Title: "Page"}))
	}

	pages, err := storage.ListPages(ctx)
	require.NoError(t, err)
	assert.Len(t, pages, 2)

	require.NoError(t, storage.DeletePage(ctx, "https://example.com/a"))
	pages, err = storage.ListPages(ctx)
	require.NoError(t, err)
	assert.Len(t, pages, 1)

	// Deleting a missing page is not an error
	assert.NoError(t, storage.DeletePage(ctx, "https://example.com/gone"))
}

func TestHistoryStorageListFiltersAndLimits(t *testing.T) {
	storage := NewHistoryStorage(newTestDB(t), arbor.NewLogger())
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		require.NoError(t, storage.SaveRecord(ctx, &models.OptimizationRecord{
			ID:        string(rune('a' + i)),
			PageURL:   "https://example.com/a",
			Success:   true,
			Score:     70 + i,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, storage.SaveRecord(ctx, &models.OptimizationRecord{
		ID:        "other",
		PageURL:   "https://example.com/b",
		CreatedAt: base,
	}))

	records, err := storage.ListRecords(ctx, "https://example.com/a", 0)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, 72, records[0].Score, "newest record first")

	limited, err := storage.ListRecords(ctx, "https://example.com/a", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	all, err := storage.ListRecords(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}
