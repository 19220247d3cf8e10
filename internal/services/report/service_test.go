package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribo/internal/models"
)

func TestBatchReport(t *testing.T) {
	service := NewService(arbor.NewLogger())

	summary := &models.BatchSummary{
		BatchID:    "batch_test",
		Total:      2,
		Completed:  1,
		Failed:     1,
		TotalWords: 4200,
		AvgScore:   73,
		TotalTime:  3 * time.Minute,
		Results: []models.BulkJobResult{
			{TargetURL: "https://example.com/a", Success: true, Score: 73, WordCount: 4200},
			{TargetURL: "https://example.com/b", Success: false, Reason: "Quality check failed"},
		},
	}

	data, err := service.BatchReport(summary)

	require.NoError(t, err)
	assert.Greater(t, len(data), 500)
	assert.Equal(t, "%PDF", string(data[:4]))
}
