package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribo/internal/models"
)

// Service renders batch summaries as downloadable PDF reports
type Service struct {
	logger arbor.ILogger
}

// NewService creates a new report service
func NewService(logger arbor.ILogger) *Service {
	return &Service{logger: logger}
}

// BatchReport renders a one-page summary of a bulk batch with a per-target
// result table.
func (s *Service) BatchReport(summary *models.BatchSummary) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(true, 10)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 8, "Bulk Optimization Report", "", 1, "L", false, 0, "")

	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(0, 5, fmt.Sprintf("Batch %s, generated %s", summary.BatchID, time.Now().Format("2006-01-02 15:04")), "", 1, "L", false, 0, "")
	pdf.Ln(3)

	status := "completed"
	if summary.Aborted {
		status = "aborted"
	}
	lines := []string{
		fmt.Sprintf("Targets: %d", summary.Total),
		fmt.Sprintf("Completed: %d", summary.Completed),
		fmt.Sprintf("Failed: %d", summary.Failed),
		fmt.Sprintf("Total words: %d", summary.TotalWords),
		fmt.Sprintf("Average score: %.1f", summary.AvgScore),
		fmt.Sprintf("Duration: %s", summary.TotalTime.Round(time.Second)),
		fmt.Sprintf("Status: %s", status),
	}
	for _, line := range lines {
		pdf.CellFormat(0, 5, line, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	// Result table
	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(100, 6, "Target", "1", 0, "L", false, 0, "")
	pdf.CellFormat(18, 6, "Score", "1", 0, "C", false, 0, "")
	pdf.CellFormat(18, 6, "Words", "1", 0, "C", false, 0, "")
	pdf.CellFormat(54, 6, "Outcome", "1", 1, "L", false, 0, "")

	pdf.SetFont("Arial", "", 8)
	for _, result := range summary.Results {
		outcome := "ok"
		if !result.Success {
			outcome = result.Reason
		}
		pdf.CellFormat(100, 5, clip(result.TargetURL, 70), "1", 0, "L", false, 0, "")
		pdf.CellFormat(18, 5, fmt.Sprintf("%d", result.Score), "1", 0, "C", false, 0, "")
		pdf.CellFormat(18, 5, fmt.Sprintf("%d", result.WordCount), "1", 0, "C", false, 0, "")
		pdf.CellFormat(54, 5, clip(outcome, 40), "1", 1, "L", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate report: %w", err)
	}

	s.logger.Debug().
		Str("batch_id", summary.BatchID).
		Int("pdf_size", buf.Len()).
		Msg("Batch report generated")
	return buf.Bytes(), nil
}

func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
