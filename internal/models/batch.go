package models

import (
	"time"
)

// BulkJobResult records the batch-level classification of one job
type BulkJobResult struct {
	TargetURL string `json:"target_url"`
	Success   bool   `json:"success"`
	Score     int    `json:"score"`
	WordCount int    `json:"word_count"`
	Reason    string `json:"reason,omitempty"` // Failure reason for batch accounting
}

// BatchSummary holds the running aggregates of a bulk batch.
// TotalWords and AvgScore cover batch successes only.
type BatchSummary struct {
	BatchID    string          `json:"batch_id"`
	Total      int             `json:"total"`
	Completed  int             `json:"completed"`
	Failed     int             `json:"failed"`
	TotalWords int             `json:"total_words"`
	AvgScore   float64         `json:"avg_score"`
	TotalTime  time.Duration   `json:"total_time"`
	Aborted    bool            `json:"aborted"`
	Results    []BulkJobResult `json:"results"`
}
