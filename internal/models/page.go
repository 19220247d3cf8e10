package models

import (
	"time"
)

// PageEntry is one catalogue item: a page known to the optimizer.
// The catalogue is the candidate pool for automatic target selection
// (lowest health score first) and the source of internal link targets.
type PageEntry struct {
	URL           string     `json:"url" badgerhold:"key"`
	Title         string     `json:"title"`
	HealthScore   float64    `json:"health_score"` // 0..100, recomputed after each run
	WordCount     int        `json:"word_count"`
	LastScore     int        `json:"last_score"`
	LastOptimized *time.Time `json:"last_optimized,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// OptimizationRecord is one history entry written after a terminal run
type OptimizationRecord struct {
	ID        string        `json:"id" badgerhold:"key"`
	PageURL   string        `json:"page_url" badgerholdIndex:"PageURL"`
	Success   bool          `json:"success"`
	Score     int           `json:"score"`
	WordCount int           `json:"word_count"`
	Duration  time.Duration `json:"duration"`
	Error     string        `json:"error,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}
