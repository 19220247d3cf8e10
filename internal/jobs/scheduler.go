package jobs

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribo/internal/common"
	"github.com/ternarybob/scribo/internal/interfaces"
	"github.com/ternarybob/scribo/internal/models"
)

// BulkScheduler runs a batch of optimization jobs in concurrency-bounded
// waves. Each wave runs up to the configured number of jobs in parallel,
// waits for all of them, then pauses for the cooldown before the next wave.
// An abort request stops scheduling before the next wave or job but never
// interrupts jobs already in flight.
type BulkScheduler struct {
	orchestrator *Orchestrator
	events       interfaces.EventService
	logger       arbor.ILogger

	concurrency int
	cooldown    time.Duration
	jobTimeout  time.Duration
	threshold   int

	aborted atomic.Bool
}

// NewBulkScheduler creates a bulk scheduler driving the given orchestrator
func NewBulkScheduler(orchestrator *Orchestrator, events interfaces.EventService, cfg *common.Config, logger arbor.ILogger) *BulkScheduler {
	concurrency := cfg.Optimizer.BulkConcurrency
	if concurrency < 1 {
		concurrency = 1
	}

	return &BulkScheduler{
		orchestrator: orchestrator,
		events:       events,
		logger:       logger,
		concurrency:  concurrency,
		cooldown:     common.ParseDurationOr(cfg.Optimizer.WaveCooldown, 5*time.Second),
		jobTimeout:   common.ParseDurationOr(cfg.Optimizer.JobTimeout, 10*time.Minute),
		threshold:    cfg.Optimizer.QualityThreshold,
	}
}

// Abort stops the batch after the jobs currently in flight finish.
// Idempotent; has no effect once the batch has completed.
func (s *BulkScheduler) Abort() {
	if s.aborted.CompareAndSwap(false, true) {
		s.logger.Warn().Msg("Bulk batch abort requested")
	}
}

// Aborted reports whether an abort has been requested
func (s *BulkScheduler) Aborted() bool {
	return s.aborted.Load()
}

// Run executes a batch over the given raw target list. Invalid and duplicate
// URLs are dropped up front; every surviving target produces exactly one
// entry in the summary regardless of outcome.
func (s *BulkScheduler) Run(ctx context.Context, rawTargets []string, concurrencyOverride int) *models.BatchSummary {
	start := time.Now()
	batchID := common.NewBatchID()
	s.aborted.Store(false)

	targets := common.NormalizeTargets(rawTargets)
	concurrency := s.concurrency
	if concurrencyOverride > 0 {
		concurrency = concurrencyOverride
	}

	summary := &models.BatchSummary{
		BatchID: batchID,
		Total:   len(targets),
		Results: make([]models.BulkJobResult, 0, len(targets)),
	}

	s.logger.Info().
		Str("batch_id", batchID).
		Int("targets", len(targets)).
		Int("dropped", len(rawTargets)-len(targets)).
		Int("concurrency", concurrency).
		Msg("Starting bulk batch")

	if len(targets) == 0 {
		summary.TotalTime = time.Since(start)
		s.publishBatchEvent(interfaces.EventBatchCompleted, batchID, summary)
		return summary
	}

	for waveStart := 0; waveStart < len(targets); waveStart += concurrency {
		if s.aborted.Load() || ctx.Err() != nil {
			summary.Aborted = true
			break
		}

		waveEnd := waveStart + concurrency
		if waveEnd > len(targets) {
			waveEnd = len(targets)
		}
		wave := targets[waveStart:waveEnd]

		s.logger.Info().
			Str("batch_id", batchID).
			Int("wave", waveStart/concurrency+1).
			Int("jobs", len(wave)).
			Msg("Starting wave")

		results := s.runWave(ctx, wave)
		for _, r := range results {
			summary.Results = append(summary.Results, r)
			if r.Success {
				summary.Completed++
				summary.TotalWords += r.WordCount
			} else {
				summary.Failed++
			}
		}

		s.publishBatchEvent(interfaces.EventBatchProgress, batchID, summary)

		lastWave := waveEnd >= len(targets)
		if !lastWave && !s.aborted.Load() && ctx.Err() == nil {
			select {
			case <-time.After(s.cooldown):
			case <-ctx.Done():
			}
		}
	}

	// Targets never scheduled because of an abort still get a result entry
	if summary.Aborted {
		for _, target := range targets[len(summary.Results):] {
			summary.Results = append(summary.Results, models.BulkJobResult{
				TargetURL: target,
				Success:   false,
				Reason:    "Batch aborted",
			})
			summary.Failed++
		}
	}

	if summary.Completed > 0 {
		totalScore := 0
		for _, r := range summary.Results {
			if r.Success {
				totalScore += r.Score
			}
		}
		summary.AvgScore = float64(totalScore) / float64(summary.Completed)
	}
	summary.TotalTime = time.Since(start)

	s.logger.Info().
		Str("batch_id", batchID).
		Int("completed", summary.Completed).
		Int("failed", summary.Failed).
		Int("total_words", summary.TotalWords).
		Bool("aborted", summary.Aborted).
		Dur("duration", summary.TotalTime).
		Msg("Bulk batch finished")

	s.publishBatchEvent(interfaces.EventBatchCompleted, batchID, summary)
	return summary
}

// runWave runs one wave of jobs in parallel and waits for all of them.
// A job failing, timing out or panicking never disturbs its wave peers.
func (s *BulkScheduler) runWave(ctx context.Context, wave []string) []models.BulkJobResult {
	results := make([]models.BulkJobResult, len(wave))
	var wg sync.WaitGroup

	for i, target := range wave {
		if s.aborted.Load() {
			results[i] = models.BulkJobResult{TargetURL: target, Success: false, Reason: "Batch aborted"}
			continue
		}

		wg.Add(1)
		go func(idx int, targetURL string) {
			defer wg.Done()
			results[idx] = s.runOne(ctx, targetURL)
		}(i, target)
	}

	wg.Wait()
	return results
}

// runOne runs a single bulk job under its wall-clock budget and classifies
// the outcome against the quality threshold.
func (s *BulkScheduler) runOne(ctx context.Context, target string) models.BulkJobResult {
	jobCtx, cancel := context.WithTimeout(ctx, s.jobTimeout)
	defer cancel()

	result := s.orchestrator.Run(jobCtx, RunOptions{
		TargetURL: target,
		Silent:    true,
	})

	if !result.Success {
		return models.BulkJobResult{
			TargetURL: target,
			Success:   false,
			Reason:    result.Error,
		}
	}
	if result.Score < s.threshold {
		return models.BulkJobResult{
			TargetURL: target,
			Success:   false,
			Score:     result.Score,
			WordCount: result.WordCount,
			Reason:    "Quality check failed",
		}
	}

	return models.BulkJobResult{
		TargetURL: target,
		Success:   true,
		Score:     result.Score,
		WordCount: result.WordCount,
	}
}

func (s *BulkScheduler) publishBatchEvent(eventType interfaces.EventType, batchID string, summary *models.BatchSummary) {
	if s.events == nil {
		return
	}

	payload := map[string]interface{}{
		"batch_id":  batchID,
		"total":     summary.Total,
		"completed": summary.Completed,
		"failed":    summary.Failed,
		"aborted":   summary.Aborted,
		"timestamp": time.Now().Format(time.RFC3339),
	}

	event := interfaces.Event{Type: eventType, Payload: payload}
	go func() {
		if err := s.events.Publish(context.Background(), event); err != nil {
			s.logger.Warn().Err(err).Str("batch_id", batchID).Msg("Failed to publish batch event")
		}
	}()
}
