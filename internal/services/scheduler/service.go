package scheduler

import (
	"context"
	"sort"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribo/internal/common"
	"github.com/ternarybob/scribo/internal/interfaces"
	"github.com/ternarybob/scribo/internal/jobs"
)

// Service runs scheduled bulk optimization over the weakest catalogue pages.
// On each tick the lowest health score pages are collected into a batch and
// handed to the job service.
type Service struct {
	cfg     *common.Config
	jobs    *jobs.Service
	catalog interfaces.CatalogStorage
	cron    *cron.Cron
	logger  arbor.ILogger
}

// NewService creates the scheduler service
func NewService(cfg *common.Config, jobService *jobs.Service, catalog interfaces.CatalogStorage, logger arbor.ILogger) *Service {
	return &Service{
		cfg:     cfg,
		jobs:    jobService,
		catalog: catalog,
		cron:    cron.New(),
		logger:  logger,
	}
}

// Start registers the schedule and starts the cron loop.
// A disabled scheduler is a no-op.
func (s *Service) Start() error {
	if !s.cfg.Scheduler.Enabled {
		s.logger.Debug().Msg("Scheduler disabled")
		return nil
	}

	schedule := s.cfg.Scheduler.Schedule
	if schedule == "" {
		schedule = "0 3 * * *"
	}

	if _, err := s.cron.AddFunc(schedule, s.runScheduledBatch); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info().Str("schedule", schedule).Msg("Scheduler started")
	return nil
}

// Stop stops the cron loop; running batches finish on their own
func (s *Service) Stop() {
	s.cron.Stop()
	s.logger.Info().Msg("Scheduler stopped")
}

func (s *Service) runScheduledBatch() {
	ctx := context.Background()

	pages, err := s.catalog.ListPages(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Scheduled batch skipped, failed to list pages")
		return
	}
	if len(pages) == 0 {
		s.logger.Debug().Msg("Scheduled batch skipped, catalogue empty")
		return
	}

	sort.Slice(pages, func(i, j int) bool {
		return pages[i].HealthScore < pages[j].HealthScore
	})

	batchSize := s.cfg.Scheduler.BatchSize
	if batchSize <= 0 {
		batchSize = 5
	}
	if batchSize > len(pages) {
		batchSize = len(pages)
	}

	urls := make([]string, batchSize)
	for i := 0; i < batchSize; i++ {
		urls[i] = pages[i].URL
	}

	s.logger.Info().Int("targets", len(urls)).Msg("Starting scheduled batch")
	summary := s.jobs.RunBulkBatch(ctx, urls, 0)
	s.logger.Info().
		Str("batch_id", summary.BatchID).
		Int("completed", summary.Completed).
		Int("failed", summary.Failed).
		Msg("Scheduled batch finished")
}
