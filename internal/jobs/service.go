package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribo/internal/common"
	"github.com/ternarybob/scribo/internal/interfaces"
	"github.com/ternarybob/scribo/internal/models"
)

// Service is the entry point for running optimization work. It owns the
// shared state store and hands each run an orchestrator, a progress reporter
// and a cancellation token.
type Service struct {
	cfg          *common.Config
	state        *StateStore
	orchestrator *Orchestrator
	scheduler    *BulkScheduler
	events       interfaces.EventService
	logger       arbor.ILogger

	mu       sync.Mutex
	reporter *ProgressReporter
	token    *CancellationToken
	active   string
}

// NewService wires the job service from its collaborators
func NewService(deps OrchestratorDeps, events interfaces.EventService) *Service {
	orchestrator := NewOrchestrator(deps)
	return &Service{
		cfg:          deps.Config,
		state:        deps.State,
		orchestrator: orchestrator,
		scheduler:    NewBulkScheduler(orchestrator, events, deps.Config, deps.Logger),
		events:       events,
		logger:       deps.Logger,
	}
}

// RunSingleJob runs one optimization job to completion. targetURL may be
// empty to let the orchestrator pick the lowest health score page. Only one
// interactive job runs at a time per service instance.
func (s *Service) RunSingleJob(ctx context.Context, targetURL, keyword string, silent bool) models.JobResult {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	token := NewCancellationToken(cancel)
	reporter := NewProgressReporter(s.events, s.logger)

	s.mu.Lock()
	s.reporter = reporter
	s.token = token
	s.active = targetURL
	s.mu.Unlock()

	result := s.orchestrator.Run(runCtx, RunOptions{
		TargetURL: targetURL,
		Keyword:   keyword,
		Silent:    silent,
		Reporter:  reporter,
		Token:     token,
	})

	// A cancellation that lands after the pipeline succeeded still wins:
	// the late success is discarded so the observed state matches the
	// user's request.
	if token.IsCancelled() && result.Success {
		s.logger.Warn().
			Str("target_url", targetURL).
			Msg("Job finished after cancellation request, reporting as cancelled")
		err := &models.CancellationError{Reason: token.Reason()}
		result = models.FailedResult(err.Error())
	}

	s.mu.Lock()
	s.reporter = nil
	s.token = nil
	s.active = ""
	s.mu.Unlock()

	return result
}

// RunBulkBatch runs a batch over the given raw URL list. concurrency <= 0
// uses the configured default.
func (s *Service) RunBulkBatch(ctx context.Context, urls []string, concurrency int) *models.BatchSummary {
	return s.scheduler.Run(ctx, urls, concurrency)
}

// RequestCancellation cancels the active interactive job. The job is marked
// failed immediately so status reads are consistent with the request even
// while in-flight work unwinds.
func (s *Service) RequestCancellation(reason string) bool {
	s.mu.Lock()
	token := s.token
	reporter := s.reporter
	active := s.active
	s.mu.Unlock()

	if token == nil || token.IsCancelled() {
		return false
	}

	token.Cancel(reason)

	target := active
	if target == "" && reporter != nil {
		target = reporter.TargetURL()
	}
	if target != "" {
		err := &models.CancellationError{Reason: reason}
		if _, failErr := s.state.ForceFail(target, err.Error(), 0); failErr != nil {
			s.logger.Warn().Err(failErr).Str("target_url", target).Msg("Failed to mark cancelled job")
		}
	}
	if reporter != nil {
		reporter.SetPhase(models.PhaseFailed)
	}

	s.logger.Warn().
		Str("target_url", target).
		Str("reason", reason).
		Msg("Cancellation requested")
	return true
}

// AbortBatch stops the running bulk batch before its next wave or job
func (s *Service) AbortBatch() {
	s.scheduler.Abort()
}

// Progress returns the live progress snapshot of the active interactive job
func (s *Service) Progress() (models.ProgressSnapshot, bool) {
	s.mu.Lock()
	reporter := s.reporter
	s.mu.Unlock()

	if reporter == nil {
		return models.ProgressSnapshot{}, false
	}
	return reporter.Snapshot(), true
}

// JobStatus returns the stored job record for a target
func (s *Service) JobStatus(targetURL string) (*models.Job, bool) {
	return s.state.Get(targetURL)
}

// Jobs lists all known job records
func (s *Service) Jobs() []*models.Job {
	return s.state.List()
}

// ETA formats the remaining-time estimate for the active job
func (s *Service) ETA() string {
	snapshot, ok := s.Progress()
	if !ok {
		return "--:--"
	}
	return snapshot.ETA(time.Now())
}
