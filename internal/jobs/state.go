package jobs

import (
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribo/internal/common"
	"github.com/ternarybob/scribo/internal/models"
)

// StateStore is the in-memory source of truth for job state, keyed by target
// URL. Values handed out are snapshots; all mutation goes through Update's
// copy-then-commit path. Concurrent bulk workers only ever address disjoint
// keys (guaranteed by URL deduplication before job construction), but the
// store itself is safe for concurrent keyed reads and writes.
type StateStore struct {
	mu     sync.RWMutex
	jobs   map[string]*models.Job
	logger arbor.ILogger
}

// NewStateStore creates an empty job state store
func NewStateStore(logger arbor.ILogger) *StateStore {
	return &StateStore{
		jobs:   make(map[string]*models.Job),
		logger: logger,
	}
}

// Get returns a snapshot of the job for the target URL
func (s *StateStore) Get(targetURL string) (*models.Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[targetURL]
	if !ok {
		return nil, false
	}
	return job.Clone(), true
}

// List returns snapshots of all known jobs
func (s *StateStore) List() []*models.Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*models.Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		result = append(result, job.Clone())
	}
	return result
}

// GetOrCreate returns a snapshot of the job for the target URL, creating an
// idle entry if the target has not been seen before.
func (s *StateStore) GetOrCreate(targetURL string) *models.Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	if job, ok := s.jobs[targetURL]; ok {
		return job.Clone()
	}

	job := &models.Job{
		ID:        common.NewJobID(),
		TargetURL: targetURL,
		Phase:     models.PhaseIdle,
		Status:    models.JobStatusPending,
	}
	s.jobs[targetURL] = job
	return job.Clone()
}

// Update applies mutate to a copy of the stored job and commits the copy.
// The job must exist. Phase changes are validated: transitions only move
// forward through the phase order, except the jump to failed, which is
// reachable from any non-terminal phase.
func (s *StateStore) Update(targetURL string, mutate func(*models.Job)) (*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.jobs[targetURL]
	if !ok {
		return nil, fmt.Errorf("no job for target: %s", targetURL)
	}

	next := current.Clone()
	mutate(next)

	if next.Phase != current.Phase {
		if err := validateTransition(current.Phase, next.Phase); err != nil {
			return nil, err
		}
	}

	s.jobs[targetURL] = next
	return next.Clone(), nil
}

// SetPhase advances the job to the given phase
func (s *StateStore) SetPhase(targetURL string, phase models.JobPhase) (*models.Job, error) {
	return s.Update(targetURL, func(j *models.Job) {
		j.Phase = phase
	})
}

// MarkRunning resets the job for a new run attempt
func (s *StateStore) MarkRunning(targetURL string, start time.Time) (*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.jobs[targetURL]
	if !ok {
		return nil, fmt.Errorf("no job for target: %s", targetURL)
	}

	next := current.Clone()
	next.Phase = models.PhaseInitializing
	next.Status = models.JobStatusRunning
	next.Attempts++
	next.StartTime = start
	next.ProcessingTime = 0
	next.Error = ""
	next.Score = 0
	next.WordCount = 0

	s.jobs[targetURL] = next
	return next.Clone(), nil
}

// ForceFail writes the terminal failure state directly. Used by the fail
// path, where the job may be anywhere in the phase order, including already
// terminal after a previous run.
func (s *StateStore) ForceFail(targetURL, errMsg string, elapsed time.Duration) (*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.jobs[targetURL]
	if !ok {
		return nil, fmt.Errorf("no job for target: %s", targetURL)
	}

	next := current.Clone()
	next.Phase = models.PhaseFailed
	next.Status = models.JobStatusFailed
	next.Error = errMsg
	next.ProcessingTime = elapsed
	next.Score = 0
	next.WordCount = 0

	s.jobs[targetURL] = next
	return next.Clone(), nil
}

// Running returns the target URLs of all jobs currently in the running status
func (s *StateStore) Running() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var running []string
	for url, job := range s.jobs {
		if job.Status == models.JobStatusRunning {
			running = append(running, url)
		}
	}
	return running
}

// validateTransition enforces the forward-only phase order.
// failed is reachable from any non-terminal phase; completed only from the
// publishing phase. A new run restarts a terminal job via MarkRunning.
func validateTransition(from, to models.JobPhase) error {
	if to == models.PhaseFailed {
		if from.IsTerminal() {
			return fmt.Errorf("invalid phase transition: %s -> %s", from, to)
		}
		return nil
	}
	if to == models.PhaseCompleted && from != models.PhasePublishing {
		return fmt.Errorf("invalid phase transition: %s -> %s", from, to)
	}
	if from.IsTerminal() {
		return fmt.Errorf("invalid phase transition: %s -> %s", from, to)
	}
	if to.Step() <= from.Step() && from != models.PhaseIdle {
		return fmt.Errorf("invalid phase transition: %s -> %s", from, to)
	}
	return nil
}
