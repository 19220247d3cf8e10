package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribo/internal/interfaces"
	"github.com/ternarybob/scribo/internal/models"
)

// ProgressReporter maintains the single mutable progress snapshot of one
// active job run and publishes snapshot events on every transition. Updates
// are partial patches merged onto the previous snapshot, so fields unknown
// at a given phase keep their last known value.
type ProgressReporter struct {
	mu        sync.Mutex
	targetURL string
	snapshot  models.ProgressSnapshot
	events    interfaces.EventService
	logger    arbor.ILogger
}

// NewProgressReporter creates a reporter publishing to the event service.
// events may be nil (silent bulk runs publish nothing).
func NewProgressReporter(events interfaces.EventService, logger arbor.ILogger) *ProgressReporter {
	return &ProgressReporter{
		events: events,
		logger: logger,
	}
}

// Begin resets the reporter for a new run
func (r *ProgressReporter) Begin(targetURL string, start time.Time) {
	r.mu.Lock()
	r.targetURL = targetURL
	r.snapshot = models.ProgressSnapshot{
		Phase:     models.PhaseIdle,
		StartTime: start,
	}
	snapshot := r.snapshot
	r.mu.Unlock()

	r.publish(snapshot)
}

// Update merges a partial patch onto the snapshot and publishes the result
func (r *ProgressReporter) Update(patch models.ProgressPatch) models.ProgressSnapshot {
	r.mu.Lock()
	r.snapshot = r.snapshot.Apply(patch)
	snapshot := r.snapshot
	r.mu.Unlock()

	r.publish(snapshot)
	return snapshot
}

// SetPhase is shorthand for a phase-only patch
func (r *ProgressReporter) SetPhase(phase models.JobPhase) models.ProgressSnapshot {
	return r.Update(models.ProgressPatch{Phase: &phase})
}

// Snapshot returns the current snapshot value
func (r *ProgressReporter) Snapshot() models.ProgressSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot
}

// TargetURL returns the target of the current run
func (r *ProgressReporter) TargetURL() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.targetURL
}

func (r *ProgressReporter) publish(snapshot models.ProgressSnapshot) {
	if r.events == nil {
		return
	}

	payload := map[string]interface{}{
		"target_url": r.targetURL,
		"phase":      string(snapshot.Phase),
		"step":       snapshot.Step,
		"percent":    snapshot.Percent(),
		"eta":        snapshot.ETA(time.Now()),
		"word_count": snapshot.WordCount,
		"timestamp":  time.Now().Format(time.RFC3339),
	}
	if snapshot.TotalSections > 0 {
		payload["sections_completed"] = snapshot.SectionsCompleted
		payload["total_sections"] = snapshot.TotalSections
	}

	event := interfaces.Event{
		Type:    interfaces.EventJobProgress,
		Payload: payload,
	}

	// Publish asynchronously to avoid blocking job execution
	go func() {
		if err := r.events.Publish(context.Background(), event); err != nil {
			r.logger.Warn().Err(err).Str("target_url", r.targetURL).Msg("Failed to publish job progress event")
		}
	}()
}
