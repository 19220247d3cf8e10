package models

import (
	"fmt"
	"time"
)

// ProgressSnapshot is the externally visible progress of a single job run.
// Snapshots are immutable values; new snapshots are produced by merging a
// ProgressPatch onto the previous one, so fields unknown at a given phase
// retain their last known value.
type ProgressSnapshot struct {
	Phase             JobPhase  `json:"phase"`
	Step              int       `json:"step"` // 0..TotalSteps, monotonically non-decreasing per run
	SectionsCompleted int       `json:"sections_completed"`
	TotalSections     int       `json:"total_sections"`
	WordCount         int       `json:"word_count"`
	StartTime         time.Time `json:"start_time"`
}

// ProgressPatch is a partial progress update; nil fields leave the
// corresponding snapshot fields untouched.
type ProgressPatch struct {
	Phase             *JobPhase
	SectionsCompleted *int
	TotalSections     *int
	WordCount         *int
	StartTime         *time.Time
}

// Apply merges the patch onto the snapshot and returns the resulting value.
// The derived step never decreases: a patch whose phase maps to a lower step
// updates the phase label only for forward transitions and is otherwise ignored.
func (s ProgressSnapshot) Apply(patch ProgressPatch) ProgressSnapshot {
	next := s
	if patch.Phase != nil {
		step := patch.Phase.Step()
		if step >= next.Step || *patch.Phase == PhaseFailed {
			next.Phase = *patch.Phase
			if step > next.Step {
				next.Step = step
			}
		}
	}
	if patch.SectionsCompleted != nil {
		next.SectionsCompleted = *patch.SectionsCompleted
	}
	if patch.TotalSections != nil {
		next.TotalSections = *patch.TotalSections
	}
	if patch.WordCount != nil {
		next.WordCount = *patch.WordCount
	}
	if patch.StartTime != nil {
		next.StartTime = *patch.StartTime
	}
	return next
}

// Percent returns the progress percentage derived from the step ordinal
func (s ProgressSnapshot) Percent() int {
	return 100 * s.Step / TotalSteps
}

// ETA estimates remaining time from elapsed time and completed steps.
// Returns "--:--" when no step has completed yet.
func (s ProgressSnapshot) ETA(now time.Time) string {
	if s.Step == 0 || s.StartTime.IsZero() {
		return "--:--"
	}
	elapsed := now.Sub(s.StartTime)
	remaining := time.Duration(float64(elapsed) / float64(s.Step) * float64(TotalSteps-s.Step))
	if remaining < 0 {
		remaining = 0
	}
	mins := int(remaining.Minutes())
	secs := int(remaining.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d", mins, secs)
}
