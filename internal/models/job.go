package models

import (
	"time"
)

// JobPhase is one named stage of the optimization state machine.
// Each phase carries an ordinal step used for progress percentage.
type JobPhase string

const (
	PhaseIdle               JobPhase = "idle"
	PhaseInitializing       JobPhase = "initializing"
	PhaseResolvingPost      JobPhase = "resolving_post"
	PhaseAnalyzingExisting  JobPhase = "analyzing_existing"
	PhaseEntityGapAnalysis  JobPhase = "entity_gap_analysis"
	PhaseNeuronAnalysis     JobPhase = "neuron_analysis"
	PhaseReferenceDiscovery JobPhase = "reference_discovery"
	PhaseOutlineGeneration  JobPhase = "outline_generation"
	PhaseSectionDrafts      JobPhase = "section_drafts"
	PhaseYouTubeIntegration JobPhase = "youtube_integration"
	PhaseMergeContent       JobPhase = "merge_content"
	PhaseInternalLinking    JobPhase = "internal_linking"
	PhaseQAValidation       JobPhase = "qa_validation"
	PhaseFinalPolish        JobPhase = "final_polish"
	PhasePublishing         JobPhase = "publishing"
	PhaseCompleted          JobPhase = "completed"

	// PhaseFailed is a parallel terminal phase reachable from any non-terminal phase
	PhaseFailed JobPhase = "failed"
)

// TotalSteps is the ordinal of the final phase; percent = floor(100*step/TotalSteps)
const TotalSteps = 15

// phaseSteps maps each phase to its ordinal step 0..15
var phaseSteps = map[JobPhase]int{
	PhaseIdle:               0,
	PhaseInitializing:       1,
	PhaseResolvingPost:      2,
	PhaseAnalyzingExisting:  3,
	PhaseEntityGapAnalysis:  4,
	PhaseNeuronAnalysis:     5,
	PhaseReferenceDiscovery: 6,
	PhaseOutlineGeneration:  7,
	PhaseSectionDrafts:      8,
	PhaseYouTubeIntegration: 9,
	PhaseMergeContent:       10,
	PhaseInternalLinking:    11,
	PhaseQAValidation:       12,
	PhaseFinalPolish:        13,
	PhasePublishing:         14,
	PhaseCompleted:          15,
	PhaseFailed:             0,
}

// Step returns the ordinal step for the phase (0 for unknown phases and for failed)
func (p JobPhase) Step() int {
	return phaseSteps[p]
}

// IsTerminal returns true for the two terminal phases
func (p JobPhase) IsTerminal() bool {
	return p == PhaseCompleted || p == PhaseFailed
}

// JobStatus is the coarse runtime status of a job
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Job is one optimization attempt for a target URL.
// Instances handed out by the state store are snapshots; mutation goes
// through the store's copy-then-commit write path.
type Job struct {
	ID             string        `json:"id"`
	TargetURL      string        `json:"target_url"` // Stable key
	Phase          JobPhase      `json:"phase"`
	Status         JobStatus     `json:"status"`
	Attempts       int           `json:"attempts"`
	StartTime      time.Time     `json:"start_time"`
	ProcessingTime time.Duration `json:"processing_time"`
	Error          string        `json:"error,omitempty"`
	Score          int           `json:"score"`
	WordCount      int           `json:"word_count"`
}

// Clone returns a deep copy of the job
func (j *Job) Clone() *Job {
	clone := *j
	return &clone
}

// JobResult is the terminal outcome of a single orchestrator run
type JobResult struct {
	Success   bool   `json:"success"`
	Score     int    `json:"score"`
	WordCount int    `json:"word_count"`
	Error     string `json:"error,omitempty"`
}

// FailedResult builds the canonical failure result for an error message
func FailedResult(errMsg string) JobResult {
	return JobResult{Success: false, Score: 0, WordCount: 0, Error: errMsg}
}
