package interfaces

import (
	"context"
)

// SynthesisStage identifies one internal sub-stage of the synthesis engine.
// The engine reports stages through the progress callback; the orchestrator
// maps them onto job phases.
type SynthesisStage string

const (
	StageReferences SynthesisStage = "references"
	StageOutline    SynthesisStage = "outline"
	StageSections   SynthesisStage = "sections"
	StageYouTube    SynthesisStage = "youtube"
	StageMerge      SynthesisStage = "merge"
	StagePolish     SynthesisStage = "polish"
)

// StageProgress carries the counters reported alongside a stage transition
type StageProgress struct {
	SectionsCompleted int
	TotalSections     int
	WordCount         int
}

// StageProgressFunc receives stage transitions from the synthesis engine.
// It may be invoked zero or more times per Synthesize call.
type StageProgressFunc func(stage SynthesisStage, progress StageProgress)

// LinkTarget is one internal link candidate handed to the synthesis engine
type LinkTarget struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// VideoReference is one discovered video for the youtube integration stage
type VideoReference struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// SynthesisRequest is the input to one content synthesis run
type SynthesisRequest struct {
	TargetURL        string
	Keyword          string   // Authoritative title / focus keyword
	ExistingMarkdown string   // Prior post content converted to markdown, empty on create-path
	EntityGaps       []string // Optional competitor entity gaps
	Terms            []string // Optional NLP term suggestions
	LinkTargets      []LinkTarget
	Videos           []VideoReference
}

// SynthesisResult is the output of one content synthesis run
type SynthesisResult struct {
	Content string // Markdown body
	Excerpt string
	Title   string
	Slug    string
}

// SynthesisService turns a topic into long-form prose. Implementations
// internally advance through the synthesis sub-stages and report them via
// the callback.
type SynthesisService interface {
	Synthesize(ctx context.Context, req *SynthesisRequest, onStage StageProgressFunc) (*SynthesisResult, error)
	Close() error
}

// SearchService provides optional SERP enrichment and video discovery.
// Both operations are best-effort; failures are soft warnings upstream.
type SearchService interface {
	AnalyzeEntityGaps(ctx context.Context, keyword string) ([]string, error)
	DiscoverVideos(ctx context.Context, keyword string) ([]VideoReference, error)
}

// TermAnalysis is the output of the optional NLP term analysis
type TermAnalysis struct {
	Terms      []string `json:"terms"`
	TargetSize int      `json:"target_size"` // Suggested word count, 0 when unknown
}

// NLPService provides optional keyword/term analysis
type NLPService interface {
	AnalyzeTerms(ctx context.Context, keyword string) (*TermAnalysis, error)
}

// ContentScore is the result of deterministic content quality scoring
type ContentScore struct {
	Score   int                `json:"score"` // 0..100
	Details map[string]float64 `json:"details"`
}

// AuxSignals are side inputs to the quality score beyond the content itself
type AuxSignals struct {
	InternalLinks int
	HasVideo      bool
	TermCoverage  float64 // 0..1 share of suggested terms present
}

// ScoringService computes the deterministic content quality score
type ScoringService interface {
	Score(content string, aux AuxSignals) *ContentScore
}
