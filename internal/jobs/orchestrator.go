package jobs

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribo/internal/common"
	"github.com/ternarybob/scribo/internal/interfaces"
	"github.com/ternarybob/scribo/internal/models"
)

// stagePhases maps synthesis engine stages onto job phases
var stagePhases = map[interfaces.SynthesisStage]models.JobPhase{
	interfaces.StageReferences: models.PhaseReferenceDiscovery,
	interfaces.StageOutline:    models.PhaseOutlineGeneration,
	interfaces.StageSections:   models.PhaseSectionDrafts,
	interfaces.StageYouTube:    models.PhaseYouTubeIntegration,
	interfaces.StageMerge:      models.PhaseMergeContent,
	interfaces.StagePolish:     models.PhaseMergeContent,
}

// OrchestratorDeps bundles the collaborators of a PhaseOrchestrator.
// Search and NLP are optional; nil disables the corresponding phase.
type OrchestratorDeps struct {
	Config    *common.Config
	State     *StateStore
	Catalog   interfaces.CatalogStorage
	History   interfaces.HistoryStorage
	WordPress interfaces.WordPressClient
	Synthesis interfaces.SynthesisService
	Search    interfaces.SearchService
	NLP       interfaces.NLPService
	Scoring   interfaces.ScoringService
	Transform interfaces.TransformService
	Linker    interfaces.LinkBuilder
	Events    interfaces.EventService
	Logger    arbor.ILogger
}

// Orchestrator drives one content item through the ordered phase sequence,
// calling the external collaborators, updating the state store and emitting
// progress snapshots. A single run is strictly sequential; the only
// concurrency comes from the bulk scheduler running orchestrator instances
// on distinct targets.
type Orchestrator struct {
	deps OrchestratorDeps
}

// RunOptions configures one orchestrator run
type RunOptions struct {
	TargetURL string             // Explicit target override; empty selects lowest health score
	Keyword   string             // Explicit keyword override; empty uses the resolved post title
	Silent    bool               // Suppress console logging (bulk mode); logs stay correlation-tagged
	Reporter  *ProgressReporter  // Optional; nil runs without progress publication
	Token     *CancellationToken // Optional; interactive cancellation
}

// NewOrchestrator creates a phase orchestrator
func NewOrchestrator(deps OrchestratorDeps) *Orchestrator {
	return &Orchestrator{deps: deps}
}

// Run executes one optimization job to a terminal state. Exactly one of
// {completed, failed} is the job's phase when Run returns.
func (o *Orchestrator) Run(ctx context.Context, opts RunOptions) models.JobResult {
	start := time.Now()
	logger := o.runLogger(opts)

	// Guard clauses: fail before any phase starts
	if err := o.checkPreconditions(); err != nil {
		logger.Error().Err(err).Msg("Pre-flight configuration check failed")
		if opts.TargetURL != "" {
			o.deps.State.GetOrCreate(opts.TargetURL)
			o.deps.State.ForceFail(opts.TargetURL, err.Error(), time.Since(start))
		}
		return models.FailedResult(err.Error())
	}

	// Target resolution
	target, err := o.selectTarget(ctx, opts.TargetURL)
	if err != nil {
		logger.Error().Err(err).Msg("Target selection failed")
		return models.FailedResult(err.Error())
	}

	logger = logger.WithCorrelationId(target)
	job, err := o.deps.State.MarkRunning(target, start)
	if err != nil {
		return models.FailedResult(err.Error())
	}

	if opts.Reporter != nil {
		opts.Reporter.Begin(target, start)
	}

	logger.Info().
		Str("target_url", target).
		Int("attempt", job.Attempts).
		Msg("Starting optimization job")

	result := o.runPhases(ctx, target, start, opts, logger)

	if result.Success {
		logger.Info().
			Str("target_url", target).
			Int("score", result.Score).
			Int("word_count", result.WordCount).
			Dur("duration", time.Since(start)).
			Msg("Optimization job completed")
	} else {
		logger.Error().
			Str("target_url", target).
			Str("error", result.Error).
			Dur("duration", time.Since(start)).
			Msg("Optimization job failed")
	}

	return result
}

// runPhases executes the phase pipeline for an already selected target
func (o *Orchestrator) runPhases(ctx context.Context, target string, start time.Time, opts RunOptions, logger arbor.ILogger) models.JobResult {
	cfg := o.deps.Config

	// resolving_post: non-fatal when the post does not exist
	o.advance(target, models.PhaseResolvingPost, opts.Reporter)
	if err := o.interrupted(ctx, opts.Token); err != nil {
		return o.fail(target, start, err, opts.Reporter, logger)
	}

	postID := 0
	var preserved *models.PreservationRecord
	var existingMarkdown string
	keyword := opts.Keyword

	resolvedID, err := o.deps.WordPress.ResolvePost(ctx, target)
	switch {
	case errors.Is(err, interfaces.ErrPostNotFound):
		logger.Warn().Str("target_url", target).Msg("No existing post resolved, will create on publish")
	case err != nil:
		return o.fail(target, start, o.classify(ctx, opts.Token, fmt.Errorf("failed to resolve post: %w", err)), opts.Reporter, logger)
	default:
		postID = resolvedID
	}

	if postID != 0 {
		o.advance(target, models.PhaseAnalyzingExisting, opts.Reporter)

		assets, err := o.deps.WordPress.GetPostWithAssets(ctx, postID)
		if err != nil {
			return o.fail(target, start, o.classify(ctx, opts.Token, fmt.Errorf("failed to fetch post %d: %w", postID, err)), opts.Reporter, logger)
		}

		preserved = &models.PreservationRecord{
			OriginalSlug:    assets.Slug,
			CanonicalLink:   assets.CanonicalLink,
			Categories:      assets.Categories,
			Tags:            assets.Tags,
			FeaturedMediaID: assets.FeaturedMediaID,
		}
		if keyword == "" {
			keyword = assets.Title
		}

		existingMarkdown, err = o.deps.Transform.HTMLToMarkdown(assets.ContentHTML, cfg.WordPress.SiteURL)
		if err != nil {
			// Conversion failure degrades to an empty analysis input
			logger.Warn().Err(err).Msg("Failed to convert existing content to markdown")
			existingMarkdown = ""
		}
	}
	if keyword == "" {
		keyword = deriveKeywordFromURL(target)
	}

	// entity_gap_analysis: best-effort, only when a search key is configured
	var entityGaps []string
	if o.deps.Search != nil && cfg.Search.APIKey != "" {
		o.advance(target, models.PhaseEntityGapAnalysis, opts.Reporter)
		if err := o.interrupted(ctx, opts.Token); err != nil {
			return o.fail(target, start, err, opts.Reporter, logger)
		}

		entityGaps, err = o.deps.Search.AnalyzeEntityGaps(ctx, keyword)
		if err != nil {
			logger.Warn().Err(err).Msg("Entity gap analysis failed, continuing without it")
			entityGaps = nil
		}
	}

	// neuron_analysis: best-effort, only when an NLP key and project are configured
	var terms []string
	targetWords := 0
	if o.deps.NLP != nil && cfg.NLP.APIKey != "" && cfg.NLP.Project != "" {
		o.advance(target, models.PhaseNeuronAnalysis, opts.Reporter)
		if err := o.interrupted(ctx, opts.Token); err != nil {
			return o.fail(target, start, err, opts.Reporter, logger)
		}

		analysis, err := o.deps.NLP.AnalyzeTerms(ctx, keyword)
		if err != nil {
			logger.Warn().Err(err).Msg("Term analysis failed, continuing without it")
		} else {
			terms = analysis.Terms
			targetWords = analysis.TargetSize
		}
	}

	// Internal link candidates are deterministic and feed the synthesis request
	linkTargets := o.deps.Linker.BuildTargets(ctx, target)

	// Video discovery feeds the youtube integration stage; best-effort
	var videos []interfaces.VideoReference
	if o.deps.Search != nil && cfg.Search.APIKey != "" {
		videos, err = o.deps.Search.DiscoverVideos(ctx, keyword)
		if err != nil {
			logger.Warn().Err(err).Msg("Video discovery failed, continuing without videos")
			videos = nil
		}
	}

	// Content synthesis: the engine advances through its sub-stages and
	// reports them; stage callbacks are mapped onto phase updates.
	if err := o.interrupted(ctx, opts.Token); err != nil {
		return o.fail(target, start, err, opts.Reporter, logger)
	}

	synthesisReq := &interfaces.SynthesisRequest{
		TargetURL:        target,
		Keyword:          keyword,
		ExistingMarkdown: existingMarkdown,
		EntityGaps:       entityGaps,
		Terms:            terms,
		LinkTargets:      linkTargets,
		Videos:           videos,
	}

	synthesized, err := o.deps.Synthesis.Synthesize(ctx, synthesisReq, func(stage interfaces.SynthesisStage, progress interfaces.StageProgress) {
		o.onStageProgress(target, stage, progress, opts.Reporter, logger)
	})
	if err != nil {
		return o.fail(target, start, o.classify(ctx, opts.Token, fmt.Errorf("content synthesis failed: %w", err)), opts.Reporter, logger)
	}

	// Terminal quality gate for content sufficiency
	wordCount := countWords(synthesized.Content)
	if wordCount < cfg.Optimizer.MinWordCount {
		return o.fail(target, start, &models.GenerationError{WordCount: wordCount, Minimum: cfg.Optimizer.MinWordCount}, opts.Reporter, logger)
	}

	// internal_linking: deterministic, cannot fail
	o.advance(target, models.PhaseInternalLinking, opts.Reporter)
	content := appendRelatedLinks(synthesized.Content, linkTargets)

	// qa_validation: score is recorded but does not fail the job
	o.advance(target, models.PhaseQAValidation, opts.Reporter)
	termCoverage := coverage(content, terms)
	qa := o.deps.Scoring.Score(content, interfaces.AuxSignals{
		InternalLinks: len(linkTargets),
		HasVideo:      len(videos) > 0,
		TermCoverage:  termCoverage,
	})
	logger.Info().
		Int("qa_score", qa.Score).
		Int("word_count", wordCount).
		Msg("Quality validation completed")

	// final_polish: render markdown to the publishable HTML body
	o.advance(target, models.PhaseFinalPolish, opts.Reporter)
	if err := o.interrupted(ctx, opts.Token); err != nil {
		return o.fail(target, start, err, opts.Reporter, logger)
	}

	bodyHTML, err := o.deps.Transform.MarkdownToHTML(content)
	if err != nil {
		return o.fail(target, start, fmt.Errorf("failed to render content: %w", err), opts.Reporter, logger)
	}

	// publishing
	o.advance(target, models.PhasePublishing, opts.Reporter)
	if err := o.interrupted(ctx, opts.Token); err != nil {
		return o.fail(target, start, err, opts.Reporter, logger)
	}

	title := synthesized.Title
	if title == "" {
		title = keyword
	}
	payload := &interfaces.PostPayload{
		Title:       title,
		Slug:        synthesized.Slug,
		ContentHTML: bodyHTML,
		Excerpt:     synthesized.Excerpt,
		Status:      "publish",
	}
	if payload.Slug == "" {
		payload.Slug = common.Slugify(title)
	}

	var outcome *interfaces.PublishOutcome
	if postID != 0 {
		flags := models.PreservationFlags{
			Categories: cfg.Optimizer.PreserveCategories,
			Tags:       cfg.Optimizer.PreserveTags,
			Media:      cfg.Optimizer.PreserveMedia,
		}
		outcome, err = o.deps.WordPress.UpdatePost(ctx, postID, payload, preserved, flags)
		if err != nil {
			return o.fail(target, start, o.classify(ctx, opts.Token, &models.PublishError{Op: "update", Err: err}), opts.Reporter, logger)
		}
	} else {
		outcome, err = o.deps.WordPress.CreatePost(ctx, payload)
		if err != nil {
			return o.fail(target, start, o.classify(ctx, opts.Token, &models.PublishError{Op: "create", Err: err}), opts.Reporter, logger)
		}
	}

	// Metadata update is best-effort; its failure never affects the result
	meta := &interfaces.SEOMetadata{
		Title:        title,
		Description:  synthesized.Excerpt,
		FocusKeyword: keyword,
	}
	if err := o.deps.WordPress.UpdateSEOMetadata(ctx, outcome.ID, meta); err != nil {
		logger.Warn().Err(err).Int("post_id", outcome.ID).Msg("SEO metadata update failed")
	}

	// A cancellation landing after the publish boundary check must still
	// win over the result; re-check before committing completion.
	if err := o.interrupted(ctx, opts.Token); err != nil {
		return o.fail(target, start, err, opts.Reporter, logger)
	}

	// completed: final score is a weighted blend of independent metrics
	finalScore := blendScore(qa.Score, wordCount, targetWords, len(linkTargets), len(videos) > 0)
	elapsed := time.Since(start)

	o.deps.State.SetPhase(target, models.PhaseCompleted)
	o.deps.State.Update(target, func(j *models.Job) {
		j.Status = models.JobStatusCompleted
		j.Score = finalScore
		j.WordCount = wordCount
		j.ProcessingTime = elapsed
	})
	if opts.Reporter != nil {
		completedPhase := models.PhaseCompleted
		opts.Reporter.Update(models.ProgressPatch{Phase: &completedPhase, WordCount: &wordCount})
	}

	o.recordOutcome(ctx, target, title, finalScore, wordCount, elapsed, "", logger)
	o.publishTerminal(interfaces.EventJobCompleted, target, finalScore, wordCount, "")

	return models.JobResult{Success: true, Score: finalScore, WordCount: wordCount}
}

// onStageProgress maps a synthesis stage callback onto a phase update.
// The state store rejects backward transitions, so engine-internal ordering
// quirks never regress the observed phase.
func (o *Orchestrator) onStageProgress(target string, stage interfaces.SynthesisStage, progress interfaces.StageProgress, reporter *ProgressReporter, logger arbor.ILogger) {
	phase, ok := stagePhases[stage]
	if !ok {
		logger.Warn().Str("stage", string(stage)).Msg("Unknown synthesis stage reported")
		return
	}

	if _, err := o.deps.State.SetPhase(target, phase); err != nil {
		logger.Debug().Err(err).Str("stage", string(stage)).Msg("Stage phase update skipped")
	}

	if reporter != nil {
		patch := models.ProgressPatch{Phase: &phase}
		if progress.TotalSections > 0 {
			patch.SectionsCompleted = &progress.SectionsCompleted
			patch.TotalSections = &progress.TotalSections
		}
		if progress.WordCount > 0 {
			patch.WordCount = &progress.WordCount
		}
		reporter.Update(patch)
	}
}

// checkPreconditions validates credentials before any phase starts
func (o *Orchestrator) checkPreconditions() error {
	cfg := o.deps.Config

	hasAIKey := cfg.Claude.APIKey != "" || cfg.Gemini.APIKey != ""
	if !hasAIKey {
		return models.NewConfigurationError("No AI API key configured")
	}
	if cfg.WordPress.SiteURL == "" {
		return models.NewConfigurationError("WordPress URL not configured")
	}
	hasAuth := (cfg.WordPress.Username != "" && cfg.WordPress.AppPassword != "") || cfg.WordPress.OAuthToken != ""
	if !hasAuth {
		return models.NewConfigurationError("WordPress credentials not configured")
	}
	return nil
}

// selectTarget resolves the target URL for this run. An explicit override is
// registered in the catalogue if unseen; otherwise the lowest health score
// item not currently running is selected.
func (o *Orchestrator) selectTarget(ctx context.Context, override string) (string, error) {
	if override != "" {
		if _, err := o.deps.Catalog.GetPage(ctx, override); err != nil {
			page := &models.PageEntry{
				URL:       override,
				CreatedAt: time.Now(),
			}
			if err := o.deps.Catalog.SavePage(ctx, page); err != nil {
				return "", fmt.Errorf("failed to register page: %w", err)
			}
		}
		o.deps.State.GetOrCreate(override)
		return override, nil
	}

	pages, err := o.deps.Catalog.ListPages(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list pages: %w", err)
	}

	running := make(map[string]struct{})
	for _, url := range o.deps.State.Running() {
		running[url] = struct{}{}
	}

	var candidate *models.PageEntry
	for _, page := range pages {
		if _, busy := running[page.URL]; busy {
			continue
		}
		if candidate == nil || page.HealthScore < candidate.HealthScore {
			candidate = page
		}
	}
	if candidate == nil {
		return "", fmt.Errorf("No pages to optimize")
	}

	o.deps.State.GetOrCreate(candidate.URL)
	return candidate.URL, nil
}

// fail writes the terminal failure state and builds the failure result
func (o *Orchestrator) fail(target string, start time.Time, err error, reporter *ProgressReporter, logger arbor.ILogger) models.JobResult {
	elapsed := time.Since(start)

	if _, storeErr := o.deps.State.ForceFail(target, err.Error(), elapsed); storeErr != nil {
		logger.Warn().Err(storeErr).Str("target_url", target).Msg("Failed to record job failure")
	}
	if reporter != nil {
		reporter.SetPhase(models.PhaseFailed)
	}

	o.recordOutcome(context.Background(), target, "", 0, 0, elapsed, err.Error(), logger)
	o.publishTerminal(interfaces.EventJobFailed, target, 0, 0, err.Error())

	return models.FailedResult(err.Error())
}

// classify maps context termination onto the error taxonomy: an expired
// deadline becomes a TimeoutError, a cancellation request a CancellationError.
func (o *Orchestrator) classify(ctx context.Context, token *CancellationToken, err error) error {
	if token != nil && token.IsCancelled() {
		return &models.CancellationError{Reason: token.Reason()}
	}
	if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
		return &models.TimeoutError{Timeout: common.ParseDurationOr(o.deps.Config.Optimizer.JobTimeout, 10*time.Minute)}
	}
	return err
}

// interrupted checks for cancellation or deadline expiry at a phase boundary
func (o *Orchestrator) interrupted(ctx context.Context, token *CancellationToken) error {
	if token != nil && token.IsCancelled() {
		return &models.CancellationError{Reason: token.Reason()}
	}
	if err := ctx.Err(); err != nil {
		return o.classify(ctx, token, err)
	}
	return nil
}

// advance moves the job to the next phase and mirrors it to the reporter
func (o *Orchestrator) advance(target string, phase models.JobPhase, reporter *ProgressReporter) {
	if _, err := o.deps.State.SetPhase(target, phase); err != nil {
		o.deps.Logger.Debug().Err(err).Str("target_url", target).Msg("Phase update skipped")
	}
	if reporter != nil {
		reporter.SetPhase(phase)
	}
}

// recordOutcome updates the catalogue and writes a history record
func (o *Orchestrator) recordOutcome(ctx context.Context, target, title string, score, wordCount int, elapsed time.Duration, errMsg string, logger arbor.ILogger) {
	record := &models.OptimizationRecord{
		ID:        common.NewJobID(),
		PageURL:   target,
		Success:   errMsg == "",
		Score:     score,
		WordCount: wordCount,
		Duration:  elapsed,
		Error:     errMsg,
		CreatedAt: time.Now(),
	}
	if err := o.deps.History.SaveRecord(ctx, record); err != nil {
		logger.Warn().Err(err).Msg("Failed to save optimization record")
	}

	if errMsg != "" {
		return
	}

	page, err := o.deps.Catalog.GetPage(ctx, target)
	if err != nil {
		page = &models.PageEntry{URL: target, CreatedAt: time.Now()}
	}
	now := time.Now()
	if title != "" {
		page.Title = title
	}
	page.HealthScore = float64(score)
	page.LastScore = score
	page.WordCount = wordCount
	page.LastOptimized = &now
	if err := o.deps.Catalog.SavePage(ctx, page); err != nil {
		logger.Warn().Err(err).Msg("Failed to update page catalogue entry")
	}
}

func (o *Orchestrator) publishTerminal(eventType interfaces.EventType, target string, score, wordCount int, errMsg string) {
	if o.deps.Events == nil {
		return
	}

	payload := map[string]interface{}{
		"target_url": target,
		"score":      score,
		"word_count": wordCount,
		"timestamp":  time.Now().Format(time.RFC3339),
	}
	if errMsg != "" {
		payload["error"] = errMsg
	}

	event := interfaces.Event{Type: eventType, Payload: payload}
	go func() {
		if err := o.deps.Events.Publish(context.Background(), event); err != nil {
			o.deps.Logger.Warn().Err(err).Str("target_url", target).Msg("Failed to publish job terminal event")
		}
	}()
}

// runLogger returns the logger for this run. Silent runs log to a detached
// logger so bulk jobs do not flood the console, but entries stay tagged by
// target for later correlation.
func (o *Orchestrator) runLogger(opts RunOptions) arbor.ILogger {
	if opts.Silent {
		return arbor.NewLogger().WithCorrelationId(opts.TargetURL)
	}
	return o.deps.Logger
}

// blendScore computes the final quality score as a weighted blend of the QA
// score, content size against target, internal link coverage and media
// presence.
func blendScore(qaScore, wordCount, targetWords, linkCount int, hasVideo bool) int {
	if targetWords <= 0 {
		targetWords = 1500
	}

	sizeRatio := float64(wordCount) / float64(targetWords)
	if sizeRatio > 1 {
		sizeRatio = 1
	}
	linkRatio := float64(linkCount) / 10.0
	if linkRatio > 1 {
		linkRatio = 1
	}
	mediaScore := 50.0
	if hasVideo {
		mediaScore = 100.0
	}

	blended := 0.6*float64(qaScore) + 0.2*sizeRatio*100 + 0.1*linkRatio*100 + 0.1*mediaScore
	score := int(blended)
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score
}

// appendRelatedLinks adds a related-reading section built from the internal
// link candidates. Deterministic; a run with no candidates leaves the
// content untouched.
func appendRelatedLinks(content string, targets []interfaces.LinkTarget) string {
	if len(targets) == 0 {
		return content
	}

	max := len(targets)
	if max > 5 {
		max = 5
	}

	var b strings.Builder
	b.WriteString(content)
	b.WriteString("\n\n## Related reading\n\n")
	for _, t := range targets[:max] {
		b.WriteString(fmt.Sprintf("- [%s](%s)\n", t.Title, t.URL))
	}
	return b.String()
}

// coverage returns the share of suggested terms present in the content
func coverage(content string, terms []string) float64 {
	if len(terms) == 0 {
		return 0
	}
	lower := strings.ToLower(content)
	found := 0
	for _, term := range terms {
		if strings.Contains(lower, strings.ToLower(term)) {
			found++
		}
	}
	return float64(found) / float64(len(terms))
}

// countWords counts whitespace-separated words
func countWords(content string) int {
	return len(strings.Fields(content))
}

// deriveKeywordFromURL falls back to a keyword derived from the URL path
func deriveKeywordFromURL(target string) string {
	u, err := url.Parse(target)
	if err != nil || u.Path == "" || u.Path == "/" {
		return target
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	last := segments[len(segments)-1]
	last = strings.TrimSuffix(last, ".html")
	keyword := strings.ReplaceAll(last, "-", " ")
	keyword = strings.ReplaceAll(keyword, "_", " ")
	if keyword == "" {
		return target
	}
	return keyword
}
