package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/scribo/internal/interfaces"
	"github.com/ternarybob/scribo/internal/models"
)

func TestOrchestratorRunSuccess(t *testing.T) {
	env := newTestEnv()
	env.synthesis.content = words(4200)
	orchestrator := NewOrchestrator(env.deps())

	result := orchestrator.Run(context.Background(), RunOptions{TargetURL: "https://example.com/posts/topic"})

	require.True(t, result.Success, "job should complete: %s", result.Error)
	assert.Equal(t, 4200, result.WordCount)
	assert.Greater(t, result.Score, 0)

	job, ok := env.state.Get("https://example.com/posts/topic")
	require.True(t, ok)
	assert.Equal(t, models.PhaseCompleted, job.Phase)
	assert.Equal(t, models.JobStatusCompleted, job.Status)

	// Existing post resolved, so the update path was taken
	assert.Len(t, env.wordpress.updated, 1)
	assert.Empty(t, env.wordpress.created)
}

func TestOrchestratorNoAIKeyFailsBeforeAnyPhase(t *testing.T) {
	env := newTestEnv()
	env.cfg.Claude.APIKey = ""
	env.cfg.Gemini.APIKey = ""
	orchestrator := NewOrchestrator(env.deps())

	result := orchestrator.Run(context.Background(), RunOptions{TargetURL: "https://example.com/p"})

	require.False(t, result.Success)
	assert.Equal(t, "No AI API key configured", result.Error)

	job, ok := env.state.Get("https://example.com/p")
	require.True(t, ok)
	assert.Equal(t, models.PhaseFailed, job.Phase)
}

func TestOrchestratorNoWordPressURLFails(t *testing.T) {
	env := newTestEnv()
	env.cfg.WordPress.SiteURL = ""
	orchestrator := NewOrchestrator(env.deps())

	result := orchestrator.Run(context.Background(), RunOptions{TargetURL: "https://example.com/p"})

	require.False(t, result.Success)
	assert.Equal(t, "WordPress URL not configured", result.Error)
}

func TestOrchestratorNoPagesToOptimize(t *testing.T) {
	env := newTestEnv()
	orchestrator := NewOrchestrator(env.deps())

	result := orchestrator.Run(context.Background(), RunOptions{})

	require.False(t, result.Success)
	assert.Equal(t, "No pages to optimize", result.Error)
}

func TestOrchestratorSelectsLowestHealthScore(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	require.NoError(t, env.catalog.SavePage(ctx, &models.PageEntry{URL: "https://example.com/healthy", HealthScore: 90}))
	require.NoError(t, env.catalog.SavePage(ctx, &models.PageEntry{URL: "https://example.com/weak", HealthScore: 20}))
	orchestrator := NewOrchestrator(env.deps())

	result := orchestrator.Run(ctx, RunOptions{})

	require.True(t, result.Success, result.Error)
	job, ok := env.state.Get("https://example.com/weak")
	require.True(t, ok)
	assert.Equal(t, models.PhaseCompleted, job.Phase)
	_, started := env.state.Get("https://example.com/healthy")
	assert.False(t, started)
}

func TestOrchestratorCreatePathWhenPostNotFound(t *testing.T) {
	env := newTestEnv()
	env.wordpress.resolveErr = interfaces.ErrPostNotFound
	orchestrator := NewOrchestrator(env.deps())

	result := orchestrator.Run(context.Background(), RunOptions{
		TargetURL: "https://example.com/posts/fresh-topic",
		Keyword:   "fresh topic",
	})

	require.True(t, result.Success, result.Error)
	require.Len(t, env.wordpress.created, 1)
	assert.Empty(t, env.wordpress.updated)
	assert.NotEmpty(t, env.wordpress.created[0].Slug)
}

func TestOrchestratorResolutionErrorIsFatal(t *testing.T) {
	env := newTestEnv()
	env.wordpress.resolveErr = errors.New("connection refused")
	orchestrator := NewOrchestrator(env.deps())

	result := orchestrator.Run(context.Background(), RunOptions{TargetURL: "https://example.com/p"})

	require.False(t, result.Success)
	assert.Contains(t, result.Error, "failed to resolve post")
}

func TestOrchestratorShortContentFailsQualityGate(t *testing.T) {
	env := newTestEnv()
	env.synthesis.content = words(120)
	orchestrator := NewOrchestrator(env.deps())

	result := orchestrator.Run(context.Background(), RunOptions{TargetURL: "https://example.com/p"})

	require.False(t, result.Success)
	assert.Equal(t, "Content generation failed: 120 words generated, minimum is 300", result.Error)

	job, ok := env.state.Get("https://example.com/p")
	require.True(t, ok)
	assert.Equal(t, models.PhaseFailed, job.Phase)
	// Nothing was published
	assert.Empty(t, env.wordpress.created)
	assert.Empty(t, env.wordpress.updated)
}

func TestOrchestratorPublishErrorIsFatal(t *testing.T) {
	env := newTestEnv()
	env.wordpress.updateErr = errors.New("500 internal server error")
	orchestrator := NewOrchestrator(env.deps())

	result := orchestrator.Run(context.Background(), RunOptions{TargetURL: "https://example.com/p"})

	require.False(t, result.Success)
	assert.Contains(t, result.Error, "Publishing failed (update)")
}

func TestOrchestratorSEOMetadataFailureIsSoft(t *testing.T) {
	env := newTestEnv()
	env.wordpress.metaErr = errors.New("plugin endpoint missing")
	orchestrator := NewOrchestrator(env.deps())

	result := orchestrator.Run(context.Background(), RunOptions{TargetURL: "https://example.com/p"})

	assert.True(t, result.Success, result.Error)
}

func TestOrchestratorLowQAScoreStillCompletes(t *testing.T) {
	env := newTestEnv()
	env.scoring.score = 10
	orchestrator := NewOrchestrator(env.deps())

	result := orchestrator.Run(context.Background(), RunOptions{TargetURL: "https://example.com/p"})

	// QA score is recorded but never fails a single job run
	require.True(t, result.Success, result.Error)
}

func TestOrchestratorCancellationMidRun(t *testing.T) {
	env := newTestEnv()
	env.synthesis.delay = 2 * time.Second

	ctx, cancel := context.WithCancel(context.Background())
	token := NewCancellationToken(cancel)
	orchestrator := NewOrchestrator(env.deps())

	go func() {
		time.Sleep(50 * time.Millisecond)
		token.Cancel("user requested")
	}()

	result := orchestrator.Run(ctx, RunOptions{TargetURL: "https://example.com/p", Token: token})

	require.False(t, result.Success)
	assert.Contains(t, result.Error, "cancelled")
	assert.Contains(t, result.Error, "user requested")

	job, ok := env.state.Get("https://example.com/p")
	require.True(t, ok)
	assert.Equal(t, models.PhaseFailed, job.Phase)
}

func TestOrchestratorCancellationDuringPublishWins(t *testing.T) {
	env := newTestEnv()
	env.synthesis.content = words(4200)

	ctx, cancel := context.WithCancel(context.Background())
	token := NewCancellationToken(cancel)
	// Cancellation lands after the post update succeeds, past the
	// publishing boundary check.
	env.wordpress.afterUpdate = func() {
		token.Cancel("shutting down")
	}
	orchestrator := NewOrchestrator(env.deps())

	result := orchestrator.Run(ctx, RunOptions{TargetURL: "https://example.com/p", Token: token})

	require.False(t, result.Success)
	assert.Contains(t, result.Error, "cancelled")

	job, ok := env.state.Get("https://example.com/p")
	require.True(t, ok)
	assert.Equal(t, models.PhaseFailed, job.Phase)
	assert.Equal(t, models.JobStatusFailed, job.Status)

	for _, rec := range env.history.records {
		assert.False(t, rec.Success, "no successful history record after cancellation")
	}
}

func TestOrchestratorTimeoutMapsToTimeoutError(t *testing.T) {
	env := newTestEnv()
	env.synthesis.delay = 2 * time.Second

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	orchestrator := NewOrchestrator(env.deps())

	result := orchestrator.Run(ctx, RunOptions{TargetURL: "https://example.com/p"})

	require.False(t, result.Success)
	assert.Contains(t, result.Error, "timed out")
}

func TestOrchestratorStageOrderingNeverRegressesPhase(t *testing.T) {
	env := newTestEnv()
	// Engine reports stages out of order; the phase must stay forward-only
	env.synthesis.stages = []interfaces.SynthesisStage{
		interfaces.StageSections,
		interfaces.StageReferences, // would be a backward transition
		interfaces.StageMerge,
	}
	orchestrator := NewOrchestrator(env.deps())

	reporter := NewProgressReporter(nil, env.deps().Logger)
	result := orchestrator.Run(context.Background(), RunOptions{
		TargetURL: "https://example.com/p",
		Reporter:  reporter,
	})

	require.True(t, result.Success, result.Error)
	assert.Equal(t, models.PhaseCompleted, reporter.Snapshot().Phase)
	assert.Equal(t, models.TotalSteps, reporter.Snapshot().Step)
}

func TestOrchestratorRecordsHistory(t *testing.T) {
	env := newTestEnv()
	orchestrator := NewOrchestrator(env.deps())

	orchestrator.Run(context.Background(), RunOptions{TargetURL: "https://example.com/p"})

	records, err := env.history.ListRecords(context.Background(), "https://example.com/p", 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, records[0].Success)

	page, err := env.catalog.GetPage(context.Background(), "https://example.com/p")
	require.NoError(t, err)
	assert.NotNil(t, page.LastOptimized)
	assert.Greater(t, page.LastScore, 0)
}

func TestBlendScore(t *testing.T) {
	tests := []struct {
		name     string
		qa       int
		words    int
		target   int
		links    int
		video    bool
		expected int
	}{
		{"full marks", 100, 2000, 1500, 10, true, 100},
		{"qa dominates", 80, 1500, 1500, 10, true, 88},
		{"no enrichment", 50, 750, 1500, 0, false, 45},
		{"zero everything", 0, 0, 1500, 0, false, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, blendScore(tt.qa, tt.words, tt.target, tt.links, tt.video))
		})
	}
}

func TestDeriveKeywordFromURL(t *testing.T) {
	assert.Equal(t, "winter tyre guide", deriveKeywordFromURL("https://example.com/posts/winter-tyre-guide"))
	assert.Equal(t, "intro", deriveKeywordFromURL("https://example.com/intro.html"))
	assert.Equal(t, "https://example.com", deriveKeywordFromURL("https://example.com"))
}
