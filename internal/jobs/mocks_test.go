package jobs

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribo/internal/common"
	"github.com/ternarybob/scribo/internal/interfaces"
	"github.com/ternarybob/scribo/internal/models"
)

// In-memory fakes for the orchestrator's collaborators. Each fake records
// its calls and returns configurable canned responses.

type fakeCatalog struct {
	mu    sync.Mutex
	pages map[string]*models.PageEntry
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{pages: make(map[string]*models.PageEntry)}
}

func (c *fakeCatalog) SavePage(ctx context.Context, page *models.PageEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	copied := *page
	c.pages[page.URL] = &copied
	return nil
}

func (c *fakeCatalog) GetPage(ctx context.Context, url string) (*models.PageEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	page, ok := c.pages[url]
	if !ok {
		return nil, interfaces.ErrPostNotFound
	}
	copied := *page
	return &copied, nil
}

func (c *fakeCatalog) ListPages(ctx context.Context) ([]*models.PageEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	pages := make([]*models.PageEntry, 0, len(c.pages))
	for _, page := range c.pages {
		copied := *page
		pages = append(pages, &copied)
	}
	return pages, nil
}

func (c *fakeCatalog) DeletePage(ctx context.Context, url string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pages, url)
	return nil
}

type fakeHistory struct {
	mu      sync.Mutex
	records []*models.OptimizationRecord
}

func (h *fakeHistory) SaveRecord(ctx context.Context, record *models.OptimizationRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	copied := *record
	h.records = append(h.records, &copied)
	return nil
}

func (h *fakeHistory) ListRecords(ctx context.Context, pageURL string, limit int) ([]*models.OptimizationRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []*models.OptimizationRecord
	for _, r := range h.records {
		if pageURL == "" || r.PageURL == pageURL {
			copied := *r
			out = append(out, &copied)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeWordPress struct {
	mu sync.Mutex

	resolveID  int
	resolveErr error
	assets     *interfaces.PostAssets
	assetsErr  error
	createErr  error
	updateErr  error
	metaErr    error

	afterUpdate func()

	created []interfaces.PostPayload
	updated []interfaces.PostPayload
}

func (w *fakeWordPress) ResolvePost(ctx context.Context, targetURL string) (int, error) {
	if w.resolveErr != nil {
		return 0, w.resolveErr
	}
	return w.resolveID, nil
}

func (w *fakeWordPress) GetPostWithAssets(ctx context.Context, postID int) (*interfaces.PostAssets, error) {
	if w.assetsErr != nil {
		return nil, w.assetsErr
	}
	if w.assets != nil {
		return w.assets, nil
	}
	return &interfaces.PostAssets{
		ID:          postID,
		Title:       "Existing Title",
		Slug:        "existing-title",
		ContentHTML: "<p>existing content</p>",
	}, nil
}

func (w *fakeWordPress) CreatePost(ctx context.Context, payload *interfaces.PostPayload) (*interfaces.PublishOutcome, error) {
	if w.createErr != nil {
		return nil, w.createErr
	}
	w.mu.Lock()
	w.created = append(w.created, *payload)
	w.mu.Unlock()
	return &interfaces.PublishOutcome{ID: 101, CanonicalLink: "https://example.com/" + payload.Slug}, nil
}

func (w *fakeWordPress) UpdatePost(ctx context.Context, postID int, payload *interfaces.PostPayload, preserved *models.PreservationRecord, flags models.PreservationFlags) (*interfaces.PublishOutcome, error) {
	if w.updateErr != nil {
		return nil, w.updateErr
	}
	w.mu.Lock()
	w.updated = append(w.updated, *payload)
	w.mu.Unlock()
	if w.afterUpdate != nil {
		w.afterUpdate()
	}
	return &interfaces.PublishOutcome{ID: postID, CanonicalLink: "https://example.com/" + payload.Slug}, nil
}

func (w *fakeWordPress) UpdateSEOMetadata(ctx context.Context, postID int, meta *interfaces.SEOMetadata) error {
	return w.metaErr
}

type fakeSynthesis struct {
	content string
	title   string
	err     error
	delay   time.Duration
	stages  []interfaces.SynthesisStage

	// optional entry/exit hooks for observing concurrent calls
	begin func()
	end   func()
}

func (s *fakeSynthesis) Synthesize(ctx context.Context, req *interfaces.SynthesisRequest, onStage interfaces.StageProgressFunc) (*interfaces.SynthesisResult, error) {
	if s.begin != nil {
		s.begin()
	}
	if s.end != nil {
		defer s.end()
	}
	stages := s.stages
	if stages == nil {
		stages = []interfaces.SynthesisStage{
			interfaces.StageReferences,
			interfaces.StageOutline,
			interfaces.StageSections,
			interfaces.StageYouTube,
			interfaces.StageMerge,
		}
	}
	for _, stage := range stages {
		if onStage != nil {
			onStage(stage, interfaces.StageProgress{})
		}
	}
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	title := s.title
	if title == "" {
		title = req.Keyword
	}
	return &interfaces.SynthesisResult{
		Content: s.content,
		Title:   title,
		Excerpt: "excerpt",
	}, nil
}

func (s *fakeSynthesis) Close() error { return nil }

type fakeScoring struct {
	score int
}

func (s *fakeScoring) Score(content string, aux interfaces.AuxSignals) *interfaces.ContentScore {
	return &interfaces.ContentScore{Score: s.score}
}

type fakeTransform struct{}

func (t *fakeTransform) HTMLToMarkdown(html, baseURL string) (string, error) {
	return strings.ReplaceAll(strings.ReplaceAll(html, "<p>", ""), "</p>", ""), nil
}

func (t *fakeTransform) MarkdownToHTML(markdown string) (string, error) {
	return "<p>" + markdown + "</p>", nil
}

type fakeLinker struct {
	targets []interfaces.LinkTarget
}

func (l *fakeLinker) BuildTargets(ctx context.Context, excludeURL string) []interfaces.LinkTarget {
	return l.targets
}

// words returns n space-separated words for content size fixtures
func words(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = "word"
	}
	return strings.Join(parts, " ")
}

func testConfig() *common.Config {
	cfg := common.NewDefaultConfig()
	cfg.Claude.APIKey = "test-key"
	cfg.WordPress.SiteURL = "https://example.com"
	cfg.WordPress.Username = "admin"
	cfg.WordPress.AppPassword = "secret"
	cfg.Optimizer.WaveCooldown = "10ms"
	cfg.Optimizer.JobTimeout = "5s"
	return cfg
}

type testEnv struct {
	cfg       *common.Config
	state     *StateStore
	catalog   *fakeCatalog
	history   *fakeHistory
	wordpress *fakeWordPress
	synthesis *fakeSynthesis
	scoring   *fakeScoring
	linker    *fakeLinker
}

func newTestEnv() *testEnv {
	return &testEnv{
		cfg:       testConfig(),
		state:     NewStateStore(arbor.NewLogger()),
		catalog:   newFakeCatalog(),
		history:   &fakeHistory{},
		wordpress: &fakeWordPress{resolveID: 42},
		synthesis: &fakeSynthesis{content: words(600), title: "Optimized Title"},
		scoring:   &fakeScoring{score: 80},
		linker:    &fakeLinker{},
	}
}

func (e *testEnv) deps() OrchestratorDeps {
	return OrchestratorDeps{
		Config:    e.cfg,
		State:     e.state,
		Catalog:   e.catalog,
		History:   e.history,
		WordPress: e.wordpress,
		Synthesis: e.synthesis,
		Scoring:   e.scoring,
		Transform: &fakeTransform{},
		Linker:    e.linker,
		Logger:    arbor.NewLogger(),
	}
}
