package synthesis

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribo/internal/common"
	"github.com/ternarybob/scribo/internal/interfaces"
	"golang.org/x/time/rate"
)

const (
	minSections = 3
	maxSections = 8
)

// Engine is the staged content synthesis pipeline. One Synthesize call runs
// references, outline, per-section drafting, video integration and merge in
// order, reporting each stage through the callback. All provider calls go
// through a shared rate limiter.
type Engine struct {
	generator TextGenerator
	limiter   *rate.Limiter
	logger    arbor.ILogger
}

// NewEngine creates a synthesis engine over the given text generator
func NewEngine(generator TextGenerator, limiter *rate.Limiter, logger arbor.ILogger) *Engine {
	return &Engine{
		generator: generator,
		limiter:   limiter,
		logger:    logger,
	}
}

// Synthesize runs the full staged pipeline and returns the merged article
func (e *Engine) Synthesize(ctx context.Context, req *interfaces.SynthesisRequest, onStage interfaces.StageProgressFunc) (*interfaces.SynthesisResult, error) {
	report := func(stage interfaces.SynthesisStage, progress interfaces.StageProgress) {
		if onStage != nil {
			onStage(stage, progress)
		}
	}

	// Stage: references
	report(interfaces.StageReferences, interfaces.StageProgress{})
	notes, err := e.generate(ctx, referencesPrompt(req))
	if err != nil {
		return nil, fmt.Errorf("reference collection failed: %w", err)
	}

	// Stage: outline
	report(interfaces.StageOutline, interfaces.StageProgress{})
	outlineText, err := e.generate(ctx, outlinePrompt(req, notes))
	if err != nil {
		return nil, fmt.Errorf("outline generation failed: %w", err)
	}
	outline := parseOutline(outlineText)
	if len(outline) < minSections {
		return nil, fmt.Errorf("outline produced %d sections, need at least %d", len(outline), minSections)
	}

	e.logger.Debug().
		Str("provider", e.generator.Name()).
		Int("sections", len(outline)).
		Msg("Outline generated")

	// Stage: sections
	sections := make([]string, 0, len(outline))
	wordCount := 0
	for i, heading := range outline {
		report(interfaces.StageSections, interfaces.StageProgress{
			SectionsCompleted: i,
			TotalSections:     len(outline),
			WordCount:         wordCount,
		})

		body, err := e.generate(ctx, sectionPrompt(req, notes, heading, outline))
		if err != nil {
			return nil, fmt.Errorf("section %q draft failed: %w", heading, err)
		}

		sections = append(sections, heading+"\n\n"+strings.TrimSpace(body))
		wordCount += len(strings.Fields(body))
	}
	report(interfaces.StageSections, interfaces.StageProgress{
		SectionsCompleted: len(outline),
		TotalSections:     len(outline),
		WordCount:         wordCount,
	})

	// Stage: youtube integration. Deterministic; the first discovered video
	// is embedded after the second section where it reads naturally.
	report(interfaces.StageYouTube, interfaces.StageProgress{
		SectionsCompleted: len(outline),
		TotalSections:     len(outline),
		WordCount:         wordCount,
	})
	sections = embedVideos(sections, req.Videos)

	// Stage: merge
	report(interfaces.StageMerge, interfaces.StageProgress{
		SectionsCompleted: len(outline),
		TotalSections:     len(outline),
		WordCount:         wordCount,
	})
	content := strings.Join(sections, "\n\n")

	title, excerpt, err := e.generateMetadata(ctx, req, content)
	if err != nil {
		// Metadata is recoverable: fall back to the keyword
		e.logger.Warn().Err(err).Msg("Metadata generation failed, falling back to keyword")
		title = req.Keyword
		excerpt = ""
	}

	return &interfaces.SynthesisResult{
		Content: content,
		Title:   title,
		Excerpt: excerpt,
		Slug:    common.Slugify(title),
	}, nil
}

// Close releases the underlying provider
func (e *Engine) Close() error {
	return e.generator.Close()
}

// generate applies the rate limit and runs one provider call
func (e *Engine) generate(ctx context.Context, prompt string) (string, error) {
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}
	return e.generator.Generate(ctx, systemPrompt, prompt)
}

func (e *Engine) generateMetadata(ctx context.Context, req *interfaces.SynthesisRequest, content string) (string, string, error) {
	response, err := e.generate(ctx, metadataPrompt(req, content))
	if err != nil {
		return "", "", err
	}

	title, excerpt := parseMetadata(response)
	if title == "" {
		return "", "", fmt.Errorf("metadata response contained no title")
	}
	return title, excerpt, nil
}

// parseOutline extracts "## " headings from the outline response
func parseOutline(text string) []string {
	var headings []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "## ") {
			continue
		}
		if strings.TrimSpace(strings.TrimPrefix(trimmed, "## ")) == "" {
			continue
		}
		headings = append(headings, trimmed)
		if len(headings) == maxSections {
			break
		}
	}
	return headings
}

// parseMetadata extracts the Title: and Excerpt: lines
func parseMetadata(text string) (title, excerpt string) {
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if v, ok := strings.CutPrefix(trimmed, "Title:"); ok && title == "" {
			title = strings.TrimSpace(v)
		}
		if v, ok := strings.CutPrefix(trimmed, "Excerpt:"); ok && excerpt == "" {
			excerpt = strings.TrimSpace(v)
		}
	}
	return title, excerpt
}

// embedVideos inserts the first discovered video after the second section
func embedVideos(sections []string, videos []interfaces.VideoReference) []string {
	if len(videos) == 0 || len(sections) < 2 {
		return sections
	}

	video := videos[0]
	embed := fmt.Sprintf("[%s](%s)", video.Title, video.URL)
	sections[1] = sections[1] + "\n\n" + embed
	return sections
}
