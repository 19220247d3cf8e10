package synthesis

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribo/internal/interfaces"
)

// scriptedGenerator routes prompts to canned responses by content
type scriptedGenerator struct {
	calls int
	fail  string // substring of the prompt whose call should fail
}

func (g *scriptedGenerator) Generate(ctx context.Context, system, prompt string) (string, error) {
	g.calls++
	if g.fail != "" && strings.Contains(prompt, g.fail) {
		return "", fmt.Errorf("provider unavailable")
	}

	switch {
	case strings.Contains(prompt, "research notes"):
		return "- fact one\n- fact two", nil
	case strings.Contains(prompt, "section outline"):
		return "## Choosing The Right Compound\n## Tread Depth And The Law\n## Storage Between Seasons\n## Pressure In Cold Weather\n## When To Switch Back", nil
	case strings.Contains(prompt, "publishing metadata"):
		return "Title: The Complete Winter Tyre Guide\nExcerpt: Everything about winter tyres.", nil
	default:
		return strings.Repeat("body words here ", 80), nil
	}
}

func (g *scriptedGenerator) Name() string { return "scripted" }
func (g *scriptedGenerator) Close() error { return nil }

func testRequest() *interfaces.SynthesisRequest {
	return &interfaces.SynthesisRequest{
		TargetURL: "https://example.com/winter-tyres",
		Keyword:   "winter tyres",
	}
}

func TestSynthesizeProducesMergedArticle(t *testing.T) {
	engine := NewEngine(&scriptedGenerator{}, nil, arbor.NewLogger())

	result, err := engine.Synthesize(context.Background(), testRequest(), nil)

	require.NoError(t, err)
	assert.Equal(t, "The Complete Winter Tyre Guide", result.Title)
	assert.Equal(t, "the-complete-winter-tyre-guide", result.Slug)
	assert.Equal(t, "Everything about winter tyres.", result.Excerpt)
	assert.Contains(t, result.Content, "## Choosing The Right Compound")
	assert.Contains(t, result.Content, "## When To Switch Back")
	assert.Greater(t, len(strings.Fields(result.Content)), 1000)
}

func TestSynthesizeReportsStagesInOrder(t *testing.T) {
	engine := NewEngine(&scriptedGenerator{}, nil, arbor.NewLogger())

	var stages []interfaces.SynthesisStage
	var lastSections interfaces.StageProgress
	_, err := engine.Synthesize(context.Background(), testRequest(), func(stage interfaces.SynthesisStage, progress interfaces.StageProgress) {
		if len(stages) == 0 || stages[len(stages)-1] != stage {
			stages = append(stages, stage)
		}
		if stage == interfaces.StageSections {
			lastSections = progress
		}
	})

	require.NoError(t, err)
	assert.Equal(t, []interfaces.SynthesisStage{
		interfaces.StageReferences,
		interfaces.StageOutline,
		interfaces.StageSections,
		interfaces.StageYouTube,
		interfaces.StageMerge,
	}, stages)
	assert.Equal(t, 5, lastSections.TotalSections)
	assert.Equal(t, 5, lastSections.SectionsCompleted)
	assert.Greater(t, lastSections.WordCount, 0)
}

func TestSynthesizeEmbedsVideo(t *testing.T) {
	engine := NewEngine(&scriptedGenerator{}, nil, arbor.NewLogger())
	req := testRequest()
	req.Videos = []interfaces.VideoReference{{Title: "Fitting Guide", URL: "https://youtube.com/watch?v=abc"}}

	result, err := engine.Synthesize(context.Background(), req, nil)

	require.NoError(t, err)
	assert.Contains(t, result.Content, "[Fitting Guide](https://youtube.com/watch?v=abc)")
}

func TestSynthesizeSectionFailureAborts(t *testing.T) {
	engine := NewEngine(&scriptedGenerator{fail: "Write the"}, nil, arbor.NewLogger())

	_, err := engine.Synthesize(context.Background(), testRequest(), nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "draft failed")
}

func TestSynthesizeMetadataFailureFallsBackToKeyword(t *testing.T) {
	engine := NewEngine(&scriptedGenerator{fail: "publishing metadata"}, nil, arbor.NewLogger())

	result, err := engine.Synthesize(context.Background(), testRequest(), nil)

	require.NoError(t, err)
	assert.Equal(t, "winter tyres", result.Title)
	assert.Equal(t, "winter-tyres", result.Slug)
}

func TestParseOutline(t *testing.T) {
	headings := parseOutline("preamble\n## One Heading\n\n##\n## Two Heading\nnot a heading")
	assert.Equal(t, []string{"## One Heading", "## Two Heading"}, headings)
}

func TestParseMetadata(t *testing.T) {
	title, excerpt := parseMetadata("Title: A Fine Title\nExcerpt: A summary.")
	assert.Equal(t, "A Fine Title", title)
	assert.Equal(t, "A summary.", excerpt)

	title, excerpt = parseMetadata("no metadata here")
	assert.Empty(t, title)
	assert.Empty(t, excerpt)
}
