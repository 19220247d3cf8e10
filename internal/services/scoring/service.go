package scoring

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribo/internal/interfaces"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Component weights of the deterministic quality score. The weights sum to
// 100; each component contributes its full weight at the ideal value and
// scales linearly below it.
const (
	weightLength    = 30.0
	weightStructure = 25.0
	weightLinks     = 15.0
	weightMedia     = 10.0
	weightTerms     = 20.0

	idealWordCount  = 1500
	idealHeadings   = 6
	idealParagraphs = 10
	idealLinks      = 5
)

// Service computes a deterministic quality score for generated markdown.
// The content is rendered and analyzed structurally, so the same input
// always produces the same score.
type Service struct {
	renderer goldmark.Markdown
	logger   arbor.ILogger
}

// NewService creates a new scoring service
func NewService(logger arbor.ILogger) *Service {
	return &Service{
		renderer: goldmark.New(goldmark.WithExtensions(extension.GFM)),
		logger:   logger,
	}
}

// Score evaluates the markdown content against length, structure, linking,
// media and term coverage signals and returns a 0..100 score.
func (s *Service) Score(content string, aux interfaces.AuxSignals) *interfaces.ContentScore {
	details := map[string]float64{
		"length":    s.lengthScore(content),
		"structure": s.structureScore(content),
		"links":     ratio(float64(aux.InternalLinks), idealLinks) * weightLinks,
		"media":     mediaScore(aux.HasVideo),
		"terms":     aux.TermCoverage * weightTerms,
	}

	total := 0.0
	for _, v := range details {
		total += v
	}
	score := int(total)
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}

	s.logger.Debug().
		Int("score", score).
		Int("word_count", len(strings.Fields(content))).
		Msg("Content scored")

	return &interfaces.ContentScore{Score: score, Details: details}
}

func (s *Service) lengthScore(content string) float64 {
	words := len(strings.Fields(content))
	return ratio(float64(words), idealWordCount) * weightLength
}

// structureScore renders the markdown and inspects the document shape:
// heading coverage and paragraph distribution.
func (s *Service) structureScore(content string) float64 {
	var buf bytes.Buffer
	if err := s.renderer.Convert([]byte(content), &buf); err != nil {
		return 0
	}
	doc, err := goquery.NewDocumentFromReader(&buf)
	if err != nil {
		return 0
	}

	headings := doc.Find("h1, h2, h3").Length()
	paragraphs := doc.Find("p").Length()

	headingScore := ratio(float64(headings), idealHeadings)
	paragraphScore := ratio(float64(paragraphs), idealParagraphs)
	return (headingScore*0.6 + paragraphScore*0.4) * weightStructure
}

func mediaScore(hasVideo bool) float64 {
	if hasVideo {
		return weightMedia
	}
	return weightMedia / 2
}

// ratio clamps value/ideal to [0,1]
func ratio(value, ideal float64) float64 {
	if ideal <= 0 {
		return 0
	}
	r := value / ideal
	if r > 1 {
		return 1
	}
	if r < 0 {
		return 0
	}
	return r
}
