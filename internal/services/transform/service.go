package transform

import (
	"bytes"
	"net/url"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Service converts post content between HTML and markdown. Remote posts are
// analyzed in markdown; generated markdown is rendered back to HTML for
// publishing.
type Service struct {
	renderer goldmark.Markdown
	logger   arbor.ILogger
}

// NewService creates a new transform service
func NewService(logger arbor.ILogger) *Service {
	return &Service{
		renderer: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
		logger: logger,
	}
}

// HTMLToMarkdown converts HTML content to markdown.
// baseURL is used for resolving relative links. Conversion failures fall
// back to tag stripping rather than erroring.
func (s *Service) HTMLToMarkdown(htmlContent string, baseURL string) (string, error) {
	if htmlContent == "" {
		return "", nil
	}

	// NewConverter wants a bare domain; the site URL comes in with its
	// scheme. Resolve relative links against the full URL so they keep
	// the site's scheme instead of the converter's http:// default.
	converter := md.NewConverter(md.DomainFromURL(baseURL), true, &md.Options{
		GetAbsoluteURL: absoluteURLResolver(baseURL),
	})
	converted, err := converter.ConvertString(htmlContent)
	if err != nil {
		s.logger.Warn().Err(err).Msg("HTML to markdown conversion failed, using fallback")
		return stripHTMLTags(htmlContent), nil
	}

	if strings.TrimSpace(converted) == "" {
		s.logger.Warn().
			Int("html_length", len(htmlContent)).
			Msg("HTML to markdown conversion produced empty output, applying fallback")
		return stripHTMLTags(htmlContent), nil
	}

	return converted, nil
}

// MarkdownToHTML renders markdown to the publishable HTML body
func (s *Service) MarkdownToHTML(markdown string) (string, error) {
	if markdown == "" {
		return "", nil
	}

	var buf bytes.Buffer
	if err := s.renderer.Convert([]byte(markdown), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// absoluteURLResolver resolves relative hrefs against the site base URL.
// Falls back to the converter default when the base URL is unusable.
func absoluteURLResolver(baseURL string) func(selec *goquery.Selection, rawURL string, domain string) string {
	base, err := url.Parse(baseURL)
	if err != nil || base.Host == "" {
		return md.DefaultGetAbsoluteURL
	}
	return func(selec *goquery.Selection, rawURL string, domain string) string {
		u, err := url.Parse(rawURL)
		if err != nil || u.IsAbs() {
			return rawURL
		}
		return base.ResolveReference(u).String()
	}
}

// stripHTMLTags removes basic HTML tags for fallback cases
func stripHTMLTags(htmlStr string) string {
	re := regexp.MustCompile(`<[^>]*>`)
	stripped := re.ReplaceAllString(htmlStr, "")

	spaceRe := regexp.MustCompile(`\s+`)
	cleaned := spaceRe.ReplaceAllString(stripped, " ")

	cleaned = strings.ReplaceAll(cleaned, "&amp;", "&")
	cleaned = strings.ReplaceAll(cleaned, "&lt;", "<")
	cleaned = strings.ReplaceAll(cleaned, "&gt;", ">")
	cleaned = strings.ReplaceAll(cleaned, "&quot;", "\"")
	cleaned = strings.ReplaceAll(cleaned, "&#39;", "'")
	cleaned = strings.ReplaceAll(cleaned, "&nbsp;", " ")

	return strings.TrimSpace(cleaned)
}
