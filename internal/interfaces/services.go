package interfaces

import (
	"context"
)

// TransformService converts content between the formats the pipeline uses:
// remote post HTML to markdown for analysis, generated markdown to HTML for
// publishing.
type TransformService interface {
	HTMLToMarkdown(html string, baseURL string) (string, error)
	MarkdownToHTML(markdown string) (string, error)
}

// LinkBuilder produces internal link candidates for a target from the page
// catalogue. Deterministic; cannot fail.
type LinkBuilder interface {
	BuildTargets(ctx context.Context, excludeURL string) []LinkTarget
}
