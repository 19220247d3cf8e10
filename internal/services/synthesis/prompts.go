package synthesis

import (
	"fmt"
	"strings"

	"github.com/ternarybob/scribo/internal/interfaces"
)

const systemPrompt = `You are an expert long-form content writer for a technical publication.
You write accurate, well-structured articles in markdown. You never invent
facts, you prefer concrete detail over filler, and you keep a consistent,
professional tone throughout a piece.`

func referencesPrompt(req *interfaces.SynthesisRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Collect the key facts, angles and references for an article about %q.\n", req.Keyword)

	if len(req.EntityGaps) > 0 {
		b.WriteString("\nCompeting articles cover these entities that must be addressed:\n")
		for _, gap := range req.EntityGaps {
			fmt.Fprintf(&b, "- %s\n", gap)
		}
	}
	if len(req.Terms) > 0 {
		fmt.Fprintf(&b, "\nWork these terms in naturally: %s\n", strings.Join(req.Terms, ", "))
	}
	if req.ExistingMarkdown != "" {
		fmt.Fprintf(&b, "\nThe current article below is being rewritten. Keep its accurate claims, drop the rest.\n\n---\n%s\n---\n", clip(req.ExistingMarkdown, 6000))
	}

	b.WriteString("\nReturn a concise bullet list of research notes. No prose, no preamble.")
	return b.String()
}

func outlinePrompt(req *interfaces.SynthesisRequest, notes string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Design the section outline for an article about %q.\n", req.Keyword)
	if notes != "" {
		fmt.Fprintf(&b, "\nResearch notes:\n%s\n", clip(notes, 4000))
	}
	b.WriteString(`
Return between 5 and 8 section headings, one per line, each starting with "## ".
Headings must be specific to the topic, not generic ("Introduction", "Conclusion" are banned).
Return only the headings.`)
	return b.String()
}

func sectionPrompt(req *interfaces.SynthesisRequest, notes, heading string, outline []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write the %q section of an article about %q.\n", heading, req.Keyword)
	fmt.Fprintf(&b, "\nThe full outline is:\n%s\n", strings.Join(outline, "\n"))
	if notes != "" {
		fmt.Fprintf(&b, "\nResearch notes:\n%s\n", clip(notes, 3000))
	}
	if len(req.LinkTargets) > 0 {
		b.WriteString("\nWhere genuinely relevant, link to these internal pages using markdown links:\n")
		max := len(req.LinkTargets)
		if max > 10 {
			max = 10
		}
		for _, t := range req.LinkTargets[:max] {
			fmt.Fprintf(&b, "- [%s](%s)\n", t.Title, t.URL)
		}
	}
	b.WriteString(`
Write 200-400 words of markdown body for this section only.
Do not repeat the section heading. Do not write content belonging to other sections.`)
	return b.String()
}

func metadataPrompt(req *interfaces.SynthesisRequest, content string) string {
	return fmt.Sprintf(`The article below is about %q. Produce its publishing metadata.

Return exactly two lines:
Title: <a compelling, accurate title under 65 characters>
Excerpt: <a one-sentence summary under 155 characters>

---
%s
---`, req.Keyword, clip(content, 4000))
}

// clip truncates text on a line boundary to keep prompts bounded
func clip(text string, max int) string {
	if len(text) <= max {
		return text
	}
	clipped := text[:max]
	if idx := strings.LastIndex(clipped, "\n"); idx > max/2 {
		clipped = clipped[:idx]
	}
	return clipped
}
