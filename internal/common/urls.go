package common

import (
	"net/url"
	"regexp"
	"strings"
)

var slugInvalidChars = regexp.MustCompile(`[^a-z0-9]+`)

// NormalizeTargets trims, validates and deduplicates a raw list of candidate URLs.
// Only syntactically valid absolute http(s) URLs survive; duplicates are removed
// by exact string equality after trimming, preserving first-seen order.
func NormalizeTargets(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	targets := make([]string, 0, len(raw))

	for _, candidate := range raw {
		trimmed := strings.TrimSpace(candidate)
		if trimmed == "" {
			continue
		}
		if !IsValidTargetURL(trimmed) {
			continue
		}
		if _, dup := seen[trimmed]; dup {
			continue
		}
		seen[trimmed] = struct{}{}
		targets = append(targets, trimmed)
	}

	return targets
}

// IsValidTargetURL reports whether s is a syntactically valid absolute http(s) URL
func IsValidTargetURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}

// Slugify converts a title into a URL-safe slug
func Slugify(title string) string {
	slug := strings.ToLower(strings.TrimSpace(title))
	slug = slugInvalidChars.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > 80 {
		slug = strings.Trim(slug[:80], "-")
	}
	return slug
}
