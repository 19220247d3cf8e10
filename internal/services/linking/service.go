package linking

import (
	"context"
	"sort"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribo/internal/common"
	"github.com/ternarybob/scribo/internal/interfaces"
)

// Service builds internal link candidates from the page catalogue. The
// candidate set is deterministic for a given catalogue state: pages are
// filtered for usable titles, the target itself is excluded, and the result
// is ordered by health score so the weakest pages get linked first.
type Service struct {
	catalog    interfaces.CatalogStorage
	maxTargets int
	logger     arbor.ILogger
}

// NewService creates a link builder over the page catalogue
func NewService(catalog interfaces.CatalogStorage, cfg *common.Config, logger arbor.ILogger) *Service {
	maxTargets := cfg.Optimizer.MaxLinkTargets
	if maxTargets <= 0 {
		maxTargets = 50
	}
	return &Service{
		catalog:    catalog,
		maxTargets: maxTargets,
		logger:     logger,
	}
}

// BuildTargets returns link candidates for a target URL. Catalogue read
// failures degrade to an empty candidate set.
func (s *Service) BuildTargets(ctx context.Context, excludeURL string) []interfaces.LinkTarget {
	pages, err := s.catalog.ListPages(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to list pages for link building")
		return nil
	}

	candidates := make([]candidate, 0, len(pages))
	for _, page := range pages {
		if page.URL == excludeURL {
			continue
		}
		if !usableTitle(page.Title) {
			continue
		}
		candidates = append(candidates, candidate{
			target: interfaces.LinkTarget{URL: page.URL, Title: page.Title},
			health: page.HealthScore,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].health != candidates[j].health {
			return candidates[i].health < candidates[j].health
		}
		return candidates[i].target.URL < candidates[j].target.URL
	})

	if len(candidates) > s.maxTargets {
		candidates = candidates[:s.maxTargets]
	}

	targets := make([]interfaces.LinkTarget, len(candidates))
	for i, c := range candidates {
		targets[i] = c.target
	}
	return targets
}

type candidate struct {
	target interfaces.LinkTarget
	health float64
}

// usableTitle rejects empty and trivial titles that would make poor anchors
func usableTitle(title string) bool {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return false
	}
	return len(strings.Fields(trimmed)) >= 2
}
