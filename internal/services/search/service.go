package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribo/internal/common"
	"github.com/ternarybob/scribo/internal/interfaces"
)

const (
	defaultEndpoint = "https://serpapi.com/search"
	maxEntityGaps   = 12
	maxVideos       = 3
)

// Service implements SERP-based enrichment: entity gap analysis against the
// top organic results and video discovery. Both operations are best-effort
// for the caller; any failure here is reported as an error and downgraded to
// a warning upstream.
type Service struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
	logger     arbor.ILogger
}

// NewService creates a search service from the configuration
func NewService(cfg *common.Config, logger arbor.ILogger) *Service {
	endpoint := cfg.Search.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}

	return &Service{
		apiKey:   cfg.Search.APIKey,
		endpoint: strings.TrimRight(endpoint, "/"),
		httpClient: &http.Client{
			Timeout: common.ParseDurationOr(cfg.Search.RequestTimeout, 20*time.Second),
		},
		logger: logger,
	}
}

type serpResponse struct {
	OrganicResults []struct {
		Title   string `json:"title"`
		Snippet string `json:"snippet"`
	} `json:"organic_results"`
	VideoResults []struct {
		Title string `json:"title"`
		Link  string `json:"link"`
	} `json:"video_results"`
	InlineVideos []struct {
		Title string `json:"title"`
		Link  string `json:"link"`
	} `json:"inline_videos"`
}

// AnalyzeEntityGaps extracts recurring capitalized entities from the top
// organic results for the keyword. Entities appearing in more than one
// competing result are gap candidates.
func (s *Service) AnalyzeEntityGaps(ctx context.Context, keyword string) ([]string, error) {
	resp, err := s.query(ctx, keyword, "")
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, result := range resp.OrganicResults {
		seen := make(map[string]bool)
		for _, entity := range extractEntities(result.Title + ". " + result.Snippet) {
			if !seen[entity] {
				seen[entity] = true
				counts[entity]++
			}
		}
	}

	var gaps []string
	for entity, count := range counts {
		if count >= 2 && !strings.EqualFold(entity, keyword) {
			gaps = append(gaps, entity)
		}
	}
	sort.Slice(gaps, func(i, j int) bool {
		if counts[gaps[i]] != counts[gaps[j]] {
			return counts[gaps[i]] > counts[gaps[j]]
		}
		return gaps[i] < gaps[j]
	})
	if len(gaps) > maxEntityGaps {
		gaps = gaps[:maxEntityGaps]
	}

	s.logger.Debug().
		Str("keyword", keyword).
		Int("gaps", len(gaps)).
		Msg("Entity gap analysis completed")
	return gaps, nil
}

// DiscoverVideos finds videos relevant to the keyword
func (s *Service) DiscoverVideos(ctx context.Context, keyword string) ([]interfaces.VideoReference, error) {
	resp, err := s.query(ctx, keyword, "videos")
	if err != nil {
		return nil, err
	}

	var videos []interfaces.VideoReference
	appendVideo := func(title, link string) {
		if title == "" || link == "" || len(videos) >= maxVideos {
			return
		}
		videos = append(videos, interfaces.VideoReference{Title: title, URL: link})
	}
	for _, v := range resp.VideoResults {
		appendVideo(v.Title, v.Link)
	}
	for _, v := range resp.InlineVideos {
		appendVideo(v.Title, v.Link)
	}

	return videos, nil
}

func (s *Service) query(ctx context.Context, keyword, searchType string) (*serpResponse, error) {
	params := url.Values{}
	params.Set("q", keyword)
	params.Set("api_key", s.apiKey)
	if searchType != "" {
		params.Set("tbm", searchType)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return nil, fmt.Errorf("search returned %d: %s", resp.StatusCode, string(body))
	}

	var parsed serpResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}
	return &parsed, nil
}

// leadingStopwords are capitalized sentence openers that never start a
// genuine entity phrase
var leadingStopwords = map[string]bool{
	"the": true, "a": true, "an": true, "this": true, "these": true,
	"why": true, "how": true, "what": true, "when": true, "where": true,
	"is": true, "are": true, "it": true, "in": true, "on": true, "for": true,
}

// extractEntities pulls multi-word capitalized phrases from text
func extractEntities(text string) []string {
	var entities []string
	var current []string

	flush := func() {
		if len(current) >= 2 {
			entities = append(entities, strings.Join(current, " "))
		}
		current = nil
	}

	for _, word := range strings.Fields(text) {
		cleaned := strings.Trim(word, ".,!?:;()\"'")
		if cleaned != "" && isCapitalized(cleaned) {
			if len(current) == 0 && leadingStopwords[strings.ToLower(cleaned)] {
				continue
			}
			current = append(current, cleaned)
			continue
		}
		flush()
	}
	flush()

	return entities
}

func isCapitalized(word string) bool {
	r := rune(word[0])
	return r >= 'A' && r <= 'Z'
}
