package nlp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribo/internal/common"
	"github.com/ternarybob/scribo/internal/interfaces"
)

const maxTerms = 30

// Service implements term analysis against an external content-intelligence
// API. For a keyword it returns the terms competitive content uses and a
// suggested word count. Failures are soft warnings upstream.
type Service struct {
	apiKey     string
	project    string
	endpoint   string
	httpClient *http.Client
	logger     arbor.ILogger
}

// NewService creates an NLP service from the configuration
func NewService(cfg *common.Config, logger arbor.ILogger) *Service {
	return &Service{
		apiKey:     cfg.NLP.APIKey,
		project:    cfg.NLP.Project,
		endpoint:   cfg.NLP.Endpoint,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

type analysisRequest struct {
	Project string `json:"project"`
	Keyword string `json:"keyword"`
}

type analysisResponse struct {
	Terms []struct {
		Term   string  `json:"term"`
		Weight float64 `json:"weight"`
	} `json:"terms"`
	Metrics struct {
		TargetWordCount int `json:"target_word_count"`
	} `json:"metrics"`
}

// AnalyzeTerms queries the API for the keyword's term profile
func (s *Service) AnalyzeTerms(ctx context.Context, keyword string) (*interfaces.TermAnalysis, error) {
	if s.endpoint == "" {
		return nil, fmt.Errorf("NLP endpoint not configured")
	}

	body, err := json.Marshal(analysisRequest{Project: s.project, Keyword: keyword})
	if err != nil {
		return nil, fmt.Errorf("failed to encode analysis request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build analysis request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("analysis request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return nil, fmt.Errorf("analysis returned %d: %s", resp.StatusCode, string(data))
	}

	var parsed analysisResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to parse analysis response: %w", err)
	}

	terms := make([]string, 0, len(parsed.Terms))
	for _, t := range parsed.Terms {
		if t.Term == "" {
			continue
		}
		terms = append(terms, t.Term)
		if len(terms) == maxTerms {
			break
		}
	}

	s.logger.Debug().
		Str("keyword", keyword).
		Int("terms", len(terms)).
		Int("target_words", parsed.Metrics.TargetWordCount).
		Msg("Term analysis completed")

	return &interfaces.TermAnalysis{
		Terms:      terms,
		TargetSize: parsed.Metrics.TargetWordCount,
	}, nil
}
