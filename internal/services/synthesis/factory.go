package synthesis

import (
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribo/internal/common"
	"github.com/ternarybob/scribo/internal/interfaces"
	"golang.org/x/time/rate"
)

// NewSynthesisService creates the synthesis engine backed by the configured
// provider. The default provider is used when its key is present; otherwise
// the other provider is tried before giving up.
func NewSynthesisService(cfg *common.Config, logger arbor.ILogger) (interfaces.SynthesisService, error) {
	generator, err := newGenerator(cfg, logger)
	if err != nil {
		return nil, err
	}

	logger.Info().Str("provider", generator.Name()).Msg("Synthesis engine initialized")

	// One provider call per second smooths burst traffic across the
	// per-section drafting loop and concurrent bulk jobs.
	limiter := rate.NewLimiter(rate.Every(time.Second), 1)
	return NewEngine(generator, limiter, logger), nil
}

func newGenerator(cfg *common.Config, logger arbor.ILogger) (TextGenerator, error) {
	order := []common.LLMProvider{cfg.LLM.DefaultProvider}
	switch cfg.LLM.DefaultProvider {
	case common.LLMProviderGemini:
		order = append(order, common.LLMProviderClaude)
	default:
		order = []common.LLMProvider{common.LLMProviderClaude, common.LLMProviderGemini}
	}

	for _, provider := range order {
		switch provider {
		case common.LLMProviderClaude:
			if cfg.Claude.APIKey != "" {
				return NewClaudeGenerator(&cfg.Claude, logger)
			}
		case common.LLMProviderGemini:
			if cfg.Gemini.APIKey != "" {
				return NewGeminiGenerator(&cfg.Gemini, logger)
			}
		}
	}

	return nil, fmt.Errorf("no LLM provider configured: set claude.api_key or gemini.api_key")
}
