package synthesis

import "context"

// TextGenerator is the minimal LLM surface the synthesis engine needs.
// Implementations wrap one provider SDK and apply provider-side limits.
type TextGenerator interface {
	// Generate produces a completion for the prompt under the system
	// instruction. Implementations respect ctx cancellation.
	Generate(ctx context.Context, system, prompt string) (string, error)

	// Name identifies the provider for logging
	Name() string

	// Close releases provider resources
	Close() error
}
