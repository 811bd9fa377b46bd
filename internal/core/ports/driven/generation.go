package driven

import "context"

// GenerationService produces natural-language answers conditioned on an
// assembled context.
//
// Implementations may include:
//   - OpenAI (GPT-4o family)
//   - Anthropic (Claude)
//   - Ollama (local models)
type GenerationService interface {
	// Generate produces a completion for the prompt.
	// Unreachable services return errors wrapping
	// domain.ErrGenerationUnavailable; deadline expiry wraps
	// domain.ErrGenerationTimeout.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// ModelName returns the name of the generation model being used.
	ModelName() string

	// Ping validates the service is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64
}
