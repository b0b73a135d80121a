package driven

import "context"

// LLMService completes the rendered answer prompts.
//
// Backends are selected by llm.provider: openai (also OpenRouter through
// llm.base_url), anthropic and ollama. A nil LLMService means no provider is
// configured; the answer generator then fails with domain.ErrLLMUnavailable.
type LLMService interface {
	// Generate returns the model's completion of prompt. Upstream failures
	// wrap domain.ErrGeneration and are not retried.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// ModelName reports the model answers are generated with.
	ModelName() string

	// Ping checks the provider is reachable and the key is accepted.
	Ping(ctx context.Context) error

	Close() error
}

// GenerateOptions carries the llm.* sampling settings into a request.
// Zero values leave the provider default in place.
type GenerateOptions struct {
	// MaxTokens caps the answer length (llm.max_tokens).
	MaxTokens int

	// Temperature is llm.temperature, 0.3 by default to keep answers close
	// to the retrieved passages.
	Temperature float64

	// StopWords end generation when the model emits one.
	StopWords []string
}
