// Package ai provides factory functions for creating AI service adapters
// and the vector index that depends on their embedding dimension.
package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/caresync/internal/adapters/driven/embedding/cached"
	ollamaembed "github.com/custodia-labs/caresync/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/caresync/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/caresync/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/caresync/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/caresync/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/caresync/internal/adapters/driven/ratelimit"
	"github.com/custodia-labs/caresync/internal/adapters/driven/vectorindex"
	"github.com/custodia-labs/caresync/internal/core/domain"
	"github.com/custodia-labs/caresync/internal/core/ports/driven"
	"github.com/custodia-labs/caresync/internal/logger"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// InitResult contains the AI-backed services for one process.
type InitResult struct {
	EmbeddingService driven.EmbeddingService
	LLMService       driven.LLMService // Nil when no LLM is configured.
	VectorIndex      driven.VectorIndex
	Warnings         []string // Non-fatal issues, e.g. missing LLM.
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.EmbeddingService != nil {
		r.EmbeddingService.Close()
	}
	if r.VectorIndex != nil {
		r.VectorIndex.Close()
	}
	if r.LLMService != nil {
		r.LLMService.Close()
	}
}

// Initialize builds the embedding service, the optional LLM service and the
// vector index. No network calls are made; providers are reached lazily.
// A missing LLM is reported as a warning because ingestion and search work
// without one.
func Initialize(settings *domain.AppSettings) (*InitResult, error) {
	logger.Section("AI Initialization")

	embedder, err := CreateEmbeddingService(&settings.Embedding)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	if embedder == nil {
		return nil, fmt.Errorf("%w: provider %q is not configured", domain.ErrEmbeddingUnavailable, settings.Embedding.Provider)
	}
	embedder = cached.New(embedder)
	logger.Debug("embedding: %s %s (dim %d)", settings.Embedding.Provider, embedder.ModelName(), embedder.Dimensions())

	result := &InitResult{EmbeddingService: embedder}

	llm, err := CreateLLMService(&settings.LLM)
	switch {
	case err != nil:
		result.Warnings = append(result.Warnings, fmt.Sprintf("LLM unavailable: %v", err))
	case llm == nil:
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("LLM provider %q is not configured; set an API key with 'caresync config set-key'", settings.LLM.Provider))
	default:
		result.LLMService = llm
		logger.Debug("llm: %s %s", settings.LLM.Provider, llm.ModelName())
	}

	idx, err := vectorindex.Open(settings.VectorIndex, embedder.Dimensions())
	if err != nil {
		result.Close()
		return nil, err
	}
	result.VectorIndex = idx
	logger.Debug("vector index: %s at %s (%d entries)", settings.VectorIndex.Backend, settings.VectorIndex.Path, idx.Len())

	for _, w := range result.Warnings {
		logger.Warn("%s", w)
	}
	return result, nil
}

// CreateAndValidateEmbeddingService creates an embedding service and validates connectivity.
func CreateAndValidateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'caresync config show' to check settings",
			domain.ErrEmbeddingUnavailable, err)
	}
	if svc == nil {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w)", domain.ErrEmbeddingUnavailable, err)
	}
	return svc, nil
}

// CreateAndValidateLLMService creates an LLM service and validates connectivity.
func CreateAndValidateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	svc, err := CreateLLMService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'caresync config show' to check settings",
			domain.ErrLLMUnavailable, err)
	}
	if svc == nil {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w)", domain.ErrLLMUnavailable, err)
	}
	return svc, nil
}

// ValidateEmbeddingConfig creates an embedding service and pings it.
// Unconfigured settings are not an error.
func ValidateEmbeddingConfig(settings *domain.EmbeddingSettings) error {
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return err
	}
	if svc == nil {
		return nil
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}

// ValidateLLMConfig creates an LLM service and pings it.
// Unconfigured settings are not an error.
func ValidateLLMConfig(settings *domain.LLMSettings) error {
	svc, err := CreateLLMService(settings)
	if err != nil {
		return err
	}
	if svc == nil {
		return nil
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}

// CreateEmbeddingService creates the embedding service for settings.
// Returns nil if the provider is not configured.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil {
		return nil, nil
	}
	if settings.Provider.IsValid() && !settings.Provider.SupportsEmbeddings() {
		return nil, fmt.Errorf("%s does not support embeddings, use ollama, openai or openrouter", settings.Provider)
	}
	if !settings.IsConfigured() {
		return nil, nil
	}

	limiter := ratelimit.ForProvider(settings.Provider)

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Limiter: limiter,
		}), nil

	case domain.AIProviderOpenAI, domain.AIProviderOpenRouter:
		baseURL := settings.BaseURL
		if baseURL == "" && settings.Provider == domain.AIProviderOpenRouter {
			baseURL = openaillm.OpenRouterBaseURL
		}
		svc, err := openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:  settings.APIKey,
			BaseURL: baseURL,
			Model:   settings.Model,
			Limiter: limiter,
		})
		if err != nil {
			return nil, err
		}
		return svc, nil

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
}

// CreateLLMService creates the LLM service for settings.
// Returns nil if the provider is not configured.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	limiter := ratelimit.ForProvider(settings.Provider)

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Limiter: limiter,
		}), nil

	case domain.AIProviderOpenAI, domain.AIProviderOpenRouter:
		baseURL := settings.BaseURL
		if baseURL == "" && settings.Provider == domain.AIProviderOpenRouter {
			baseURL = openaillm.OpenRouterBaseURL
		}
		svc, err := openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: baseURL,
			Model:   settings.Model,
			Limiter: limiter,
		})
		if err != nil {
			return nil, err
		}
		return svc, nil

	case domain.AIProviderAnthropic:
		svc, err := anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Limiter: limiter,
		})
		if err != nil {
			return nil, err
		}
		return svc, nil

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
}
