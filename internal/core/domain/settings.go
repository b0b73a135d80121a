package domain

import "fmt"

const unknownDescription = "Unknown"

// AIProvider represents an AI service provider.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama uses a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI uses the OpenAI API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderOpenRouter uses the OpenAI-compatible OpenRouter API.
	AIProviderOpenRouter AIProvider = "openrouter"

	// AIProviderAnthropic uses the Anthropic API (LLM only).
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderOpenRouter, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if the provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderOpenRouter || p == AIProviderAnthropic
}

// SupportsEmbeddings returns true if the provider offers an embeddings endpoint.
func (p AIProvider) SupportsEmbeddings() bool {
	return p == AIProviderOllama || p == AIProviderOpenAI || p == AIProviderOpenRouter
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local, free)"
	case AIProviderOpenAI:
		return "OpenAI (cloud, requires API key)"
	case AIProviderOpenRouter:
		return "OpenRouter (cloud, OpenAI-compatible, requires API key)"
	case AIProviderAnthropic:
		return "Anthropic (cloud, requires API key)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint. Empty uses the provider default.
	BaseURL string

	// APIKey is the API key for cloud providers.
	APIKey string

	// BatchSize caps how many texts are sent per EmbedBatch request.
	BatchSize int
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() || !e.Provider.SupportsEmbeddings() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint. Empty uses the provider default.
	BaseURL string

	// APIKey is the API key for cloud providers.
	APIKey string

	// Temperature is the sampling temperature for answers.
	Temperature float64

	// MaxTokens caps the answer length. Zero leaves it to the provider.
	MaxTokens int
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// IndexBackend selects the vector index implementation.
type IndexBackend string

// Available vector index backends.
const (
	// IndexBackendFlat is an append-only exhaustive L2 index persisted as flat files.
	IndexBackendFlat IndexBackend = "flat"

	// IndexBackendSQLite is a cosine index persisted in SQLite that supports deletes.
	IndexBackendSQLite IndexBackend = "sqlite"
)

// IsValid returns true if the backend is recognised.
func (b IndexBackend) IsValid() bool {
	return b == IndexBackendFlat || b == IndexBackendSQLite
}

// String returns the string representation.
func (b IndexBackend) String() string {
	return string(b)
}

// Description returns a human-readable description of the backend.
func (b IndexBackend) Description() string {
	switch b {
	case IndexBackendFlat:
		return "Flat (append-only, L2 distance)"
	case IndexBackendSQLite:
		return "SQLite (cosine distance, supports delete)"
	default:
		return unknownDescription
	}
}

// VectorIndexSettings holds vector index configuration.
type VectorIndexSettings struct {
	// Backend selects the index implementation.
	Backend IndexBackend

	// Path is the index directory.
	Path string

	// Dimensions is the embedding vector size. Zero means use the
	// embedding service's dimension.
	Dimensions int
}

// ChunkerSettings holds text splitting configuration.
type ChunkerSettings struct {
	Size    int
	Overlap int
}

// Validate reports ErrConfig when the overlap would stop the window advancing.
func (c ChunkerSettings) Validate() error {
	if c.Size <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", ErrConfig, c.Size)
	}
	if c.Overlap < 0 {
		return fmt.Errorf("%w: chunk overlap must not be negative, got %d", ErrConfig, c.Overlap)
	}
	if c.Overlap >= c.Size {
		return fmt.Errorf("%w: chunk overlap (%d) must be smaller than chunk size (%d)",
			ErrConfig, c.Overlap, c.Size)
	}
	return nil
}

// DocumentSettings holds upload storage configuration.
type DocumentSettings struct {
	// Path is the blob directory for original uploads.
	Path string

	// MaxSizeBytes rejects larger uploads.
	MaxSizeBytes int64
}

// RetrievalSettings holds question-time retrieval configuration.
type RetrievalSettings struct {
	TopK int
}

// LogSettings holds logging configuration.
type LogSettings struct {
	// File, when set, receives a rotated copy of all log output.
	File string
}

// AppSettings holds all application settings.
type AppSettings struct {
	Embedding   EmbeddingSettings
	LLM         LLMSettings
	VectorIndex VectorIndexSettings
	Chunker     ChunkerSettings
	Documents   DocumentSettings
	Retrieval   RetrievalSettings
	Log         LogSettings
}

// Default values for application settings.
const (
	DefaultChunkSize      = 1000
	DefaultChunkOverlap   = 200
	DefaultTopK           = 3
	DefaultMaxUploadBytes = 10 * 1024 * 1024
	DefaultEmbedBatchSize = 64
	DefaultTemperature    = 0.3
)

// DefaultAppSettings returns settings with sensible defaults.
// Paths are left empty and resolved relative to the data directory by the
// settings service.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider:  AIProviderOllama,
			Model:     DefaultEmbeddingModels()[AIProviderOllama],
			BatchSize: DefaultEmbedBatchSize,
		},
		LLM: LLMSettings{
			Provider:    AIProviderOpenAI,
			Model:       DefaultLLMModels()[AIProviderOpenAI],
			Temperature: DefaultTemperature,
		},
		VectorIndex: VectorIndexSettings{
			Backend: IndexBackendFlat,
		},
		Chunker: ChunkerSettings{
			Size:    DefaultChunkSize,
			Overlap: DefaultChunkOverlap,
		},
		Documents: DocumentSettings{
			MaxSizeBytes: DefaultMaxUploadBytes,
		},
		Retrieval: RetrievalSettings{
			TopK: DefaultTopK,
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{AIProviderOllama, AIProviderOpenAI, AIProviderOpenRouter}
}

// AllLLMProviders returns providers that support LLM.
func AllLLMProviders() []AIProvider {
	return []AIProvider{AIProviderOllama, AIProviderOpenAI, AIProviderOpenRouter, AIProviderAnthropic}
}

// AllIndexBackends returns the available vector index backends.
func AllIndexBackends() []IndexBackend {
	return []IndexBackend{IndexBackendFlat, IndexBackendSQLite}
}

// DefaultEmbeddingModels returns default embedding models per provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:     "nomic-embed-text",
		AIProviderOpenAI:     "text-embedding-3-small",
		AIProviderOpenRouter: "openai/text-embedding-3-small",
	}
}

// DefaultLLMModels returns default LLM models per provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:     "llama3.2",
		AIProviderOpenAI:     "gpt-3.5-turbo",
		AIProviderOpenRouter: "openai/gpt-3.5-turbo",
		AIProviderAnthropic:  "claude-3-5-haiku-latest",
	}
}

// EmbeddingDimensions returns known embedding dimensions per model.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		"nomic-embed-text":              768,
		"mxbai-embed-large":             1024,
		"all-minilm":                    384,
		"text-embedding-3-small":        1536,
		"text-embedding-3-large":        3072,
		"text-embedding-ada-002":        1536,
		"openai/text-embedding-3-small": 1536,
	}
}
