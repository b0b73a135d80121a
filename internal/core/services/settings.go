package services

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/custodia-labs/caresync/internal/core/domain"
	"github.com/custodia-labs/caresync/internal/core/ports/driven"
	"github.com/custodia-labs/caresync/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	KeyEmbedProvider  = "embedding.provider"
	KeyEmbedModel     = "embedding.model"
	KeyEmbedBaseURL   = "embedding.base_url"
	KeyEmbedAPIKey    = "embedding.api_key"
	KeyEmbedBatchSize = "embedding.batch_size"
	KeyLLMProvider    = "llm.provider"
	KeyLLMModel       = "llm.model"
	KeyLLMBaseURL     = "llm.base_url"
	KeyLLMAPIKey      = "llm.api_key"
	KeyLLMTemperature = "llm.temperature"
	KeyLLMMaxTokens   = "llm.max_tokens"
	KeyVectorBackend  = "vector_index.backend"
	KeyVectorPath     = "vector_index.path"
	KeyVectorDims     = "vector_index.dimensions"
	KeyDocumentsPath  = "documents.path"
	KeyDocumentsMax   = "documents.max_size_bytes"
	KeyChunkSize      = "chunker.size"
	KeyChunkOverlap   = "chunker.overlap"
	KeyRetrievalTopK  = "retrieval.top_k"
	KeyLogFile        = "log.file"
)

const (
	defaultDataSubdir  = "data"
	defaultIndexSubdir = "vector_store"
	defaultDocsSubdir  = "documents"
	maxTemperature     = 2.0
	secretMask         = "********"
	secretVisibleChars = 4
)

// keyKind describes how a string value for a key is parsed.
type keyKind int

const (
	kindString keyKind = iota
	kindInt
	kindFloat
)

// knownKeys lists every settable key and its value kind.
var knownKeys = map[string]keyKind{
	KeyEmbedProvider:  kindString,
	KeyEmbedModel:     kindString,
	KeyEmbedBaseURL:   kindString,
	KeyEmbedAPIKey:    kindString,
	KeyEmbedBatchSize: kindInt,
	KeyLLMProvider:    kindString,
	KeyLLMModel:       kindString,
	KeyLLMBaseURL:     kindString,
	KeyLLMAPIKey:      kindString,
	KeyLLMTemperature: kindFloat,
	KeyLLMMaxTokens:   kindInt,
	KeyVectorBackend:  kindString,
	KeyVectorPath:     kindString,
	KeyVectorDims:     kindInt,
	KeyDocumentsPath:  kindString,
	KeyDocumentsMax:   kindInt,
	KeyChunkSize:      kindInt,
	KeyChunkOverlap:   kindInt,
	KeyRetrievalTopK:  kindInt,
	KeyLogFile:        kindString,
}

// Environment variables that override the config file.
//
//nolint:gosec // G101: These are variable names, not credentials.
const (
	EnvEmbedProvider = "EMBEDDING_PROVIDER"
	EnvEmbedModel    = "EMBEDDING_MODEL"
	EnvEmbedBaseURL  = "EMBEDDING_BASE_URL"
	EnvLLMProvider   = "LLM_PROVIDER"
	EnvLLMModel      = "LLM_MODEL"
	EnvLLMBaseURL    = "LLM_BASE_URL"
	EnvOpenAIKey     = "OPENAI_API_KEY"
	EnvOpenRouterKey = "OPENROUTER_API_KEY"
	EnvAnthropicKey  = "ANTHROPIC_API_KEY"
	EnvVectorBackend = "VECTOR_STORE_BACKEND"
	EnvVectorPath    = "VECTOR_STORE_PATH"
	EnvDocumentsPath = "DOCUMENT_STORE_PATH"
	EnvChunkSize     = "CHUNK_SIZE"
	EnvChunkOverlap  = "CHUNK_OVERLAP"
	EnvTopK          = "TOP_K"
	EnvLogFile       = "CARESYNC_LOG_FILE"
)

// apiKeyEnv maps providers to the environment variable holding their key.
var apiKeyEnv = map[domain.AIProvider]string{
	domain.AIProviderOpenAI:     EnvOpenAIKey,
	domain.AIProviderOpenRouter: EnvOpenRouterKey,
	domain.AIProviderAnthropic:  EnvAnthropicKey,
}

// SettingsService resolves settings from defaults, the config store and the
// environment, in increasing precedence.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	dataDir     string
	lookupEnv   func(string) (string, bool)
}

// NewSettingsService creates a new settings service. dataDir anchors the
// default index and document paths.
func NewSettingsService(
	configStore driven.ConfigStore, aiValidator driven.AIConfigValidator, dataDir string,
) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		dataDir:     dataDir,
		lookupEnv:   os.LookupEnv,
	}
}

// SetEnvLookup replaces the environment source. Useful for testing.
func (s *SettingsService) SetEnvLookup(lookup func(string) (string, bool)) {
	s.lookupEnv = lookup
}

// DataDir returns the directory default paths are resolved against.
func (s *SettingsService) DataDir() string {
	return s.dataDir
}

// Get returns the effective settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	settings := domain.DefaultAppSettings()
	settings.VectorIndex.Path = filepath.Join(s.dataDir, defaultIndexSubdir)
	settings.Documents.Path = filepath.Join(s.dataDir, defaultDocsSubdir)

	s.applyConfig(&settings)
	if err := s.applyEnv(&settings); err != nil {
		return nil, err
	}

	// Models follow the provider unless set explicitly.
	if settings.Embedding.Model == "" {
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[settings.Embedding.Provider]
	}
	if settings.LLM.Model == "" {
		settings.LLM.Model = domain.DefaultLLMModels()[settings.LLM.Provider]
	}

	settings.VectorIndex.Path = expandHome(settings.VectorIndex.Path)
	settings.Documents.Path = expandHome(settings.Documents.Path)
	settings.Log.File = expandHome(settings.Log.File)

	return &settings, nil
}

// applyConfig overlays config store values. Missing or invalid values keep
// the current setting.
func (s *SettingsService) applyConfig(st *domain.AppSettings) {
	if p := domain.AIProvider(s.configStore.GetString(KeyEmbedProvider)); p.IsValid() {
		if p != st.Embedding.Provider {
			st.Embedding.Model = ""
		}
		st.Embedding.Provider = p
	}
	s.overlayString(KeyEmbedModel, &st.Embedding.Model)
	s.overlayString(KeyEmbedBaseURL, &st.Embedding.BaseURL)
	s.overlayString(KeyEmbedAPIKey, &st.Embedding.APIKey)
	s.overlayInt(KeyEmbedBatchSize, &st.Embedding.BatchSize)

	if p := domain.AIProvider(s.configStore.GetString(KeyLLMProvider)); p.IsValid() {
		if p != st.LLM.Provider {
			st.LLM.Model = ""
		}
		st.LLM.Provider = p
	}
	s.overlayString(KeyLLMModel, &st.LLM.Model)
	s.overlayString(KeyLLMBaseURL, &st.LLM.BaseURL)
	s.overlayString(KeyLLMAPIKey, &st.LLM.APIKey)
	if _, ok := s.configStore.Get(KeyLLMTemperature); ok {
		st.LLM.Temperature = s.configStore.GetFloat(KeyLLMTemperature)
	}
	s.overlayInt(KeyLLMMaxTokens, &st.LLM.MaxTokens)

	if b := domain.IndexBackend(s.configStore.GetString(KeyVectorBackend)); b.IsValid() {
		st.VectorIndex.Backend = b
	}
	s.overlayString(KeyVectorPath, &st.VectorIndex.Path)
	s.overlayInt(KeyVectorDims, &st.VectorIndex.Dimensions)

	s.overlayString(KeyDocumentsPath, &st.Documents.Path)
	if v := s.configStore.GetInt(KeyDocumentsMax); v > 0 {
		st.Documents.MaxSizeBytes = int64(v)
	}

	s.overlayInt(KeyChunkSize, &st.Chunker.Size)
	if _, ok := s.configStore.Get(KeyChunkOverlap); ok {
		st.Chunker.Overlap = s.configStore.GetInt(KeyChunkOverlap)
	}
	s.overlayInt(KeyRetrievalTopK, &st.Retrieval.TopK)
	s.overlayString(KeyLogFile, &st.Log.File)
}

func (s *SettingsService) overlayString(key string, dst *string) {
	if v := s.configStore.GetString(key); v != "" {
		*dst = v
	}
}

func (s *SettingsService) overlayInt(key string, dst *int) {
	if v := s.configStore.GetInt(key); v != 0 {
		*dst = v
	}
}

// applyEnv overlays environment variables. Unparseable numbers and unknown
// providers are configuration errors rather than silent fallbacks.
func (s *SettingsService) applyEnv(st *domain.AppSettings) error {
	if v, ok := s.env(EnvEmbedProvider); ok {
		p := domain.AIProvider(strings.ToLower(v))
		if !p.IsValid() {
			return fmt.Errorf("%w: %s=%q is not a known provider", domain.ErrConfig, EnvEmbedProvider, v)
		}
		if p != st.Embedding.Provider {
			st.Embedding.Model = ""
		}
		st.Embedding.Provider = p
	}
	if v, ok := s.env(EnvEmbedModel); ok {
		st.Embedding.Model = v
	}
	if v, ok := s.env(EnvEmbedBaseURL); ok {
		st.Embedding.BaseURL = v
	}

	if v, ok := s.env(EnvLLMProvider); ok {
		p := domain.AIProvider(strings.ToLower(v))
		if !p.IsValid() {
			return fmt.Errorf("%w: %s=%q is not a known provider", domain.ErrConfig, EnvLLMProvider, v)
		}
		if p != st.LLM.Provider {
			st.LLM.Model = ""
		}
		st.LLM.Provider = p
	}
	if v, ok := s.env(EnvLLMModel); ok {
		st.LLM.Model = v
	}
	if v, ok := s.env(EnvLLMBaseURL); ok {
		st.LLM.BaseURL = v
	}

	if name, ok := apiKeyEnv[st.Embedding.Provider]; ok {
		if v, ok := s.env(name); ok {
			st.Embedding.APIKey = v
		}
	}
	if name, ok := apiKeyEnv[st.LLM.Provider]; ok {
		if v, ok := s.env(name); ok {
			st.LLM.APIKey = v
		}
	}

	if v, ok := s.env(EnvVectorBackend); ok {
		b := domain.IndexBackend(strings.ToLower(v))
		if !b.IsValid() {
			return fmt.Errorf("%w: %s=%q is not a known backend", domain.ErrConfig, EnvVectorBackend, v)
		}
		st.VectorIndex.Backend = b
	}
	if v, ok := s.env(EnvVectorPath); ok {
		st.VectorIndex.Path = v
	}
	if v, ok := s.env(EnvDocumentsPath); ok {
		st.Documents.Path = v
	}
	if v, ok := s.env(EnvLogFile); ok {
		st.Log.File = v
	}

	for _, e := range []struct {
		name string
		dst  *int
	}{
		{EnvChunkSize, &st.Chunker.Size},
		{EnvChunkOverlap, &st.Chunker.Overlap},
		{EnvTopK, &st.Retrieval.TopK},
	} {
		v, ok := s.env(e.name)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not an integer", domain.ErrConfig, e.name, v)
		}
		*e.dst = n
	}
	return nil
}

// env returns a non-empty trimmed environment value.
func (s *SettingsService) env(name string) (string, bool) {
	if s.lookupEnv == nil {
		return "", false
	}
	v, ok := s.lookupEnv(name)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

// Set persists a single config value. String values for numeric keys are
// parsed, so CLI input can be passed through unchanged.
func (s *SettingsService) Set(key string, value any) error {
	kind, ok := knownKeys[key]
	if !ok {
		return fmt.Errorf("%w: unknown config key %q (known keys: %s)",
			domain.ErrConfig, key, strings.Join(KnownKeys(), ", "))
	}

	parsed, err := parseValue(key, kind, value)
	if err != nil {
		return err
	}

	switch key {
	case KeyEmbedProvider:
		p := domain.AIProvider(parsed.(string))
		if !p.IsValid() || !p.SupportsEmbeddings() {
			return fmt.Errorf("%w: %q cannot provide embeddings (use %s)",
				domain.ErrConfig, p, joinProviders(domain.AllEmbeddingProviders()))
		}
	case KeyLLMProvider:
		p := domain.AIProvider(parsed.(string))
		if !p.IsValid() {
			return fmt.Errorf("%w: unknown LLM provider %q (use %s)",
				domain.ErrConfig, p, joinProviders(domain.AllLLMProviders()))
		}
	case KeyVectorBackend:
		if b := domain.IndexBackend(parsed.(string)); !b.IsValid() {
			return fmt.Errorf("%w: unknown vector index backend %q", domain.ErrConfig, b)
		}
	}

	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

func parseValue(key string, kind keyKind, value any) (any, error) {
	str, isString := value.(string)
	switch kind {
	case kindInt:
		switch v := value.(type) {
		case int:
			return v, nil
		case int64:
			return int(v), nil
		}
		if isString {
			n, err := strconv.Atoi(strings.TrimSpace(str))
			if err == nil {
				return n, nil
			}
		}
		return nil, fmt.Errorf("%w: %s must be an integer, got %v", domain.ErrConfig, key, value)
	case kindFloat:
		switch v := value.(type) {
		case float64:
			return v, nil
		case int:
			return float64(v), nil
		}
		if isString {
			f, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
			if err == nil {
				return f, nil
			}
		}
		return nil, fmt.Errorf("%w: %s must be a number, got %v", domain.ErrConfig, key, value)
	default:
		if !isString {
			return nil, fmt.Errorf("%w: %s must be a string, got %v", domain.ErrConfig, key, value)
		}
		return strings.TrimSpace(str), nil
	}
}

// Validate checks the effective settings for invalid combinations.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	var errs []error
	if err := settings.Chunker.Validate(); err != nil {
		errs = append(errs, err)
	}
	if !settings.Embedding.Provider.SupportsEmbeddings() {
		errs = append(errs, fmt.Errorf("%w: %s does not support embeddings", domain.ErrConfig, settings.Embedding.Provider))
	} else if !settings.Embedding.IsConfigured() {
		errs = append(errs, fmt.Errorf("%w: embedding provider %s requires an API key (%s)",
			domain.ErrConfig, settings.Embedding.Provider, apiKeyEnv[settings.Embedding.Provider]))
	}
	if settings.Embedding.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("%w: embedding batch size must be positive", domain.ErrConfig))
	}
	if t := settings.LLM.Temperature; t < 0 || t > maxTemperature {
		errs = append(errs, fmt.Errorf("%w: llm temperature must be between 0 and %.0f, got %g",
			domain.ErrConfig, maxTemperature, t))
	}
	if settings.VectorIndex.Dimensions < 0 {
		errs = append(errs, fmt.Errorf("%w: vector index dimensions must not be negative", domain.ErrConfig))
	}
	if settings.Retrieval.TopK <= 0 {
		errs = append(errs, fmt.Errorf("%w: retrieval top_k must be positive, got %d", domain.ErrConfig, settings.Retrieval.TopK))
	}
	if settings.Documents.MaxSizeBytes <= 0 {
		errs = append(errs, fmt.Errorf("%w: documents max size must be positive", domain.ErrConfig))
	}
	return errors.Join(errs...)
}

// ValidateEmbeddingConfig pings the configured embedding provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return fmt.Errorf("%w: AI validator not configured", domain.ErrConfig)
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig pings the configured LLM provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return fmt.Errorf("%w: AI validator not configured", domain.ErrConfig)
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// KnownKeys returns every settable config key in sorted order.
func KnownKeys() []string {
	keys := make([]string, 0, len(knownKeys))
	for k := range knownKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// APIKeyEnv returns the environment variable read for provider's API key.
func APIKeyEnv(provider domain.AIProvider) string {
	return apiKeyEnv[provider]
}

// MaskSecret hides all but the last few characters of a secret.
func MaskSecret(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= secretVisibleChars*2 {
		return secretMask
	}
	return secretMask + secret[len(secret)-secretVisibleChars:]
}

func joinProviders(providers []domain.AIProvider) string {
	names := make([]string, len(providers))
	for i, p := range providers {
		names[i] = p.String()
	}
	return strings.Join(names, ", ")
}

// expandHome replaces a leading ~ with the user's home directory.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// DefaultDataDir returns ~/.caresync/data, or a relative path when the home
// directory cannot be determined.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".caresync", defaultDataSubdir)
	}
	return filepath.Join(home, ".caresync", defaultDataSubdir)
}
