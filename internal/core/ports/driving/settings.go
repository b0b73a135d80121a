package driving

import "github.com/custodia-labs/caresync/internal/core/domain"

// SettingsService resolves application settings from defaults, the config
// file and the environment.
type SettingsService interface {
	// Get returns the effective settings. Environment values override the
	// config file, which overrides built-in defaults.
	Get() (*domain.AppSettings, error)

	// Set persists a single config file value.
	Set(key string, value any) error

	// Validate checks the effective settings for invalid combinations.
	Validate() error

	// ValidateEmbeddingConfig pings the configured embedding provider.
	ValidateEmbeddingConfig() error

	// ValidateLLMConfig pings the configured LLM provider.
	ValidateLLMConfig() error
}
