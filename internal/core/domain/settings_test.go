package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAIProvider_IsValid(t *testing.T) {
	for _, p := range AllLLMProviders() {
		assert.True(t, p.IsValid(), p)
		assert.NotEqual(t, unknownDescription, p.Description())
	}
	assert.False(t, AIProvider("").IsValid())
	assert.False(t, AIProvider("gemini").IsValid())
	assert.Equal(t, unknownDescription, AIProvider("gemini").Description())
}

func TestAIProvider_RequiresAPIKey(t *testing.T) {
	assert.False(t, AIProviderOllama.RequiresAPIKey())
	assert.True(t, AIProviderOpenAI.RequiresAPIKey())
	assert.True(t, AIProviderOpenRouter.RequiresAPIKey())
	assert.True(t, AIProviderAnthropic.RequiresAPIKey())
}

func TestEmbeddingSettings_IsConfigured(t *testing.T) {
	tests := []struct {
		name     string
		settings EmbeddingSettings
		expected bool
	}{
		{"ollama without key", EmbeddingSettings{Provider: AIProviderOllama}, true},
		{"openai without key", EmbeddingSettings{Provider: AIProviderOpenAI}, false},
		{"openai with key", EmbeddingSettings{Provider: AIProviderOpenAI, APIKey: "sk"}, true},
		{"anthropic has no embeddings", EmbeddingSettings{Provider: AIProviderAnthropic, APIKey: "k"}, false},
		{"empty provider", EmbeddingSettings{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.settings.IsConfigured())
		})
	}
}

func TestLLMSettings_IsConfigured(t *testing.T) {
	assert.True(t, LLMSettings{Provider: AIProviderOllama}.IsConfigured())
	assert.False(t, LLMSettings{Provider: AIProviderAnthropic}.IsConfigured())
	assert.True(t, LLMSettings{Provider: AIProviderAnthropic, APIKey: "k"}.IsConfigured())
}

func TestIndexBackend(t *testing.T) {
	for _, b := range AllIndexBackends() {
		assert.True(t, b.IsValid())
		assert.NotEqual(t, unknownDescription, b.Description())
	}
	assert.False(t, IndexBackend("faiss").IsValid())
}

func TestChunkerSettings_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ChunkerSettings
		wantErr bool
	}{
		{"defaults", ChunkerSettings{Size: 1000, Overlap: 200}, false},
		{"zero overlap", ChunkerSettings{Size: 10, Overlap: 0}, false},
		{"overlap equals size", ChunkerSettings{Size: 100, Overlap: 100}, true},
		{"overlap exceeds size", ChunkerSettings{Size: 100, Overlap: 150}, true},
		{"negative overlap", ChunkerSettings{Size: 100, Overlap: -1}, true},
		{"zero size", ChunkerSettings{Size: 0, Overlap: 0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrConfig)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestDefaultAppSettings(t *testing.T) {
	s := DefaultAppSettings()

	assert.Equal(t, 1000, s.Chunker.Size)
	assert.Equal(t, 200, s.Chunker.Overlap)
	assert.Equal(t, 3, s.Retrieval.TopK)
	assert.Equal(t, int64(10*1024*1024), s.Documents.MaxSizeBytes)
	assert.Equal(t, IndexBackendFlat, s.VectorIndex.Backend)
	assert.Equal(t, AIProviderOpenAI, s.LLM.Provider)
	assert.Equal(t, "gpt-3.5-turbo", s.LLM.Model)
	assert.InDelta(t, 0.3, s.LLM.Temperature, 1e-9)
	assert.Equal(t, 768, EmbeddingDimensions()[s.Embedding.Model])
	assert.NoError(t, s.Chunker.Validate())
}
