package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/caresync/internal/adapters/driven/ratelimit"
	"github.com/custodia-labs/caresync/internal/core/domain"
	"github.com/custodia-labs/caresync/internal/core/ports/driven"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *LLMService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	svc, err := NewLLMService(LLMConfig{
		APIKey:  "sk-test",
		BaseURL: server.URL,
		Model:   "gpt-3.5-turbo",
		Limiter: ratelimit.New(ratelimit.Config{RequestsPerSecond: 1000, BurstSize: 100}),
	})
	require.NoError(t, err)
	return svc
}

func TestNewLLMService(t *testing.T) {
	svc, err := NewLLMService(LLMConfig{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, DefaultLLMModel, svc.ModelName())
	assert.Equal(t, DefaultBaseURL, svc.baseURL)
	assert.NoError(t, svc.Close())

	_, err = NewLLMService(LLMConfig{})
	assert.ErrorIs(t, err, domain.ErrConfig)
}

func TestGenerate(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req chatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-3.5-turbo", req.Model)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)
		assert.Equal(t, "What are the hours?", req.Messages[0].Content)
		assert.InDelta(t, 0.3, req.Temperature, 1e-9)
		assert.Equal(t, 256, req.MaxTokens)

		w.Write([]byte(`{"choices":[{"message":{"content":"8am to 5pm."},"finish_reason":"stop"}]}`))
	})

	got, err := svc.Generate(context.Background(), "What are the hours?", driven.GenerateOptions{
		Temperature: 0.3,
		MaxTokens:   256,
	})
	require.NoError(t, err)
	assert.Equal(t, "8am to 5pm.", got)
}

func TestGenerate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"api error", http.StatusUnauthorized, `{"error":{"message":"invalid api key"}}`, "invalid api key"},
		{"no choices", http.StatusOK, `{"choices":[]}`, "no response choices"},
		{"html error page", http.StatusServiceUnavailable, `<html>down</html>`, "status 503"},
		{"bad json", http.StatusOK, `{"choices":`, "decode response"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			})

			_, err := svc.Generate(context.Background(), "q", driven.GenerateOptions{})
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrGeneration)
			assert.Contains(t, err.Error(), tc.message)
		})
	}
}

func TestGenerate_RateLimited(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "60")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	})

	_, err := svc.Generate(context.Background(), "q", driven.GenerateOptions{})
	assert.ErrorIs(t, err, domain.ErrGeneration)
	assert.False(t, svc.limiter.Allow())
}

func TestGenerate_ContextCancelled(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"content":"late"}}]}`))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Generate(ctx, "q", driven.GenerateOptions{})
	assert.ErrorIs(t, err, domain.ErrGeneration)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPing(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models", r.URL.Path)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"bad key"}`))
	})

	err := svc.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}
