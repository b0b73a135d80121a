package services

import (
	"context"
	"errors"
	"sync"

	"github.com/custodia-labs/caresync/internal/core/domain"
	"github.com/custodia-labs/caresync/internal/core/ports/driven"
)

// mockEmbeddingService returns a fixed vector per text, or vectors[text] when set.
type mockEmbeddingService struct {
	mu         sync.Mutex
	dims       int
	vectors    map[string][]float32
	err        error
	embedCalls int
	batchCalls [][]string
}

func newMockEmbedding(dims int) *mockEmbeddingService {
	return &mockEmbeddingService{dims: dims, vectors: map[string][]float32{}}
}

func (m *mockEmbeddingService) vectorFor(text string) []float32 {
	if v, ok := m.vectors[text]; ok {
		return v
	}
	v := make([]float32, m.dims)
	for i := range v {
		v[i] = float32(len(text)%7+i) / 10
	}
	return v
}

func (m *mockEmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.embedCalls++
	if m.err != nil {
		return nil, m.err
	}
	return m.vectorFor(text), nil
}

func (m *mockEmbeddingService) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batchCalls = append(m.batchCalls, append([]string(nil), texts...))
	if m.err != nil {
		return nil, m.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = m.vectorFor(t)
	}
	return out, nil
}

func (m *mockEmbeddingService) Dimensions() int            { return m.dims }
func (m *mockEmbeddingService) ModelName() string          { return "mock-embed" }
func (m *mockEmbeddingService) Ping(context.Context) error { return nil }
func (m *mockEmbeddingService) Close() error               { return nil }

// mockVectorIndex records inserts and returns canned search results.
type mockVectorIndex struct {
	mu          sync.Mutex
	dims        int
	inserted    []domain.EmbeddedChunk
	results     []domain.SearchResult
	searchK     int
	searchErr   error
	insertErr   error
	deleteErr   error
	deleted     []string
	searchCalls int
}

func (m *mockVectorIndex) Insert(_ context.Context, entries []domain.EmbeddedChunk) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return 0, m.insertErr
	}
	m.inserted = append(m.inserted, entries...)
	return len(entries), nil
}

func (m *mockVectorIndex) Search(_ context.Context, _ []float32, k int) ([]domain.SearchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searchCalls++
	m.searchK = k
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if k < len(m.results) {
		return m.results[:k], nil
	}
	return m.results, nil
}

func (m *mockVectorIndex) Delete(_ context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, ids...)
	return nil
}

func (m *mockVectorIndex) Dimension() int { return m.dims }
func (m *mockVectorIndex) Len() int       { return len(m.inserted) }
func (m *mockVectorIndex) Close() error   { return nil }

// mockLLMService captures the last prompt and returns a canned answer.
type mockLLMService struct {
	response   string
	err        error
	lastPrompt string
	lastOpts   driven.GenerateOptions
	calls      int
}

func (m *mockLLMService) Generate(_ context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	m.calls++
	m.lastPrompt = prompt
	m.lastOpts = opts
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func (m *mockLLMService) ModelName() string          { return "mock-llm" }
func (m *mockLLMService) Ping(context.Context) error { return nil }
func (m *mockLLMService) Close() error               { return nil }

// mockPromptStore serves fixed templates.
type mockPromptStore struct {
	prompts map[string]string
	err     error
}

func newMockPromptStore() *mockPromptStore {
	return &mockPromptStore{prompts: map[string]string{
		driven.PromptAnswerWithContext:    "CTX:{{context}}|Q:{{question}}",
		driven.PromptAnswerWithoutContext: "NOCTX|Q:{{question}}",
	}}
}

func (m *mockPromptStore) Load(name string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	p, ok := m.prompts[name]
	if !ok {
		return "", errors.New("unknown prompt")
	}
	return p, nil
}

func (m *mockPromptStore) Reload() {}

// mockExtractor returns fixed text.
type mockExtractor struct {
	exts  []string
	text  string
	err   error
	calls int
}

func (m *mockExtractor) SupportedExtensions() []string { return m.exts }

func (m *mockExtractor) Extract(_ context.Context, _ *domain.RawDocument) (*domain.ExtractResult, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return &domain.ExtractResult{Text: m.text}, nil
}

// mockExtractorRegistry maps extensions to a single extractor.
type mockExtractorRegistry struct {
	extractor *mockExtractor
}

func (m *mockExtractorRegistry) Get(ext string) (driven.Extractor, error) {
	for _, e := range m.extractor.exts {
		if e == ext {
			return m.extractor, nil
		}
	}
	return nil, &domain.UnsupportedFormatError{Extension: ext}
}

func (m *mockExtractorRegistry) Extensions() []string { return m.extractor.exts }

// mockBlobStore keeps blobs in memory.
type mockBlobStore struct {
	mu      sync.Mutex
	blobs   map[string][]byte
	putErr  error
	deletes int
}

func newMockBlobStore() *mockBlobStore {
	return &mockBlobStore{blobs: map[string][]byte{}}
}

func (m *mockBlobStore) Put(_ context.Context, id, ext string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return "", m.putErr
	}
	m.blobs[id] = data
	return "/blobs/" + id + ext, nil
}

func (m *mockBlobStore) Get(_ context.Context, id string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.blobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return data, nil
}

func (m *mockBlobStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes++
	delete(m.blobs, id)
	return nil
}

func (m *mockBlobStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.blobs)
}

// mockAIValidator records validation calls.
type mockAIValidator struct {
	embeddingErr error
	llmErr       error
	embedding    *domain.EmbeddingSettings
	llm          *domain.LLMSettings
}

func (m *mockAIValidator) ValidateEmbedding(cfg *domain.EmbeddingSettings) error {
	m.embedding = cfg
	return m.embeddingErr
}

func (m *mockAIValidator) ValidateLLM(cfg *domain.LLMSettings) error {
	m.llm = cfg
	return m.llmErr
}

// envMap returns a lookup function over a fixed environment.
func envMap(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}
