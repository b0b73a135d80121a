// Package cached wraps an EmbeddingService with an in-memory TTL cache for
// single-text embeddings. Repeated questions skip the provider round trip.
package cached

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/custodia-labs/caresync/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default cache timings.
const (
	DefaultTTL             = 30 * time.Minute
	DefaultCleanupInterval = 10 * time.Minute
)

// Option configures the cache.
type Option func(*EmbeddingService)

// WithTTL sets how long an embedding stays cached.
func WithTTL(ttl time.Duration) Option {
	return func(s *EmbeddingService) {
		s.ttl = ttl
	}
}

// EmbeddingService memoises Embed results. EmbedBatch is passed through
// because ingestion batches are rarely repeated.
type EmbeddingService struct {
	inner driven.EmbeddingService
	cache *cache.Cache
	ttl   time.Duration
}

// New wraps inner with a cache.
func New(inner driven.EmbeddingService, opts ...Option) *EmbeddingService {
	s := &EmbeddingService{
		inner: inner,
		ttl:   DefaultTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cache = cache.New(s.ttl, DefaultCleanupInterval)
	return s
}

// Embed returns the cached vector for text or asks the wrapped service.
// Errors are never cached.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	key := s.key(text)
	if x, found := s.cache.Get(key); found {
		return clone(x.([]float32)), nil
	}

	vec, err := s.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	s.cache.Set(key, clone(vec), cache.DefaultExpiration)
	return vec, nil
}

// EmbedBatch delegates to the wrapped service.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return s.inner.EmbedBatch(ctx, texts)
}

// Dimensions returns the wrapped service's vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.inner.Dimensions()
}

// ModelName returns the wrapped service's model.
func (s *EmbeddingService) ModelName() string {
	return s.inner.ModelName()
}

// Ping checks the wrapped service.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	return s.inner.Ping(ctx)
}

// Len returns the number of cached embeddings.
func (s *EmbeddingService) Len() int {
	return s.cache.ItemCount()
}

// Close flushes the cache and closes the wrapped service.
func (s *EmbeddingService) Close() error {
	s.cache.Flush()
	return s.inner.Close()
}

func (s *EmbeddingService) key(text string) string {
	sum := sha256.Sum256([]byte(s.inner.ModelName() + "\x00" + text))
	return hex.EncodeToString(sum[:])
}

func clone(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
