// Package ratelimit throttles outbound AI provider requests and backs off
// after the provider answers 429 Too Many Requests.
package ratelimit

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/caresync/internal/core/domain"
)

// Config holds rate limiting configuration for a provider.
type Config struct {
	// RequestsPerSecond is the sustained rate limit.
	RequestsPerSecond float64
	// BurstSize is the maximum burst size.
	BurstSize int
}

// DefaultBackoff is used when a 429 carries no usable Retry-After header.
const DefaultBackoff = 20 * time.Second

// DefaultLimits are conservative per-provider defaults.
var DefaultLimits = map[domain.AIProvider]Config{
	domain.AIProviderOllama:     {RequestsPerSecond: 50, BurstSize: 50},
	domain.AIProviderOpenAI:     {RequestsPerSecond: 5, BurstSize: 10},
	domain.AIProviderOpenRouter: {RequestsPerSecond: 3, BurstSize: 5},
	domain.AIProviderAnthropic:  {RequestsPerSecond: 2, BurstSize: 5},
}

// Limiter is a token bucket with an optional backoff window.
type Limiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	retryAt time.Time
	now     func() time.Time
}

// ForProvider creates a limiter using the provider's default limits.
func ForProvider(provider domain.AIProvider) *Limiter {
	cfg, ok := DefaultLimits[provider]
	if !ok {
		cfg = Config{RequestsPerSecond: 5, BurstSize: 10}
	}
	return New(cfg)
}

// New creates a limiter with a custom configuration.
func New(cfg Config) *Limiter {
	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.BurstSize),
		now:     time.Now,
	}
}

// Wait blocks until a request can be made. It honours any backoff set by
// RecordRateLimit before waiting on the token bucket.
func (l *Limiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	retryAt := l.retryAt
	now := l.now()
	l.mu.Unlock()

	if now.Before(retryAt) {
		timer := time.NewTimer(retryAt.Sub(now))
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	return l.limiter.Wait(ctx)
}

// RecordRateLimit sets a backoff window. A non-positive delay uses DefaultBackoff.
func (l *Limiter) RecordRateLimit(retryAfter time.Duration) {
	if retryAfter <= 0 {
		retryAfter = DefaultBackoff
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.retryAt = l.now().Add(retryAfter)
}

// RecordResponse inspects an HTTP response and records a backoff on 429.
// It returns true when the response was rate limited.
func (l *Limiter) RecordResponse(resp *http.Response) bool {
	if resp == nil || resp.StatusCode != http.StatusTooManyRequests {
		return false
	}
	l.RecordRateLimit(ParseRetryAfter(resp.Header.Get("Retry-After"), l.now()))
	return true
}

// Allow reports whether a request can be made immediately.
func (l *Limiter) Allow() bool {
	l.mu.Lock()
	retryAt := l.retryAt
	now := l.now()
	l.mu.Unlock()

	if now.Before(retryAt) {
		return false
	}
	return l.limiter.Allow()
}

// ParseRetryAfter decodes a Retry-After header given either as seconds or
// as an HTTP date. It returns zero when the header is missing or invalid.
func ParseRetryAfter(value string, now time.Time) time.Duration {
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil {
		if secs <= 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(value); err == nil {
		if d := t.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}
