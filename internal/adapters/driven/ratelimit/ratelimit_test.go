package ratelimit

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/caresync/internal/core/domain"
)

func TestForProvider(t *testing.T) {
	for _, p := range domain.AllLLMProviders() {
		l := ForProvider(p)
		require.NotNil(t, l)
		assert.True(t, l.Allow())
	}

	assert.NotNil(t, ForProvider("unknown"))
}

func TestAllow_Burst(t *testing.T) {
	l := New(Config{RequestsPerSecond: 0.001, BurstSize: 2})

	assert.True(t, l.Allow())
	assert.True(t, l.Allow())
	assert.False(t, l.Allow())
}

func TestRecordRateLimit_BlocksAllow(t *testing.T) {
	l := New(Config{RequestsPerSecond: 100, BurstSize: 10})
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return base }

	l.RecordRateLimit(5 * time.Second)
	assert.False(t, l.Allow())

	l.now = func() time.Time { return base.Add(6 * time.Second) }
	assert.True(t, l.Allow())
}

func TestRecordRateLimit_DefaultBackoff(t *testing.T) {
	l := New(Config{RequestsPerSecond: 100, BurstSize: 10})
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return base }

	l.RecordRateLimit(0)
	assert.Equal(t, base.Add(DefaultBackoff), l.retryAt)
}

func TestWait_ContextCancelledDuringBackoff(t *testing.T) {
	l := New(Config{RequestsPerSecond: 100, BurstSize: 10})
	l.RecordRateLimit(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := l.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWait_NoBackoff(t *testing.T) {
	l := New(Config{RequestsPerSecond: 100, BurstSize: 10})
	assert.NoError(t, l.Wait(context.Background()))
}

func TestRecordResponse(t *testing.T) {
	l := New(Config{RequestsPerSecond: 100, BurstSize: 10})
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return base }

	assert.False(t, l.RecordResponse(nil))
	assert.False(t, l.RecordResponse(&http.Response{StatusCode: http.StatusOK}))

	resp := &http.Response{StatusCode: http.StatusTooManyRequests, Header: http.Header{}}
	resp.Header.Set("Retry-After", "7")
	assert.True(t, l.RecordResponse(resp))
	assert.Equal(t, base.Add(7*time.Second), l.retryAt)
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{"empty", "", 0},
		{"seconds", "30", 30 * time.Second},
		{"zero seconds", "0", 0},
		{"negative", "-4", 0},
		{"http date", now.Add(90 * time.Second).Format(http.TimeFormat), 90 * time.Second},
		{"past date", now.Add(-time.Minute).Format(http.TimeFormat), 0},
		{"garbage", "soon", 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseRetryAfter(tc.value, now))
		})
	}
}
