package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistanceToSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		distance float64
		expected float64
	}{
		{"zero distance is perfect", 0, 1},
		{"negative rounding noise is perfect", -1e-9, 1},
		{"quarter distance", 0.25, 0.75},
		{"unit distance", 1, 0},
		{"distance two uses reciprocal", 2, 0.5},
		{"distance four uses reciprocal", 4, 0.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, DistanceToSimilarity(tt.distance), 1e-9)
		})
	}
}

func TestDistanceToSimilarity_Range(t *testing.T) {
	for d := 0.0; d < 10; d += 0.05 {
		s := DistanceToSimilarity(d)
		assert.GreaterOrEqual(t, s, 0.0)
		assert.LessOrEqual(t, s, 1.0)
	}
}

func TestSentinelConstants(t *testing.T) {
	assert.NotEmpty(t, SentinelID)
	assert.Contains(t, SentinelText, "placeholder")
	assert.Equal(t, "initialization", SentinelSource)
}

func TestSentinelChunk(t *testing.T) {
	c := SentinelChunk()
	assert.Equal(t, SentinelID, c.ID)
	assert.Equal(t, SentinelText, c.Text)
	assert.Equal(t, SentinelSource, c.Metadata.Source)
	assert.True(t, IsSentinel(c.ID))
	assert.False(t, IsSentinel("chunk-1"))
}

func TestRankByDistance(t *testing.T) {
	mk := func(id string, d float64) Candidate {
		return Candidate{Chunk: Chunk{ID: id}, Distance: d}
	}
	ids := func(results []SearchResult) []string {
		out := make([]string, len(results))
		for i, r := range results {
			out[i] = r.Chunk.ID
		}
		return out
	}

	t.Run("orders by distance with insertion order on ties", func(t *testing.T) {
		got := RankByDistance([]Candidate{
			mk("a", 0.8), mk("b", 0.1), mk("c", 0.5), mk("d", 0.1),
		}, 10)
		assert.Equal(t, []string{"b", "d", "c", "a"}, ids(got))
	})

	t.Run("nearer entries win across the unit distance boundary", func(t *testing.T) {
		got := RankByDistance([]Candidate{mk("far", 4), mk("near", 0.81), mk("mid", 1.5)}, 3)
		require.Len(t, got, 3)
		assert.Equal(t, []string{"near", "mid", "far"}, ids(got))
		assert.InDelta(t, 0.19, got[0].Score, 1e-9)
		assert.InDelta(t, 1/1.5, got[1].Score, 1e-9)
		assert.InDelta(t, 0.25, got[2].Score, 1e-9)
	})

	t.Run("truncates to k before scoring", func(t *testing.T) {
		got := RankByDistance([]Candidate{mk("a", 0.9), mk("b", 2), mk("c", 0.3)}, 2)
		assert.Equal(t, []string{"c", "a"}, ids(got))
	})

	t.Run("non-positive k is empty", func(t *testing.T) {
		assert.Empty(t, RankByDistance([]Candidate{mk("a", 0)}, 0))
		assert.Empty(t, RankByDistance([]Candidate{mk("a", 0)}, -3))
	})
}
