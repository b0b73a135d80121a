package domain

import "sort"

// SentinelID identifies the placeholder entry every vector index is seeded
// with. It is never returned from a search.
const SentinelID = "__caresync_init__"

// SentinelText is the payload of the placeholder entry.
const SentinelText = "CareSync AI initialization document. This is a placeholder."

// SentinelSource is the metadata source tag of the placeholder entry.
const SentinelSource = "initialization"

// SearchResult is a single nearest-neighbour hit from the vector index.
type SearchResult struct {
	// Chunk is the matched chunk.
	Chunk Chunk

	// Score is the similarity in [0,1], higher is better.
	Score float64
}

// Source is the public shape of a retrieved chunk.
type Source struct {
	DocumentName   string  `json:"document_name" yaml:"document_name"`
	PageNumber     *int    `json:"page_number,omitempty" yaml:"page_number,omitempty"`
	TextSnippet    string  `json:"text_snippet" yaml:"text_snippet"`
	RelevanceScore float64 `json:"relevance_score" yaml:"relevance_score"`
}

// DistanceToSimilarity converts a raw backend distance into a similarity in [0,1].
// Distances in [0,1] map to 1-d, larger distances to 1/d.
func DistanceToSimilarity(distance float64) float64 {
	switch {
	case distance <= 0:
		return 1
	case distance <= 1:
		return 1 - distance
	default:
		return 1 / distance
	}
}

// SentinelChunk returns the placeholder chunk an index is seeded with.
func SentinelChunk() Chunk {
	return Chunk{
		ID:       SentinelID,
		Text:     SentinelText,
		Metadata: ChunkMetadata{Source: SentinelSource},
	}
}

// IsSentinel reports whether id names the placeholder entry.
func IsSentinel(id string) bool {
	return id == SentinelID
}

// Candidate is a chunk paired with its raw backend distance, lower is nearer.
type Candidate struct {
	Chunk    Chunk
	Distance float64
}

// RankByDistance keeps the k nearest candidates and scores them.
// Candidates must be passed in insertion order; equal distances keep that
// order. Selection uses the raw distance because DistanceToSimilarity is not
// monotonic across d = 1.
func RankByDistance(candidates []Candidate, k int) []SearchResult {
	if k <= 0 || len(candidates) == 0 {
		return []SearchResult{}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Distance < candidates[j].Distance
	})
	if len(candidates) > k {
		candidates = candidates[:k]
	}

	results := make([]SearchResult, len(candidates))
	for n, c := range candidates {
		results[n] = SearchResult{Chunk: c.Chunk, Score: DistanceToSimilarity(c.Distance)}
	}
	return results
}
