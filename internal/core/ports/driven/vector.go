package driven

import (
	"context"

	"github.com/custodia-labs/caresync/internal/core/domain"
)

// VectorIndex persists embedded chunks and answers nearest-neighbour queries.
//
// An index is opened with a fixed dimension and always contains a sentinel
// entry that is never returned from Search. Writers are serialised; searches
// may run in parallel and observe either the state before or after a write.
type VectorIndex interface {
	// Insert appends entries and persists them before returning.
	// An empty slice returns 0 without touching storage.
	Insert(ctx context.Context, entries []domain.EmbeddedChunk) (int, error)

	// Search returns up to k results ordered by similarity, best first.
	// Ties are broken by insertion order, earlier first.
	Search(ctx context.Context, query []float32, k int) ([]domain.SearchResult, error)

	// Delete removes entries by chunk ID. Append-only backends return
	// domain.ErrUnsupportedOperation.
	Delete(ctx context.Context, ids []string) error

	// Dimension returns the fixed vector size of the index.
	Dimension() int

	// Len returns the number of searchable entries, excluding the sentinel.
	Len() int

	// Close releases resources.
	Close() error
}
