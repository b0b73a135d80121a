// Package sqlite provides a vector index stored in a SQLite database. It
// ranks by cosine distance and, unlike the flat backend, supports deletes.
//
// All vectors are cached in memory on open; SQLite is the durable copy.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/caresync/internal/core/domain"
	"github.com/custodia-labs/caresync/internal/core/ports/driven"
	"github.com/custodia-labs/caresync/internal/logger"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// DatabaseFile is the file name inside the index directory.
const DatabaseFile = "index.db"

const schema = `
CREATE TABLE IF NOT EXISTS index_meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS entries (
	seq           INTEGER PRIMARY KEY AUTOINCREMENT,
	id            TEXT NOT NULL UNIQUE,
	document_id   TEXT NOT NULL DEFAULT '',
	chunk_index   INTEGER NOT NULL DEFAULT 0,
	text          TEXT NOT NULL,
	filename      TEXT NOT NULL DEFAULT '',
	document_type TEXT NOT NULL DEFAULT '',
	page_number   INTEGER,
	source        TEXT NOT NULL DEFAULT '',
	vector        BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_entries_document ON entries(document_id);
`

type cachedEntry struct {
	chunk  domain.Chunk
	vector []float32
	norm   float64
}

// Index is a cosine-distance index backed by SQLite.
type Index struct {
	mu      sync.RWMutex
	db      *sql.DB
	path    string
	dim     int
	entries []cachedEntry
}

// Open loads the index in dir, or creates one holding only the sentinel.
// A stored index with a different dimension is left untouched and a
// DimensionMismatchError is returned.
func Open(dir string, dim int) (*Index, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("%w: vector dimension must be positive, got %d", domain.ErrConfig, dim)
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dir, DatabaseFile)
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening index database: %w", err)
	}

	idx := &Index{db: db, path: dbPath, dim: dim}
	if err := idx.init(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("open sqlite index %s: %w", dir, err)
	}
	logger.Debug("sqlite index: %d entries (dim %d) in %s", idx.Len(), dim, dbPath)
	return idx, nil
}

func (i *Index) init(ctx context.Context) error {
	if _, err := i.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	var value string
	err := i.db.QueryRowContext(ctx, `SELECT value FROM index_meta WHERE key = 'dimension'`).Scan(&value)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return i.create(ctx)
	case err != nil:
		return fmt.Errorf("reading dimension: %w", err)
	}

	stored, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("%w: stored dimension %q", domain.ErrCorruptIndex, value)
	}
	if stored != i.dim {
		return &domain.DimensionMismatchError{Expected: stored, Actual: i.dim}
	}
	return i.load(ctx)
}

// create seeds an empty database with the dimension and the sentinel.
func (i *Index) create(ctx context.Context) error {
	tx, err := i.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `INSERT INTO index_meta (key, value) VALUES ('dimension', ?)`,
		strconv.Itoa(i.dim)); err != nil {
		return fmt.Errorf("saving dimension: %w", err)
	}

	sentinel := cachedEntry{chunk: domain.SentinelChunk(), vector: make([]float32, i.dim)}
	if err := insertEntry(ctx, tx, sentinel); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	i.entries = []cachedEntry{sentinel}
	return nil
}

func (i *Index) load(ctx context.Context) error {
	rows, err := i.db.QueryContext(ctx, `
		SELECT id, document_id, chunk_index, text, filename, document_type, page_number, source, vector
		FROM entries ORDER BY seq
	`)
	if err != nil {
		return fmt.Errorf("querying entries: %w", err)
	}
	defer rows.Close()

	var entries []cachedEntry
	for rows.Next() {
		var c domain.Chunk
		var page sql.NullInt64
		var blob []byte
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.Index, &c.Text, &c.Metadata.Filename,
			&c.Metadata.DocumentType, &page, &c.Metadata.Source, &blob); err != nil {
			return fmt.Errorf("scanning entry: %w", err)
		}
		if page.Valid {
			c.Metadata.PageNumber = domain.IntPtr(int(page.Int64))
		}
		vec := bytesToFloat32Slice(blob)
		if len(vec) != i.dim {
			return fmt.Errorf("%w: entry %s has %d values, want %d", domain.ErrCorruptIndex, c.ID, len(vec), i.dim)
		}
		entries = append(entries, cachedEntry{chunk: c, vector: vec, norm: norm(vec)})
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating entries: %w", err)
	}

	i.entries = entries
	return nil
}

// Insert stores entries in one transaction. Nothing is written when
// entries is empty.
func (i *Index) Insert(ctx context.Context, entries []domain.EmbeddedChunk) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}
	batch := make([]cachedEntry, 0, len(entries))
	for _, e := range entries {
		if len(e.Vector) != i.dim {
			return 0, &domain.DimensionMismatchError{Expected: i.dim, Actual: len(e.Vector)}
		}
		if domain.IsSentinel(e.ID) {
			return 0, fmt.Errorf("%w: chunk id %q is reserved", domain.ErrInvalidInput, e.ID)
		}
		vec := make([]float32, len(e.Vector))
		copy(vec, e.Vector)
		batch = append(batch, cachedEntry{chunk: e.Chunk, vector: vec, norm: norm(vec)})
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	tx, err := i.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, e := range batch {
		if err := insertEntry(ctx, tx, e); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing transaction: %w", err)
	}

	i.entries = append(i.entries, batch...)
	return len(batch), nil
}

func insertEntry(ctx context.Context, tx *sql.Tx, e cachedEntry) error {
	var page sql.NullInt64
	if e.chunk.Metadata.PageNumber != nil {
		page = sql.NullInt64{Int64: int64(*e.chunk.Metadata.PageNumber), Valid: true}
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO entries (id, document_id, chunk_index, text, filename, document_type, page_number, source, vector)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.chunk.ID, e.chunk.DocumentID, e.chunk.Index, e.chunk.Text, e.chunk.Metadata.Filename,
		e.chunk.Metadata.DocumentType, page, e.chunk.Metadata.Source, float32SliceToBytes(e.vector))
	if err != nil {
		return fmt.Errorf("saving entry %s: %w", e.chunk.ID, err)
	}
	return nil
}

// Search returns the k entries nearest to query by cosine distance. The
// sentinel is never returned.
func (i *Index) Search(ctx context.Context, query []float32, k int) ([]domain.SearchResult, error) {
	if k <= 0 {
		return []domain.SearchResult{}, nil
	}
	if len(query) != i.dim {
		return nil, &domain.DimensionMismatchError{Expected: i.dim, Actual: len(query)}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	qnorm := norm(query)

	i.mu.RLock()
	defer i.mu.RUnlock()

	candidates := make([]domain.Candidate, 0, len(i.entries))
	for _, e := range i.entries {
		if domain.IsSentinel(e.chunk.ID) {
			continue
		}
		candidates = append(candidates, domain.Candidate{
			Chunk:    e.chunk,
			Distance: cosineDistance(query, qnorm, e.vector, e.norm),
		})
	}
	return domain.RankByDistance(candidates, k), nil
}

// Delete removes entries by id. Unknown ids and the sentinel are ignored.
func (i *Index) Delete(ctx context.Context, ids []string) error {
	remove := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if !domain.IsSentinel(id) {
			remove[id] = struct{}{}
		}
	}
	if len(remove) == 0 {
		return nil
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	tx, err := i.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for id := range remove {
		if _, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, id); err != nil {
			return fmt.Errorf("deleting entry %s: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	kept := i.entries[:0]
	for _, e := range i.entries {
		if _, ok := remove[e.chunk.ID]; !ok {
			kept = append(kept, e)
		}
	}
	i.entries = kept
	return nil
}

// Dimension returns the vector size.
func (i *Index) Dimension() int {
	return i.dim
}

// Len returns the number of stored entries, not counting the sentinel.
func (i *Index) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.entries) - 1
}

// Path returns the database file path.
func (i *Index) Path() string {
	return i.path
}

// Close closes the database connection.
func (i *Index) Close() error {
	return i.db.Close()
}

func norm(v []float32) float64 {
	var sum float64
	for _, f := range v {
		sum += float64(f) * float64(f)
	}
	return math.Sqrt(sum)
}

// cosineDistance returns 1 - cos(a, b), clamped to [0, 2]. A zero vector
// is treated as orthogonal to everything.
func cosineDistance(a []float32, anorm float64, b []float32, bnorm float64) float64 {
	if anorm == 0 || bnorm == 0 {
		return 1
	}
	var dot float64
	for n := range a {
		dot += float64(a[n]) * float64(b[n])
	}
	d := 1 - dot/(anorm*bnorm)
	return math.Max(0, math.Min(2, d))
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
