// Package flat provides an append-only, exhaustive vector index persisted as
// two files: a binary vector table and a JSON payload sidecar.
//
// Search computes squared L2 distance against every stored vector. The
// index cannot delete entries.
package flat

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/custodia-labs/caresync/internal/core/domain"
	"github.com/custodia-labs/caresync/internal/core/ports/driven"
	"github.com/custodia-labs/caresync/internal/logger"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// File names inside the index directory.
const (
	VectorFile  = "index.bin"
	SidecarFile = "index.json"
)

const (
	magic         = "CSVF"
	formatVersion = uint32(1)
	headerSize    = 4 + 4 + 4 + 8 // magic, version, dimension, count
)

// entry is the persisted payload of one vector.
type entry struct {
	ID           string `json:"id"`
	DocumentID   string `json:"document_id,omitempty"`
	Index        int    `json:"index"`
	Text         string `json:"text"`
	Filename     string `json:"filename,omitempty"`
	DocumentType string `json:"document_type,omitempty"`
	PageNumber   *int   `json:"page_number,omitempty"`
	Source       string `json:"source,omitempty"`
}

type sidecar struct {
	Version   uint32  `json:"version"`
	Dimension int     `json:"dimension"`
	Entries   []entry `json:"entries"`
}

func entryFromChunk(c domain.Chunk) entry {
	return entry{
		ID:           c.ID,
		DocumentID:   c.DocumentID,
		Index:        c.Index,
		Text:         c.Text,
		Filename:     c.Metadata.Filename,
		DocumentType: c.Metadata.DocumentType,
		PageNumber:   c.Metadata.PageNumber,
		Source:       c.Metadata.Source,
	}
}

func (e entry) chunk() domain.Chunk {
	return domain.Chunk{
		ID:         e.ID,
		DocumentID: e.DocumentID,
		Index:      e.Index,
		Text:       e.Text,
		Metadata: domain.ChunkMetadata{
			Filename:     e.Filename,
			DocumentType: e.DocumentType,
			PageNumber:   e.PageNumber,
			Source:       e.Source,
		},
	}
}

// Index is an exhaustive L2 index. Entry i owns vectors[i*dim:(i+1)*dim].
// Entry 0 is always the sentinel.
type Index struct {
	mu      sync.RWMutex
	dir     string
	dim     int
	vectors []float32
	entries []entry
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

	idx := &Index{dir: dir, dim: dim}

	_, err := os.Stat(filepath.Join(dir, VectorFile))
	switch {
	case err == nil:
		if err := idx.load(); err != nil {
			return nil, fmt.Errorf("open flat index %s: %w", dir, err)
		}
		logger.Debug("flat index: loaded %d entries (dim %d) from %s", idx.Len(), dim, dir)
		return idx, nil
	case errors.Is(err, os.ErrNotExist):
		idx.entries = []entry{entryFromChunk(domain.SentinelChunk())}
		idx.vectors = make([]float32, dim)
		if err := idx.persist(); err != nil {
			return nil, fmt.Errorf("create flat index %s: %w", dir, err)
		}
		logger.Debug("flat index: created %s (dim %d)", dir, dim)
		return idx, nil
	default:
		return nil, fmt.Errorf("stat index: %w", err)
	}
}

// Insert appends entries and rewrites the index files before returning.
// Nothing is written when entries is empty.
func (i *Index) Insert(ctx context.Context, entries []domain.EmbeddedChunk) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	for _, e := range entries {
		if len(e.Vector) != i.dim {
			return 0, &domain.DimensionMismatchError{Expected: i.dim, Actual: len(e.Vector)}
		}
		if domain.IsSentinel(e.ID) {
			return 0, fmt.Errorf("%w: chunk id %q is reserved", domain.ErrInvalidInput, e.ID)
		}
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	prevEntries, prevVectors := len(i.entries), len(i.vectors)
	for _, e := range entries {
		i.entries = append(i.entries, entryFromChunk(e.Chunk))
		i.vectors = append(i.vectors, e.Vector...)
	}

	if err := i.persist(); err != nil {
		i.entries = i.entries[:prevEntries]
		i.vectors = i.vectors[:prevVectors]
		return 0, fmt.Errorf("persist flat index: %w", err)
	}
	return len(entries), nil
}

// Search returns the k entries nearest to query by squared L2 distance.
// The sentinel is never returned.
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

	i.mu.RLock()
	defer i.mu.RUnlock()

	candidates := make([]domain.Candidate, 0, len(i.entries))
	for n, e := range i.entries {
		if domain.IsSentinel(e.ID) {
			continue
		}
		candidates = append(candidates, domain.Candidate{
			Chunk:    e.chunk(),
			Distance: squaredL2(query, i.vectors[n*i.dim:(n+1)*i.dim]),
		})
	}
	return domain.RankByDistance(candidates, k), nil
}

// Delete is not supported by the append-only layout.
func (i *Index) Delete(_ context.Context, _ []string) error {
	return fmt.Errorf("%w: flat index is append-only", domain.ErrUnsupportedOperation)
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

// Dir returns the index directory.
func (i *Index) Dir() string {
	return i.dir
}

// Close releases resources. All data is already on disk.
func (i *Index) Close() error {
	return nil
}

func squaredL2(a, b []float32) float64 {
	var sum float64
	for n := range a {
		d := float64(a[n]) - float64(b[n])
		sum += d * d
	}
	return sum
}

// persist writes the sidecar first and the vector file last. The vector
// file header carries the committed count, so a crash between the two
// renames leaves at most surplus sidecar entries that load trims.
func (i *Index) persist() error {
	payload, err := json.Marshal(sidecar{
		Version:   formatVersion,
		Dimension: i.dim,
		Entries:   i.entries,
	})
	if err != nil {
		return fmt.Errorf("encoding sidecar: %w", err)
	}
	if err := writeFileAtomic(filepath.Join(i.dir, SidecarFile), payload); err != nil {
		return err
	}
	return writeFileAtomic(filepath.Join(i.dir, VectorFile), i.encodeVectors())
}

func (i *Index) encodeVectors() []byte {
	buf := make([]byte, headerSize+len(i.vectors)*4)
	copy(buf[0:4], magic)
	binary.LittleEndian.PutUint32(buf[4:8], formatVersion)
	binary.LittleEndian.PutUint32(buf[8:12], uint32(i.dim))
	binary.LittleEndian.PutUint64(buf[12:20], uint64(len(i.entries)))
	for n, f := range i.vectors {
		binary.LittleEndian.PutUint32(buf[headerSize+n*4:], math.Float32bits(f))
	}
	return buf
}

func (i *Index) load() error {
	data, err := os.ReadFile(filepath.Join(i.dir, VectorFile))
	if err != nil {
		return fmt.Errorf("reading vectors: %w", err)
	}
	if len(data) < headerSize || !bytes.Equal(data[0:4], []byte(magic)) {
		return fmt.Errorf("%w: %s has no valid header", domain.ErrCorruptIndex, VectorFile)
	}
	if v := binary.LittleEndian.Uint32(data[4:8]); v != formatVersion {
		return fmt.Errorf("%w: unsupported format version %d", domain.ErrCorruptIndex, v)
	}

	stored := int(binary.LittleEndian.Uint32(data[8:12]))
	if stored != i.dim {
		return &domain.DimensionMismatchError{Expected: stored, Actual: i.dim}
	}

	count := binary.LittleEndian.Uint64(data[12:20])
	want := uint64(headerSize) + count*uint64(stored)*4
	if count == 0 || uint64(len(data)) != want {
		return fmt.Errorf("%w: %s holds %d bytes, header implies %d", domain.ErrCorruptIndex, VectorFile, len(data), want)
	}

	raw, err := os.ReadFile(filepath.Join(i.dir, SidecarFile))
	if err != nil {
		return fmt.Errorf("%w: reading sidecar: %v", domain.ErrCorruptIndex, err)
	}
	var sc sidecar
	if err := json.Unmarshal(raw, &sc); err != nil {
		return fmt.Errorf("%w: decoding sidecar: %v", domain.ErrCorruptIndex, err)
	}
	if uint64(len(sc.Entries)) < count {
		return fmt.Errorf("%w: sidecar has %d entries, vectors have %d", domain.ErrCorruptIndex, len(sc.Entries), count)
	}
	if uint64(len(sc.Entries)) > count {
		logger.Warn("flat index: dropping %d uncommitted sidecar entries", uint64(len(sc.Entries))-count)
		sc.Entries = sc.Entries[:count]
	}

	i.entries = sc.Entries
	i.vectors = make([]float32, int(count)*stored)
	for n := range i.vectors {
		i.vectors[n] = math.Float32frombits(binary.LittleEndian.Uint32(data[headerSize+n*4:]))
	}
	return nil
}

// writeFileAtomic writes data to a temp file in the same directory, syncs
// it and renames it over path.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming %s: %w", filepath.Base(path), err)
	}
	return nil
}
