package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/caresync/internal/core/domain"
	"github.com/custodia-labs/caresync/internal/core/ports/driven"
	"github.com/custodia-labs/caresync/internal/core/ports/driving"
	"github.com/custodia-labs/caresync/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// contentTypes maps supported extensions to MIME types.
var contentTypes = map[string]string{
	".pdf":  "application/pdf",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// ContentTypeFor returns the MIME type for ext, or application/octet-stream.
func ContentTypeFor(ext string) string {
	if ct, ok := contentTypes[ext]; ok {
		return ct
	}
	return "application/octet-stream"
}

// Splitter turns extracted text into chunks.
type Splitter interface {
	Chunks(documentID, text string, meta domain.ChunkMetadata) []domain.Chunk
}

// DocumentConfig holds ingestion limits.
type DocumentConfig struct {
	// BatchSize caps texts per EmbedBatch call. Zero uses domain.DefaultEmbedBatchSize.
	BatchSize int

	// MaxSizeBytes rejects larger uploads. Zero uses domain.DefaultMaxUploadBytes.
	MaxSizeBytes int64
}

// DocumentService runs the ingestion pipeline and manages document records.
type DocumentService struct {
	extractors driven.ExtractorRegistry
	splitter   Splitter
	embedder   driven.EmbeddingService
	index      driven.VectorIndex
	blobs      driven.BlobStore
	docs       driven.DocumentStore
	cfg        DocumentConfig
	now        func() time.Time
}

// NewDocumentService creates a document service.
func NewDocumentService(
	extractors driven.ExtractorRegistry,
	splitter Splitter,
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	blobs driven.BlobStore,
	docs driven.DocumentStore,
	cfg DocumentConfig,
) *DocumentService {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = domain.DefaultEmbedBatchSize
	}
	if cfg.MaxSizeBytes <= 0 {
		cfg.MaxSizeBytes = domain.DefaultMaxUploadBytes
	}
	return &DocumentService{
		extractors: extractors,
		splitter:   splitter,
		embedder:   embedder,
		index:      index,
		blobs:      blobs,
		docs:       docs,
		cfg:        cfg,
		now:        time.Now,
	}
}

// ProcessDocument extracts, chunks, embeds and indexes an upload, then
// records it. The format and size are checked before anything is written;
// a failure after the blob is stored removes the blob again.
func (s *DocumentService) ProcessDocument(
	ctx context.Context, data []byte, filename, documentType string,
) (*domain.ProcessResult, error) {
	logger.Section("Process Document")

	filename = filepath.Base(filename)
	ext := domain.FileExtension(filename)
	extractor, err := s.extractors.Get(ext)
	if err != nil {
		return nil, err
	}

	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", domain.ErrInvalidInput, filename)
	}
	if int64(len(data)) > s.cfg.MaxSizeBytes {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit is %d",
			domain.ErrDocumentTooLarge, filename, len(data), s.cfg.MaxSizeBytes)
	}

	docID := uuid.New().String()
	logger.Debug("Document %s: %s (%d bytes, type %q)", docID, filename, len(data), documentType)

	blobPath, err := s.blobs.Put(ctx, docID, ext, data)
	if err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}

	doc := &domain.Document{
		ID:           docID,
		Filename:     filename,
		Extension:    ext,
		DocumentType: documentType,
		ContentType:  ContentTypeFor(ext),
		Size:         int64(len(data)),
		BlobPath:     blobPath,
		CreatedAt:    s.now(),
	}

	chunkIDs, err := s.ingest(ctx, extractor, doc, data)
	if err != nil {
		s.discardBlob(ctx, docID)
		return nil, err
	}
	doc.NumChunks = len(chunkIDs)
	doc.ChunkIDs = chunkIDs

	if err := s.docs.SaveDocument(ctx, doc); err != nil {
		s.discardBlob(ctx, docID)
		if len(chunkIDs) > 0 {
			if derr := s.index.Delete(ctx, chunkIDs); derr != nil {
				logger.Warn("document %s: %d index entries left without a record: %v", docID, len(chunkIDs), derr)
			}
		}
		return nil, fmt.Errorf("save document record: %w", err)
	}

	logger.Info("Processed %s into %d chunks", filename, doc.NumChunks)
	return &domain.ProcessResult{DocumentID: docID, NumChunks: doc.NumChunks}, nil
}

// ingest runs extract, chunk, embed and insert and returns the new chunk IDs.
func (s *DocumentService) ingest(
	ctx context.Context, extractor driven.Extractor, doc *domain.Document, data []byte,
) ([]string, error) {
	extracted, err := extractor.Extract(ctx, &domain.RawDocument{
		Filename:     doc.Filename,
		DocumentType: doc.DocumentType,
		Content:      data,
	})
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", doc.Filename, err)
	}

	chunks := s.splitter.Chunks(doc.ID, extracted.Text, domain.ChunkMetadata{
		Filename:     doc.Filename,
		DocumentType: doc.DocumentType,
	})
	if len(chunks) == 0 {
		logger.Debug("No text extracted from %s", doc.Filename)
		return []string{}, nil
	}
	logger.Debug("Split into %d chunks", len(chunks))

	embedded, err := s.embedChunks(ctx, chunks)
	if err != nil {
		return nil, err
	}

	n, err := s.index.Insert(ctx, embedded)
	if err != nil {
		return nil, fmt.Errorf("index chunks: %w", err)
	}
	if n != len(embedded) {
		return nil, fmt.Errorf("index chunks: inserted %d of %d", n, len(embedded))
	}

	ids := make([]string, len(chunks))
	for i, c := range chunks {
		ids[i] = c.ID
	}
	return ids, nil
}

// embedChunks embeds chunk texts in batches of cfg.BatchSize.
func (s *DocumentService) embedChunks(ctx context.Context, chunks []domain.Chunk) ([]domain.EmbeddedChunk, error) {
	embedded := make([]domain.EmbeddedChunk, 0, len(chunks))
	for start := 0; start < len(chunks); start += s.cfg.BatchSize {
		end := min(start+s.cfg.BatchSize, len(chunks))
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}

		vectors, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			if errors.Is(err, domain.ErrEmbeddingService) {
				return nil, fmt.Errorf("embed chunks %d-%d: %w", start, end-1, err)
			}
			return nil, fmt.Errorf("%w: embed chunks %d-%d: %w", domain.ErrEmbeddingService, start, end-1, err)
		}
		if len(vectors) != len(batch) {
			return nil, fmt.Errorf("%w: expected %d embeddings, got %d",
				domain.ErrEmbeddingService, len(batch), len(vectors))
		}

		for i, c := range batch {
			embedded = append(embedded, domain.EmbeddedChunk{Chunk: c, Vector: vectors[i]})
		}
	}
	return embedded, nil
}

func (s *DocumentService) discardBlob(ctx context.Context, docID string) {
	if err := s.blobs.Delete(ctx, docID); err != nil {
		logger.Warn("failed to remove upload for %s: %v", docID, err)
	}
}

// Get retrieves a document record by ID.
func (s *DocumentService) Get(ctx context.Context, documentID string) (*domain.Document, error) {
	return s.docs.GetDocument(ctx, documentID)
}

// List returns all document records, newest first.
func (s *DocumentService) List(ctx context.Context) ([]domain.Document, error) {
	return s.docs.ListDocuments(ctx)
}

// Download returns the original bytes of a document with its record.
func (s *DocumentService) Download(ctx context.Context, documentID string) ([]byte, *domain.Document, error) {
	doc, err := s.docs.GetDocument(ctx, documentID)
	if err != nil {
		return nil, nil, err
	}
	data, err := s.blobs.Get(ctx, documentID)
	if err != nil {
		return nil, nil, fmt.Errorf("read upload: %w", err)
	}
	return data, doc, nil
}

// Delete removes a document's index entries, blob and record. On an
// append-only index the record is kept and domain.ErrUnsupportedOperation
// is returned.
func (s *DocumentService) Delete(ctx context.Context, documentID string) error {
	doc, err := s.docs.GetDocument(ctx, documentID)
	if err != nil {
		return err
	}

	if len(doc.ChunkIDs) > 0 {
		if err := s.index.Delete(ctx, doc.ChunkIDs); err != nil {
			return fmt.Errorf("delete %s from index: %w", doc.Filename, err)
		}
	}

	if err := s.blobs.Delete(ctx, documentID); err != nil {
		return fmt.Errorf("delete upload: %w", err)
	}
	return s.docs.DeleteDocument(ctx, documentID)
}

// SupportedExtensions lists the file extensions ProcessDocument accepts.
func (s *DocumentService) SupportedExtensions() []string {
	return s.extractors.Extensions()
}
