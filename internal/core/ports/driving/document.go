package driving

import (
	"context"

	"github.com/custodia-labs/caresync/internal/core/domain"
)

// DocumentService ingests uploads and manages the resulting records.
type DocumentService interface {
	// ProcessDocument extracts, chunks, embeds and indexes an upload.
	// documentType is an optional caller label.
	ProcessDocument(ctx context.Context, data []byte, filename, documentType string) (*domain.ProcessResult, error)

	// Get retrieves a document record by ID.
	Get(ctx context.Context, documentID string) (*domain.Document, error)

	// List returns all document records, newest first.
	List(ctx context.Context) ([]domain.Document, error)

	// Download returns the original uploaded bytes.
	Download(ctx context.Context, documentID string) ([]byte, *domain.Document, error)

	// Delete removes a document's index entries, blob and record.
	// Fails with domain.ErrUnsupportedOperation on append-only indexes.
	Delete(ctx context.Context, documentID string) error

	// SupportedExtensions lists the file extensions ProcessDocument accepts.
	SupportedExtensions() []string
}
