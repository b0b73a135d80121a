package driven

import (
	"context"

	"github.com/custodia-labs/caresync/internal/core/domain"
)

// DocumentStore persists document records.
// Backed by SQLite for metadata storage.
type DocumentStore interface {
	// SaveDocument stores or updates a document.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// GetDocument retrieves a document by ID.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// DeleteDocument removes a document record.
	DeleteDocument(ctx context.Context, id string) error

	// ListDocuments returns all documents, newest first.
	ListDocuments(ctx context.Context) ([]domain.Document, error)
}

// ConversationStore records completed question and answer turns.
type ConversationStore interface {
	// AppendTurn records a turn at the end of its conversation.
	AppendTurn(ctx context.Context, turn domain.Turn) error

	// ListTurns returns the turns of a conversation in order.
	ListTurns(ctx context.Context, conversationID string) ([]domain.Turn, error)
}

// BlobStore keeps the original bytes of uploaded documents.
type BlobStore interface {
	// Put stores data under id with the given extension and returns its location.
	Put(ctx context.Context, id, ext string, data []byte) (string, error)

	// Get returns the bytes stored under id.
	Get(ctx context.Context, id string) ([]byte, error)

	// Delete removes the bytes stored under id. Missing blobs are not an error.
	Delete(ctx context.Context, id string) error
}
