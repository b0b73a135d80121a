package domain

import "time"

// Document is the record kept for every processed upload.
type Document struct {
	// ID is the generated document identifier.
	ID string `json:"id" yaml:"id"`

	// Filename is the original upload name.
	Filename string `json:"filename" yaml:"filename"`

	// Extension is the lower-cased extension, e.g. ".pdf".
	Extension string `json:"extension" yaml:"extension"`

	// DocumentType is the optional caller-supplied label.
	DocumentType string `json:"document_type" yaml:"document_type"`

	// ContentType is the MIME type derived from the extension.
	ContentType string `json:"content_type" yaml:"content_type"`

	// Size is the upload size in bytes.
	Size int64 `json:"size" yaml:"size"`

	// NumChunks is the number of chunks written to the vector index.
	NumChunks int `json:"num_chunks" yaml:"num_chunks"`

	// ChunkIDs lists the index entries created for this document.
	ChunkIDs []string `json:"chunk_ids" yaml:"chunk_ids"`

	// BlobPath is where the original bytes are kept.
	BlobPath string `json:"blob_path" yaml:"blob_path"`

	// CreatedAt is when the document was processed.
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// ChunkMetadata is carried with every chunk into the index.
type ChunkMetadata struct {
	// Filename of the originating document.
	Filename string

	// DocumentType of the originating document.
	DocumentType string

	// PageNumber is the 1-based page the chunk starts on, when known.
	PageNumber *int

	// Source marks synthetic entries. Empty for document chunks.
	Source string
}

// Chunk is a bounded contiguous slice of a document's extracted text.
// Chunks are immutable once created.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Index is the sequence position within the document, starting at 0.
	Index int

	// Text is the chunk content.
	Text string

	// Metadata is inherited from the document plus chunk-specific fields.
	Metadata ChunkMetadata
}

// EmbeddedChunk pairs a chunk with its embedding vector.
type EmbeddedChunk struct {
	Chunk
	Vector []float32
}

// ProcessResult is returned once a document has been ingested.
type ProcessResult struct {
	DocumentID string `json:"document_id" yaml:"document_id"`
	NumChunks  int    `json:"num_chunks" yaml:"num_chunks"`
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}
