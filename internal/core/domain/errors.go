package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedFormat indicates a document type no extractor handles.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrExtraction indicates the underlying decoder failed (corrupt file, encrypted PDF).
	ErrExtraction = errors.New("extraction failed")

	// ErrConfig indicates an invalid configuration value, such as a chunk
	// overlap that is not smaller than the chunk size.
	ErrConfig = errors.New("invalid configuration")

	// ErrEmbeddingService indicates the upstream embedding provider failed.
	ErrEmbeddingService = errors.New("embedding service error")

	// ErrDimensionMismatch indicates a vector or stored index has a different
	// dimensionality than the one requested.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrUnsupportedOperation indicates the vector index backend cannot
	// perform the operation, such as delete on an append-only index.
	ErrUnsupportedOperation = errors.New("unsupported operation")

	// ErrGeneration indicates the upstream language model failed.
	ErrGeneration = errors.New("generation error")

	// ErrDocumentTooLarge indicates an upload exceeds the configured size limit.
	ErrDocumentTooLarge = errors.New("document too large")

	// ErrCorruptIndex indicates the persisted vector index could not be decoded.
	ErrCorruptIndex = errors.New("corrupt index")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")
)

// DimensionMismatchError reports the expected and actual vector dimensions.
type DimensionMismatchError struct {
	Expected int
	Actual   int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// Is reports whether target is ErrDimensionMismatch.
func (e *DimensionMismatchError) Is(target error) bool {
	return target == ErrDimensionMismatch
}

// UnsupportedFormatError reports the extension that was rejected.
type UnsupportedFormatError struct {
	Extension string
}

func (e *UnsupportedFormatError) Error() string {
	if e.Extension == "" {
		return "unsupported format: file has no extension"
	}
	return fmt.Sprintf("unsupported format: %s", e.Extension)
}

// Is reports whether target is ErrUnsupportedFormat.
func (e *UnsupportedFormatError) Is(target error) bool {
	return target == ErrUnsupportedFormat
}
