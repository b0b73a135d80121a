// Package domain defines the core business entities for CareSync.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: An uploaded file and its processing outcome
//   - Chunk: A bounded slice of extracted text, the unit of embedding
//   - EmbeddedChunk: A chunk paired with its vector
//   - Source: The public shape of a retrieved chunk
//   - ChatResult: The envelope returned for a question
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
