package driven

import (
	"context"

	"github.com/custodia-labs/caresync/internal/core/domain"
)

// Extractor converts a raw document into plain text.
// Each extractor handles a fixed set of file extensions.
type Extractor interface {
	// SupportedExtensions returns the lower-cased extensions handled, e.g. ".pdf".
	SupportedExtensions() []string

	// Extract returns the document text. A valid file with no text yields an
	// empty result, not an error. Decode failures wrap domain.ErrExtraction.
	Extract(ctx context.Context, raw *domain.RawDocument) (*domain.ExtractResult, error)
}

// ExtractorRegistry selects an extractor by file extension.
type ExtractorRegistry interface {
	// Get returns the extractor for ext, or an error wrapping
	// domain.ErrUnsupportedFormat.
	Get(ext string) (Extractor, error)

	// Extensions returns every supported extension.
	Extensions() []string
}
