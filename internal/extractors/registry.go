package extractors

import (
	"fmt"
	"sort"

	"github.com/custodia-labs/caresync/internal/core/domain"
	"github.com/custodia-labs/caresync/internal/core/ports/driven"
	"github.com/custodia-labs/caresync/internal/extractors/docx"
	"github.com/custodia-labs/caresync/internal/extractors/pdf"
)

// Ensure Registry implements the interface.
var _ driven.ExtractorRegistry = (*Registry)(nil)

// Registry maps file extensions to extractors.
type Registry struct {
	extractors map[string]driven.Extractor
}

// NewRegistry creates an empty extractor registry.
func NewRegistry() *Registry {
	return &Registry{
		extractors: make(map[string]driven.Extractor),
	}
}

// NewDefaultRegistry creates a registry with the PDF and DOCX extractors.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(pdf.New())
	r.Register(docx.New())
	return r
}

// Register adds an extractor for every extension it supports.
// A later registration for the same extension replaces the earlier one.
func (r *Registry) Register(e driven.Extractor) {
	for _, ext := range e.SupportedExtensions() {
		r.extractors[ext] = e
	}
}

// Get returns the extractor for ext.
func (r *Registry) Get(ext string) (driven.Extractor, error) {
	e, ok := r.extractors[ext]
	if !ok {
		return nil, fmt.Errorf("no extractor registered: %w", &domain.UnsupportedFormatError{Extension: ext})
	}
	return e, nil
}

// Has returns true if an extractor handles ext.
func (r *Registry) Has(ext string) bool {
	_, ok := r.extractors[ext]
	return ok
}

// Extensions returns all registered extensions in sorted order.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.extractors))
	for ext := range r.extractors {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
