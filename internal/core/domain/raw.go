package domain

import (
	"path/filepath"
	"strings"
)

// RawDocument represents uploaded bytes before extraction.
type RawDocument struct {
	// Filename is the original name supplied by the caller.
	Filename string

	// DocumentType is an optional caller-supplied label (e.g. "policy", "faq").
	DocumentType string

	// Content is the raw bytes.
	Content []byte
}

// Extension returns the lower-cased file extension including the dot.
func (r *RawDocument) Extension() string {
	return FileExtension(r.Filename)
}

// FileExtension returns the lower-cased extension of name including the dot.
func FileExtension(name string) string {
	return strings.ToLower(filepath.Ext(name))
}

// ExtractResult is the plain text recovered from a raw document.
type ExtractResult struct {
	// Text is the extracted text. Empty for a valid but textless file.
	Text string

	// Pages is the number of pages for paginated formats, zero otherwise.
	Pages int
}
