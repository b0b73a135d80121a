// Package docx extracts paragraph text from Word (.docx) uploads.
package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/caresync/internal/core/domain"
	"github.com/custodia-labs/caresync/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

const documentPart = "word/document.xml"

// Extractor handles DOCX documents.
type Extractor struct{}

// New creates a new DOCX extractor.
func New() *Extractor {
	return &Extractor{}
}

// SupportedExtensions returns the extensions this extractor handles.
func (e *Extractor) SupportedExtensions() []string {
	return []string{".docx"}
}

// Extract returns the document's paragraphs in order, each followed by a newline.
func (e *Extractor) Extract(_ context.Context, raw *domain.RawDocument) (*domain.ExtractResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	reader, err := zip.NewReader(bytes.NewReader(raw.Content), int64(len(raw.Content)))
	if err != nil {
		return nil, fmt.Errorf("%w: %s is not a valid docx archive: %v", domain.ErrExtraction, raw.Filename, err)
	}

	content, err := readPart(reader, documentPart)
	if err != nil {
		return nil, err
	}

	text, err := parseDocumentXML(content)
	if err != nil {
		return nil, err
	}
	return &domain.ExtractResult{Text: text}, nil
}

// readPart returns the contents of the named archive member.
func readPart(reader *zip.Reader, name string) ([]byte, error) {
	for _, file := range reader.File {
		if file.Name != name {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: open %s: %v", domain.ErrExtraction, name, err)
		}
		defer rc.Close()

		content, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %v", domain.ErrExtraction, name, err)
		}
		return content, nil
	}
	return nil, fmt.Errorf("%w: missing %s", domain.ErrExtraction, name)
}

// parseDocumentXML walks the WordprocessingML token stream. Paragraphs
// inside tables and text boxes are included in document order.
// Compatibility fallbacks repeat content already seen, so they are skipped.
func parseDocumentXML(content []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(content))

	var (
		result   strings.Builder
		inText   bool
		skipping int
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: malformed %s: %v", domain.ErrExtraction, documentPart, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if skipping > 0 || t.Name.Local == "Fallback" {
				skipping++
				continue
			}
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				result.WriteByte('\t')
			case "br", "cr":
				result.WriteByte('\n')
			}
		case xml.EndElement:
			if skipping > 0 {
				skipping--
				continue
			}
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				result.WriteByte('\n')
			}
		case xml.CharData:
			if inText && skipping == 0 {
				result.Write(t)
			}
		}
	}

	return result.String(), nil
}
