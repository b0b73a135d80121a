// Package pdf extracts text from PDF uploads using the poppler command line
// tools (pdfinfo and pdftotext).
package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"github.com/custodia-labs/caresync/internal/core/domain"
	"github.com/custodia-labs/caresync/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// ErrPDFToolNotFound indicates pdftotext or pdfinfo is not installed.
var ErrPDFToolNotFound = errors.New("pdftotext not found: install poppler to extract PDF text")

var pagesLine = regexp.MustCompile(`(?m)^Pages:\s+(\d+)\s*$`)

// CommandRunner executes external commands.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// execRunner runs commands via os/exec.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if _, err := exec.LookPath(name); err != nil {
		return nil, ErrPDFToolNotFound
	}
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return out, nil
}

// Extractor handles PDF documents.
type Extractor struct {
	runner CommandRunner
}

// New creates a PDF extractor that shells out to poppler.
func New() *Extractor {
	return &Extractor{runner: execRunner{}}
}

// NewWithRunner creates a PDF extractor with a custom command runner.
func NewWithRunner(runner CommandRunner) *Extractor {
	return &Extractor{runner: runner}
}

// CheckAvailable returns ErrPDFToolNotFound if the poppler tools are missing.
func CheckAvailable() error {
	for _, tool := range []string{"pdftotext", "pdfinfo"} {
		if _, err := exec.LookPath(tool); err != nil {
			return ErrPDFToolNotFound
		}
	}
	return nil
}

// InstallInstructions returns how to install pdftotext on common platforms.
func InstallInstructions() string {
	return `pdftotext is required for PDF support. Install poppler:
  macOS:  brew install poppler
  Debian: apt install poppler-utils
  Fedora: dnf install poppler-utils`
}

// SupportedExtensions returns the extensions this extractor handles.
func (e *Extractor) SupportedExtensions() []string {
	return []string{".pdf"}
}

// Extract returns the text of every page, each prefixed by a page marker.
// Pages with no extractable text are skipped.
func (e *Extractor) Extract(ctx context.Context, raw *domain.RawDocument) (*domain.ExtractResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	if !bytes.HasPrefix(bytes.TrimLeft(raw.Content, " \t\r\n"), []byte("%PDF-")) {
		return nil, fmt.Errorf("%w: %s is not a PDF file", domain.ErrExtraction, raw.Filename)
	}

	tmp, err := os.CreateTemp("", "caresync-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("%w: create temp file: %v", domain.ErrExtraction, err)
	}
	path := tmp.Name()
	defer os.Remove(path)

	if _, err := tmp.Write(raw.Content); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("%w: write temp file: %v", domain.ErrExtraction, err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("%w: close temp file: %v", domain.ErrExtraction, err)
	}

	pages, err := e.pageCount(ctx, path)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	for page := 1; page <= pages; page++ {
		n := strconv.Itoa(page)
		out, err := e.runner.Run(ctx, "pdftotext", "-f", n, "-l", n, "-layout", "-enc", "UTF-8", path, "-")
		if err != nil {
			return nil, wrapToolError("pdftotext", err)
		}
		text := strings.TrimSpace(string(out))
		if text == "" {
			continue
		}
		b.WriteString(PageMarker(page))
		b.WriteString(text)
	}

	return &domain.ExtractResult{Text: b.String(), Pages: pages}, nil
}

// PageMarker returns the separator written before the text of a page.
func PageMarker(page int) string {
	return fmt.Sprintf("\n\n=== Page %d ===\n\n", page)
}

func (e *Extractor) pageCount(ctx context.Context, path string) (int, error) {
	out, err := e.runner.Run(ctx, "pdfinfo", path)
	if err != nil {
		return 0, wrapToolError("pdfinfo", err)
	}
	m := pagesLine.FindSubmatch(out)
	if m == nil {
		return 0, fmt.Errorf("%w: pdfinfo reported no page count", domain.ErrExtraction)
	}
	n, err := strconv.Atoi(string(m[1]))
	if err != nil {
		return 0, fmt.Errorf("%w: invalid page count %q", domain.ErrExtraction, m[1])
	}
	return n, nil
}

func wrapToolError(tool string, err error) error {
	if errors.Is(err, ErrPDFToolNotFound) {
		return fmt.Errorf("%w: %w", domain.ErrExtraction, ErrPDFToolNotFound)
	}
	return fmt.Errorf("%w: %s failed: %v", domain.ErrExtraction, tool, err)
}
