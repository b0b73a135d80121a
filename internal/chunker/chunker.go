// Package chunker splits extracted document text into overlapping chunks.
//
// The splitter is a greedy sliding window measured in characters (runes).
// Inside each window it prefers to cut after a paragraph break, then a line
// break, then a sentence end, then a space, and only falls back to a hard
// cut when none of these lie far enough into the window. The next window
// starts overlap characters before the previous cut, nudged forward to the
// start of a word when one is close by.
package chunker

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/custodia-labs/caresync/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = domain.DefaultChunkSize

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = domain.DefaultChunkOverlap

// separators are tried in order; the cut lands just after the separator.
var separators = []string{"\n\n", "\n", ". ", "? ", "! ", "; ", " "}

// pageMarker matches the page boundary emitted by the PDF extractor.
var pageMarker = regexp.MustCompile(`=== Page (\d+) ===`)

// Chunker splits text into overlapping chunks.
type Chunker struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		c.chunkSize = size
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		c.overlap = overlap
	}
}

// New creates a chunker. It fails with domain.ErrConfig when the overlap is
// not smaller than the chunk size.
func New(opts ...Option) (*Chunker, error) {
	c := &Chunker{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(c)
	}

	cfg := domain.ChunkerSettings{Size: c.chunkSize, Overlap: c.overlap}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

// FromSettings creates a chunker from application settings.
// Zero values fall back to the defaults.
func FromSettings(s domain.ChunkerSettings) (*Chunker, error) {
	var opts []Option
	if s.Size != 0 {
		opts = append(opts, WithChunkSize(s.Size))
	}
	if s.Overlap != 0 {
		opts = append(opts, WithOverlap(s.Overlap))
	}
	return New(opts...)
}

// Size returns the chunk size in characters.
func (c *Chunker) Size() int {
	return c.chunkSize
}

// Overlap returns the overlap in characters.
func (c *Chunker) Overlap() int {
	return c.overlap
}

// Span is a half-open rune range [Start, End) of the input text.
type Span struct {
	Start int
	End   int
}

// Spans returns the rune ranges of each chunk in order.
// Whitespace-only input yields no spans.
func (c *Chunker) Spans(text string) []Span {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	runes := []rune(text)
	n := len(runes)
	spans := make([]Span, 0, n/(c.chunkSize-c.overlap)+1)

	start := 0
	for start < n {
		end := start + c.chunkSize
		if end >= n {
			spans = append(spans, Span{Start: start, End: n})
			break
		}
		end = c.breakPoint(runes, start, end)
		spans = append(spans, Span{Start: start, End: end})

		next := end - c.overlap
		if next <= start {
			next = start + 1
		}
		start = c.snapToWord(runes, next, end)
	}

	return spans
}

// Split returns the chunk texts in order.
func (c *Chunker) Split(text string) []string {
	runes := []rune(text)
	spans := c.Spans(text)
	out := make([]string, len(spans))
	for i, s := range spans {
		out[i] = string(runes[s.Start:s.End])
	}
	return out
}

// Chunks splits text into domain chunks for documentID. Each chunk inherits
// meta, gets a sequential Index from 0, and a PageNumber taken from the
// nearest preceding page marker.
func (c *Chunker) Chunks(documentID, text string, meta domain.ChunkMetadata) []domain.Chunk {
	spans := c.Spans(text)
	if len(spans) == 0 {
		return nil
	}

	runes := []rune(text)
	pages := pageOffsets(text)

	chunks := make([]domain.Chunk, len(spans))
	for i, s := range spans {
		m := meta
		m.PageNumber = pageFor(pages, s)
		chunks[i] = domain.Chunk{
			ID:         uuid.New().String(),
			DocumentID: documentID,
			Index:      i,
			Text:       string(runes[s.Start:s.End]),
			Metadata:   m,
		}
	}
	return chunks
}

// breakPoint returns the preferred cut in (start+overlap, end].
// The cut must leave the next window starting after start.
func (c *Chunker) breakPoint(runes []rune, start, end int) int {
	minCut := start + c.overlap + 1
	if half := start + c.chunkSize/2; half > minCut {
		minCut = half
	}
	window := string(runes[minCut:end])

	for _, sep := range separators {
		idx := strings.LastIndex(window, sep)
		if idx < 0 {
			continue
		}
		// idx is a byte offset into window; convert back to runes.
		return minCut + len([]rune(window[:idx+len(sep)]))
	}
	return end
}

// snapToWord moves pos forward to the start of the next word when pos falls
// inside a word and a word start lies within a short distance.
func (c *Chunker) snapToWord(runes []rune, pos, limit int) int {
	if pos <= 0 || unicode.IsSpace(runes[pos-1]) {
		return pos
	}
	maxShift := c.overlap / 20
	for i := pos; i < limit && i-pos <= maxShift; i++ {
		if unicode.IsSpace(runes[i-1]) {
			return i
		}
	}
	return pos
}

type pageOffset struct {
	offset int
	page   int
}

// pageOffsets returns the rune offset and number of every page marker.
func pageOffsets(text string) []pageOffset {
	matches := pageMarker.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil
	}
	out := make([]pageOffset, 0, len(matches))
	for _, m := range matches {
		page, err := strconv.Atoi(text[m[2]:m[3]])
		if err != nil {
			continue
		}
		out = append(out, pageOffset{
			offset: len([]rune(text[:m[0]])),
			page:   page,
		})
	}
	return out
}

// pageFor returns the page a span starts on, or the first page marker inside
// the span when it starts before any marker.
func pageFor(pages []pageOffset, s Span) *int {
	var found *int
	for _, p := range pages {
		if p.offset <= s.Start {
			found = domain.IntPtr(p.page)
			continue
		}
		if found == nil && p.offset < s.End {
			found = domain.IntPtr(p.page)
		}
		break
	}
	return found
}
