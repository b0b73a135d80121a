package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/caresync/internal/core/domain"
)

func sampleText(n int) string {
	const sentence = "The clinic opens at nine and patients should bring their insurance card. "
	var b strings.Builder
	for b.Len() < n {
		b.WriteString(sentence)
	}
	return b.String()[:n]
}

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		c, err := New()
		require.NoError(t, err)
		assert.Equal(t, DefaultChunkSize, c.Size())
		assert.Equal(t, DefaultChunkOverlap, c.Overlap())
	})

	t.Run("custom values", func(t *testing.T) {
		c, err := New(WithChunkSize(500), WithOverlap(50))
		require.NoError(t, err)
		assert.Equal(t, 500, c.Size())
		assert.Equal(t, 50, c.Overlap())
	})

	invalid := []struct {
		name string
		opts []Option
	}{
		{"overlap equals chunk size", []Option{WithChunkSize(100), WithOverlap(100)}},
		{"overlap exceeds chunk size", []Option{WithChunkSize(100), WithOverlap(150)}},
		{"negative overlap", []Option{WithOverlap(-1)}},
		{"zero chunk size", []Option{WithChunkSize(0)}},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.opts...)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrConfig)
			assert.Nil(t, c)
		})
	}
}

func TestFromSettings(t *testing.T) {
	c, err := FromSettings(domain.ChunkerSettings{})
	require.NoError(t, err)
	assert.Equal(t, DefaultChunkSize, c.Size())

	_, err = FromSettings(domain.ChunkerSettings{Size: 200, Overlap: 300})
	assert.ErrorIs(t, err, domain.ErrConfig)
}

func TestSplit_Empty(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	assert.Empty(t, c.Split(""))
	assert.Empty(t, c.Split("   \n\t  "))
	assert.Nil(t, c.Chunks("doc", "", domain.ChunkMetadata{}))
}

func TestSplit_SmallText(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	chunks := c.Split("Diabetes symptoms include increased thirst.")
	require.Len(t, chunks, 1)
	assert.Equal(t, "Diabetes symptoms include increased thirst.", chunks[0])
}

func TestSplit_2500Characters(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	text := sampleText(2500)
	spans := c.Spans(text)
	chunks := c.Split(text)

	require.GreaterOrEqual(t, len(chunks), 2)
	require.Len(t, spans, len(chunks))

	for i, chunk := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(chunk), 1000, "chunk %d too long", i)
	}
	for i := 1; i < len(spans); i++ {
		shared := spans[i-1].End - spans[i].Start
		assert.GreaterOrEqual(t, shared, 190, "chunks %d and %d share too little", i-1, i)
		assert.Greater(t, spans[i].Start, spans[i-1].Start)
	}
}

func TestSplit_CoverageAndReconstruction(t *testing.T) {
	texts := map[string]string{
		"sentences":     sampleText(5300),
		"no separators": strings.Repeat("a", 2500),
		"paragraphs":    strings.Repeat("First line of a paragraph.\nSecond line.\n\n", 120),
		"multibyte":     strings.Repeat("é", 2345),
	}

	c, err := New()
	require.NoError(t, err)

	for name, text := range texts {
		t.Run(name, func(t *testing.T) {
			runes := []rune(text)
			spans := c.Spans(text)
			chunks := c.Split(text)

			total := 0
			for _, chunk := range chunks {
				total += utf8.RuneCountInString(chunk)
			}
			assert.GreaterOrEqual(t, total, len(runes))

			var rebuilt strings.Builder
			prevEnd := 0
			for _, s := range spans {
				from := s.Start
				if prevEnd > from {
					from = prevEnd
				}
				rebuilt.WriteString(string(runes[from:s.End]))
				prevEnd = s.End
			}
			assert.Equal(t, text, rebuilt.String())
		})
	}
}

func TestSplit_HardCutWithoutSeparators(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	spans := c.Spans(strings.Repeat("a", 2500))
	require.Len(t, spans, 3)
	assert.Equal(t, Span{Start: 0, End: 1000}, spans[0])
	assert.Equal(t, Span{Start: 800, End: 1800}, spans[1])
	assert.Equal(t, Span{Start: 1600, End: 2500}, spans[2])
}

func TestSplit_PrefersParagraphBreak(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	first := sampleText(800) + "\n\n"
	text := first + sampleText(900)

	chunks := c.Split(text)
	require.GreaterOrEqual(t, len(chunks), 2)
	assert.Equal(t, first, chunks[0])
}

func TestSplit_PrefersSentenceOverSpace(t *testing.T) {
	c, err := New(WithChunkSize(100), WithOverlap(10))
	require.NoError(t, err)

	text := strings.Repeat("word ", 14) + "end. " + strings.Repeat("more words here ", 10)
	chunks := c.Split(text)
	require.GreaterOrEqual(t, len(chunks), 2)
	assert.True(t, strings.HasSuffix(chunks[0], "end. "), "got %q", chunks[0])
}

func TestChunks_Metadata(t *testing.T) {
	c, err := New(WithChunkSize(200), WithOverlap(20))
	require.NoError(t, err)

	text := "\n\n=== Page 1 ===\n\n" + sampleText(300) + "\n\n=== Page 2 ===\n\n" + sampleText(300)
	meta := domain.ChunkMetadata{Filename: "handbook.pdf", DocumentType: "policy"}

	chunks := c.Chunks("doc-1", text, meta)
	require.GreaterOrEqual(t, len(chunks), 3)

	seen := make(map[string]bool)
	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.Index)
		assert.Equal(t, "doc-1", chunk.DocumentID)
		assert.Equal(t, "handbook.pdf", chunk.Metadata.Filename)
		assert.Equal(t, "policy", chunk.Metadata.DocumentType)
		assert.NotEmpty(t, chunk.ID)
		assert.False(t, seen[chunk.ID], "duplicate chunk id")
		seen[chunk.ID] = true
		require.NotNil(t, chunk.Metadata.PageNumber)
	}

	assert.Equal(t, 1, *chunks[0].Metadata.PageNumber)
	assert.Equal(t, 2, *chunks[len(chunks)-1].Metadata.PageNumber)
}

func TestChunks_NoPageMarkers(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	chunks := c.Chunks("doc-1", "Paragraph one.\nParagraph two.\n", domain.ChunkMetadata{Filename: "faq.docx"})
	require.Len(t, chunks, 1)
	assert.Nil(t, chunks[0].Metadata.PageNumber)
}
