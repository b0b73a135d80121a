package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/caresync/internal/core/domain"
	"github.com/custodia-labs/caresync/internal/core/ports/driven"
	"github.com/custodia-labs/caresync/internal/core/ports/driving"
	"github.com/custodia-labs/caresync/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

// MaxSnippetLength caps the characters of chunk text returned in a Source.
const MaxSnippetLength = 500

// RetrievalService embeds a question and maps the nearest index entries to
// public sources. It is the only place index results leave the core.
type RetrievalService struct {
	embedder    driven.EmbeddingService
	index       driven.VectorIndex
	defaultTopK int
}

// NewRetrievalService creates a retrieval service. defaultTopK <= 0 uses
// domain.DefaultTopK.
func NewRetrievalService(embedder driven.EmbeddingService, index driven.VectorIndex, defaultTopK int) *RetrievalService {
	if defaultTopK <= 0 {
		defaultTopK = domain.DefaultTopK
	}
	return &RetrievalService{
		embedder:    embedder,
		index:       index,
		defaultTopK: defaultTopK,
	}
}

// Search returns up to topK sources, best first. Snippets are capped at
// MaxSnippetLength runes.
func (s *RetrievalService) Search(ctx context.Context, question string, topK int) ([]domain.Source, error) {
	results, err := s.Retrieve(ctx, question, topK)
	if err != nil {
		return nil, err
	}
	return ToSources(results), nil
}

// Retrieve returns up to topK index results for question with the full
// chunk text, best first. The sentinel is never included.
func (s *RetrievalService) Retrieve(ctx context.Context, question string, topK int) ([]domain.SearchResult, error) {
	logger.Section("Retrieval")

	question = strings.TrimSpace(question)
	if question == "" {
		logger.Debug("Empty question, returning no sources")
		return []domain.SearchResult{}, nil
	}

	if topK <= 0 {
		topK = s.defaultTopK
	}
	logger.Debug("Question: %q, top_k: %d", question, topK)

	vector, err := s.embedder.Embed(ctx, question)
	if err != nil {
		if errors.Is(err, domain.ErrEmbeddingService) {
			return nil, fmt.Errorf("embed question: %w", err)
		}
		return nil, fmt.Errorf("%w: embed question: %w", domain.ErrEmbeddingService, err)
	}

	results, err := s.index.Search(ctx, vector, topK)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}
	logger.Debug("Index returned %d results", len(results))

	kept := make([]domain.SearchResult, 0, len(results))
	for _, r := range results {
		if !domain.IsSentinel(r.Chunk.ID) {
			kept = append(kept, r)
		}
	}
	return kept, nil
}

// ToSources maps index results to their public shape.
func ToSources(results []domain.SearchResult) []domain.Source {
	sources := make([]domain.Source, 0, len(results))
	for _, r := range results {
		sources = append(sources, toSource(r))
	}
	return sources
}

func toSource(r domain.SearchResult) domain.Source {
	return domain.Source{
		DocumentName:   r.Chunk.Metadata.Filename,
		PageNumber:     r.Chunk.Metadata.PageNumber,
		TextSnippet:    snippet(r.Chunk.Text),
		RelevanceScore: r.Score,
	}
}

// snippet trims text and truncates it to MaxSnippetLength runes.
func snippet(text string) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) <= MaxSnippetLength {
		return text
	}
	return strings.TrimSpace(string(runes[:MaxSnippetLength])) + "..."
}
