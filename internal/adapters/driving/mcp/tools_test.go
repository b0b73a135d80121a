package mcp

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/caresync/internal/core/domain"
)

func TestServer_handleAsk(t *testing.T) {
	ctx := context.Background()

	t.Run("returns chat result", func(t *testing.T) {
		chat := &mockChatService{result: &domain.ChatResult{
			Answer:         "Drink water.",
			Confidence:     0.8,
			ConversationID: "conv-1",
			Sources:        []domain.Source{{DocumentName: "hydration.pdf", RelevanceScore: 0.9}},
			Metadata:       domain.ChatMetadata{HasContext: true},
		}}
		server, err := NewServer(&Ports{Chat: chat})
		require.NoError(t, err)

		_, output, err := server.handleAsk(ctx, nil, AskInput{Question: "How much water?", ConversationID: "conv-1"})

		require.NoError(t, err)
		assert.Equal(t, "Drink water.", output.Answer)
		assert.Equal(t, "conv-1", output.ConversationID)
		assert.True(t, output.Metadata.HasContext)
		require.Len(t, output.Sources, 1)
		assert.Equal(t, "How much water?", chat.lastQuestion)
		assert.Equal(t, "conv-1", chat.lastConvID)
	})

	t.Run("rejects missing question", func(t *testing.T) {
		chat := &mockChatService{}
		server, err := NewServer(&Ports{Chat: chat})
		require.NoError(t, err)

		_, _, err = server.handleAsk(ctx, nil, AskInput{})

		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		assert.Empty(t, chat.lastQuestion)
	})

	t.Run("returns error on ask failure", func(t *testing.T) {
		chat := &mockChatService{err: domain.ErrGeneration}
		server, err := NewServer(&Ports{Chat: chat})
		require.NoError(t, err)

		_, _, err = server.handleAsk(ctx, nil, AskInput{Question: "q"})
		assert.ErrorIs(t, err, domain.ErrGeneration)
	})
}

func TestServer_handleSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("returns sources", func(t *testing.T) {
		retrieval := &mockRetrievalService{sources: []domain.Source{
			{DocumentName: "a.pdf", TextSnippet: "first", RelevanceScore: 0.9},
			{DocumentName: "b.docx", TextSnippet: "second", RelevanceScore: 0.5},
		}}
		server, err := NewServer(&Ports{Chat: &mockChatService{}, Retrieval: retrieval})
		require.NoError(t, err)

		_, output, err := server.handleSearch(ctx, nil, SearchInput{Question: "q", TopK: 2})

		require.NoError(t, err)
		assert.Equal(t, 2, output.Count)
		assert.Equal(t, "a.pdf", output.Sources[0].DocumentName)
		assert.Equal(t, 2, retrieval.lastTopK)
	})

	t.Run("empty result is an empty list", func(t *testing.T) {
		server, err := NewServer(&Ports{Chat: &mockChatService{}, Retrieval: &mockRetrievalService{}})
		require.NoError(t, err)

		_, output, err := server.handleSearch(ctx, nil, SearchInput{Question: "q"})

		require.NoError(t, err)
		assert.NotNil(t, output.Sources)
		assert.Equal(t, 0, output.Count)
	})

	t.Run("rejects out of range top_k", func(t *testing.T) {
		server, err := NewServer(&Ports{Chat: &mockChatService{}, Retrieval: &mockRetrievalService{}})
		require.NoError(t, err)

		_, _, err = server.handleSearch(ctx, nil, SearchInput{Question: "q", TopK: 500})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("returns error on search failure", func(t *testing.T) {
		retrieval := &mockRetrievalService{err: errors.New("search failed")}
		server, err := NewServer(&Ports{Chat: &mockChatService{}, Retrieval: retrieval})
		require.NoError(t, err)

		_, _, err = server.handleSearch(ctx, nil, SearchInput{Question: "q"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "search failed")
	})
}

func TestServer_handleProcessDocument(t *testing.T) {
	ctx := context.Background()

	t.Run("reads file and processes it", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "care-plan.pdf")
		require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0600))

		docs := &mockDocumentService{result: &domain.ProcessResult{DocumentID: "doc-1", NumChunks: 4}}
		server, err := NewServer(&Ports{Chat: &mockChatService{}, Document: docs})
		require.NoError(t, err)

		_, output, err := server.handleProcessDocument(ctx, nil, ProcessDocumentInput{Path: path, DocumentType: "plan"})

		require.NoError(t, err)
		assert.Equal(t, "doc-1", output.DocumentID)
		assert.Equal(t, 4, output.NumChunks)
		assert.Equal(t, "care-plan.pdf", docs.lastFilename)
		assert.Equal(t, "plan", docs.lastType)
		assert.Equal(t, []byte("%PDF-1.4"), docs.lastData)
	})

	t.Run("missing file", func(t *testing.T) {
		docs := &mockDocumentService{}
		server, err := NewServer(&Ports{Chat: &mockChatService{}, Document: docs})
		require.NoError(t, err)

		_, _, err = server.handleProcessDocument(ctx, nil, ProcessDocumentInput{Path: filepath.Join(t.TempDir(), "nope.pdf")})

		require.Error(t, err)
		assert.ErrorIs(t, err, os.ErrNotExist)
		assert.Empty(t, docs.lastFilename)
	})

	t.Run("rejects missing path", func(t *testing.T) {
		server, err := NewServer(&Ports{Chat: &mockChatService{}, Document: &mockDocumentService{}})
		require.NoError(t, err)

		_, _, err = server.handleProcessDocument(ctx, nil, ProcessDocumentInput{})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("propagates unsupported format", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "setup.exe")
		require.NoError(t, os.WriteFile(path, []byte("MZ"), 0600))

		docs := &mockDocumentService{err: &domain.UnsupportedFormatError{Extension: ".exe"}}
		server, err := NewServer(&Ports{Chat: &mockChatService{}, Document: docs})
		require.NoError(t, err)

		_, _, err = server.handleProcessDocument(ctx, nil, ProcessDocumentInput{Path: path})
		assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
	})
}
