package mcp

import (
	"context"

	"github.com/custodia-labs/caresync/internal/core/domain"
)

// mockChatService is a mock implementation of driving.ChatService.
type mockChatService struct {
	result       *domain.ChatResult
	err          error
	lastQuestion string
	lastConvID   string
}

func (m *mockChatService) Ask(_ context.Context, question, conversationID string) (*domain.ChatResult, error) {
	m.lastQuestion = question
	m.lastConvID = conversationID
	return m.result, m.err
}

func (m *mockChatService) History(_ context.Context, _ string) ([]domain.Turn, error) {
	return nil, m.err
}

// mockRetrievalService is a mock implementation of driving.RetrievalService.
type mockRetrievalService struct {
	sources  []domain.Source
	err      error
	lastTopK int
}

func (m *mockRetrievalService) Search(_ context.Context, _ string, topK int) ([]domain.Source, error) {
	m.lastTopK = topK
	return m.sources, m.err
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	documents    []domain.Document
	document     *domain.Document
	result       *domain.ProcessResult
	err          error
	lastFilename string
	lastType     string
	lastData     []byte
}

func (m *mockDocumentService) ProcessDocument(
	_ context.Context, data []byte, filename, documentType string,
) (*domain.ProcessResult, error) {
	m.lastData = data
	m.lastFilename = filename
	m.lastType = documentType
	return m.result, m.err
}

func (m *mockDocumentService) Get(_ context.Context, _ string) (*domain.Document, error) {
	return m.document, m.err
}

func (m *mockDocumentService) List(_ context.Context) ([]domain.Document, error) {
	return m.documents, m.err
}

func (m *mockDocumentService) Download(_ context.Context, _ string) ([]byte, *domain.Document, error) {
	return nil, m.document, m.err
}

func (m *mockDocumentService) Delete(_ context.Context, _ string) error {
	return m.err
}

func (m *mockDocumentService) SupportedExtensions() []string {
	return []string{".docx", ".pdf"}
}
