package cli

import (
	"context"
	"time"

	"github.com/custodia-labs/caresync/internal/core/domain"
	"github.com/custodia-labs/caresync/internal/core/ports/driving"
)

// testSource is the source returned by the default mocks.
var testSource = domain.Source{
	DocumentName:   "labs.pdf",
	PageNumber:     domain.IntPtr(2),
	TextSnippet:    "HbA1c 6.1% (reference < 5.7%)",
	RelevanceScore: 0.82,
}

var testCreatedAt = time.Date(2024, 3, 14, 9, 30, 0, 0, time.UTC)

// MockChatService implements driving.ChatService.
type MockChatService struct {
	AskFunc     func(ctx context.Context, question, conversationID string) (*domain.ChatResult, error)
	HistoryFunc func(ctx context.Context, conversationID string) ([]domain.Turn, error)
}

var _ driving.ChatService = (*MockChatService)(nil)

func (m *MockChatService) Ask(ctx context.Context, question, conversationID string) (*domain.ChatResult, error) {
	if m.AskFunc != nil {
		return m.AskFunc(ctx, question, conversationID)
	}
	if conversationID == "" {
		conversationID = "conv-123"
	}
	return &domain.ChatResult{
		Answer:         "Your HbA1c was 6.1%, slightly above the reference range.",
		Sources:        []domain.Source{testSource},
		Confidence:     0.85,
		ConversationID: conversationID,
		Metadata:       domain.ChatMetadata{HasContext: true},
	}, nil
}

func (m *MockChatService) History(ctx context.Context, conversationID string) ([]domain.Turn, error) {
	if m.HistoryFunc != nil {
		return m.HistoryFunc(ctx, conversationID)
	}
	return []domain.Turn{{
		ConversationID: conversationID,
		Question:       "What was my HbA1c?",
		Answer:         "6.1%",
		Sources:        []domain.Source{testSource},
		Confidence:     0.85,
		HasContext:     true,
		CreatedAt:      testCreatedAt,
	}}, nil
}

// MockRetrievalService implements driving.RetrievalService.
type MockRetrievalService struct {
	SearchFunc func(ctx context.Context, question string, topK int) ([]domain.Source, error)
}

var _ driving.RetrievalService = (*MockRetrievalService)(nil)

func (m *MockRetrievalService) Search(ctx context.Context, question string, topK int) ([]domain.Source, error) {
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, question, topK)
	}
	return []domain.Source{testSource}, nil
}

// MockDocumentService implements driving.DocumentService.
type MockDocumentService struct {
	ProcessFunc  func(ctx context.Context, data []byte, filename, documentType string) (*domain.ProcessResult, error)
	GetFunc      func(ctx context.Context, id string) (*domain.Document, error)
	ListFunc     func(ctx context.Context) ([]domain.Document, error)
	DownloadFunc func(ctx context.Context, id string) ([]byte, *domain.Document, error)
	DeleteFunc   func(ctx context.Context, id string) error
}

var _ driving.DocumentService = (*MockDocumentService)(nil)

func testDocument() *domain.Document {
	return &domain.Document{
		ID:           "doc-1",
		Filename:     "labs.pdf",
		Extension:    ".pdf",
		DocumentType: "lab_result",
		ContentType:  "application/pdf",
		Size:         2048,
		NumChunks:    4,
		CreatedAt:    testCreatedAt,
	}
}

func (m *MockDocumentService) ProcessDocument(
	ctx context.Context, data []byte, filename, documentType string,
) (*domain.ProcessResult, error) {
	if m.ProcessFunc != nil {
		return m.ProcessFunc(ctx, data, filename, documentType)
	}
	return &domain.ProcessResult{DocumentID: "doc-1", NumChunks: 4}, nil
}

func (m *MockDocumentService) Get(ctx context.Context, id string) (*domain.Document, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return testDocument(), nil
}

func (m *MockDocumentService) List(ctx context.Context) ([]domain.Document, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return []domain.Document{*testDocument()}, nil
}

func (m *MockDocumentService) Download(ctx context.Context, id string) ([]byte, *domain.Document, error) {
	if m.DownloadFunc != nil {
		return m.DownloadFunc(ctx, id)
	}
	return []byte("%PDF-1.4 test"), testDocument(), nil
}

func (m *MockDocumentService) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockDocumentService) SupportedExtensions() []string {
	return []string{".docx", ".pdf"}
}

// MockSettingsService implements driving.SettingsService.
type MockSettingsService struct {
	Settings         domain.AppSettings
	SetCalls         map[string]any
	SetErr           error
	ValidateErr      error
	ValidateEmbedErr error
	ValidateLLMErr   error
}

var _ driving.SettingsService = (*MockSettingsService)(nil)

func newMockSettingsService() *MockSettingsService {
	s := domain.DefaultAppSettings()
	s.VectorIndex.Path = "/data/vector_store"
	s.Documents.Path = "/data/documents"
	return &MockSettingsService{Settings: s, SetCalls: make(map[string]any)}
}

func (m *MockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.Settings
	return &s, nil
}

func (m *MockSettingsService) Set(key string, value any) error {
	if m.SetErr != nil {
		return m.SetErr
	}
	m.SetCalls[key] = value
	return nil
}

func (m *MockSettingsService) Validate() error {
	return m.ValidateErr
}

func (m *MockSettingsService) ValidateEmbeddingConfig() error {
	return m.ValidateEmbedErr
}

func (m *MockSettingsService) ValidateLLMConfig() error {
	return m.ValidateLLMErr
}

// setupTestServices installs default mocks and returns a function that
// restores the previous services.
func setupTestServices() func() {
	oldSettings := settingsService
	oldDocument := documentService
	oldRetrieval := retrievalService
	oldChat := chatService
	oldWarnings := startupWarnings

	SetServices(Services{
		Settings:  newMockSettingsService(),
		Document:  &MockDocumentService{},
		Retrieval: &MockRetrievalService{},
		Chat:      &MockChatService{},
	})

	return func() {
		settingsService = oldSettings
		documentService = oldDocument
		retrievalService = oldRetrieval
		chatService = oldChat
		startupWarnings = oldWarnings
	}
}
