package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/caresync/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/caresync/internal/core/domain"
	"github.com/custodia-labs/caresync/internal/core/ports/driven"
)

type failingTurnStore struct{}

func (failingTurnStore) AppendTurn(context.Context, domain.Turn) error {
	return errors.New("disk full")
}

func (failingTurnStore) ListTurns(context.Context, string) ([]domain.Turn, error) {
	return nil, nil
}

func newTestChat(index *mockVectorIndex, llm *mockLLMService, turns driven.ConversationStore) *ChatService {
	retrieval := NewRetrievalService(newMockEmbedding(4), index, 3)
	generator := NewAnswerGenerator(llm, newMockPromptStore(), domain.LLMSettings{})
	svc := NewChatService(retrieval, generator, turns, 3)
	svc.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return svc
}

func TestChatService_EmptyIndex(t *testing.T) {
	llm := &mockLLMService{response: "I can only give general guidance."}
	svc := newTestChat(&mockVectorIndex{dims: 4}, llm, memory.NewConversationStore())

	result, err := svc.Ask(context.Background(), "Hello?", "")
	require.NoError(t, err)

	assert.Nil(t, result.Sources)
	assert.False(t, result.Metadata.HasContext)
	assert.InDelta(t, ConfidenceWithoutContext, result.Confidence, 1e-9)
	assert.NotEmpty(t, result.ConversationID)
	assert.Equal(t, "NOCTX|Q:Hello?", llm.lastPrompt)
}

func TestChatService_WithContext(t *testing.T) {
	page := 3
	index := &mockVectorIndex{dims: 4, results: []domain.SearchResult{
		resultFor("c1", "diabetes.pdf", "Type 2 diabetes symptoms include thirst.", &page, 0.8),
	}}
	llm := &mockLLMService{response: "Thirst is a common symptom."}
	turns := memory.NewConversationStore()
	svc := newTestChat(index, llm, turns)

	result, err := svc.Ask(context.Background(), "  What are diabetes symptoms?  ", "conv-7")
	require.NoError(t, err)

	assert.Equal(t, "Thirst is a common symptom.", result.Answer)
	assert.Equal(t, "conv-7", result.ConversationID)
	assert.True(t, result.Metadata.HasContext)
	assert.InDelta(t, ConfidenceWithContext, result.Confidence, 1e-9)
	require.Len(t, result.Sources, 1)
	assert.Equal(t, "diabetes.pdf", result.Sources[0].DocumentName)
	assert.Equal(t, 3, index.searchK)

	history, err := svc.History(context.Background(), "conv-7")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "What are diabetes symptoms?", history[0].Question)
	assert.Equal(t, result.Answer, history[0].Answer)
	assert.True(t, history[0].HasContext)
}

func TestChatService_TurnsAreIndependent(t *testing.T) {
	llm := &mockLLMService{response: "ok"}
	svc := newTestChat(&mockVectorIndex{dims: 4}, llm, memory.NewConversationStore())

	_, err := svc.Ask(context.Background(), "first question", "conv")
	require.NoError(t, err)
	_, err = svc.Ask(context.Background(), "second question", "conv")
	require.NoError(t, err)

	assert.NotContains(t, llm.lastPrompt, "first question")

	history, err := svc.History(context.Background(), "conv")
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestChatService_MintsDistinctConversationIDs(t *testing.T) {
	svc := newTestChat(&mockVectorIndex{dims: 4}, &mockLLMService{response: "ok"}, nil)

	a, err := svc.Ask(context.Background(), "q", "")
	require.NoError(t, err)
	b, err := svc.Ask(context.Background(), "q", "")
	require.NoError(t, err)

	assert.NotEqual(t, a.ConversationID, b.ConversationID)
}

func TestChatService_BlankQuestionAnsweredWithoutContext(t *testing.T) {
	embedder := newMockEmbedding(4)
	llm := &mockLLMService{response: "How can I help?"}
	svc := NewChatService(
		NewRetrievalService(embedder, &mockVectorIndex{dims: 4}, 3),
		NewAnswerGenerator(llm, newMockPromptStore(), domain.LLMSettings{}),
		nil, 3,
	)

	result, err := svc.Ask(context.Background(), "   ", "")
	require.NoError(t, err)

	assert.Equal(t, "How can I help?", result.Answer)
	assert.Nil(t, result.Sources)
	assert.False(t, result.Metadata.HasContext)
	assert.InDelta(t, ConfidenceWithoutContext, result.Confidence, 1e-9)
	assert.Equal(t, "NOCTX|Q:", llm.lastPrompt)
	assert.Zero(t, embedder.embedCalls)
}

func TestChatService_GroundsOnFullChunkText(t *testing.T) {
	text := strings.Repeat("Blood glucose log for March. ", 20) + "Fasting glucose averaged 142 mg/dL."
	require.Greater(t, len([]rune(text)), MaxSnippetLength)

	index := &mockVectorIndex{dims: 4, results: []domain.SearchResult{
		resultFor("c1", "lab_results.pdf", text, nil, 0.6),
	}}
	llm := &mockLLMService{response: "About 142 mg/dL."}
	svc := newTestChat(index, llm, nil)

	result, err := svc.Ask(context.Background(), "What was my fasting glucose?", "")
	require.NoError(t, err)

	assert.Contains(t, llm.lastPrompt, "Fasting glucose averaged 142 mg/dL.")
	require.Len(t, result.Sources, 1)
	assert.NotContains(t, result.Sources[0].TextSnippet, "142 mg/dL")
	assert.True(t, strings.HasSuffix(result.Sources[0].TextSnippet, "..."))
}

func TestChatService_RetrievalFailure(t *testing.T) {
	index := &mockVectorIndex{dims: 4, searchErr: errors.New("corrupt")}
	llm := &mockLLMService{}
	svc := newTestChat(index, llm, nil)

	_, err := svc.Ask(context.Background(), "q", "")
	require.Error(t, err)
	assert.Zero(t, llm.calls)
}

func TestChatService_GenerationFailure(t *testing.T) {
	llm := &mockLLMService{err: errors.New("timeout")}
	turns := memory.NewConversationStore()
	svc := newTestChat(&mockVectorIndex{dims: 4}, llm, turns)

	_, err := svc.Ask(context.Background(), "q", "conv")
	assert.ErrorIs(t, err, domain.ErrGeneration)

	history, err := svc.History(context.Background(), "conv")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestChatService_RecordFailureIsNotFatal(t *testing.T) {
	retrieval := NewRetrievalService(newMockEmbedding(4), &mockVectorIndex{dims: 4}, 3)
	generator := NewAnswerGenerator(&mockLLMService{response: "ok"}, newMockPromptStore(), domain.LLMSettings{})
	svc := NewChatService(retrieval, generator, nil, 3)
	svc.turns = failingTurnStore{}

	result, err := svc.Ask(context.Background(), "q", "")
	require.NoError(t, err)
	assert.Equal(t, "ok", result.Answer)
}

func TestChatService_History(t *testing.T) {
	t.Run("requires conversation id", func(t *testing.T) {
		svc := newTestChat(&mockVectorIndex{dims: 4}, &mockLLMService{}, memory.NewConversationStore())
		_, err := svc.History(context.Background(), "")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("unsupported without store", func(t *testing.T) {
		svc := newTestChat(&mockVectorIndex{dims: 4}, &mockLLMService{}, nil)
		_, err := svc.History(context.Background(), "conv")
		assert.ErrorIs(t, err, domain.ErrUnsupportedOperation)
	})
}
