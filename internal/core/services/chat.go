package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/caresync/internal/core/domain"
	"github.com/custodia-labs/caresync/internal/core/ports/driven"
	"github.com/custodia-labs/caresync/internal/core/ports/driving"
	"github.com/custodia-labs/caresync/internal/logger"
)

// Ensure ChatService implements the interface.
var _ driving.ChatService = (*ChatService)(nil)

// retriever finds the chunks a question is answered from.
type retriever interface {
	Retrieve(ctx context.Context, question string, topK int) ([]domain.SearchResult, error)
}

// answerer produces an answer for a question and its retrieved chunks.
type answerer interface {
	Generate(ctx context.Context, question string, passages []domain.SearchResult, conversationID string) (*domain.Answer, error)
}

// ChatService coordinates retrieval and generation for a single question.
// Every question is answered from its own retrieved context; earlier turns
// are recorded but never fed back into the prompt.
type ChatService struct {
	retrieval retriever
	generator answerer
	turns     driven.ConversationStore
	topK      int
	now       func() time.Time
}

// NewChatService creates a chat service. turns may be nil, in which case
// nothing is recorded and History is unavailable.
func NewChatService(
	retrieval *RetrievalService,
	generator *AnswerGenerator,
	turns driven.ConversationStore,
	topK int,
) *ChatService {
	return &ChatService{
		retrieval: retrieval,
		generator: generator,
		turns:     turns,
		topK:      topK,
		now:       time.Now,
	}
}

// Ask answers question within conversationID, minting an ID when empty.
// A blank question retrieves nothing and is answered without context.
func (s *ChatService) Ask(ctx context.Context, question, conversationID string) (*domain.ChatResult, error) {
	logger.Section("Ask")

	question = strings.TrimSpace(question)
	if conversationID == "" {
		conversationID = uuid.New().String()
		logger.Debug("New conversation: %s", conversationID)
	}

	results, err := s.retrieval.Retrieve(ctx, question, s.topK)
	if err != nil {
		return nil, err
	}
	hasContext := len(results) > 0
	logger.Debug("Retrieved %d chunks, has_context=%t", len(results), hasContext)

	answer, err := s.generator.Generate(ctx, question, results, conversationID)
	if err != nil {
		return nil, err
	}

	result := &domain.ChatResult{
		Answer:         answer.Text,
		Confidence:     answer.Confidence,
		ConversationID: conversationID,
		Metadata:       domain.ChatMetadata{HasContext: hasContext},
	}
	if hasContext {
		result.Sources = ToSources(results)
	}

	s.record(ctx, question, result)
	return result, nil
}

// record appends the completed turn. Failures are logged only: the answer
// has already been produced.
func (s *ChatService) record(ctx context.Context, question string, result *domain.ChatResult) {
	if s.turns == nil {
		return
	}
	turn := domain.Turn{
		ConversationID: result.ConversationID,
		Question:       question,
		Answer:         result.Answer,
		Sources:        result.Sources,
		Confidence:     result.Confidence,
		HasContext:     result.Metadata.HasContext,
		CreatedAt:      s.now(),
	}
	if err := s.turns.AppendTurn(ctx, turn); err != nil {
		logger.Warn("failed to record turn for conversation %s: %v", result.ConversationID, err)
	}
}

// History returns the recorded turns of conversationID in order.
func (s *ChatService) History(ctx context.Context, conversationID string) ([]domain.Turn, error) {
	if conversationID == "" {
		return nil, fmt.Errorf("%w: conversation id is required", domain.ErrInvalidInput)
	}
	if s.turns == nil {
		return nil, fmt.Errorf("%w: conversation history is not recorded", domain.ErrUnsupportedOperation)
	}
	return s.turns.ListTurns(ctx, conversationID)
}
