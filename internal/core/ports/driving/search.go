package driving

import (
	"context"

	"github.com/custodia-labs/caresync/internal/core/domain"
)

// RetrievalService finds the chunks most relevant to a question.
type RetrievalService interface {
	// Search returns up to topK sources, best first. An empty or
	// whitespace-only question yields an empty result. topK <= 0 uses the
	// configured default.
	Search(ctx context.Context, question string, topK int) ([]domain.Source, error)
}

// ChatService answers questions grounded in indexed documents.
type ChatService interface {
	// Ask answers a single question. An empty conversationID mints a new one.
	Ask(ctx context.Context, question, conversationID string) (*domain.ChatResult, error)

	// History returns the recorded turns of a conversation.
	History(ctx context.Context, conversationID string) ([]domain.Turn, error)
}
