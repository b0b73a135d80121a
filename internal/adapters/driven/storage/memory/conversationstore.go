package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/caresync/internal/core/domain"
	"github.com/custodia-labs/caresync/internal/core/ports/driven"
)

// Ensure ConversationStore implements the interface.
var _ driven.ConversationStore = (*ConversationStore)(nil)

// ConversationStore is an in-memory implementation of driven.ConversationStore.
type ConversationStore struct {
	mu    sync.RWMutex
	turns map[string][]domain.Turn
}

// NewConversationStore creates a new in-memory conversation store.
func NewConversationStore() *ConversationStore {
	return &ConversationStore{
		turns: make(map[string][]domain.Turn),
	}
}

// AppendTurn records a turn at the end of its conversation.
func (s *ConversationStore) AppendTurn(_ context.Context, turn domain.Turn) error {
	if turn.ConversationID == "" {
		return fmt.Errorf("%w: conversation id is required", domain.ErrInvalidInput)
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns[turn.ConversationID] = append(s.turns[turn.ConversationID], turn)
	return nil
}

// ListTurns returns the turns of a conversation in order.
func (s *ConversationStore) ListTurns(_ context.Context, conversationID string) ([]domain.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	turns := s.turns[conversationID]
	out := make([]domain.Turn, len(turns))
	copy(out, turns)
	return out, nil
}
