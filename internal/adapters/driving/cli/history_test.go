package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/caresync/internal/core/domain"
)

func TestHistoryCmd_Use(t *testing.T) {
	assert.Equal(t, "history [conversation-id]", historyCmd.Use)
}

func TestHistoryCmd_Text(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand("history", "conv-7")

	require.NoError(t, err)
	assert.Contains(t, out, "Conversation conv-7")
	assert.Contains(t, out, "[2024-03-14 09:30:00] Q: What was my HbA1c?")
	assert.Contains(t, out, "A: 6.1%")
	assert.Contains(t, out, "- labs.pdf, page 2")
	assert.Contains(t, out, "confidence 0.85")
}

func TestHistoryCmd_Empty(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	chatService = &MockChatService{
		HistoryFunc: func(context.Context, string) ([]domain.Turn, error) { return nil, nil },
	}

	out, err := executeCommand("history", "conv-none")
	require.NoError(t, err)
	assert.Contains(t, out, "No turns recorded for conversation conv-none")
}

func TestHistoryCmd_JSON(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand("history", "conv-7", "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"conversation_id": "conv-7"`)
	assert.Contains(t, out, `"question": "What was my HbA1c?"`)
}

func TestHistoryCmd_ServiceError(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	chatService = &MockChatService{
		HistoryFunc: func(context.Context, string) ([]domain.Turn, error) {
			return nil, domain.ErrUnsupportedOperation
		},
	}

	_, err := executeCommand("history", "conv-7")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnsupportedOperation)
}

func TestHistoryCmd_ServiceNotConfigured(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	chatService = nil

	_, err := executeCommand("history", "conv-7")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat service not configured")
}
