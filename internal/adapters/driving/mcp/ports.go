package mcp

import (
	"github.com/custodia-labs/caresync/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Chat answers questions.
	Chat driving.ChatService

	// Retrieval searches indexed chunks without generating an answer.
	Retrieval driving.RetrievalService

	// Document ingests and lists documents.
	Document driving.DocumentService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Chat == nil {
		return ErrMissingChatService
	}
	// Retrieval and Document are optional; their tools are only registered when present
	return nil
}
