// Package tui provides an interactive terminal user interface for caresync.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/caresync/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the TUI.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Chat answers questions. Required.
	Chat driving.ChatService

	// Document lists and deletes uploaded documents. Optional; the
	// documents view is hidden without it.
	Document driving.DocumentService
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(chat driving.ChatService, document driving.DocumentService) *Ports {
	return &Ports{
		Chat:     chat,
		Document: document,
	}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Chat == nil {
		return ErrMissingChatService
	}
	return nil
}
