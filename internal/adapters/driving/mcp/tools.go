package mcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/caresync/internal/core/domain"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question       string `json:"question" jsonschema:"the question to answer from the indexed documents" validate:"required"`
	ConversationID string `json:"conversation_id,omitempty" jsonschema:"conversation to record the turn under; a new one is started when empty"`
}

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Question string `json:"question" jsonschema:"the text to find relevant passages for" validate:"required"`
	TopK     int    `json:"top_k,omitempty" jsonschema:"maximum number of passages to return (default from settings)" validate:"gte=0,lte=50"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Sources []domain.Source `json:"sources"`
	Count   int             `json:"count"`
}

// ProcessDocumentInput is the input schema for the process_document tool.
type ProcessDocumentInput struct {
	Path         string `json:"path" jsonschema:"absolute path of a local PDF or DOCX file" validate:"required"`
	DocumentType string `json:"document_type,omitempty" jsonschema:"optional label stored with the document"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a healthcare question grounded in the indexed documents",
	}, s.handleAsk)

	if s.ports.Retrieval != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "search",
			Description: "Find the document passages most relevant to a question",
		}, s.handleSearch)
	}

	if s.ports.Document != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "process_document",
			Description: "Extract, chunk, embed and index a local PDF or DOCX file",
		}, s.handleProcessDocument)
	}
}

func (s *Server) check(input any) error {
	if err := s.validate.Struct(input); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return nil
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, domain.ChatResult, error) {
	if err := s.check(input); err != nil {
		return nil, domain.ChatResult{}, err
	}

	result, err := s.ports.Chat.Ask(ctx, input.Question, input.ConversationID)
	if err != nil {
		return nil, domain.ChatResult{}, err
	}
	return nil, *result, nil
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	if err := s.check(input); err != nil {
		return nil, SearchOutput{}, err
	}

	sources, err := s.ports.Retrieval.Search(ctx, input.Question, input.TopK)
	if err != nil {
		return nil, SearchOutput{}, err
	}
	if sources == nil {
		sources = []domain.Source{}
	}

	return nil, SearchOutput{Sources: sources, Count: len(sources)}, nil
}

// handleProcessDocument handles the process_document tool invocation.
func (s *Server) handleProcessDocument(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ProcessDocumentInput,
) (*mcp.CallToolResult, domain.ProcessResult, error) {
	if err := s.check(input); err != nil {
		return nil, domain.ProcessResult{}, err
	}

	data, err := os.ReadFile(input.Path)
	if err != nil {
		return nil, domain.ProcessResult{}, fmt.Errorf("reading %s: %w", input.Path, err)
	}

	result, err := s.ports.Document.ProcessDocument(ctx, data, filepath.Base(input.Path), input.DocumentType)
	if err != nil {
		return nil, domain.ProcessResult{}, err
	}
	return nil, *result, nil
}
