// Package mcp provides an MCP (Model Context Protocol) server adapter for CareSync.
// It lets AI assistants ask grounded questions, search indexed documents and
// ingest local files.
package mcp

import "errors"

// ErrMissingChatService is returned when the chat service is not provided.
var ErrMissingChatService = errors.New("mcp: chat service is required")
