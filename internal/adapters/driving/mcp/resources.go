package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/caresync/internal/core/domain"
)

const (
	// URIScheme is the custom URI scheme for CareSync resources.
	uriScheme = "caresync://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	if s.ports.Document == nil {
		return
	}

	// Static resource for listing documents.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "documents",
		Name:        "documents",
		Description: "All processed documents, newest first",
		MIMEType:    "application/json",
	}, s.handleDocumentsResource)

	// Template for a single document record.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "documents/{documentId}",
		Name:        "document",
		Description: "Record of a processed document",
		MIMEType:    "application/json",
	}, s.handleDocumentResource)
}

// documentInfo is the resource view of a document record.
type documentInfo struct {
	ID           string `json:"id"`
	Filename     string `json:"filename"`
	DocumentType string `json:"document_type,omitempty"`
	ContentType  string `json:"content_type"`
	Size         int64  `json:"size"`
	NumChunks    int    `json:"num_chunks"`
	CreatedAt    string `json:"created_at"`
}

func toDocumentInfo(doc *domain.Document) documentInfo {
	return documentInfo{
		ID:           doc.ID,
		Filename:     doc.Filename,
		DocumentType: doc.DocumentType,
		ContentType:  doc.ContentType,
		Size:         doc.Size,
		NumChunks:    doc.NumChunks,
		CreatedAt:    doc.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}

// handleDocumentsResource returns all document records.
func (s *Server) handleDocumentsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	docs, err := s.ports.Document.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	infos := make([]documentInfo, len(docs))
	for i := range docs {
		infos[i] = toDocumentInfo(&docs[i])
	}

	return jsonResource(req.Params.URI, infos)
}

// handleDocumentResource returns a single document record.
func (s *Server) handleDocumentResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	// Extract documentId from URI: caresync://documents/{documentId}
	docID := extractDocumentID(req.Params.URI)
	if docID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	doc, err := s.ports.Document.Get(ctx, docID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("getting document: %w", err)
	}

	return jsonResource(req.Params.URI, toDocumentInfo(doc))
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractDocumentID extracts the document ID from a URI like caresync://documents/{documentId}.
func extractDocumentID(uri string) string {
	const prefix = uriScheme + "documents/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	id := strings.TrimPrefix(uri, prefix)
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}
