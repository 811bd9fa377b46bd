package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/archivist-labs/parley-cli/internal/core/domain"
)

const uriScheme = "parley://"

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "documents",
		Name:        "documents",
		Description: "List of all ingested documents and their pipeline status",
		MIMEType:    "application/json",
	}, s.handleDocumentsResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "conversations",
		Name:        "conversations",
		Description: "List of all recorded conversations",
		MIMEType:    "application/json",
	}, s.handleConversationsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "conversations/{conversationId}",
		Name:        "conversation-transcript",
		Description: "Full transcript of one conversation, with citations",
		MIMEType:    "application/json",
	}, s.handleTranscriptResource)
}

// handleDocumentsResource returns the document list as JSON.
func (s *Server) handleDocumentsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Ingest == nil {
		return jsonResource(req.Params.URI, []domain.Document{})
	}

	docs, err := s.ports.Ingest.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	return jsonResource(req.Params.URI, docs)
}

// handleConversationsResource returns the conversation list as JSON.
func (s *Server) handleConversationsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Conversation == nil {
		return jsonResource(req.Params.URI, []domain.Conversation{})
	}

	convs, err := s.ports.Conversation.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing conversations: %w", err)
	}
	return jsonResource(req.Params.URI, convs)
}

// handleTranscriptResource returns one conversation's JSON export.
func (s *Server) handleTranscriptResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Conversation == nil {
		return nil, ErrMissingConversationService
	}

	conversationID := strings.TrimPrefix(req.Params.URI, uriScheme+"conversations/")
	if conversationID == "" || strings.Contains(conversationID, "/") {
		return nil, fmt.Errorf("invalid conversation URI: %s", req.Params.URI)
	}

	data, err := s.ports.Conversation.Export(ctx, conversationID, domain.ExportJSON)
	if err != nil {
		return nil, fmt.Errorf("exporting conversation %s: %w", conversationID, err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// jsonResource marshals v into a single JSON resource content.
func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
