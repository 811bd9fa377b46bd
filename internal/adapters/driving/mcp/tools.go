package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question       string `json:"question" jsonschema:"the question to answer from the indexed documents"`
	ConversationID string `json:"conversation_id,omitempty" jsonschema:"conversation to continue; omit to start a new one"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	ConversationID string           `json:"conversation_id"`
	Answer         string           `json:"answer"`
	Citations      []CitationOutput `json:"citations,omitempty"`
}

// CitationOutput attributes part of an answer to an indexed chunk.
type CitationOutput struct {
	Marker     int     `json:"marker"`
	DocumentID string  `json:"document_id"`
	ChunkID    string  `json:"chunk_id"`
	Score      float64 `json:"score"`
}

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"the query to match against indexed chunks"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of chunks to return (default 10)"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput is one retrieved chunk.
type SearchResultOutput struct {
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	Score      float64 `json:"score"`
	Text       string  `json:"text"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Ask a question answered from the indexed documents, with source citations",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Retrieve the most relevant document chunks for a query, without generating an answer",
	}, s.handleSearch)
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	conversationID := input.ConversationID
	if conversationID == "" {
		if s.ports.Conversation == nil {
			return nil, AskOutput{}, ErrMissingConversationService
		}
		conv, err := s.ports.Conversation.Create(ctx)
		if err != nil {
			return nil, AskOutput{}, err
		}
		conversationID = conv.ID
	}

	turn, err := s.ports.Chat.Ask(ctx, conversationID, input.Question)
	if err != nil {
		return nil, AskOutput{}, err
	}

	output := AskOutput{
		ConversationID: conversationID,
		Answer:         turn.Text,
		Citations:      make([]CitationOutput, len(turn.Citations)),
	}
	for i, c := range turn.Citations {
		output.Citations[i] = CitationOutput{
			Marker:     c.Marker,
			DocumentID: c.DocumentID,
			ChunkID:    c.ChunkID,
			Score:      c.Score,
		}
	}

	return nil, output, nil
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 10
	}

	results, err := s.ports.Chat.Retrieve(ctx, input.Query, limit)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: make([]SearchResultOutput, len(results)),
		Count:   len(results),
	}
	for i := range results {
		output.Results[i] = SearchResultOutput{
			ChunkID:    results[i].Chunk.ID,
			DocumentID: results[i].Chunk.DocumentID,
			Score:      results[i].Score,
			Text:       results[i].Chunk.Text,
		}
	}

	return nil, output, nil
}
