package mcp

import (
	"github.com/archivist-labs/parley-cli/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces the MCP server exposes.
// A single injection point keeps wiring in one place.
type Ports struct {
	// Chat answers questions against the indexed corpus.
	Chat driving.ChatService

	// Ingest exposes the document lifecycle.
	Ingest driving.IngestOrchestrator

	// Conversation exposes conversation transcripts.
	Conversation driving.ConversationService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Chat == nil {
		return ErrMissingChatService
	}
	// Ingest and Conversation back optional resources.
	return nil
}
