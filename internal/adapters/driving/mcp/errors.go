// Package mcp provides an MCP (Model Context Protocol) server adapter
// for Parley. It lets AI assistants query the local document corpus and
// read conversation transcripts.
package mcp

import "errors"

// ErrMissingChatService is returned when the chat service is not provided.
var ErrMissingChatService = errors.New("mcp: chat service is required")

// ErrMissingConversationService is returned when a tool needs the
// conversation service and it is not provided.
var ErrMissingConversationService = errors.New("mcp: conversation service is required")
