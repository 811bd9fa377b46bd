package domain

import "time"

// TurnRole identifies who produced a turn.
type TurnRole string

// Turn roles.
const (
	// RoleUser is a question asked by the user.
	RoleUser TurnRole = "user"

	// RoleAssistant is a generated answer.
	RoleAssistant TurnRole = "assistant"
)

// IsValid returns true if the role is recognised.
func (r TurnRole) IsValid() bool {
	return r == RoleUser || r == RoleAssistant
}

// TurnState records whether an assistant turn completed successfully.
type TurnState string

// Turn states.
const (
	// TurnOK means the turn completed normally.
	TurnOK TurnState = "ok"

	// TurnFailed means answer generation failed; the turn text is empty
	// and FailureReason carries the cause.
	TurnFailed TurnState = "failed"
)

// Citation attributes part of an answer to a retrieved chunk.
type Citation struct {
	// Marker is the 1-based inclusion index referenced in the answer, e.g. [2].
	Marker int `json:"marker"`

	// DocumentID is the cited document.
	DocumentID string `json:"document_id"`

	// ChunkID is the cited chunk.
	ChunkID string `json:"chunk_id"`

	// Score is the similarity score the chunk was retrieved with.
	Score float64 `json:"score"`
}

// Turn is one message in a conversation's append-only log.
// Once appended a turn is immutable.
type Turn struct {
	// ID is the unique identifier for the turn.
	ID string `json:"id"`

	// ConversationID links to the owning conversation.
	ConversationID string `json:"conversation_id"`

	// Role is who produced the turn.
	Role TurnRole `json:"role"`

	// Text is the message content. Empty for failed assistant turns.
	Text string `json:"text"`

	// Citations list the sources the answer drew on, in inclusion order.
	Citations []Citation `json:"citations,omitempty"`

	// State records whether the turn completed.
	State TurnState `json:"state"`

	// FailureReason carries the cause when State is TurnFailed.
	FailureReason string `json:"failure_reason,omitempty"`

	// CreatedAt is when the turn was appended.
	CreatedAt time.Time `json:"created_at"`
}

// Conversation is an ordered, append-only sequence of turns.
type Conversation struct {
	// ID is the unique identifier for the conversation.
	ID string `json:"id"`

	// CreatedAt is when the conversation was created.
	CreatedAt time.Time `json:"created_at"`

	// Turns is the ordered turn log.
	Turns []Turn `json:"turns"`
}

// ExportFormat selects a conversation serialisation.
type ExportFormat string

// Export formats.
const (
	// ExportJSON is the canonical machine-readable form; it round-trips.
	ExportJSON ExportFormat = "json"

	// ExportText is a plain-text transcript.
	ExportText ExportFormat = "text"

	// ExportMarkdown is a Markdown transcript.
	ExportMarkdown ExportFormat = "markdown"
)

// IsValid returns true if the format is recognised.
func (f ExportFormat) IsValid() bool {
	switch f {
	case ExportJSON, ExportText, ExportMarkdown:
		return true
	default:
		return false
	}
}
