package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/archivist-labs/parley-cli/internal/core/domain"
	"github.com/archivist-labs/parley-cli/internal/core/ports/driven"
	"github.com/archivist-labs/parley-cli/internal/core/ports/driving"
	"github.com/archivist-labs/parley-cli/internal/logger"
)

// Ensure ChatService implements the interface.
var _ driving.ChatService = (*ChatService)(nil)

// answerPrompt conditions the generation model on the assembled context.
// Markers in the context line up with the citations recorded on the turn.
const answerPrompt = `Answer the question using only the numbered context passages below.
Reference passages by their marker, e.g. [1]. If the context does not
contain the answer, say so.

Context:
%s
Question: %s

Answer:`

// ChatService runs the query pipeline: embed the question, retrieve
// relevant chunks, assemble a bounded context, generate an answer, and
// record the exchange in the conversation log.
type ChatService struct {
	gateway       *EmbeddingGateway
	retriever     *Retriever
	assembler     *ContextAssembler
	generator     driven.GenerationService
	conversations *ConversationService
	topK          int
	genOpts       driven.GenerateOptions
}

// NewChatService creates a chat service.
func NewChatService(
	gateway *EmbeddingGateway,
	retriever *Retriever,
	assembler *ContextAssembler,
	generator driven.GenerationService,
	conversations *ConversationService,
	retrieval domain.RetrievalSettings,
	generation domain.GenerationSettings,
) *ChatService {
	return &ChatService{
		gateway:       gateway,
		retriever:     retriever,
		assembler:     assembler,
		generator:     generator,
		conversations: conversations,
		topK:          retrieval.TopK,
		genOpts: driven.GenerateOptions{
			MaxTokens: generation.MaxTokens,
		},
	}
}

// Ask answers one question within a conversation. The user turn is
// recorded first, so the log always reflects what was attempted. A
// generation failure is recorded as a failed assistant turn with empty
// text; cancellation discards the in-flight call and records no
// assistant turn.
func (s *ChatService) Ask(ctx context.Context, conversationID, question string) (*domain.Turn, error) {
	logger.Section("Query")
	logger.Debug("Question: %q", question)

	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: empty question", domain.ErrInvalidConfig)
	}

	if _, err := s.conversations.Append(ctx, &domain.Turn{
		ConversationID: conversationID,
		Role:           domain.RoleUser,
		Text:           question,
		State:          domain.TurnOK,
	}); err != nil {
		return nil, err
	}

	context_, citations, err := s.buildContext(ctx, question)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return s.recordFailure(conversationID, err)
	}

	prompt := fmt.Sprintf(answerPrompt, context_, question)
	logger.Debug("Prompt: %d characters, %d citations", len(prompt), len(citations))

	answer, err := s.generator.Generate(ctx, prompt, s.genOpts)
	if err != nil {
		if ctx.Err() != nil {
			// Cancelled by the caller: discard, record nothing.
			logger.Debug("Generation cancelled, no assistant turn recorded")
			return nil, ctx.Err()
		}
		return s.recordFailure(conversationID, err)
	}

	turn, err := s.conversations.Append(ctx, &domain.Turn{
		ConversationID: conversationID,
		Role:           domain.RoleAssistant,
		Text:           strings.TrimSpace(answer),
		Citations:      citations,
		State:          domain.TurnOK,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Answered with %d citations", len(citations))
	return turn, nil
}

// Retrieve runs similarity retrieval without generation.
func (s *ChatService) Retrieve(ctx context.Context, question string, k int) ([]domain.RetrievedChunk, error) {
	if k <= 0 {
		k = s.topK
	}
	vector, err := s.gateway.EmbedQuery(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return s.retriever.Retrieve(ctx, vector, k)
}

// buildContext embeds the question, retrieves chunks, and assembles the
// bounded context with citations.
func (s *ChatService) buildContext(ctx context.Context, question string) (string, []domain.Citation, error) {
	vector, err := s.gateway.EmbedQuery(ctx, question)
	if err != nil {
		return "", nil, fmt.Errorf("embed query: %w", err)
	}

	chunks, err := s.retriever.Retrieve(ctx, vector, s.topK)
	if err != nil {
		return "", nil, err
	}
	logger.Debug("Retrieved %d chunks", len(chunks))

	assembled, citations := s.assembler.Assemble(chunks)
	return assembled, citations, nil
}

// recordFailure appends a failed assistant turn with empty text so the
// conversation log never silently drops a question.
func (s *ChatService) recordFailure(conversationID string, cause error) (*domain.Turn, error) {
	reason := failureReason(cause)

	turn, appendErr := s.conversations.Append(context.Background(), &domain.Turn{
		ConversationID: conversationID,
		Role:           domain.RoleAssistant,
		Text:           "",
		State:          domain.TurnFailed,
		FailureReason:  reason,
	})
	if appendErr != nil {
		return nil, errors.Join(cause, appendErr)
	}

	logger.Warn("Recorded failed turn: %s", reason)
	return turn, cause
}

// failureReason maps an error to the short reason stored on the turn.
func failureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrGenerationTimeout):
		return "Timeout"
	case errors.Is(err, domain.ErrGenerationUnavailable):
		return "Unavailable"
	case errors.Is(err, domain.ErrModelUnavailable):
		return "ModelUnavailable"
	case errors.Is(err, domain.ErrDimensionMismatch):
		return "DimensionMismatch"
	default:
		return err.Error()
	}
}
