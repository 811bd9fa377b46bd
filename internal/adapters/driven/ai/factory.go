// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	ollamaembed "github.com/archivist-labs/parley-cli/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/archivist-labs/parley-cli/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/archivist-labs/parley-cli/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/archivist-labs/parley-cli/internal/adapters/driven/llm/ollama"
	openaillm "github.com/archivist-labs/parley-cli/internal/adapters/driven/llm/openai"
	"github.com/archivist-labs/parley-cli/internal/core/domain"
	"github.com/archivist-labs/parley-cli/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// CreateEmbeddingService creates the embedding service selected by the settings.
func CreateEmbeddingService(settings domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: settings.Dimensions,
		}), nil

	case domain.AIProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: settings.Dimensions,
		})

	case domain.AIProviderAnthropic:
		return nil, fmt.Errorf("%w: anthropic does not provide an embedding API",
			domain.ErrInvalidConfig)

	default:
		return nil, fmt.Errorf("%w: unknown embedding provider %q",
			domain.ErrInvalidConfig, settings.Provider)
	}
}

// CreateGenerationService creates the generation service selected by the settings.
func CreateGenerationService(settings domain.GenerationSettings) (driven.GenerationService, error) {
	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewGenerationService(ollamallm.Config{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: settings.Timeout,
		}), nil

	case domain.AIProviderOpenAI:
		return openaillm.NewGenerationService(openaillm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: settings.Timeout,
		})

	case domain.AIProviderAnthropic:
		return anthropicllm.NewGenerationService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: settings.Timeout,
		})

	default:
		return nil, fmt.Errorf("%w: unknown generation provider %q",
			domain.ErrInvalidConfig, settings.Provider)
	}
}

// CreateAndValidateEmbeddingService creates an embedding service and
// validates connectivity before any ingestion is committed to it.
func CreateAndValidateEmbeddingService(settings domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: embedding service unreachable: %w",
			domain.ErrModelUnavailable, err)
	}

	return svc, nil
}

// CreateAndValidateGenerationService creates a generation service and
// validates connectivity.
func CreateAndValidateGenerationService(settings domain.GenerationSettings) (driven.GenerationService, error) {
	svc, err := CreateGenerationService(settings)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: generation service unreachable: %w",
			domain.ErrGenerationUnavailable, err)
	}

	return svc, nil
}
