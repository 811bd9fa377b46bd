package services

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/archivist-labs/parley-cli/internal/core/domain"
	"github.com/archivist-labs/parley-cli/internal/core/ports/driven"
	"github.com/archivist-labs/parley-cli/internal/logger"
)

// EmbeddingGateway mediates between the pipeline and the embedding
// service. It batches chunk texts to bound call latency, rate-limits
// requests, retries transient failures, and guards the fixed
// dimensionality contract of the vector index.
type EmbeddingGateway struct {
	service    driven.EmbeddingService
	retry      *RetryPolicy
	limiter    *rate.Limiter
	batchSize  int
	dimensions int
}

// NewEmbeddingGateway creates a gateway around the embedding service.
// dimensions is the width the vector index was created with; a service
// returning a different width is a fatal incompatibility, not a
// retryable fault.
func NewEmbeddingGateway(
	service driven.EmbeddingService,
	cfg domain.EmbeddingSettings,
	retryCfg domain.RetrySettings,
) *EmbeddingGateway {
	rps := rate.Limit(cfg.RequestsPerSecond)
	if rps <= 0 {
		rps = rate.Inf
	}

	retry := NewRetryPolicy(retryCfg.MaxAttempts, retryCfg.BaseDelay)
	retry.Retryable = func(err error) bool {
		// Dimension mismatches require operator intervention; retrying
		// cannot fix an incompatible index.
		return !isDimensionMismatch(err)
	}

	return &EmbeddingGateway{
		service:    service,
		retry:      retry,
		limiter:    rate.NewLimiter(rps, 1),
		batchSize:  cfg.BatchSize,
		dimensions: cfg.Dimensions,
	}
}

// EmbedChunks embeds the given texts, one vector per input in input
// order, batching at most the configured batch size per external call.
func (g *EmbeddingGateway) EmbedChunks(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors := make([][]float32, 0, len(texts))

	for start := 0; start < len(texts); start += g.batchSize {
		end := start + g.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[start:end]

		logger.Debug("Embedding batch %d-%d of %d", start, end, len(texts))

		batchVectors, err := g.embedBatch(ctx, batch)
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, batchVectors...)
	}

	return vectors, nil
}

// EmbedQuery embeds a single query string.
func (g *EmbeddingGateway) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	vectors, err := g.embedBatch(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// Dimensions returns the fixed vector width the gateway enforces.
func (g *EmbeddingGateway) Dimensions() int {
	return g.dimensions
}

// embedBatch performs one rate-limited, retried external call and
// validates the result shape.
func (g *EmbeddingGateway) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var vectors [][]float32

	err := g.retry.Do(ctx, func() error {
		if err := g.limiter.Wait(ctx); err != nil {
			return err
		}

		result, err := g.service.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("%w: %w", domain.ErrModelUnavailable, err)
		}
		if len(result) != len(texts) {
			return fmt.Errorf("%w: got %d vectors for %d inputs",
				domain.ErrModelUnavailable, len(result), len(texts))
		}
		for i, v := range result {
			if len(v) != g.dimensions {
				return fmt.Errorf("%w: vector %d has %d dimensions, index expects %d",
					domain.ErrDimensionMismatch, i, len(v), g.dimensions)
			}
		}

		vectors = result
		return nil
	})
	if err != nil {
		return nil, err
	}

	return vectors, nil
}

func isDimensionMismatch(err error) bool {
	return errors.Is(err, domain.ErrDimensionMismatch)
}
