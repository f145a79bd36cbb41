package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/moviesearch/internal/domain"
	"github.com/kailas-cloud/moviesearch/internal/logger"
	"github.com/kailas-cloud/moviesearch/internal/metrics"
)

// Client turns a query into a vector of the configured dimension.
// Transport metrics (requests, duration) are recorded by the provider; this layer
// owns dimension validation and failure logging.
type Client struct {
	inner      domain.Embedder
	provider   string
	model      string
	dimensions int
	logger     *zap.Logger
}

// NewClient wraps an embedder chain. dimensions <= 0 disables the length check.
func NewClient(inner domain.Embedder, provider, model string, dimensions int, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		inner:      inner,
		provider:   provider,
		model:      model,
		dimensions: dimensions,
		logger:     logger,
	}
}

// Dimensions returns the expected vector length.
func (c *Client) Dimensions() int { return c.dimensions }

// QueryVector embeds text. Blank text yields (nil, nil) without contacting the provider.
// Every failure is a *domain.EmbeddingError matching domain.ErrEmbeddingProviderError.
func (c *Client) QueryVector(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	log := logger.FromContextOr(ctx, c.logger)
	start := time.Now()

	result, err := c.inner.Embed(ctx, text)

	duration := time.Since(start)

	if err != nil {
		err = classified(err)
		kind, _ := domain.EmbeddingFailureKind(err)
		log.Warn("Embedding request failed",
			zap.String("provider", c.provider),
			zap.String("model", c.model),
			zap.String("failure", string(kind)),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return nil, fmt.Errorf("query vector: %w", err)
	}

	if c.dimensions > 0 && len(result.Embedding) != c.dimensions {
		detail := fmt.Sprintf("expected %d dimensions, got %d", c.dimensions, len(result.Embedding))
		metrics.EmbeddingErrorsTotal.WithLabelValues(c.provider, c.model, string(domain.FailureDimensionMismatch)).Inc()
		log.Warn("Embedding dimension mismatch",
			zap.String("provider", c.provider),
			zap.String("model", c.model),
			zap.Int("expected", c.dimensions),
			zap.Int("actual", len(result.Embedding)),
		)
		return nil, fmt.Errorf("query vector: %w",
			domain.NewEmbeddingError(domain.FailureDimensionMismatch, detail, nil))
	}

	log.Debug("Embedding request completed",
		zap.String("provider", c.provider),
		zap.String("model", c.model),
		zap.Duration("duration", duration),
		zap.Int("dimensions", len(result.Embedding)),
		zap.Int("prompt_tokens", result.PromptTokens),
	)

	return result.Embedding, nil
}

// HealthCheck delegates to the embedder chain when it supports health checks.
func (c *Client) HealthCheck(ctx context.Context) error {
	if hc, ok := c.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx) //nolint:wrapcheck // pass-through
	}
	return nil
}

// classified guarantees err carries a failure kind.
func classified(err error) error {
	var ee *domain.EmbeddingError
	if errors.As(err, &ee) {
		return err
	}
	return domain.NewEmbeddingError(domain.ClassifyTransportError(err), "", err)
}
