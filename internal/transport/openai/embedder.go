package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/moviesearch/internal/domain"
	"github.com/kailas-cloud/moviesearch/internal/metrics"
)

// Embedder is an embedding provider using an OpenAI-compatible API (Ollama /v1, vLLM, OpenAI).
type Embedder struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
	provider   string
	logger     *zap.Logger
}

// Config holds the embedding provider settings.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int // sent as the "dimensions" request field when > 0
	Timeout    time.Duration
	Provider   string
	Logger     *zap.Logger
}

// NewEmbedder creates an OpenAI-compatible embedding provider.
func NewEmbedder(cfg *Config) *Embedder {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = cfg.BaseURL
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	provider := cfg.Provider
	if provider == "" {
		provider = "openai"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Embedder{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      openai.EmbeddingModel(cfg.Model),
		dimensions: cfg.Dimensions,
		provider:   provider,
		logger:     logger,
	}
}

// Embed implements domain.Embedder. One request per call, no retries.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	req := openai.EmbeddingRequest{
		Input:          []string{text},
		Model:          e.model,
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
	}
	if e.dimensions > 0 {
		req.Dimensions = e.dimensions
	}

	start := time.Now()

	resp, err := e.client.CreateEmbeddings(ctx, req)

	duration := time.Since(start)

	if err != nil {
		return domain.EmbeddingResult{}, e.fail(classifyAPIError(err))
	}

	switch {
	case len(resp.Data) == 0, len(resp.Data[0].Embedding) == 0:
		return domain.EmbeddingResult{}, e.fail(domain.NewEmbeddingError(domain.FailureEmptyResult, "no embedding data", nil))
	case len(resp.Data) > 1:
		detail := fmt.Sprintf("expected 1 embedding, got %d", len(resp.Data))
		return domain.EmbeddingResult{}, e.fail(domain.NewEmbeddingError(domain.FailureInvalidKey, detail, nil))
	}

	// Record success metrics
	metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, string(e.model), "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(e.provider, string(e.model)).Observe(duration.Seconds())

	return domain.EmbeddingResult{
		Embedding:    resp.Data[0].Embedding,
		PromptTokens: resp.Usage.PromptTokens,
		TotalTokens:  resp.Usage.TotalTokens,
	}, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (e *Embedder) HealthCheck(ctx context.Context) error {
	if _, err := e.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

func (e *Embedder) fail(err *domain.EmbeddingError) error {
	metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, string(e.model), "error").Inc()
	metrics.EmbeddingErrorsTotal.WithLabelValues(e.provider, string(e.model), string(err.Kind)).Inc()
	return err
}

// classifyAPIError maps a go-openai error onto the embedding failure taxonomy.
func classifyAPIError(err error) *domain.EmbeddingError {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		detail := fmt.Sprintf("status %d: %s", apiErr.HTTPStatusCode, apiErr.Message)
		return domain.NewEmbeddingError(domain.FailureHTTPStatus, detail, nil)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := fmt.Sprintf("status %d", reqErr.HTTPStatusCode)
		if msg := extractDetail(reqErr.Body); msg != "" {
			detail += ": " + msg
		} else if len(reqErr.Body) > 0 {
			detail += ": " + string(reqErr.Body)
		}
		return domain.NewEmbeddingError(domain.FailureHTTPStatus, detail, nil)
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return domain.NewEmbeddingError(domain.FailureMalformedJSON, "decode response", err)
	}

	return domain.NewEmbeddingError(domain.ClassifyTransportError(err), "create embeddings", err)
}

// extractDetail extracts a "detail" or "error" string from a JSON error body.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
		Error  any    `json:"error"`
	}
	if json.Unmarshal(body, &parsed) != nil {
		return ""
	}
	if parsed.Detail != "" {
		return parsed.Detail
	}
	if s, ok := parsed.Error.(string); ok {
		return s
	}
	return ""
}
