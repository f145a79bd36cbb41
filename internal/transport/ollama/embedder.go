package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/moviesearch/internal/domain"
	"github.com/kailas-cloud/moviesearch/internal/metrics"
)

const (
	defaultTimeout      = 60 * time.Second
	defaultProbeTimeout = 5 * time.Second
	// maxErrorBody caps how much of a failed response ends up in logs and notices.
	maxErrorBody = 512
)

// Embedder is an embedding provider using the Ollama /api/embed endpoint.
type Embedder struct {
	client      *http.Client
	probeClient *http.Client
	endpoint    string
	model       string
	provider    string
	logger      *zap.Logger
}

// Config holds the embedding provider settings.
type Config struct {
	Endpoint     string // full embed URL, e.g. http://localhost:11434/api/embed
	Model        string
	Timeout      time.Duration
	ProbeTimeout time.Duration
	Provider     string // metrics label, defaults to "ollama"
	Logger       *zap.Logger
	HTTPClient   *http.Client // optional; Timeout is applied when nil
}

// NewEmbedder creates an Ollama embedding provider.
func NewEmbedder(cfg *Config) *Embedder {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	probeTimeout := cfg.ProbeTimeout
	if probeTimeout <= 0 {
		probeTimeout = defaultProbeTimeout
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	provider := cfg.Provider
	if provider == "" {
		provider = "ollama"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Embedder{
		client:      client,
		probeClient: &http.Client{Timeout: probeTimeout, Transport: client.Transport},
		endpoint:    cfg.Endpoint,
		model:       cfg.Model,
		provider:    provider,
		logger:      logger,
	}
}

// embedRequest is the /api/embed request body; a single query is sent as a one-element input list.
type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// Embed implements domain.Embedder. Exactly one POST is issued; there are no retries.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	reqBody, err := json.Marshal(embedRequest{Model: e.model, Input: []string{text}})
	if err != nil {
		return domain.EmbeddingResult{}, e.fail(domain.NewEmbeddingError(domain.FailureTransport, "encode request", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return domain.EmbeddingResult{}, e.fail(domain.NewEmbeddingError(domain.FailureTransport, "build request", err))
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()

	resp, err := e.client.Do(req)
	if err != nil {
		kind := domain.ClassifyTransportError(err)
		return domain.EmbeddingResult{}, e.fail(domain.NewEmbeddingError(kind, e.endpoint, err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	duration := time.Since(start)
	if err != nil {
		kind := domain.ClassifyTransportError(err)
		return domain.EmbeddingResult{}, e.fail(domain.NewEmbeddingError(kind, "read response", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := fmt.Sprintf("status %d: %s", resp.StatusCode, truncate(body, maxErrorBody))
		return domain.EmbeddingResult{}, e.fail(domain.NewEmbeddingError(domain.FailureHTTPStatus, detail, nil))
	}

	decoded, derr := decodeResponse(body)
	if derr != nil {
		return domain.EmbeddingResult{}, e.fail(derr)
	}

	// Record success metrics
	metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, e.model, "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(e.provider, e.model).Observe(duration.Seconds())

	e.logger.Debug("Ollama embedding received",
		zap.String("model", e.model),
		zap.String("shape", decoded.shape.String()),
		zap.Int("dimensions", len(decoded.vector)),
		zap.Duration("duration", duration),
	)

	return domain.EmbeddingResult{
		Embedding:    decoded.vector,
		PromptTokens: decoded.promptTokens,
		TotalTokens:  decoded.promptTokens,
	}, nil
}

// HealthCheck performs a GET against the service base URL.
func (e *Embedder) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, BaseURL(e.endpoint), http.NoBody)
	if err != nil {
		return fmt.Errorf("build probe request: %w", err)
	}

	resp, err := e.probeClient.Do(req)
	if err != nil {
		return fmt.Errorf("probe %s: %w", req.URL, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("probe %s: status %d", req.URL, resp.StatusCode)
	}
	return nil
}

// BaseURL strips the embed API path from endpoint so the server root can be probed.
func BaseURL(endpoint string) string {
	for _, suffix := range []string{"/api/embeddings", "/api/embed"} {
		if i := strings.Index(endpoint, suffix); i >= 0 {
			return endpoint[:i] + "/"
		}
	}
	return endpoint
}

func (e *Embedder) fail(err *domain.EmbeddingError) error {
	metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, e.model, "error").Inc()
	metrics.EmbeddingErrorsTotal.WithLabelValues(e.provider, e.model, string(err.Kind)).Inc()
	return err
}

func truncate(b []byte, n int) string {
	s := strings.TrimSpace(string(b))
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
