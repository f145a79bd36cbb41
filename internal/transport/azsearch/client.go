// Package azsearch is a minimal client for the Azure AI Search documents search REST API.
package azsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/moviesearch/internal/domain"
	"github.com/kailas-cloud/moviesearch/internal/domain/search/mode"
	"github.com/kailas-cloud/moviesearch/internal/domain/search/request"
	"github.com/kailas-cloud/moviesearch/internal/domain/search/result"
	"github.com/kailas-cloud/moviesearch/internal/metrics"
)

const (
	defaultAPIVersion  = "2024-07-01"
	defaultVectorField = "embedding"
	defaultSelect      = "movie_id,title,overview,tagline,genres"
	defaultTimeout     = 30 * time.Second
	maxErrorBody       = 1 << 10
)

// Config holds the index connection settings.
type Config struct {
	Endpoint              string
	APIKey                string
	Index                 string
	SemanticConfiguration string
	APIVersion            string
	VectorField           string
	Select                string
	Timeout               time.Duration
	HTTPClient            *http.Client // optional; Timeout is applied when nil
	Logger                *zap.Logger
}

// Client issues search queries against one index.
type Client struct {
	http        *http.Client
	searchURL   string
	apiKey      string
	index       string
	semantic    string
	vectorField string
	selectList  string
	logger      *zap.Logger
}

// NewClient validates cfg and builds a client. Failures match domain.ErrSearchClient.
func NewClient(cfg Config) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(cfg.Endpoint))
	if err != nil {
		return nil, fmt.Errorf("%w: parse endpoint: %w", domain.ErrSearchClient, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: endpoint %q is not an absolute URL", domain.ErrSearchClient, cfg.Endpoint)
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: api key is empty", domain.ErrSearchClient)
	}
	if cfg.Index == "" {
		return nil, fmt.Errorf("%w: index name is empty", domain.ErrSearchClient)
	}

	apiVersion := valueOr(cfg.APIVersion, defaultAPIVersion)
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	u.Path = strings.TrimRight(u.Path, "/") + "/indexes/" + url.PathEscape(cfg.Index) + "/docs/search"
	u.RawQuery = url.Values{"api-version": {apiVersion}}.Encode()

	return &Client{
		http:        client,
		searchURL:   u.String(),
		apiKey:      cfg.APIKey,
		index:       cfg.Index,
		semantic:    cfg.SemanticConfiguration,
		vectorField: valueOr(cfg.VectorField, defaultVectorField),
		selectList:  valueOr(cfg.Select, defaultSelect),
		logger:      logger,
	}, nil
}

// Search issues exactly one query shaped by the request mode.
func (c *Client) Search(ctx context.Context, req request.Request) (result.Cursor, error) {
	m := req.Mode()

	body, err := c.buildBody(&req)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%w: encode query: %w", domain.ErrSearchFailed, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.searchURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", domain.ErrSearchFailed, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("api-key", c.apiKey)

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	duration := time.Since(start)
	metrics.SearchRequestDuration.WithLabelValues(string(m)).Observe(duration.Seconds())
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(string(m), "error").Inc()
		return nil, fmt.Errorf("%w: %w", domain.ErrSearchFailed, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(string(m), "error").Inc()
		return nil, fmt.Errorf("%w: read response: %w", domain.ErrSearchFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.SearchRequestsTotal.WithLabelValues(string(m), "error").Inc()
		msg := serviceMessage(data)
		c.logger.Warn("Search request rejected",
			zap.String("index", c.index),
			zap.String("mode", string(m)),
			zap.Int("status", resp.StatusCode),
			zap.String("message", msg),
		)
		if m == mode.Semantic && resp.StatusCode == http.StatusBadRequest {
			return nil, fmt.Errorf("%w: %q: %s", domain.ErrSemanticConfigMissing, c.semantic, msg)
		}
		return nil, fmt.Errorf("%w: status %d: %s", domain.ErrSearchFailed, resp.StatusCode, msg)
	}

	cursor, err := newCursor(data, c.logger)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(string(m), "error").Inc()
		return nil, fmt.Errorf("%w: %w", domain.ErrSearchFailed, err)
	}

	metrics.SearchRequestsTotal.WithLabelValues(string(m), "success").Inc()
	c.logger.Debug("Search request completed",
		zap.String("index", c.index),
		zap.String("mode", string(m)),
		zap.Int("returned", cursor.Len()),
		zap.Duration("duration", duration),
	)

	return cursor, nil
}

// serviceMessage extracts error.message from an OData error body, falling back to the raw body.
func serviceMessage(body []byte) string {
	var parsed struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorBody {
		s = s[:maxErrorBody] + "..."
	}
	return s
}

func valueOr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
