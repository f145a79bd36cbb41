package ollama

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/moviesearch/internal/domain"
)

// responseShape tags which wire form the embedding service answered with.
type responseShape int

const (
	shapeInvalid responseShape = iota
	// shapeNested is the /api/embed form: {"embeddings": [[...]]}.
	shapeNested
	// shapeFlat is the legacy /api/embeddings form: {"embedding": [...]}.
	shapeFlat
)

func (s responseShape) String() string {
	switch s {
	case shapeNested:
		return "nested"
	case shapeFlat:
		return "flat"
	default:
		return "invalid"
	}
}

// payload is the tagged union resolved once per response.
// Exactly one of nested/flat is meaningful, selected by shape; reason explains shapeInvalid.
type payload struct {
	shape  responseShape
	nested [][]float32
	flat   []float32
	reason string
}

type decoded struct {
	shape        responseShape
	vector       []float32
	promptTokens int
}

// decodeResponse parses a response body into a single query vector.
func decodeResponse(body []byte) (decoded, *domain.EmbeddingError) {
	if !json.Valid(body) {
		return decoded{}, domain.NewEmbeddingError(domain.FailureMalformedJSON, truncate(body, maxErrorBody), nil)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return decoded{}, domain.NewEmbeddingError(domain.FailureInvalidKey, "response is not a JSON object", err)
	}

	p := resolvePayload(fields)
	vec, derr := p.vector()
	if derr != nil {
		return decoded{}, derr
	}

	out := decoded{shape: p.shape, vector: vec}
	if raw, ok := fields["prompt_eval_count"]; ok {
		_ = json.Unmarshal(raw, &out.promptTokens)
	}
	return out, nil
}

// resolvePayload classifies the response. "embeddings" takes precedence over "embedding".
func resolvePayload(fields map[string]json.RawMessage) payload {
	if raw, ok := fields["embeddings"]; ok && !isNull(raw) {
		var nested [][]float32
		if err := json.Unmarshal(raw, &nested); err != nil {
			return payload{reason: "'embeddings' is not a list of numeric vectors"}
		}
		return payload{shape: shapeNested, nested: nested}
	}

	if raw, ok := fields["embedding"]; ok && !isNull(raw) {
		var flat []float32
		if err := json.Unmarshal(raw, &flat); err != nil {
			return payload{reason: "'embedding' is not a numeric vector"}
		}
		return payload{shape: shapeFlat, flat: flat}
	}

	return payload{reason: "neither 'embeddings' nor 'embedding' present"}
}

// vector extracts the single query vector. An empty list is reported separately from a bad shape.
func (p payload) vector() ([]float32, *domain.EmbeddingError) {
	switch p.shape {
	case shapeNested:
		switch len(p.nested) {
		case 0:
			return nil, domain.NewEmbeddingError(domain.FailureEmptyResult, "'embeddings' is an empty list", nil)
		case 1:
			if len(p.nested[0]) == 0 {
				return nil, domain.NewEmbeddingError(domain.FailureEmptyResult, "'embeddings' holds an empty vector", nil)
			}
			return p.nested[0], nil
		default:
			return nil, domain.NewEmbeddingError(domain.FailureInvalidKey,
				fmt.Sprintf("expected 1 vector for a single input, got %d", len(p.nested)), nil)
		}
	case shapeFlat:
		if len(p.flat) == 0 {
			return nil, domain.NewEmbeddingError(domain.FailureEmptyResult, "'embedding' is an empty list", nil)
		}
		return p.flat, nil
	default:
		return nil, domain.NewEmbeddingError(domain.FailureInvalidKey, p.reason, nil)
	}
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
