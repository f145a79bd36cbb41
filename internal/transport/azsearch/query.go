package azsearch

import (
	"fmt"

	"github.com/kailas-cloud/moviesearch/internal/domain"
	"github.com/kailas-cloud/moviesearch/internal/domain/search/mode"
	"github.com/kailas-cloud/moviesearch/internal/domain/search/request"
)

// searchBody is the docs/search POST body. Absent options are omitted.
type searchBody struct {
	Search                *string       `json:"search,omitempty"`
	Select                string        `json:"select"`
	Top                   int           `json:"top"`
	Count                 bool          `json:"count"`
	VectorQueries         []vectorQuery `json:"vectorQueries,omitempty"`
	QueryType             string        `json:"queryType,omitempty"`
	SemanticConfiguration string        `json:"semanticConfiguration,omitempty"`
	Captions              string        `json:"captions,omitempty"`
	Answers               string        `json:"answers,omitempty"`
}

type vectorQuery struct {
	Kind   string    `json:"kind"`
	Vector []float32 `json:"vector"`
	K      int       `json:"k"`
	Fields string    `json:"fields"`
}

// buildBody maps a request onto one of the four query shapes.
//
//	keyword:  search
//	vector:   vectorQueries
//	hybrid:   search + vectorQueries (fused by the service)
//	semantic: search + queryType=semantic + extractive captions/answers
func (c *Client) buildBody(req *request.Request) (*searchBody, error) {
	m := req.Mode()
	body := &searchBody{
		Select: c.selectList,
		Top:    req.Top(),
		Count:  true,
	}

	if m.SendsText() {
		q := req.Query()
		body.Search = &q
	}

	switch m {
	case mode.Keyword:
	case mode.Vector, mode.Hybrid:
		if !req.HasVector() {
			return nil, fmt.Errorf("%s search: %w", m, domain.ErrVectorRequired)
		}
		body.VectorQueries = []vectorQuery{{
			Kind:   "vector",
			Vector: req.Vector(),
			K:      req.Top(),
			Fields: c.vectorField,
		}}
	case mode.Semantic:
		if c.semantic == "" {
			return nil, fmt.Errorf("%w: AZURE_SEMANTIC_CONFIGURATION_NAME is not set", domain.ErrSemanticConfigMissing)
		}
		body.QueryType = "semantic"
		body.SemanticConfiguration = c.semantic
		body.Captions = "extractive"
		body.Answers = "extractive"
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidMode, m)
	}

	return body, nil
}
