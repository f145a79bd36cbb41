package search

import (
	"context"

	"github.com/kailas-cloud/moviesearch/internal/domain/search/request"
	"github.com/kailas-cloud/moviesearch/internal/domain/search/result"
)

// Searcher issues one query against the search index.
type Searcher interface {
	Search(ctx context.Context, req request.Request) (result.Cursor, error)
}

// SearcherFactory builds a Searcher for one interaction. Construction may fail.
type SearcherFactory func() (Searcher, error)

// QueryEmbedder turns query text into a vector of the configured dimension.
type QueryEmbedder interface {
	QueryVector(ctx context.Context, text string) ([]float32, error)
}

// Prober reports whether the embedding service is reachable.
type Prober interface {
	Reachable(ctx context.Context) bool
}
