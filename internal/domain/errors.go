package domain

import "errors"

var (
	// ErrInvalidConfig signals missing or malformed configuration.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrVectorRequired signals a vector or hybrid search without a query vector.
	ErrVectorRequired = errors.New("query vector required")
	// ErrSearchClient signals that a search client could not be constructed.
	ErrSearchClient = errors.New("search client error")
	// ErrSearchFailed signals a failed search query.
	ErrSearchFailed = errors.New("search failed")
	// ErrSemanticConfigMissing signals a semantic query against an index without a usable semantic configuration.
	ErrSemanticConfigMissing = errors.New("semantic configuration missing")
	// ErrCountUnavailable signals that the search response carried no total count.
	ErrCountUnavailable = errors.New("total count unavailable")
	// ErrInvalidMode signals an unknown search mode.
	ErrInvalidMode = errors.New("invalid search mode")
)
