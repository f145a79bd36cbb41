package request

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/moviesearch/internal/domain"
	"github.com/kailas-cloud/moviesearch/internal/domain/search/mode"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength = 4096
	DefaultTop     = 5
	MinTop         = 1
	MaxTop         = 20
)

// Request is a validated search query.
type Request struct {
	query      string
	searchMode mode.Mode
	top        int
	vector     []float32
}

// New validates and normalizes search parameters.
// The query is trimmed; top is clamped to [MinTop, MaxTop], zero means DefaultTop.
func New(query string, m mode.Mode, top int) (Request, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Request{}, fmt.Errorf("query is required")
	}
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("query too long (max %d chars)", MaxQueryLength)
	}
	if !m.IsValid() {
		return Request{}, fmt.Errorf("%w: %q", domain.ErrInvalidMode, m)
	}

	return Request{
		query:      query,
		searchMode: m,
		top:        ClampTop(top),
	}, nil
}

// ClampTop normalizes a requested result count.
func ClampTop(top int) int {
	switch {
	case top == 0:
		return DefaultTop
	case top < MinTop:
		return MinTop
	case top > MaxTop:
		return MaxTop
	default:
		return top
	}
}

// WithVector returns a copy of the request carrying the query embedding.
func (r Request) WithVector(v []float32) Request {
	r.vector = v
	return r
}

// Query returns the search query text.
func (r *Request) Query() string { return r.query }

// Mode returns the search strategy.
func (r *Request) Mode() mode.Mode { return r.searchMode }

// Top returns the number of results to retrieve; it is also k for the vector query.
func (r *Request) Top() int { return r.top }

// Vector returns the query embedding (nil if none was attached).
func (r *Request) Vector() []float32 { return r.vector }

// HasVector reports whether a non-empty query embedding is attached.
func (r *Request) HasVector() bool { return len(r.vector) > 0 }
