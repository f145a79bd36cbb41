package mode

import "strings"

// Mode is the search strategy.
type Mode string

// Search mode constants.
const (
	// Keyword is lexical (BM25) text search.
	Keyword Mode = "keyword"
	// Vector is similarity search over the query embedding only.
	Vector Mode = "vector"
	// Hybrid sends both text and vector; the search service fuses the rankings.
	Hybrid Mode = "hybrid"
	// Semantic is keyword search reranked by the service with extractive captions and answers.
	Semantic Mode = "semantic"
)

// All lists the modes in display order.
var All = []Mode{Keyword, Vector, Hybrid, Semantic}

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Keyword || m == Vector || m == Hybrid || m == Semantic
}

// NeedsEmbedding reports whether the mode sends a query vector.
func (m Mode) NeedsEmbedding() bool {
	return m == Vector || m == Hybrid
}

// SendsText reports whether the mode sends the lexical query text.
func (m Mode) SendsText() bool {
	return m != Vector
}

// Label returns the human-readable name shown in the UI.
func (m Mode) Label() string {
	switch m {
	case Keyword:
		return "Keyword"
	case Vector:
		return "Vector"
	case Hybrid:
		return "Hybrid"
	case Semantic:
		return "Semantic (Keyword + Semantic Reranking)"
	default:
		return string(m)
	}
}

// Parse converts user input into a Mode. Empty input yields Keyword.
func Parse(s string) (Mode, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Keyword, true
	}
	m := Mode(s)
	return m, m.IsValid()
}
