package result

import "iter"

// Caption is an extractive caption produced by semantic reranking.
// Highlights carries the same text with <em> markup around key phrases.
type Caption struct {
	Text       string
	Highlights string
}

// Answer is an extractive answer produced by semantic reranking.
type Answer struct {
	Key        string
	Text       string
	Highlights string
	Score      float64
}

// Item is a single search hit. It is owned by the search service; this code only reads it.
type Item struct {
	id            string
	title         string
	overview      string
	tagline       string
	genres        []string
	score         float64
	rerankerScore *float64
	captions      []Caption
}

// New creates a search hit. rerankerScore is nil when the service did not rerank.
func New(
	id, title, overview, tagline string, genres []string,
	score float64, rerankerScore *float64, captions []Caption,
) Item {
	return Item{
		id: id, title: title, overview: overview, tagline: tagline, genres: genres,
		score: score, rerankerScore: rerankerScore, captions: captions,
	}
}

// ID returns the movie identifier.
func (i *Item) ID() string { return i.id }

// Title returns the movie title.
func (i *Item) Title() string { return i.title }

// Overview returns the plot overview.
func (i *Item) Overview() string { return i.overview }

// Tagline returns the marketing tagline.
func (i *Item) Tagline() string { return i.tagline }

// Genres returns the genre list.
func (i *Item) Genres() []string { return i.genres }

// Score returns the primary relevance score.
func (i *Item) Score() float64 { return i.score }

// RerankerScore returns the semantic reranker score and whether it is present.
func (i *Item) RerankerScore() (float64, bool) {
	if i.rerankerScore == nil {
		return 0, false
	}
	return *i.rerankerScore, true
}

// Captions returns the extractive captions.
func (i *Item) Captions() []Caption { return i.captions }

// FirstCaption returns the first caption, if any.
func (i *Item) FirstCaption() (Caption, bool) {
	if len(i.captions) == 0 {
		return Caption{}, false
	}
	return i.captions[0], true
}

// Cursor is a count-aware, lazily enumerated search response.
type Cursor interface {
	// TotalCount returns the number of matching documents, which may exceed the enumerated items.
	TotalCount() (int64, error)
	// Items yields hits in service rank order.
	Items() iter.Seq[Item]
}

// AnswerSource is implemented by cursors that may carry extractive answers.
type AnswerSource interface {
	Answers() []Answer
}
