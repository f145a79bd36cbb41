package azsearch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"iter"
	"strconv"

	"go.uber.org/zap"

	"github.com/kailas-cloud/moviesearch/internal/domain"
	"github.com/kailas-cloud/moviesearch/internal/domain/search/result"
)

// Compile-time checks.
var (
	_ result.Cursor       = (*Cursor)(nil)
	_ result.AnswerSource = (*Cursor)(nil)
)

type searchResponse struct {
	Count   *int64            `json:"@odata.count"`
	Answers []answerDTO       `json:"@search.answers"`
	Value   []json.RawMessage `json:"value"`
}

type answerDTO struct {
	Key        string  `json:"key"`
	Text       string  `json:"text"`
	Highlights string  `json:"highlights"`
	Score      float64 `json:"score"`
}

type captionDTO struct {
	Text       string `json:"text"`
	Highlights string `json:"highlights"`
}

type documentDTO struct {
	MovieID       flexString   `json:"movie_id"`
	Title         string       `json:"title"`
	Overview      string       `json:"overview"`
	Tagline       string       `json:"tagline"`
	Genres        flexStrings  `json:"genres"`
	Score         float64      `json:"@search.score"`
	RerankerScore *float64     `json:"@search.rerankerScore"`
	Captions      []captionDTO `json:"@search.captions"`
}

// Cursor is a decoded search response whose documents are converted on iteration.
type Cursor struct {
	count   *int64
	answers []result.Answer
	docs    []json.RawMessage
	logger  *zap.Logger
}

func newCursor(body []byte, logger *zap.Logger) (*Cursor, error) {
	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	answers := make([]result.Answer, 0, len(resp.Answers))
	for _, a := range resp.Answers {
		answers = append(answers, result.Answer(a))
	}

	return &Cursor{count: resp.Count, answers: answers, docs: resp.Value, logger: logger}, nil
}

// TotalCount returns @odata.count or domain.ErrCountUnavailable when the service omitted it.
func (c *Cursor) TotalCount() (int64, error) {
	if c.count == nil {
		return 0, domain.ErrCountUnavailable
	}
	return *c.count, nil
}

// Len returns the number of documents in this page.
func (c *Cursor) Len() int { return len(c.docs) }

// Answers returns the extractive answers, if any.
func (c *Cursor) Answers() []result.Answer { return c.answers }

// Items decodes documents one at a time in rank order. Undecodable documents are logged and skipped.
func (c *Cursor) Items() iter.Seq[result.Item] {
	return func(yield func(result.Item) bool) {
		for i, raw := range c.docs {
			var doc documentDTO
			if err := json.Unmarshal(raw, &doc); err != nil {
				c.logger.Warn("Skipping undecodable search document", zap.Int("position", i), zap.Error(err))
				continue
			}
			if !yield(doc.toItem()) {
				return
			}
		}
	}
}

func (d *documentDTO) toItem() result.Item {
	var captions []result.Caption
	for _, cp := range d.Captions {
		captions = append(captions, result.Caption(cp))
	}
	return result.New(
		string(d.MovieID), d.Title, d.Overview, d.Tagline, []string(d.Genres),
		d.Score, d.RerankerScore, captions,
	)
}

// flexString accepts a JSON string or number.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err //nolint:wrapcheck // json.Unmarshaler contract
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("movie_id: expected string or number: %w", err)
	}
	if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
		*f = flexString(strconv.FormatInt(i, 10))
		return nil
	}
	*f = flexString(n.String())
	return nil
}

// flexStrings accepts a JSON string array or a single string.
type flexStrings []string

func (f *flexStrings) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*f = nil
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err //nolint:wrapcheck // json.Unmarshaler contract
		}
		if s == "" {
			*f = nil
		} else {
			*f = flexStrings{s}
		}
		return nil
	default:
		var ss []string
		if err := json.Unmarshal(data, &ss); err != nil {
			return fmt.Errorf("genres: expected string or string array: %w", err)
		}
		*f = ss
		return nil
	}
}
