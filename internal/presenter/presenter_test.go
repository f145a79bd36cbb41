package presenter

import (
	"errors"
	"iter"
	"strings"
	"testing"

	"github.com/kailas-cloud/moviesearch/internal/domain"
	"github.com/kailas-cloud/moviesearch/internal/domain/search/result"
)

// fakeCursor records whether items were enumerated.
type fakeCursor struct {
	count      int64
	countErr   error
	items      []result.Item
	enumerated bool
}

func (c *fakeCursor) TotalCount() (int64, error) { return c.count, c.countErr }

func (c *fakeCursor) Items() iter.Seq[result.Item] {
	return func(yield func(result.Item) bool) {
		c.enumerated = true
		for _, it := range c.items {
			if !yield(it) {
				return
			}
		}
	}
}

type answeringCursor struct {
	fakeCursor
	answers []result.Answer
}

func (c *answeringCursor) Answers() []result.Answer { return c.answers }

func f64(v float64) *float64 { return &v }

func TestRender_CountError(t *testing.T) {
	c := &fakeCursor{countErr: domain.ErrCountUnavailable, items: []result.Item{
		result.New("1", "x", "", "", nil, 1, nil, nil),
	}}

	view := Render(c)
	if view.Heading != "Results:" {
		t.Errorf("heading = %q", view.Heading)
	}
	if len(view.Notices) != 1 || view.Notices[0].Level != LevelError {
		t.Fatalf("notices = %+v", view.Notices)
	}
	if !strings.Contains(view.Notices[0].Message, "Error getting result count") {
		t.Errorf("message = %q", view.Notices[0].Message)
	}
	if c.enumerated || len(view.Items) != 0 {
		t.Error("items must not be enumerated after a count failure")
	}
}

func TestRender_ZeroResultsSkipsIteration(t *testing.T) {
	c := &fakeCursor{count: 0}

	view := Render(c)
	if !view.Empty {
		t.Error("expected Empty view")
	}
	if len(view.Notices) != 1 || view.Notices[0].Message != "No results found." {
		t.Errorf("notices = %+v", view.Notices)
	}
	if c.enumerated {
		t.Error("items must not be enumerated for zero count")
	}
}

func TestRender_ItemFields(t *testing.T) {
	c := &fakeCursor{count: 42, items: []result.Item{
		result.New("603", "The Matrix", "A hacker.", "Welcome.", []string{"Action", "Science Fiction"}, 1.23456, nil, nil),
		result.New("", "", "", "", nil, 0.5, f64(2.71828), []result.Caption{{Text: "plain caption"}}),
	}}

	view := Render(c)
	if view.Heading != "Found 42 results:" {
		t.Errorf("heading = %q", view.Heading)
	}
	if len(view.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(view.Items))
	}

	first := view.Items[0]
	if first.Rank != 1 || first.Title != "The Matrix" || first.MovieID != "603" {
		t.Errorf("first = %+v", first)
	}
	if first.Score != "1.2346" || first.RerankerScore != "N/A" {
		t.Errorf("scores = %s / %s", first.Score, first.RerankerScore)
	}
	if first.Genres != "Action, Science Fiction" {
		t.Errorf("genres = %q", first.Genres)
	}
	if first.Caption != "" {
		t.Errorf("caption must be empty, got %q", first.Caption)
	}
	if first.Summary() != "1. The Matrix (Score: 1.2346, Reranker Score: N/A)" {
		t.Errorf("summary = %q", first.Summary())
	}

	second := view.Items[1]
	if second.Title != "No Title" || second.MovieID != "N/A" || second.Genres != "N/A" {
		t.Errorf("placeholders not applied: %+v", second)
	}
	if second.RerankerScore != "2.7183" {
		t.Errorf("reranker = %q", second.RerankerScore)
	}
	if second.Caption != "plain caption" {
		t.Errorf("caption must fall back to text, got %q", second.Caption)
	}
}

func TestRender_CaptionPrefersHighlights(t *testing.T) {
	c := &fakeCursor{count: 1, items: []result.Item{
		result.New("1", "t", "", "", nil, 1, f64(3), []result.Caption{
			{Text: "A hacker named Neo.", Highlights: "A hacker named <em>Neo</em>."},
			{Text: "second caption"},
		}),
	}}

	view := Render(c)
	if got := string(view.Items[0].Caption); got != "A hacker named <em>Neo</em>." {
		t.Errorf("caption = %q", got)
	}
}

func TestRender_Answers(t *testing.T) {
	c := &answeringCursor{
		fakeCursor: fakeCursor{count: 1, items: []result.Item{result.New("1", "t", "", "", nil, 1, nil, nil)}},
		answers: []result.Answer{
			{Key: "603", Text: "Neo is the One.", Highlights: "<em>Neo</em> is the One.", Score: 0.9},
			{Key: "604", Text: "No highlights here.", Score: 0.5},
		},
	}

	view := Render(c)
	if len(view.Answers) != 2 {
		t.Fatalf("expected 2 answers, got %d", len(view.Answers))
	}
	if view.Answers[0].Text != "<em>Neo</em> is the One." || view.Answers[0].Score != "0.9000" {
		t.Errorf("answer[0] = %+v", view.Answers[0])
	}
	if view.Answers[1].Text != "No highlights here." {
		t.Errorf("answer[1] = %+v", view.Answers[1])
	}
}

func TestSanitizeHighlights(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"<em>kept</em>", "<em>kept</em>"},
		{`<script>alert("x")</script>`, "&lt;script&gt;alert(&#34;x&#34;)&lt;/script&gt;"},
		{"<b>bold</b> <em>em</em>", "&lt;b&gt;bold&lt;/b&gt; <em>em</em>"},
		{"Tom & Jerry", "Tom &amp; Jerry"},
	}
	for _, tc := range tests {
		if got := string(SanitizeHighlights(tc.in)); got != tc.want {
			t.Errorf("SanitizeHighlights(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRender_CountErrorWrapsCause(t *testing.T) {
	cause := errors.New("boom")
	view := Render(&fakeCursor{countErr: cause})
	if !strings.Contains(view.Notices[0].Message, "boom") {
		t.Errorf("cause missing from notice: %q", view.Notices[0].Message)
	}
}
