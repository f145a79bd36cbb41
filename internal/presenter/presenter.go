// Package presenter turns a search cursor into the view model rendered by the web shell.
package presenter

import (
	"fmt"
	"html"
	"html/template"
	"strings"

	"github.com/kailas-cloud/moviesearch/internal/domain/search/result"
)

// Headings and placeholders.
const (
	headingFallback = "Results:"
	noResults       = "No results found."
	noTitle         = "No Title"
	notAvailable    = "N/A"
)

// View is the rendered result section.
type View struct {
	Heading string
	// Empty is set when the service reported zero matches.
	Empty   bool
	Notices []Notice
	Answers []AnswerView
	Items   []ItemView
}

// ItemView is one rendered hit.
type ItemView struct {
	Rank          int
	Title         string
	MovieID       string
	Overview      string
	Tagline       string
	Genres        string
	Score         string
	RerankerScore string
	// Caption is sanitized highlight markup; only <em> survives.
	Caption template.HTML
}

// Summary is the one-line expander title.
func (i ItemView) Summary() string {
	return fmt.Sprintf("%d. %s (Score: %s, Reranker Score: %s)", i.Rank, i.Title, i.Score, i.RerankerScore)
}

// AnswerView is one rendered extractive answer.
type AnswerView struct {
	Key   string
	Text  template.HTML
	Score string
}

// Render reads the count first and enumerates items only when it is positive.
// A count failure yields the fallback heading, an error notice and no items.
func Render(cursor result.Cursor) View {
	count, err := cursor.TotalCount()
	if err != nil {
		return View{
			Heading: headingFallback,
			Notices: []Notice{Error(fmt.Sprintf("Error getting result count: %v", err))},
		}
	}

	view := View{Heading: fmt.Sprintf("Found %d results:", count)}
	if count == 0 {
		view.Empty = true
		view.Notices = []Notice{Info(noResults)}
		return view
	}

	if src, ok := cursor.(result.AnswerSource); ok {
		for _, a := range src.Answers() {
			view.Answers = append(view.Answers, AnswerView{
				Key:   a.Key,
				Text:  SanitizeHighlights(firstNonEmpty(a.Highlights, a.Text)),
				Score: fmt.Sprintf("%.4f", a.Score),
			})
		}
	}

	rank := 0
	for item := range cursor.Items() {
		rank++
		view.Items = append(view.Items, itemView(rank, &item))
	}

	return view
}

func itemView(rank int, it *result.Item) ItemView {
	v := ItemView{
		Rank:          rank,
		Title:         firstNonEmpty(it.Title(), noTitle),
		MovieID:       firstNonEmpty(it.ID(), notAvailable),
		Overview:      firstNonEmpty(it.Overview(), notAvailable),
		Tagline:       firstNonEmpty(it.Tagline(), notAvailable),
		Genres:        firstNonEmpty(strings.Join(it.Genres(), ", "), notAvailable),
		Score:         fmt.Sprintf("%.4f", it.Score()),
		RerankerScore: notAvailable,
	}
	if rs, ok := it.RerankerScore(); ok {
		v.RerankerScore = fmt.Sprintf("%.4f", rs)
	}
	if cp, ok := it.FirstCaption(); ok {
		if text := firstNonEmpty(cp.Highlights, cp.Text); text != "" {
			v.Caption = SanitizeHighlights(text)
		}
	}
	return v
}

// SanitizeHighlights escapes s as HTML, then restores <em> and </em>.
func SanitizeHighlights(s string) template.HTML {
	escaped := html.EscapeString(s)
	escaped = strings.ReplaceAll(escaped, "&lt;em&gt;", "<em>")
	escaped = strings.ReplaceAll(escaped, "&lt;/em&gt;", "</em>")
	return template.HTML(escaped) //nolint:gosec // escaped above; only <em> is restored
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
