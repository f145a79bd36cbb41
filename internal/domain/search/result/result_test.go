package result

import "testing"

func TestNew_Accessors(t *testing.T) {
	rr := 2.5
	it := New("42", "Alien", "In space...", "No one can hear you scream",
		[]string{"Horror", "Science Fiction"}, 0.75, &rr,
		[]Caption{{Text: "space", Highlights: "<em>space</em>"}})

	if it.ID() != "42" || it.Title() != "Alien" {
		t.Errorf("unexpected id/title: %q/%q", it.ID(), it.Title())
	}
	if it.Overview() != "In space..." || it.Tagline() != "No one can hear you scream" {
		t.Error("unexpected overview/tagline")
	}
	if len(it.Genres()) != 2 {
		t.Errorf("Genres() = %v", it.Genres())
	}
	if it.Score() != 0.75 {
		t.Errorf("Score() = %f", it.Score())
	}
	got, ok := it.RerankerScore()
	if !ok || got != 2.5 {
		t.Errorf("RerankerScore() = (%f, %v)", got, ok)
	}
	c, ok := it.FirstCaption()
	if !ok || c.Highlights != "<em>space</em>" {
		t.Errorf("FirstCaption() = (%+v, %v)", c, ok)
	}
}

func TestItem_AbsentOptionals(t *testing.T) {
	it := New("1", "", "", "", nil, 1, nil, nil)

	if _, ok := it.RerankerScore(); ok {
		t.Error("RerankerScore() reported present for nil score")
	}
	if _, ok := it.FirstCaption(); ok {
		t.Error("FirstCaption() reported present without captions")
	}
}
