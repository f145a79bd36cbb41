package mode

import "testing"

func TestIsValid(t *testing.T) {
	valid := []Mode{Keyword, Vector, Hybrid, Semantic}
	for _, m := range valid {
		if !m.IsValid() {
			t.Errorf("%q.IsValid() = false, want true", m)
		}
	}

	invalid := []Mode{"", "full-text", "geo", "HYBRID"}
	for _, m := range invalid {
		if m.IsValid() {
			t.Errorf("%q.IsValid() = true, want false", m)
		}
	}
}

func TestNeedsEmbedding(t *testing.T) {
	tests := []struct {
		m    Mode
		want bool
	}{
		{Keyword, false},
		{Vector, true},
		{Hybrid, true},
		{Semantic, false},
	}
	for _, tc := range tests {
		if got := tc.m.NeedsEmbedding(); got != tc.want {
			t.Errorf("%q.NeedsEmbedding() = %v, want %v", tc.m, got, tc.want)
		}
	}
}

func TestSendsText(t *testing.T) {
	if Vector.SendsText() {
		t.Error("vector mode must not send query text")
	}
	for _, m := range []Mode{Keyword, Hybrid, Semantic} {
		if !m.SendsText() {
			t.Errorf("%q.SendsText() = false, want true", m)
		}
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in     string
		want   Mode
		wantOK bool
	}{
		{"", Keyword, true},
		{"keyword", Keyword, true},
		{" Vector ", Vector, true},
		{"HYBRID", Hybrid, true},
		{"semantic", Semantic, true},
		{"geo", Mode("geo"), false},
	}
	for _, tc := range tests {
		got, ok := Parse(tc.in)
		if got != tc.want || ok != tc.wantOK {
			t.Errorf("Parse(%q) = (%q, %v), want (%q, %v)", tc.in, got, ok, tc.want, tc.wantOK)
		}
	}
}

func TestLabel(t *testing.T) {
	if Semantic.Label() != "Semantic (Keyword + Semantic Reranking)" {
		t.Errorf("Semantic label = %q", Semantic.Label())
	}
	if Keyword.Label() != "Keyword" {
		t.Errorf("Keyword label = %q", Keyword.Label())
	}
}
