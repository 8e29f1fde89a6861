package search

import (
	"strings"
	"testing"
)

func TestHighlight_WrapsMatches(t *testing.T) {
	got := Highlight("Getting started with Go", []string{"go"})
	if !strings.Contains(got, markOpen+"Go"+markClose) {
		t.Errorf("expected marked Go, got %q", got)
	}
}

func TestHighlight_CaseInsensitive(t *testing.T) {
	got := Highlight("REDIS and redis and Redis", []string{"redis"})
	if strings.Count(got, markOpen) != 3 {
		t.Errorf("expected 3 marks, got %q", got)
	}
}

func TestHighlight_EscapesBeforeMarking(t *testing.T) {
	got := Highlight(`<script>alert("go")</script>`, []string{"go"})

	if strings.Contains(got, "<script>") {
		t.Errorf("document markup must be escaped, got %q", got)
	}
	if !strings.Contains(got, "&lt;script&gt;") {
		t.Errorf("expected escaped markup, got %q", got)
	}
	if !strings.Contains(got, markOpen+"go"+markClose) {
		t.Errorf("mark tags must stay live after escaping, got %q", got)
	}
}

func TestHighlight_NoTokens(t *testing.T) {
	got := Highlight("a & b", nil)
	if got != "a &amp; b" {
		t.Errorf("no tokens still escapes, got %q", got)
	}
}

func TestHighlight_EntityFragmentsNotMatched(t *testing.T) {
	tests := []struct {
		text  string
		token string
		want  string
	}{
		{"Rock & Roll", "amp", "Rock &amp; Roll"},
		{"5 < 6", "lt", "5 &lt; 6"},
		{"a > b", "gt", "a &gt; b"},
	}

	for _, tc := range tests {
		if got := Highlight(tc.text, []string{tc.token}); got != tc.want {
			t.Errorf("Highlight(%q, %q) = %q, want %q", tc.text, tc.token, got, tc.want)
		}
	}
}

func TestHighlight_MatchNextToEntity(t *testing.T) {
	got := Highlight("Rock & Roll", []string{"roll"})
	want := "Rock &amp; " + markOpen + "Roll" + markClose
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestHighlight_NoMatch(t *testing.T) {
	got := Highlight("nothing relevant here", []string{"kubernetes"})
	if strings.Contains(got, markOpen) {
		t.Errorf("no match must add no marks, got %q", got)
	}
}

func TestHighlight_OverlappingTokensMerge(t *testing.T) {
	got := Highlight("searching", []string{"search", "arching"})

	if strings.Count(got, markOpen) != 1 {
		t.Errorf("overlapping spans must merge into one mark, got %q", got)
	}
	if !strings.Contains(got, markOpen+"searching"+markClose) {
		t.Errorf("merged span must cover the union, got %q", got)
	}
}

func TestHighlight_RepeatedToken(t *testing.T) {
	got := Highlight("go here, go there", []string{"go"})
	if strings.Count(got, markOpen) != 2 {
		t.Errorf("every occurrence gets its own mark, got %q", got)
	}
}

func TestMergeSpans(t *testing.T) {
	spans := [][2]int{{10, 15}, {0, 5}, {3, 8}, {20, 25}}
	merged := mergeSpans(spans)

	want := [][2]int{{0, 8}, {10, 15}, {20, 25}}
	if len(merged) != len(want) {
		t.Fatalf("expected %d spans, got %v", len(want), merged)
	}
	for i := range want {
		if merged[i] != want[i] {
			t.Errorf("span %d: got %v, want %v", i, merged[i], want[i])
		}
	}
}
