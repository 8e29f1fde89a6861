package search

import (
	"html"
	"sort"
	"strings"
)

const (
	markOpen  = `<mark class="search-highlight">`
	markClose = `</mark>`
)

// Highlight wraps every case-insensitive occurrence of the query tokens in a
// mark element. Tokens are located in the original text and each segment is
// HTML-escaped on output, so document markup is rendered inert, the inserted
// mark tags stay live, and entities produced by escaping are never matchable
// (a token like "amp" must not split an "&amp;" the escaper emitted).
// Overlapping token occurrences are merged into a single mark.
func Highlight(text string, tokens []string) string {
	if text == "" {
		return ""
	}

	lowered := strings.ToLower(text)
	var spans [][2]int
	for _, tok := range tokens {
		needle := strings.ToLower(tok)
		if needle == "" {
			continue
		}
		from := 0
		for {
			i := strings.Index(lowered[from:], needle)
			if i < 0 {
				break
			}
			start := from + i
			spans = append(spans, [2]int{start, start + len(needle)})
			from = start + len(needle)
		}
	}
	if len(spans) == 0 {
		return html.EscapeString(text)
	}

	spans = mergeSpans(spans)

	var b strings.Builder
	b.Grow(len(text) + len(spans)*(len(markOpen)+len(markClose)))
	prev := 0
	for _, sp := range spans {
		b.WriteString(html.EscapeString(text[prev:sp[0]]))
		b.WriteString(markOpen)
		b.WriteString(html.EscapeString(text[sp[0]:sp[1]]))
		b.WriteString(markClose)
		prev = sp[1]
	}
	b.WriteString(html.EscapeString(text[prev:]))
	return b.String()
}

// mergeSpans sorts byte ranges and coalesces any that overlap.
func mergeSpans(spans [][2]int) [][2]int {
	sort.Slice(spans, func(i, j int) bool {
		if spans[i][0] != spans[j][0] {
			return spans[i][0] < spans[j][0]
		}
		return spans[i][1] > spans[j][1]
	})

	merged := spans[:1]
	for _, sp := range spans[1:] {
		last := &merged[len(merged)-1]
		if sp[0] < last[1] {
			if sp[1] > last[1] {
				last[1] = sp[1]
			}
			continue
		}
		merged = append(merged, sp)
	}
	return merged
}
