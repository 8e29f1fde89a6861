package search

import "strings"

// Similarity scores on the 0..100 scale.
const (
	scoreExact    = 100
	scoreContains = 95
)

// Score rates how well a single query token matches a field value, 0..100.
// An exact match (whole field, case-insensitive) scores 100, substring
// containment 95; otherwise the best normalized edit-distance similarity
// against the field's words decides.
func Score(token, field string) int {
	token = strings.ToLower(strings.TrimSpace(token))
	field = strings.ToLower(field)
	if token == "" || field == "" {
		return 0
	}
	if field == token {
		return scoreExact
	}
	if strings.Contains(field, token) {
		return scoreContains
	}

	best := 0
	for _, word := range strings.Fields(field) {
		if s := similarity(token, word); s > best {
			best = s
		}
	}
	return best
}

// similarity maps edit distance to 0..100: identical strings score 100,
// entirely different strings 0.
func similarity(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	maxLen := len(ra)
	if len(rb) > maxLen {
		maxLen = len(rb)
	}
	if maxLen == 0 {
		return scoreExact
	}
	dist := levenshtein(ra, rb)
	if dist >= maxLen {
		return 0
	}
	return 100 * (maxLen - dist) / maxLen
}

// levenshtein computes edit distance over runes with a two-row table.
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min3(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
