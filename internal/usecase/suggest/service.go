// Package suggest serves typeahead completions from indexed titles.
package suggest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/lumenworks/searchd/internal/domain/document"
	"github.com/lumenworks/searchd/internal/usecase/search"
)

// DefaultLimit is used when the caller does not request a suggestion count.
const DefaultLimit = 5

// Service produces search suggestions from title-like fields only; body text
// is too noisy for typeahead.
type Service struct {
	index     IndexReader
	minLength int
	maxLimit  int
	threshold int
}

// New creates a suggestion service.
func New(index IndexReader, minLength, maxLimit, threshold int) *Service {
	return &Service{
		index:     index,
		minLength: minLength,
		maxLimit:  maxLimit,
		threshold: threshold,
	}
}

// Suggest returns up to limit distinct titles matching the partial query.
// Queries shorter than the minimum length yield an empty list, not an error.
func (s *Service) Suggest(ctx context.Context, text string, limit int) ([]string, error) {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) < s.minLength {
		return []string{}, nil
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}

	type candidate struct {
		title string
		score int
	}
	var candidates []candidate
	seen := make(map[string]struct{})

	for _, typ := range document.All() {
		docs, err := s.index.GetIndex(ctx, typ)
		if err != nil {
			return nil, fmt.Errorf("load %s index: %w", typ, err)
		}
		for _, d := range docs {
			title := strings.TrimSpace(d.Title)
			if title == "" {
				continue
			}
			key := strings.ToLower(title)
			if _, ok := seen[key]; ok {
				continue
			}
			sc := search.Score(text, title)
			if sc < s.threshold {
				continue
			}
			seen[key] = struct{}{}
			candidates = append(candidates, candidate{title: title, score: sc})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return strings.ToLower(candidates[i].title) < strings.ToLower(candidates[j].title)
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	titles := make([]string, len(candidates))
	for i, c := range candidates {
		titles[i] = c.title
	}
	return titles, nil
}
