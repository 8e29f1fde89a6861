// Package result defines scored search hits and result pages.
package result

import "github.com/lumenworks/searchd/internal/domain/document"

// ScoredResult is a single search hit. Produced transiently per query;
// highlight fields are filled by the highlighter, never written back to
// the underlying Document.
type ScoredResult struct {
	Document           document.Document `json:"document"`
	Score              int               `json:"score"`
	MatchedFields      []string          `json:"matched_fields,omitempty"`
	HighlightedTitle   string            `json:"highlighted_title,omitempty"`
	HighlightedExcerpt string            `json:"highlighted_excerpt,omitempty"`
}

// Page is one page of ranked results with pagination metadata.
type Page struct {
	Items        []ScoredResult `json:"items"`
	Total        int            `json:"total"`
	Page         int            `json:"page"`
	PerPage      int            `json:"per_page"`
	LastPage     int            `json:"last_page"`
	HasMorePages bool           `json:"has_more_pages"`
}

// NewPage slices items into the requested page and computes the metadata.
// An out-of-range page yields an empty item list, not an error.
func NewPage(items []ScoredResult, page, perPage int) Page {
	total := len(items)
	lastPage := (total + perPage - 1) / perPage
	if lastPage < 1 {
		lastPage = 1
	}

	start := (page - 1) * perPage
	if start > total {
		start = total
	}
	end := start + perPage
	if end > total {
		end = total
	}

	return Page{
		Items:        items[start:end],
		Total:        total,
		Page:         page,
		PerPage:      perPage,
		LastPage:     lastPage,
		HasMorePages: page < lastPage,
	}
}
