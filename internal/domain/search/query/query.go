// Package query defines the validated search query value object.
package query

import (
	"fmt"
	"strings"

	"github.com/lumenworks/searchd/internal/domain/document"
	"github.com/lumenworks/searchd/internal/domain/search/filter"
	"github.com/lumenworks/searchd/internal/domain/search/order"
)

// Search parameter limits.
const (
	MaxQueryLength   = 200
	DefaultThreshold = 60
	DefaultPerPage   = 10
	MaxPerPage       = 50
)

// Query is a validated search query. Empty text is allowed and matches
// every document; it is used for filter-only browsing.
type Query struct {
	text      string
	types     []document.Type
	filters   filter.Filter
	threshold int
	exact     bool
	sort      order.Order
	page      int
	perPage   int
}

// New validates and normalizes search parameters.
// Defaults: types=[post], sort=relevance, threshold=60, page=1, perPage=10.
// perPage is clamped to MaxPerPage.
func New(
	text string,
	types []document.Type,
	filters filter.Filter,
	threshold int,
	exact bool,
	sort order.Order,
	page, perPage int,
) (Query, error) {
	text = strings.TrimSpace(text)
	if len(text) > MaxQueryLength {
		return Query{}, fmt.Errorf("query too long (max %d chars)", MaxQueryLength)
	}
	if len(types) == 0 {
		types = []document.Type{document.TypePost}
	}
	for _, t := range types {
		if !t.IsValid() {
			return Query{}, fmt.Errorf("invalid document type: %q", t)
		}
	}
	if threshold < 0 {
		threshold = DefaultThreshold
	}
	if threshold > 100 {
		return Query{}, fmt.Errorf("threshold must be between 0 and 100, got %d", threshold)
	}
	if sort == "" {
		sort = order.Relevance
	}
	if !sort.IsValid() {
		return Query{}, fmt.Errorf("invalid sort order: %q", sort)
	}
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}

	return Query{
		text:      text,
		types:     types,
		filters:   filters,
		threshold: threshold,
		exact:     exact,
		sort:      sort,
		page:      page,
		perPage:   perPage,
	}, nil
}

// Text returns the raw query text.
func (q *Query) Text() string { return q.text }

// Types returns the entity types to search.
func (q *Query) Types() []document.Type { return q.types }

// Filters returns the structured predicate set.
func (q *Query) Filters() filter.Filter { return q.filters }

// Threshold returns the fuzzy similarity cutoff (0-100).
func (q *Query) Threshold() int { return q.threshold }

// Exact reports whether edit-distance tolerance is disabled.
func (q *Query) Exact() bool { return q.exact }

// Sort returns the ordering strategy.
func (q *Query) Sort() order.Order { return q.sort }

// Page returns the 1-based page number.
func (q *Query) Page() int { return q.page }

// PerPage returns the page size.
func (q *Query) PerPage() int { return q.perPage }
