// Package search runs the query pipeline: candidate collection, filtering,
// fuzzy matching, ranking, pagination, and highlighting.
package search

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lumenworks/searchd/internal/domain"
	"github.com/lumenworks/searchd/internal/domain/document"
	"github.com/lumenworks/searchd/internal/domain/search/filter"
	"github.com/lumenworks/searchd/internal/domain/search/query"
	"github.com/lumenworks/searchd/internal/domain/search/result"
	"github.com/lumenworks/searchd/internal/logger"
	"github.com/lumenworks/searchd/internal/metrics"
)

// Service is the search orchestrator.
type Service struct {
	index     IndexReader
	resolver  CategoryResolver
	closures  ClosureCache
	pages     PageCache
	analytics Recorder
	now       func() time.Time
}

// New creates a search service. Caches and analytics are optional collaborators.
func New(index IndexReader, resolver CategoryResolver) *Service {
	return &Service{index: index, resolver: resolver, now: time.Now}
}

// WithCaches attaches the closure and result-page caches.
func (s *Service) WithCaches(closures ClosureCache, pages PageCache) *Service {
	s.closures = closures
	s.pages = pages
	return s
}

// WithAnalytics attaches the analytics recorder.
func (s *Service) WithAnalytics(rec Recorder) *Service {
	s.analytics = rec
	return s
}

// Search executes the full pipeline and returns one page of results.
func (s *Service) Search(ctx context.Context, q *query.Query) (result.Page, error) {
	start := s.now()
	typesLabel := typesLabel(q.Types())

	if s.pages != nil {
		if page, err := s.pages.Get(ctx, q); err == nil {
			metrics.QueryCacheTotal.WithLabelValues("hit").Inc()
			return page, nil
		} else if !errors.Is(err, domain.ErrNotFound) {
			logger.FromContext(ctx).Warn("query cache read failed", zap.Error(err))
		}
		metrics.QueryCacheTotal.WithLabelValues("miss").Inc()
	}

	matched, err := s.collect(ctx, q)
	if err != nil {
		return result.Page{}, err
	}

	sortByOrder(matched, q.Sort())
	page := result.NewPage(matched, q.Page(), q.PerPage())

	tokens := Tokenize(q.Text())
	for i := range page.Items {
		page.Items[i].HighlightedTitle = Highlight(page.Items[i].Document.Title, tokens)
		page.Items[i].HighlightedExcerpt = Highlight(page.Items[i].Document.Excerpt, tokens)
	}

	if s.pages != nil {
		if err := s.pages.Set(ctx, q, page); err != nil {
			logger.FromContext(ctx).Warn("query cache write failed", zap.Error(err))
		}
	}

	took := s.now().Sub(start)
	metrics.SearchesTotal.WithLabelValues(typesLabel, string(q.Sort())).Inc()
	metrics.SearchDuration.WithLabelValues(typesLabel).Observe(took.Seconds())
	metrics.SearchResultsTotal.WithLabelValues(typesLabel).Observe(float64(page.Total))
	if s.analytics != nil {
		s.analytics.RecordSearch(ctx, q, page.Total, took)
	}

	return page, nil
}

// CountResults returns the total match count without pagination or highlighting.
func (s *Service) CountResults(ctx context.Context, q *query.Query) (int, error) {
	matched, err := s.collect(ctx, q)
	if err != nil {
		return 0, err
	}
	return len(matched), nil
}

// GetAuthorsWithPosts lists the distinct authors present in the post index,
// sorted by name.
func (s *Service) GetAuthorsWithPosts(ctx context.Context) ([]domain.Author, error) {
	docs, err := s.index.GetIndex(ctx, document.TypePost)
	if err != nil {
		return nil, fmt.Errorf("load post index: %w", err)
	}

	seen := make(map[string]struct{}, len(docs))
	authors := make([]domain.Author, 0, len(docs))
	for _, d := range docs {
		if d.AuthorID == "" {
			continue
		}
		if _, ok := seen[d.AuthorID]; ok {
			continue
		}
		seen[d.AuthorID] = struct{}{}
		authors = append(authors, domain.Author{ID: d.AuthorID, Name: d.Author})
	}
	sortAuthors(authors)
	return authors, nil
}

// GetTagsWithPosts lists the distinct tags attached to indexed posts,
// sorted by name.
func (s *Service) GetTagsWithPosts(ctx context.Context) ([]domain.Tag, error) {
	docs, err := s.index.GetIndex(ctx, document.TypePost)
	if err != nil {
		return nil, fmt.Errorf("load post index: %w", err)
	}

	seen := make(map[string]struct{})
	var tags []domain.Tag
	for _, d := range docs {
		for i, id := range d.TagIDs {
			if id == "" {
				continue
			}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			name := id
			if i < len(d.Tags) {
				name = d.Tags[i]
			}
			tags = append(tags, domain.Tag{ID: id, Name: name})
		}
	}
	sortTags(tags)
	return tags, nil
}

// CountActiveFilters reports how many filter dimensions are constrained.
// A date range counts as one dimension regardless of which bounds are set.
func (s *Service) CountActiveFilters(f filter.Filter) int {
	return f.ActiveCount()
}

// collect gathers and scores candidates across the requested types.
func (s *Service) collect(ctx context.Context, q *query.Query) ([]result.ScoredResult, error) {
	categorySet, err := s.resolveCategorySet(ctx, q.Filters().CategoryID())
	if err != nil {
		return nil, err
	}

	tokens := Tokenize(q.Text())
	threshold := q.Threshold()
	if q.Exact() && threshold < scoreContains {
		// Exact mode keeps only verbatim and substring hits.
		threshold = scoreContains
	}

	var matched []result.ScoredResult
	for _, typ := range q.Types() {
		docs, err := s.index.GetIndex(ctx, typ)
		if err != nil {
			return nil, fmt.Errorf("load %s index: %w", typ, err)
		}
		docs = applyFilter(docs, q.Filters(), categorySet)

		for _, d := range docs {
			if sr, ok := scoreDocument(d, q.Text(), tokens, threshold); ok {
				matched = append(matched, sr)
			}
		}
	}
	return matched, nil
}

// scoreDocument rates one document against the query. Every token must clear
// the threshold on some field; the weakest token decides the base score, and
// the title tier dominates the composite.
func scoreDocument(d document.Document, text string, tokens []string, threshold int) (result.ScoredResult, bool) {
	if len(tokens) == 0 {
		// Empty query: filter-only browsing matches everything.
		return result.ScoredResult{Document: d}, true
	}

	type fieldValue struct {
		name  string
		value string
	}
	fields := []fieldValue{
		{"title", d.Title},
		{"excerpt", d.Excerpt},
	}
	if d.Type == document.TypePost {
		fields = append(fields, fieldValue{"content", d.Content})
	}

	base := scoreExact
	matchedSet := make(map[string]struct{}, len(fields))
	for _, tok := range tokens {
		tokenBest := 0
		for _, f := range fields {
			sc := Score(tok, f.value)
			if sc > tokenBest {
				tokenBest = sc
			}
			if sc >= threshold {
				matchedSet[f.name] = struct{}{}
			}
		}
		if tokenBest < threshold {
			return result.ScoredResult{}, false
		}
		if tokenBest < base {
			base = tokenBest
		}
	}

	tier := tierBody
	if _, ok := matchedSet["title"]; ok {
		tier = tierTitle
	}
	if strings.EqualFold(strings.TrimSpace(text), strings.TrimSpace(d.Title)) {
		tier = tierTitleExact
	}

	var matchedFields []string
	for _, f := range fields {
		if _, ok := matchedSet[f.name]; ok {
			matchedFields = append(matchedFields, f.name)
		}
	}

	return result.ScoredResult{
		Document:      d,
		Score:         tier*tierWeight + base,
		MatchedFields: matchedFields,
	}, true
}

// resolveCategorySet builds the descendant-id set for the category filter,
// including the category itself. An unknown category yields an empty set so
// the filter matches nothing instead of erroring.
func (s *Service) resolveCategorySet(ctx context.Context, categoryID string) (map[string]struct{}, error) {
	if categoryID == "" {
		return nil, nil
	}

	if s.closures != nil {
		if ids, err := s.closures.Get(ctx, categoryID); err == nil {
			return idSet(categoryID, ids), nil
		} else if !errors.Is(err, domain.ErrNotFound) {
			logger.FromContext(ctx).Warn("closure cache read failed", zap.Error(err))
		}
	}

	ids, err := s.resolver.ResolveCategoryDescendants(ctx, categoryID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return map[string]struct{}{}, nil
		}
		return nil, fmt.Errorf("resolve category %s: %w", categoryID, err)
	}

	if s.closures != nil {
		if err := s.closures.Set(ctx, categoryID, ids); err != nil {
			logger.FromContext(ctx).Warn("closure cache write failed", zap.Error(err))
		}
	}
	return idSet(categoryID, ids), nil
}

func idSet(self string, ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids)+1)
	set[self] = struct{}{}
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func typesLabel(types []document.Type) string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return strings.Join(names, "+")
}

func sortAuthors(authors []domain.Author) {
	sort.Slice(authors, func(i, j int) bool {
		return lessByName(authors[i].Name, authors[i].ID, authors[j].Name, authors[j].ID)
	})
}

func sortTags(tags []domain.Tag) {
	sort.Slice(tags, func(i, j int) bool {
		return lessByName(tags[i].Name, tags[i].ID, tags[j].Name, tags[j].ID)
	})
}

func lessByName(nameA, idA, nameB, idB string) bool {
	la, lb := strings.ToLower(nameA), strings.ToLower(nameB)
	if la != lb {
		return la < lb
	}
	return idA < idB
}
