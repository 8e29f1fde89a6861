package chi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/lumenworks/searchd/internal/domain"
	"github.com/lumenworks/searchd/internal/domain/document"
	"github.com/lumenworks/searchd/internal/domain/search/filter"
	"github.com/lumenworks/searchd/internal/domain/search/order"
	"github.com/lumenworks/searchd/internal/domain/search/query"
)

const dateLayout = "2006-01-02"

// forbiddenQueryFragments never appear in legitimate blog searches and are
// rejected outright instead of being escaped downstream.
var forbiddenQueryFragments = []string{"<", ">", ";", "--"}

// parseSearchQuery assembles a validated query from URL parameters.
// Every validation failure is wrapped with domain.ErrInvalidQuery.
func (s *Server) parseSearchQuery(ctx context.Context, r *http.Request) (*query.Query, error) {
	params := r.URL.Query()

	text := params.Get("q")
	for _, frag := range forbiddenQueryFragments {
		if strings.Contains(text, frag) {
			return nil, fmt.Errorf("%w: query contains forbidden characters", domain.ErrInvalidQuery)
		}
	}

	types, err := parseTypes(params.Get("type"))
	if err != nil {
		return nil, err
	}

	threshold := -1
	if raw := params.Get("threshold"); raw != "" {
		threshold, err = strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: threshold must be an integer", domain.ErrInvalidQuery)
		}
	}

	exact := params.Get("exact") == "true"
	sort := order.Order(params.Get("sort"))

	page, err := parsePositiveInt(params.Get("page"), "page")
	if err != nil {
		return nil, err
	}
	rawLimit := params.Get("limit")
	if rawLimit == "" {
		rawLimit = params.Get("per_page")
	}
	perPage, err := parsePositiveInt(rawLimit, "limit")
	if err != nil {
		return nil, err
	}

	f, err := s.parseFilter(ctx, params)
	if err != nil {
		return nil, err
	}

	q, err := query.New(text, types, f, threshold, exact, sort, page, perPage)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidQuery, err)
	}
	return &q, nil
}

// parseFilter reads the filter dimensions. A category may arrive as an id
// (category_id) or as a slug (category); slugs and author ids are validated
// against the content store.
func (s *Server) parseFilter(ctx context.Context, params map[string][]string) (filter.Filter, error) {
	get := func(key string) string {
		if vs := params[key]; len(vs) > 0 {
			return strings.TrimSpace(vs[0])
		}
		return ""
	}

	dateFrom, err := parseDate(get("date_from"), "date_from")
	if err != nil {
		return filter.Filter{}, err
	}
	dateTo, err := parseDate(get("date_to"), "date_to")
	if err != nil {
		return filter.Filter{}, err
	}

	categoryID := get("category_id")
	if slug := get("category"); slug != "" && categoryID == "" {
		categoryID, err = s.directory.ResolveCategorySlug(ctx, slug)
		if err != nil {
			return filter.Filter{}, err
		}
	}

	var tagIDs []string
	if raw := get("tags"); raw != "" {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				tagIDs = append(tagIDs, id)
			}
		}
	}

	authorID := get("author")
	if authorID == "" {
		authorID = get("author_id")
	}
	if authorID != "" {
		known, err := s.directory.AuthorExists(ctx, authorID)
		if err != nil {
			return filter.Filter{}, err
		}
		if !known {
			return filter.Filter{}, domain.ErrAuthorNotFound
		}
	}

	f, err := filter.New(dateFrom, dateTo, authorID, categoryID, tagIDs)
	if err != nil {
		return filter.Filter{}, fmt.Errorf("%w: %v", domain.ErrInvalidQuery, err)
	}
	return f, nil
}

func parseTypes(raw string) ([]document.Type, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if raw == "all" {
		return document.All(), nil
	}

	parts := strings.Split(raw, ",")
	types := make([]document.Type, 0, len(parts))
	for _, p := range parts {
		name := strings.TrimSpace(p)
		// Plural forms are accepted alongside the canonical singular names.
		switch name {
		case "posts":
			name = "post"
		case "tags":
			name = "tag"
		case "categories":
			name = "category"
		}
		t := document.Type(name)
		if !t.IsValid() {
			return nil, fmt.Errorf("%w: unknown type %q", domain.ErrInvalidQuery, p)
		}
		types = append(types, t)
	}
	return types, nil
}

func parseDate(raw, name string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be YYYY-MM-DD", domain.ErrInvalidQuery, name)
	}
	t = t.UTC()
	return &t, nil
}

func parsePositiveInt(raw, name string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", domain.ErrInvalidQuery, name)
	}
	return n, nil
}
