package search

import (
	"context"
	"time"

	"github.com/lumenworks/searchd/internal/domain/document"
	"github.com/lumenworks/searchd/internal/domain/search/query"
	"github.com/lumenworks/searchd/internal/domain/search/result"
)

// IndexReader serves type-scoped document snapshots, rebuilding on miss.
type IndexReader interface {
	GetIndex(ctx context.Context, typ document.Type) ([]document.Document, error)
}

// CategoryResolver resolves a category's descendant ids from the content store.
type CategoryResolver interface {
	ResolveCategoryDescendants(ctx context.Context, categoryID string) ([]string, error)
}

// ClosureCache caches resolved category descendant sets.
type ClosureCache interface {
	Get(ctx context.Context, categoryID string) ([]string, error)
	Set(ctx context.Context, categoryID string, ids []string) error
}

// PageCache caches fully assembled result pages per canonical query.
type PageCache interface {
	Get(ctx context.Context, q *query.Query) (result.Page, error)
	Set(ctx context.Context, q *query.Query, page result.Page) error
}

// Recorder receives analytics events off the response path.
type Recorder interface {
	RecordSearch(ctx context.Context, q *query.Query, total int, took time.Duration)
}
