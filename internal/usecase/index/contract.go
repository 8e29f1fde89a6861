package index

import (
	"context"

	"github.com/lumenworks/searchd/internal/domain/document"
	"github.com/lumenworks/searchd/internal/domain/record"
)

// Source lists index-eligible records from the content store with their
// relations resolved.
type Source interface {
	ListEligible(ctx context.Context, typ document.Type) ([]record.Record, error)
}

// Snapshots persists type-scoped index snapshots in the cache store.
type Snapshots interface {
	Get(ctx context.Context, typ document.Type) ([]document.Document, error)
	Set(ctx context.Context, typ document.Type, docs []document.Document) error
	Invalidate(ctx context.Context, typ document.Type) error
}
