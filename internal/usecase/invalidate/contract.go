package invalidate

import (
	"context"

	"github.com/lumenworks/searchd/internal/domain/document"
)

// IndexStore mutates type-scoped index snapshots.
type IndexStore interface {
	Upsert(ctx context.Context, doc document.Document) error
	Remove(ctx context.Context, typ document.Type, id string) error
	Invalidate(ctx context.Context, typ document.Type) error
}

// PageCache evicts cached result pages that depend on a type.
type PageCache interface {
	InvalidateType(ctx context.Context, typ document.Type) error
}

// ClosureCache evicts cached category descendant sets.
type ClosureCache interface {
	InvalidateAll(ctx context.Context) error
}
