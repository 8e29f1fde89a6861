package suggest

import (
	"context"

	"github.com/lumenworks/searchd/internal/domain/document"
)

// IndexReader serves type-scoped document snapshots, rebuilding on miss.
type IndexReader interface {
	GetIndex(ctx context.Context, typ document.Type) ([]document.Document, error)
}
