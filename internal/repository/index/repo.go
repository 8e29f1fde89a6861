// Package index persists type-scoped snapshots of indexed documents in the
// cache store. Snapshots are whole arrays: every mutation re-persists the
// full array rather than touching per-document entries.
package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lumenworks/searchd/internal/db"
	"github.com/lumenworks/searchd/internal/domain"
	"github.com/lumenworks/searchd/internal/domain/document"
)

// store is the consumer interface for index snapshots (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// Repo implements usecase/index.Snapshots.
type Repo struct {
	store  store
	prefix string
	ttl    time.Duration
}

// New creates an index snapshot repository. ttl is a safety net only;
// explicit invalidation is the primary eviction path.
func New(s store, prefix string, ttl time.Duration) *Repo {
	return &Repo{store: s, prefix: prefix, ttl: ttl}
}

// Get returns the cached snapshot for a type.
// Returns domain.ErrNotFound on a cache miss.
func (r *Repo) Get(ctx context.Context, typ document.Type) ([]document.Document, error) {
	key := r.key(typ)
	raw, err := r.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get %s: %w", key, err)
	}

	var docs []document.Document
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot %s: %w", key, err)
	}
	return docs, nil
}

// Set replaces the snapshot for a type.
func (r *Repo) Set(ctx context.Context, typ document.Type, docs []document.Document) error {
	if docs == nil {
		docs = []document.Document{}
	}
	data, err := json.Marshal(docs)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	key := r.key(typ)
	if err := r.store.SetWithTTL(ctx, key, data, r.ttl); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Invalidate evicts the snapshot for a type, forcing a rebuild on next read.
func (r *Repo) Invalidate(ctx context.Context, typ document.Type) error {
	key := r.key(typ)
	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}

func (r *Repo) key(typ document.Type) string {
	return fmt.Sprintf("%sindex:%s", r.prefix, typ)
}
