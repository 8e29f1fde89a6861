// Package closure caches category descendant-id sets so subtree filtering is
// a set lookup instead of a per-document tree walk.
package closure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lumenworks/searchd/internal/db"
	"github.com/lumenworks/searchd/internal/domain"
)

// store is the consumer interface for closure entries (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Scan(ctx context.Context, pattern string) ([]string, error)
	Del(ctx context.Context, key string) error
}

// Repo implements usecase/search.ClosureCache.
type Repo struct {
	store  store
	prefix string
	ttl    time.Duration
}

// New creates a category-closure cache repository.
func New(s store, prefix string, ttl time.Duration) *Repo {
	return &Repo{store: s, prefix: prefix, ttl: ttl}
}

// Get returns the cached descendant ids for a category.
// Returns domain.ErrNotFound on a cache miss.
func (r *Repo) Get(ctx context.Context, categoryID string) ([]string, error) {
	key := r.key(categoryID)
	raw, err := r.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get %s: %w", key, err)
	}

	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, fmt.Errorf("unmarshal closure %s: %w", key, err)
	}
	return ids, nil
}

// Set caches the descendant ids for a category.
func (r *Repo) Set(ctx context.Context, categoryID string, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("marshal closure: %w", err)
	}

	key := r.key(categoryID)
	if err := r.store.SetWithTTL(ctx, key, data, r.ttl); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// InvalidateAll evicts every cached closure. Category tree mutations are rare
// enough that rebuilding all closures lazily is cheaper than tracking which
// subtrees a move touched.
func (r *Repo) InvalidateAll(ctx context.Context) error {
	pattern := r.prefix + "closure:category:*"
	keys, err := r.store.Scan(ctx, pattern)
	if err != nil {
		return fmt.Errorf("scan %s: %w", pattern, err)
	}
	for _, key := range keys {
		if err := r.store.Del(ctx, key); err != nil {
			return fmt.Errorf("del %s: %w", key, err)
		}
	}
	return nil
}

func (r *Repo) key(categoryID string) string {
	return fmt.Sprintf("%sclosure:category:%s", r.prefix, categoryID)
}
