// Package querycache stores rendered result pages keyed per entity type and
// query hash, so the invalidation gateway can evict everything built on a
// type with one key scan.
package querycache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
	"time"

	"github.com/lumenworks/searchd/internal/db"
	"github.com/lumenworks/searchd/internal/domain"
	"github.com/lumenworks/searchd/internal/domain/document"
	"github.com/lumenworks/searchd/internal/domain/search/query"
	"github.com/lumenworks/searchd/internal/domain/search/result"
)

// store is the consumer interface for cached query pages (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Scan(ctx context.Context, pattern string) ([]string, error)
	Del(ctx context.Context, key string) error
}

// Repo implements usecase/search.PageCache.
type Repo struct {
	store  store
	prefix string
	ttl    time.Duration
}

// New creates a query-result cache repository.
func New(s store, prefix string, ttl time.Duration) *Repo {
	return &Repo{store: s, prefix: prefix, ttl: ttl}
}

// Get returns a cached page. Returns domain.ErrNotFound on a cache miss.
func (r *Repo) Get(ctx context.Context, q *query.Query) (result.Page, error) {
	key := r.key(q)
	raw, err := r.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return result.Page{}, domain.ErrNotFound
		}
		return result.Page{}, fmt.Errorf("get %s: %w", key, err)
	}

	var page result.Page
	if err := json.Unmarshal(raw, &page); err != nil {
		return result.Page{}, fmt.Errorf("unmarshal page %s: %w", key, err)
	}
	return page, nil
}

// Set caches a page under the query's type+hash key with the configured TTL.
func (r *Repo) Set(ctx context.Context, q *query.Query, page result.Page) error {
	data, err := json.Marshal(page)
	if err != nil {
		return fmt.Errorf("marshal page: %w", err)
	}

	key := r.key(q)
	if err := r.store.SetWithTTL(ctx, key, data, r.ttl); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// InvalidateType evicts every cached page whose key depends on the given
// type, including multi-type pages. Whole-key eviction, no in-place patching.
func (r *Repo) InvalidateType(ctx context.Context, typ document.Type) error {
	pattern := r.prefix + "query:*"
	keys, err := r.store.Scan(ctx, pattern)
	if err != nil {
		return fmt.Errorf("scan %s: %w", pattern, err)
	}
	for _, key := range keys {
		if !keyDependsOn(key, r.prefix, typ) {
			continue
		}
		if err := r.store.Del(ctx, key); err != nil {
			return fmt.Errorf("del %s: %w", key, err)
		}
	}
	return nil
}

// keyDependsOn parses the "+"-joined type segment of a cache key.
func keyDependsOn(key, prefix string, typ document.Type) bool {
	rest := strings.TrimPrefix(key, prefix+"query:")
	segment, _, ok := strings.Cut(rest, ":")
	if !ok {
		return false
	}
	for _, name := range strings.Split(segment, "+") {
		if name == string(typ) {
			return true
		}
	}
	return false
}

// key builds the cache key: prefix + "query:" + type segment + ":" + hash.
// Multi-type queries join their types with "+" in the segment.
func (r *Repo) key(q *query.Query) string {
	types := q.Types()
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return fmt.Sprintf("%squery:%s:%s", r.prefix, strings.Join(names, "+"), hashQuery(q))
}

// hashQuery renders the query to a canonical string and hashes it.
func hashQuery(q *query.Query) string {
	f := q.Filters()
	var b strings.Builder
	b.WriteString(strings.ToLower(q.Text()))
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(q.Threshold()))
	b.WriteByte('|')
	b.WriteString(strconv.FormatBool(q.Exact()))
	b.WriteByte('|')
	b.WriteString(string(q.Sort()))
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(q.Page()))
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(q.PerPage()))
	b.WriteByte('|')
	if f.DateFrom() != nil {
		b.WriteString(f.DateFrom().UTC().Format(time.RFC3339))
	}
	b.WriteByte('|')
	if f.DateTo() != nil {
		b.WriteString(f.DateTo().UTC().Format(time.RFC3339))
	}
	b.WriteByte('|')
	b.WriteString(f.AuthorID())
	b.WriteByte('|')
	b.WriteString(f.CategoryID())
	b.WriteByte('|')
	b.WriteString(strings.Join(f.TagIDs(), ","))

	h := fnv.New64a()
	_, _ = h.Write([]byte(b.String()))
	return strconv.FormatUint(h.Sum64(), 16)
}
