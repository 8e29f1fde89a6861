// Package invalidate is the write-side gateway: content mutations arrive
// here and are translated into index and cache maintenance, synchronously,
// so a read that follows the triggering write sees fresh data.
package invalidate

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/lumenworks/searchd/internal/domain/document"
	"github.com/lumenworks/searchd/internal/domain/record"
	"github.com/lumenworks/searchd/internal/logger"
	"github.com/lumenworks/searchd/internal/metrics"
)

// Service reacts to content lifecycle events.
type Service struct {
	index    IndexStore
	pages    PageCache
	closures ClosureCache
	now      func() time.Time
}

// New creates the invalidation gateway.
func New(index IndexStore, pages PageCache, closures ClosureCache) *Service {
	return &Service{index: index, pages: pages, closures: closures, now: time.Now}
}

// WithClock overrides the time source (tests).
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// OnCreated indexes a freshly created record if it is eligible.
// Ineligible records (drafts, scheduled posts) are ignored until a later
// event makes them visible.
func (s *Service) OnCreated(ctx context.Context, rec *record.Record) error {
	metrics.InvalidationsTotal.WithLabelValues(string(rec.Type), "created").Inc()

	if !rec.Eligible(s.now()) {
		logger.FromContext(ctx).Debug("created record not eligible, skipping",
			zap.String("type", string(rec.Type)), zap.String("id", rec.ID))
		return nil
	}
	if err := s.index.Upsert(ctx, rec.Document()); err != nil {
		return fmt.Errorf("upsert created %s %s: %w", rec.Type, rec.ID, err)
	}
	return s.evictDependents(ctx, rec.Type)
}

// OnUpdated compares the two revisions and refreshes the index only when a
// search-relevant field changed. View-count bumps and other cosmetic edits
// must leave every cache untouched.
func (s *Service) OnUpdated(ctx context.Context, before, after *record.Record) error {
	if !record.SearchRelevantChanged(before, after) {
		logger.FromContext(ctx).Debug("update not search-relevant, skipping",
			zap.String("type", string(after.Type)), zap.String("id", after.ID))
		return nil
	}
	metrics.InvalidationsTotal.WithLabelValues(string(after.Type), "updated").Inc()

	// Evict first, then push the fresh document so a reader racing the
	// rebuild still observes the new revision.
	if err := s.index.Invalidate(ctx, after.Type); err != nil {
		return fmt.Errorf("invalidate %s index: %w", after.Type, err)
	}
	if after.Eligible(s.now()) {
		if err := s.index.Upsert(ctx, after.Document()); err != nil {
			return fmt.Errorf("upsert updated %s %s: %w", after.Type, after.ID, err)
		}
	}
	return s.evictDependents(ctx, after.Type)
}

// OnDeleted drops the record from its index.
func (s *Service) OnDeleted(ctx context.Context, rec *record.Record) error {
	metrics.InvalidationsTotal.WithLabelValues(string(rec.Type), "deleted").Inc()

	if err := s.index.Remove(ctx, rec.Type, rec.ID); err != nil {
		return fmt.Errorf("remove deleted %s %s: %w", rec.Type, rec.ID, err)
	}
	return s.evictDependents(ctx, rec.Type)
}

// OnRestored re-indexes a record coming back from soft deletion.
func (s *Service) OnRestored(ctx context.Context, rec *record.Record) error {
	metrics.InvalidationsTotal.WithLabelValues(string(rec.Type), "restored").Inc()

	if !rec.Eligible(s.now()) {
		return nil
	}
	if err := s.index.Upsert(ctx, rec.Document()); err != nil {
		return fmt.Errorf("upsert restored %s %s: %w", rec.Type, rec.ID, err)
	}
	return s.evictDependents(ctx, rec.Type)
}

// evictDependents clears the query pages for the mutated type, plus whatever
// denormalized state depends on it. Post documents embed author, category,
// and tag names, so tag and category mutations dirty the post index too.
// Category tree changes additionally dirty the closure cache.
func (s *Service) evictDependents(ctx context.Context, typ document.Type) error {
	if err := s.pages.InvalidateType(ctx, typ); err != nil {
		return fmt.Errorf("evict %s pages: %w", typ, err)
	}

	if typ == document.TypePost {
		return nil
	}

	if err := s.index.Invalidate(ctx, document.TypePost); err != nil {
		return fmt.Errorf("invalidate post index: %w", err)
	}
	if err := s.pages.InvalidateType(ctx, document.TypePost); err != nil {
		return fmt.Errorf("evict post pages: %w", err)
	}
	if typ == document.TypeCategory {
		if err := s.closures.InvalidateAll(ctx); err != nil {
			return fmt.Errorf("evict category closures: %w", err)
		}
	}
	return nil
}
