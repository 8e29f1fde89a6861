// Package index maintains the cached document index per entity type:
// lazy rebuild on miss, whole-snapshot upsert/remove on writes.
package index

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/lumenworks/searchd/internal/domain"
	"github.com/lumenworks/searchd/internal/domain/document"
	"github.com/lumenworks/searchd/internal/logger"
	"github.com/lumenworks/searchd/internal/metrics"
)

// Service is the index store.
type Service struct {
	snapshots Snapshots
	source    Source
	now       func() time.Time
}

// New creates an index service.
func New(snapshots Snapshots, source Source) *Service {
	return &Service{snapshots: snapshots, source: source, now: time.Now}
}

// WithClock overrides the time source (tests).
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// GetIndex returns the document set for a type, rebuilding from the content
// store on a cache miss. Concurrent first-reads may rebuild the same snapshot;
// the result is idempotent, so no single-flight lock is taken.
func (s *Service) GetIndex(ctx context.Context, typ document.Type) ([]document.Document, error) {
	docs, err := s.snapshots.Get(ctx, typ)
	if err == nil {
		return docs, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("read index %s: %w", typ, err)
	}
	return s.rebuild(ctx, typ)
}

// Upsert replaces-or-inserts a document by id within the type's snapshot and
// re-persists the whole array. On a cache miss the snapshot is rebuilt first,
// so a subsequent read in the same control flow observes the fresh document.
func (s *Service) Upsert(ctx context.Context, doc document.Document) error {
	docs, err := s.GetIndex(ctx, doc.Type)
	if err != nil {
		return err
	}

	replaced := false
	for i := range docs {
		if docs[i].ID == doc.ID {
			docs[i] = doc
			replaced = true
			break
		}
	}
	if !replaced {
		docs = append(docs, doc)
	}

	if err := s.snapshots.Set(ctx, doc.Type, docs); err != nil {
		return fmt.Errorf("persist index %s: %w", doc.Type, err)
	}
	return nil
}

// Remove filters a document out of the type's snapshot and re-persists.
// A missing snapshot is left alone; the next read rebuilds it without the record.
func (s *Service) Remove(ctx context.Context, typ document.Type, id string) error {
	docs, err := s.snapshots.Get(ctx, typ)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("read index %s: %w", typ, err)
	}

	kept := docs[:0]
	for _, d := range docs {
		if d.ID != id {
			kept = append(kept, d)
		}
	}

	if err := s.snapshots.Set(ctx, typ, kept); err != nil {
		return fmt.Errorf("persist index %s: %w", typ, err)
	}
	return nil
}

// Invalidate evicts the type's snapshot so the next read rebuilds it.
func (s *Service) Invalidate(ctx context.Context, typ document.Type) error {
	if err := s.snapshots.Invalidate(ctx, typ); err != nil {
		return fmt.Errorf("invalidate index %s: %w", typ, err)
	}
	return nil
}

// rebuild maps the content store's eligible records into a fresh snapshot.
func (s *Service) rebuild(ctx context.Context, typ document.Type) ([]document.Document, error) {
	start := s.now()

	records, err := s.source.ListEligible(ctx, typ)
	if err != nil {
		return nil, fmt.Errorf("list eligible %s: %w", typ, err)
	}

	now := s.now()
	docs := make([]document.Document, 0, len(records))
	for i := range records {
		if !records[i].Eligible(now) {
			continue
		}
		docs = append(docs, records[i].Document())
	}

	if err := s.snapshots.Set(ctx, typ, docs); err != nil {
		return nil, fmt.Errorf("persist index %s: %w", typ, err)
	}

	metrics.IndexRebuildsTotal.WithLabelValues(string(typ)).Inc()
	logger.FromContext(ctx).Info("index rebuilt",
		zap.String("type", string(typ)),
		zap.Int("documents", len(docs)),
		zap.Duration("took", s.now().Sub(start)),
	)

	return docs, nil
}
