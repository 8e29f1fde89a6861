// Package analytics records search usage off the hot path. Events never
// influence ranking and their failures never fail a request.
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lumenworks/searchd/internal/domain/document"
	"github.com/lumenworks/searchd/internal/domain/search/query"
	"github.com/lumenworks/searchd/internal/logger"
)

// counterTTL keeps daily counters around long enough for export without
// letting stale days accumulate forever.
const counterTTL = 48 * time.Hour

// store is the consumer interface for analytics counters (ISP).
type store interface {
	IncrBy(ctx context.Context, key string, val int64) error
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}

// Recorder persists daily usage counters and emits structured events.
type Recorder struct {
	kv     store
	prefix string
	now    func() time.Time
}

// New creates an analytics recorder.
func New(kv store, prefix string) *Recorder {
	return &Recorder{kv: kv, prefix: prefix, now: time.Now}
}

// WithClock overrides the time source (tests).
func (r *Recorder) WithClock(now func() time.Time) *Recorder {
	r.now = now
	return r
}

// RecordSearch logs one executed query and bumps the daily search counter.
func (r *Recorder) RecordSearch(ctx context.Context, q *query.Query, total int, took time.Duration) {
	logger.FromContext(ctx).Info("search executed",
		zap.String("event_id", uuid.NewString()),
		zap.String("query", q.Text()),
		zap.Int("page", q.Page()),
		zap.Int("total", total),
		zap.Int("active_filters", q.Filters().ActiveCount()),
		zap.Duration("took", took),
	)
	r.bump(ctx, "searches")
	if total == 0 {
		r.bump(ctx, "zero_results")
	}
}

// RecordClick logs a result click for click-through reporting.
func (r *Recorder) RecordClick(ctx context.Context, typ document.Type, docID string) {
	logger.FromContext(ctx).Info("result clicked",
		zap.String("event_id", uuid.NewString()),
		zap.String("type", string(typ)),
		zap.String("document_id", docID),
	)
	r.bump(ctx, "clicks")
}

// bump increments today's counter for the metric. Best effort.
func (r *Recorder) bump(ctx context.Context, metric string) {
	key := fmt.Sprintf("%sstats:%s:%s", r.prefix, metric, r.now().UTC().Format("2006-01-02"))
	if err := r.kv.IncrBy(ctx, key, 1); err != nil {
		logger.FromContext(ctx).Warn("analytics counter failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := r.kv.Expire(ctx, key, counterTTL, true); err != nil {
		logger.FromContext(ctx).Warn("analytics expire failed", zap.String("key", key), zap.Error(err))
	}
}
