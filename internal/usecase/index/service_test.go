package index

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lumenworks/searchd/internal/domain"
	"github.com/lumenworks/searchd/internal/domain/document"
	"github.com/lumenworks/searchd/internal/domain/record"
)

type mockSnapshots struct {
	data    map[document.Type][]document.Document
	getErr  error
	setErr  error
	setFor  map[document.Type]int
	evicted []document.Type
}

func newMockSnapshots() *mockSnapshots {
	return &mockSnapshots{
		data:   make(map[document.Type][]document.Document),
		setFor: make(map[document.Type]int),
	}
}

func (m *mockSnapshots) Get(_ context.Context, typ document.Type) ([]document.Document, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	docs, ok := m.data[typ]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return docs, nil
}

func (m *mockSnapshots) Set(_ context.Context, typ document.Type, docs []document.Document) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.data[typ] = docs
	m.setFor[typ]++
	return nil
}

func (m *mockSnapshots) Invalidate(_ context.Context, typ document.Type) error {
	delete(m.data, typ)
	m.evicted = append(m.evicted, typ)
	return nil
}

type mockSource struct {
	records map[document.Type][]record.Record
	err     error
	calls   int
}

func (m *mockSource) ListEligible(_ context.Context, typ document.Type) ([]record.Record, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.records[typ], nil
}

func publishedPost(id, title string, at time.Time) record.Record {
	return record.Record{
		ID:          id,
		Type:        document.TypePost,
		Title:       title,
		Status:      record.StatusPublished,
		PublishedAt: &at,
	}
}

func TestGetIndex_HitSkipsSource(t *testing.T) {
	snaps := newMockSnapshots()
	snaps.data[document.TypePost] = []document.Document{{ID: "p1"}}
	src := &mockSource{}

	svc := New(snaps, src)
	docs, err := svc.GetIndex(context.Background(), document.TypePost)
	if err != nil {
		t.Fatalf("GetIndex: %v", err)
	}
	if len(docs) != 1 || docs[0].ID != "p1" {
		t.Errorf("unexpected docs: %+v", docs)
	}
	if src.calls != 0 {
		t.Errorf("cache hit must not touch the content store, got %d calls", src.calls)
	}
}

func TestGetIndex_MissRebuilds(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	src := &mockSource{records: map[document.Type][]record.Record{
		document.TypePost: {
			publishedPost("p1", "Go slices", now.Add(-time.Hour)),
			{ID: "p2", Type: document.TypePost, Title: "Draft", Status: record.StatusDraft},
		},
	}}
	snaps := newMockSnapshots()

	svc := New(snaps, src).WithClock(func() time.Time { return now })
	docs, err := svc.GetIndex(context.Background(), document.TypePost)
	if err != nil {
		t.Fatalf("GetIndex: %v", err)
	}
	if len(docs) != 1 || docs[0].ID != "p1" {
		t.Fatalf("only eligible records belong in the snapshot, got %+v", docs)
	}
	if snaps.setFor[document.TypePost] != 1 {
		t.Error("rebuild must persist the snapshot")
	}

	// Second read is served from the snapshot.
	if _, err := svc.GetIndex(context.Background(), document.TypePost); err != nil {
		t.Fatalf("GetIndex (second): %v", err)
	}
	if src.calls != 1 {
		t.Errorf("expected a single source call, got %d", src.calls)
	}
}

func TestGetIndex_SourceError(t *testing.T) {
	src := &mockSource{err: domain.ErrSourceUnavailable}
	svc := New(newMockSnapshots(), src)

	_, err := svc.GetIndex(context.Background(), document.TypePost)
	if !errors.Is(err, domain.ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
}

func TestUpsert_ReplacesByID(t *testing.T) {
	snaps := newMockSnapshots()
	snaps.data[document.TypePost] = []document.Document{
		{ID: "p1", Type: document.TypePost, Title: "Old title"},
		{ID: "p2", Type: document.TypePost, Title: "Other"},
	}

	svc := New(snaps, &mockSource{})
	err := svc.Upsert(context.Background(), document.Document{ID: "p1", Type: document.TypePost, Title: "New title"})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	docs := snaps.data[document.TypePost]
	if len(docs) != 2 {
		t.Fatalf("replace must not grow the snapshot, got %d docs", len(docs))
	}
	if docs[0].Title != "New title" {
		t.Errorf("document not replaced: %+v", docs[0])
	}
}

func TestUpsert_InsertsWhenAbsent(t *testing.T) {
	snaps := newMockSnapshots()
	snaps.data[document.TypeTag] = []document.Document{{ID: "t1", Type: document.TypeTag}}

	svc := New(snaps, &mockSource{})
	err := svc.Upsert(context.Background(), document.Document{ID: "t2", Type: document.TypeTag, Title: "go"})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if len(snaps.data[document.TypeTag]) != 2 {
		t.Errorf("expected 2 docs after insert, got %d", len(snaps.data[document.TypeTag]))
	}
}

func TestUpsert_RebuildsOnMiss(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	src := &mockSource{records: map[document.Type][]record.Record{
		document.TypePost: {publishedPost("p1", "Existing", now.Add(-time.Hour))},
	}}
	snaps := newMockSnapshots()

	svc := New(snaps, src).WithClock(func() time.Time { return now })
	err := svc.Upsert(context.Background(), document.Document{ID: "p2", Type: document.TypePost, Title: "Fresh"})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	docs := snaps.data[document.TypePost]
	if len(docs) != 2 {
		t.Fatalf("expected rebuilt snapshot plus the new doc, got %+v", docs)
	}
}

func TestRemove_FiltersOut(t *testing.T) {
	snaps := newMockSnapshots()
	snaps.data[document.TypePost] = []document.Document{{ID: "p1"}, {ID: "p2"}}

	svc := New(snaps, &mockSource{})
	if err := svc.Remove(context.Background(), document.TypePost, "p1"); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	docs := snaps.data[document.TypePost]
	if len(docs) != 1 || docs[0].ID != "p2" {
		t.Errorf("unexpected snapshot after remove: %+v", docs)
	}
}

func TestRemove_MissIsNoop(t *testing.T) {
	snaps := newMockSnapshots()
	src := &mockSource{}

	svc := New(snaps, src)
	if err := svc.Remove(context.Background(), document.TypePost, "p1"); err != nil {
		t.Fatalf("Remove on miss must be a no-op, got %v", err)
	}
	if src.calls != 0 {
		t.Error("remove must not trigger a rebuild")
	}
}

func TestInvalidate(t *testing.T) {
	snaps := newMockSnapshots()
	snaps.data[document.TypeCategory] = []document.Document{{ID: "c1"}}

	svc := New(snaps, &mockSource{})
	if err := svc.Invalidate(context.Background(), document.TypeCategory); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if len(snaps.evicted) != 1 || snaps.evicted[0] != document.TypeCategory {
		t.Errorf("unexpected evictions: %v", snaps.evicted)
	}
}
