package chi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	chirouter "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/lumenworks/searchd/internal/domain"
	"github.com/lumenworks/searchd/internal/domain/document"
	"github.com/lumenworks/searchd/internal/domain/record"
	"github.com/lumenworks/searchd/internal/domain/search/filter"
	"github.com/lumenworks/searchd/internal/domain/search/query"
	"github.com/lumenworks/searchd/internal/domain/search/result"
	healthuc "github.com/lumenworks/searchd/internal/usecase/health"
)

// --- Mocks ---

type mockSearch struct {
	page    result.Page
	total   int
	authors []domain.Author
	tags    []domain.Tag
	err     error
	lastQ   *query.Query
}

func (m *mockSearch) Search(_ context.Context, q *query.Query) (result.Page, error) {
	m.lastQ = q
	return m.page, m.err
}

func (m *mockSearch) CountResults(_ context.Context, q *query.Query) (int, error) {
	m.lastQ = q
	return m.total, m.err
}

func (m *mockSearch) GetAuthorsWithPosts(_ context.Context) ([]domain.Author, error) {
	return m.authors, m.err
}

func (m *mockSearch) GetTagsWithPosts(_ context.Context) ([]domain.Tag, error) {
	return m.tags, m.err
}

func (m *mockSearch) CountActiveFilters(f filter.Filter) int { return f.ActiveCount() }

type mockSuggest struct {
	suggestions []string
	err         error
}

func (m *mockSuggest) Suggest(_ context.Context, _ string, _ int) ([]string, error) {
	return m.suggestions, m.err
}

type mockInvalidate struct {
	created, updated, deleted, restored int
	err                                 error
}

func (m *mockInvalidate) OnCreated(_ context.Context, _ *record.Record) error {
	m.created++
	return m.err
}

func (m *mockInvalidate) OnUpdated(_ context.Context, _, _ *record.Record) error {
	m.updated++
	return m.err
}

func (m *mockInvalidate) OnDeleted(_ context.Context, _ *record.Record) error {
	m.deleted++
	return m.err
}

func (m *mockInvalidate) OnRestored(_ context.Context, _ *record.Record) error {
	m.restored++
	return m.err
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(_ context.Context) healthuc.Report { return m.report }

type mockDirectory struct {
	ids     map[string]string
	authors map[string]bool
	err     error
}

func (m *mockDirectory) ResolveCategorySlug(_ context.Context, slug string) (string, error) {
	id, ok := m.ids[slug]
	if !ok {
		return "", domain.ErrCategoryNotFound
	}
	return id, nil
}

func (m *mockDirectory) AuthorExists(_ context.Context, authorID string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	return m.authors[authorID], nil
}

type mockClicks struct {
	clicks int
}

func (m *mockClicks) RecordClick(_ context.Context, _ document.Type, _ string) { m.clicks++ }

type fixture struct {
	search     *mockSearch
	suggest    *mockSuggest
	invalidate *mockInvalidate
	health     *mockHealth
	directory  *mockDirectory
	clicks     *mockClicks
	router     chirouter.Router
}

func newFixture() *fixture {
	f := &fixture{
		search:     &mockSearch{},
		suggest:    &mockSuggest{},
		invalidate: &mockInvalidate{},
		health:     &mockHealth{report: healthuc.Report{Status: healthuc.Healthy}},
		directory:  &mockDirectory{ids: map[string]string{"cloud": "c9"}, authors: map[string]bool{"a1": true}},
		clicks:     &mockClicks{},
	}
	srv := NewServer(f.search, f.suggest, f.invalidate, f.health, f.directory, f.clicks, zap.NewNop())
	f.router = chirouter.NewRouter()
	srv.Mount(f.router)
	return f
}

func (f *fixture) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, http.NoBody)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var resp map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return resp
}

// --- Tests ---

func TestSearch_OK(t *testing.T) {
	f := newFixture()
	f.search.page = result.Page{
		Items:        []result.ScoredResult{{Document: document.Document{ID: "p1"}, Score: 3100}},
		Total:        1,
		Page:         1,
		PerPage:      10,
		LastPage:     1,
		HasMorePages: false,
	}

	rr := f.do("GET", "/api/v1/search?q=golang&type=post&author_id=a1", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want 200: %s", rr.Code, rr.Body.String())
	}

	var resp searchResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 1 || len(resp.Items) != 1 || resp.Items[0].Document.ID != "p1" {
		t.Errorf("unexpected response: %+v", resp)
	}
	if resp.ActiveFilters != 1 {
		t.Errorf("expected 1 active filter, got %d", resp.ActiveFilters)
	}
}

func TestSearch_LimitAndAuthorParams(t *testing.T) {
	f := newFixture()

	rr := f.do("GET", "/api/v1/search?q=golang&limit=5&author=a1", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want 200: %s", rr.Code, rr.Body.String())
	}
	if got := f.search.lastQ.PerPage(); got != 5 {
		t.Errorf("per-page from limit param: got %d, want 5", got)
	}
	if got := f.search.lastQ.Filters().AuthorID(); got != "a1" {
		t.Errorf("author filter: got %q, want %q", got, "a1")
	}
}

func TestSearch_UnknownAuthor_404(t *testing.T) {
	f := newFixture()

	rr := f.do("GET", "/api/v1/search?q=golang&author=ghost", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("got %d, want 404", rr.Code)
	}
	if decodeError(t, rr)["code"] != codeAuthorNotFound {
		t.Errorf("wrong error code: %s", rr.Body.String())
	}
}

func TestSearch_PluralTypeAliases(t *testing.T) {
	f := newFixture()

	rr := f.do("GET", "/api/v1/search?q=golang&type=posts,tags,categories", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want 200: %s", rr.Code, rr.Body.String())
	}

	want := []document.Type{document.TypePost, document.TypeTag, document.TypeCategory}
	got := f.search.lastQ.Types()
	if len(got) != len(want) {
		t.Fatalf("types: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("type %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestSearch_ForbiddenCharacters(t *testing.T) {
	f := newFixture()

	rr := f.do("GET", "/api/v1/search?q=%3Cscript%3E", "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400", rr.Code)
	}
	if decodeError(t, rr)["code"] != codeValidationFailed {
		t.Errorf("wrong error code: %s", rr.Body.String())
	}
}

func TestSearch_InvalidType(t *testing.T) {
	f := newFixture()

	rr := f.do("GET", "/api/v1/search?q=go&type=podcast", "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400", rr.Code)
	}
}

func TestSearch_InvalidDate(t *testing.T) {
	f := newFixture()

	rr := f.do("GET", "/api/v1/search?q=go&date_from=01-02-2024", "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400", rr.Code)
	}
}

func TestSearch_DateRangeInverted(t *testing.T) {
	f := newFixture()

	rr := f.do("GET", "/api/v1/search?q=go&date_from=2024-05-01&date_to=2024-01-01", "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400", rr.Code)
	}
}

func TestSearch_CategorySlugResolved(t *testing.T) {
	f := newFixture()

	rr := f.do("GET", "/api/v1/search?q=go&category=cloud", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want 200: %s", rr.Code, rr.Body.String())
	}
	if f.search.lastQ.Filters().CategoryID() != "c9" {
		t.Errorf("slug not resolved, got %q", f.search.lastQ.Filters().CategoryID())
	}
}

func TestSearch_UnknownCategorySlug(t *testing.T) {
	f := newFixture()

	rr := f.do("GET", "/api/v1/search?q=go&category=ghost", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("got %d, want 404", rr.Code)
	}
	if decodeError(t, rr)["code"] != codeCategoryNotFound {
		t.Errorf("wrong error code: %s", rr.Body.String())
	}
}

func TestSearch_SourceUnavailable(t *testing.T) {
	f := newFixture()
	f.search.err = domain.ErrSourceUnavailable

	rr := f.do("GET", "/api/v1/search?q=go", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("got %d, want 503", rr.Code)
	}
	if decodeError(t, rr)["code"] != codeSourceUnavailable {
		t.Errorf("wrong error code: %s", rr.Body.String())
	}
}

func TestCount_OK(t *testing.T) {
	f := newFixture()
	f.search.total = 7

	rr := f.do("GET", "/api/v1/search/count?q=go", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want 200", rr.Code)
	}

	var resp map[string]int
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["total"] != 7 {
		t.Errorf("expected total 7, got %d", resp["total"])
	}
}

func TestSuggest_OK(t *testing.T) {
	f := newFixture()
	f.suggest.suggestions = []string{"golang", "golang tips"}

	rr := f.do("GET", "/api/v1/search/suggest?q=gol&limit=5", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want 200", rr.Code)
	}

	var resp map[string][]string
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp["suggestions"]) != 2 {
		t.Errorf("unexpected suggestions: %v", resp)
	}
}

func TestFacets_OK(t *testing.T) {
	f := newFixture()
	f.search.authors = []domain.Author{{ID: "a1", Name: "Alex"}}
	f.search.tags = []domain.Tag{{ID: "t1", Name: "go"}}

	rr := f.do("GET", "/api/v1/search/facets", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want 200", rr.Code)
	}

	var resp struct {
		Authors []domain.Author `json:"authors"`
		Tags    []domain.Tag    `json:"tags"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Authors) != 1 || len(resp.Tags) != 1 {
		t.Errorf("unexpected facets: %+v", resp)
	}
}

func TestClick(t *testing.T) {
	f := newFixture()

	rr := f.do("POST", "/api/v1/search/click", `{"type":"post","id":"p1"}`)
	if rr.Code != http.StatusAccepted {
		t.Fatalf("got %d, want 202", rr.Code)
	}
	if f.clicks.clicks != 1 {
		t.Errorf("click not recorded")
	}

	rr = f.do("POST", "/api/v1/search/click", `{"type":"podcast","id":"p1"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("invalid type: got %d, want 400", rr.Code)
	}
}

func TestEventCreated(t *testing.T) {
	f := newFixture()

	body := `{"record":{"id":"p1","type":"post","title":"T","status":"published"}}`
	rr := f.do("POST", "/internal/events/created", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want 200: %s", rr.Code, rr.Body.String())
	}
	if f.invalidate.created != 1 {
		t.Errorf("event not forwarded")
	}
}

func TestEventCreated_MissingRecord(t *testing.T) {
	f := newFixture()

	rr := f.do("POST", "/internal/events/created", `{}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400", rr.Code)
	}
	if f.invalidate.created != 0 {
		t.Errorf("invalid event must not be forwarded")
	}
}

func TestEventUpdated(t *testing.T) {
	f := newFixture()

	body := `{
		"before":{"id":"p1","type":"post","title":"Old"},
		"after":{"id":"p1","type":"post","title":"New"}
	}`
	rr := f.do("POST", "/internal/events/updated", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want 200: %s", rr.Code, rr.Body.String())
	}
	if f.invalidate.updated != 1 {
		t.Errorf("event not forwarded")
	}
}

func TestEventUpdated_MissingRevision(t *testing.T) {
	f := newFixture()

	rr := f.do("POST", "/internal/events/updated", `{"after":{"id":"p1","type":"post"}}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400", rr.Code)
	}
}

func TestEventDeletedAndRestored(t *testing.T) {
	f := newFixture()

	body := `{"record":{"id":"t1","type":"tag","title":"go"}}`
	if rr := f.do("POST", "/internal/events/deleted", body); rr.Code != http.StatusOK {
		t.Fatalf("deleted: got %d, want 200", rr.Code)
	}
	if rr := f.do("POST", "/internal/events/restored", body); rr.Code != http.StatusOK {
		t.Fatalf("restored: got %d, want 200", rr.Code)
	}
	if f.invalidate.deleted != 1 || f.invalidate.restored != 1 {
		t.Errorf("events not forwarded: %+v", f.invalidate)
	}
}

func TestHealth(t *testing.T) {
	f := newFixture()
	f.health.report = healthuc.Report{
		Status: healthuc.Healthy,
		Checks: map[string]healthuc.CheckResult{"database": healthuc.CheckOK},
	}

	rr := f.do("GET", "/health", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want 200", rr.Code)
	}

	f.health.report.Status = healthuc.Degraded
	rr = f.do("GET", "/health", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("degraded: got %d, want 503", rr.Code)
	}
}
