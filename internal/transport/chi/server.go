// Package chi exposes the search API over HTTP.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	chirouter "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/lumenworks/searchd/internal/domain"
	"github.com/lumenworks/searchd/internal/domain/document"
	"github.com/lumenworks/searchd/internal/domain/record"
	"github.com/lumenworks/searchd/internal/domain/search/filter"
	"github.com/lumenworks/searchd/internal/domain/search/query"
	"github.com/lumenworks/searchd/internal/domain/search/result"
	healthuc "github.com/lumenworks/searchd/internal/usecase/health"
)

// Error response codes.
const (
	codeBadRequest        = "bad_request"
	codeValidationFailed  = "validation_failed"
	codeNotFound          = "not_found"
	codeCategoryNotFound  = "category_not_found"
	codeAuthorNotFound    = "author_not_found"
	codeSourceUnavailable = "source_unavailable"
	codeInternalError     = "internal_error"
)

// SearchService runs the read-side query pipeline.
type SearchService interface {
	Search(ctx context.Context, q *query.Query) (result.Page, error)
	CountResults(ctx context.Context, q *query.Query) (int, error)
	GetAuthorsWithPosts(ctx context.Context) ([]domain.Author, error)
	GetTagsWithPosts(ctx context.Context) ([]domain.Tag, error)
	CountActiveFilters(f filter.Filter) int
}

// SuggestService serves typeahead completions.
type SuggestService interface {
	Suggest(ctx context.Context, text string, limit int) ([]string, error)
}

// InvalidateService is the write-side event gateway.
type InvalidateService interface {
	OnCreated(ctx context.Context, rec *record.Record) error
	OnUpdated(ctx context.Context, before, after *record.Record) error
	OnDeleted(ctx context.Context, rec *record.Record) error
	OnRestored(ctx context.Context, rec *record.Record) error
}

// HealthService aggregates component health.
type HealthService interface {
	Check(ctx context.Context) healthuc.Report
}

// DirectoryResolver validates filter references against the content store:
// category slugs map to ids, author ids must name an existing user.
type DirectoryResolver interface {
	ResolveCategorySlug(ctx context.Context, slug string) (string, error)
	AuthorExists(ctx context.Context, authorID string) (bool, error)
}

// ClickRecorder receives result-click analytics events.
type ClickRecorder interface {
	RecordClick(ctx context.Context, typ document.Type, docID string)
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server is the HTTP API server.
type Server struct {
	search        SearchService
	suggest       SuggestService
	invalidate    InvalidateService
	health        HealthService
	directory     DirectoryResolver
	clicks        ClickRecorder
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	search SearchService,
	suggest SuggestService,
	invalidate InvalidateService,
	health HealthService,
	directory DirectoryResolver,
	clicks ClickRecorder,
	logger *zap.Logger,
) *Server {
	s := &Server{
		search:     search,
		suggest:    suggest,
		invalidate: invalidate,
		health:     health,
		directory:  directory,
		clicks:     clicks,
		logger:     logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrCategoryNotFound, http.StatusNotFound, codeCategoryNotFound),
		sentinelHandler(domain.ErrAuthorNotFound, http.StatusNotFound, codeAuthorNotFound),
		sentinelHandler(domain.ErrSourceUnavailable, http.StatusServiceUnavailable, codeSourceUnavailable),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
	}
	return s
}

// Mount registers all routes on the router.
func (s *Server) Mount(r chirouter.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/api/v1/search", func(r chirouter.Router) {
		r.Get("/", s.Search)
		r.Get("/count", s.Count)
		r.Get("/suggest", s.Suggest)
		r.Get("/facets", s.Facets)
		r.Post("/click", s.Click)
	})

	r.Route("/internal/events", func(r chirouter.Router) {
		r.Post("/created", s.RecordCreated)
		r.Post("/updated", s.RecordUpdated)
		r.Post("/deleted", s.RecordDeleted)
		r.Post("/restored", s.RecordRestored)
	})
}

type searchResponse struct {
	Items         []result.ScoredResult `json:"items"`
	Total         int                   `json:"total"`
	Page          int                   `json:"page"`
	PerPage       int                   `json:"per_page"`
	LastPage      int                   `json:"last_page"`
	HasMorePages  bool                  `json:"has_more_pages"`
	ActiveFilters int                   `json:"active_filters"`
}

// Search handles GET /api/v1/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	q, err := s.parseSearchQuery(r.Context(), r)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	page, err := s.search.Search(r.Context(), q)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	if page.Items == nil {
		page.Items = []result.ScoredResult{}
	}
	writeJSON(w, http.StatusOK, searchResponse{
		Items:         page.Items,
		Total:         page.Total,
		Page:          page.Page,
		PerPage:       page.PerPage,
		LastPage:      page.LastPage,
		HasMorePages:  page.HasMorePages,
		ActiveFilters: s.search.CountActiveFilters(q.Filters()),
	})
}

// Count handles GET /api/v1/search/count.
func (s *Server) Count(w http.ResponseWriter, r *http.Request) {
	q, err := s.parseSearchQuery(r.Context(), r)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	total, err := s.search.CountResults(r.Context(), q)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"total": total})
}

// Suggest handles GET /api/v1/search/suggest.
func (s *Server) Suggest(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	limit := 0
	if raw := params.Get("limit"); raw != "" {
		n, err := parsePositiveInt(raw, "limit")
		if err != nil {
			s.handleDomainError(w, err)
			return
		}
		limit = n
	}

	suggestions, err := s.suggest.Suggest(r.Context(), params.Get("q"), limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string][]string{"suggestions": suggestions})
}

// Facets handles GET /api/v1/search/facets: the filterable authors and tags.
func (s *Server) Facets(w http.ResponseWriter, r *http.Request) {
	authors, err := s.search.GetAuthorsWithPosts(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	tags, err := s.search.GetTagsWithPosts(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	if authors == nil {
		authors = []domain.Author{}
	}
	if tags == nil {
		tags = []domain.Tag{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"authors": authors,
		"tags":    tags,
	})
}

type clickRequest struct {
	Type document.Type `json:"type"`
	ID   string        `json:"id"`
}

// Click handles POST /api/v1/search/click.
func (s *Server) Click(w http.ResponseWriter, r *http.Request) {
	var req clickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if !req.Type.IsValid() || req.ID == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "type and id are required")
		return
	}

	s.clicks.RecordClick(r.Context(), req.Type, req.ID)
	w.WriteHeader(http.StatusAccepted)
}

type eventRequest struct {
	Record *record.Record `json:"record"`
}

type updateEventRequest struct {
	Before *record.Record `json:"before"`
	After  *record.Record `json:"after"`
}

// RecordCreated handles POST /internal/events/created.
func (s *Server) RecordCreated(w http.ResponseWriter, r *http.Request) {
	s.handleRecordEvent(w, r, s.invalidate.OnCreated)
}

// RecordDeleted handles POST /internal/events/deleted.
func (s *Server) RecordDeleted(w http.ResponseWriter, r *http.Request) {
	s.handleRecordEvent(w, r, s.invalidate.OnDeleted)
}

// RecordRestored handles POST /internal/events/restored.
func (s *Server) RecordRestored(w http.ResponseWriter, r *http.Request) {
	s.handleRecordEvent(w, r, s.invalidate.OnRestored)
}

// RecordUpdated handles POST /internal/events/updated. The payload carries
// both revisions so the gateway can skip non-search-relevant changes.
func (s *Server) RecordUpdated(w http.ResponseWriter, r *http.Request) {
	var req updateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Before == nil || req.After == nil || !req.After.Type.IsValid() {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "before and after records are required")
		return
	}

	if err := s.invalidate.OnUpdated(r.Context(), req.Before, req.After); err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRecordEvent(
	w http.ResponseWriter,
	r *http.Request,
	apply func(ctx context.Context, rec *record.Record) error,
) {
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Record == nil || req.Record.ID == "" || !req.Record.Type.IsValid() {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "record with id and valid type is required")
		return
	}

	if err := apply(r.Context(), req.Record); err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"code":    code,
		"message": message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidQuery,
		domain.ErrCategoryNotFound,
		domain.ErrAuthorNotFound,
		domain.ErrSourceUnavailable,
		domain.ErrNotFound,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
