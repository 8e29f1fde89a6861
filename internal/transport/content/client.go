// Package content is the HTTP client for the content store's internal read
// API, the system the index is built from.
package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/lumenworks/searchd/internal/domain"
	"github.com/lumenworks/searchd/internal/domain/document"
	"github.com/lumenworks/searchd/internal/domain/record"
)

const defaultTimeout = 10 * time.Second

// Client fetches records and taxonomy data from the content store.
// Transport failures and 5xx responses are wrapped with
// domain.ErrSourceUnavailable so callers can map them to 503 instead of
// serving an empty index.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// Config holds the content store connection settings.
type Config struct {
	BaseURL    string
	APIKey     string
	TimeoutSec int
}

// New creates a content store client.
func New(cfg Config) *Client {
	timeout := defaultTimeout
	if cfg.TimeoutSec > 0 {
		timeout = time.Duration(cfg.TimeoutSec) * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
	}
}

// ListEligible returns all records of a type that may belong in the index.
// Final eligibility (publish window, soft deletion) is re-checked by the caller.
func (c *Client) ListEligible(ctx context.Context, typ document.Type) ([]record.Record, error) {
	u := fmt.Sprintf("%s/internal/search/records?type=%s", c.baseURL, url.QueryEscape(string(typ)))

	var out struct {
		Records []record.Record `json:"records"`
	}
	if err := c.getJSON(ctx, u, &out); err != nil {
		return nil, err
	}
	return out.Records, nil
}

// ResolveCategoryDescendants returns the ids of every category beneath the
// given one, excluding the category itself. Unknown ids map to
// domain.ErrNotFound so the filter engine can treat them as matching nothing.
func (c *Client) ResolveCategoryDescendants(ctx context.Context, categoryID string) ([]string, error) {
	u := fmt.Sprintf("%s/internal/search/categories/%s/descendants", c.baseURL, url.PathEscape(categoryID))

	var out struct {
		IDs []string `json:"ids"`
	}
	if err := c.getJSON(ctx, u, &out); err != nil {
		return nil, err
	}
	return out.IDs, nil
}

// ResolveCategorySlug maps a category slug to its id.
func (c *Client) ResolveCategorySlug(ctx context.Context, slug string) (string, error) {
	u := fmt.Sprintf("%s/internal/search/categories/by-slug/%s", c.baseURL, url.PathEscape(slug))

	var out struct {
		ID string `json:"id"`
	}
	if err := c.getJSON(ctx, u, &out); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", domain.ErrCategoryNotFound
		}
		return "", err
	}
	return out.ID, nil
}

// AuthorExists reports whether the author id is known to the content store.
func (c *Client) AuthorExists(ctx context.Context, authorID string) (bool, error) {
	u := fmt.Sprintf("%s/internal/search/authors/%s", c.baseURL, url.PathEscape(authorID))

	var out struct {
		ID string `json:"id"`
	}
	err := c.getJSON(ctx, u, &out)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	return false, err
}

// HealthCheck verifies content store availability.
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", http.NoBody)
	if err != nil {
		return fmt.Errorf("build health request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("content store health: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("content store health: status %d", resp.StatusCode)
	}
	return nil
}

// getJSON performs an authenticated GET and decodes the response body.
func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("content store request: %v: %w", err, domain.ErrSourceUnavailable)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return domain.ErrNotFound
	default:
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("content store status %d: %w", resp.StatusCode, domain.ErrSourceUnavailable)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode content store response: %w", domain.ErrSourceUnavailable)
	}
	return nil
}
