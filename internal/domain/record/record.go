// Package record models the mutable source records the index is built from.
package record

import (
	"time"

	"github.com/lumenworks/searchd/internal/domain/document"
)

// Publication status of a post record.
const (
	StatusPublished = "published"
	StatusDraft     = "draft"
	StatusScheduled = "scheduled"
)

// Record is a source record as delivered by the content store, with its
// relations already resolved. Write-side notifications carry before/after
// snapshots of this shape.
type Record struct {
	ID           string        `json:"id"`
	Type         document.Type `json:"type"`
	Title        string        `json:"title"`
	Excerpt      string        `json:"excerpt"`
	Content      string        `json:"content,omitempty"`
	Status       string        `json:"status,omitempty"` // posts only
	PublishedAt  *time.Time    `json:"published_at,omitempty"`
	DeletedAt    *time.Time    `json:"deleted_at,omitempty"`
	ViewCount    int           `json:"view_count"`
	AuthorID     string        `json:"author_id,omitempty"`
	AuthorName   string        `json:"author_name,omitempty"`
	CategoryID   string        `json:"category_id,omitempty"`
	CategoryName string        `json:"category_name,omitempty"`
	TagIDs       []string      `json:"tag_ids,omitempty"`
	TagNames     []string      `json:"tag_names,omitempty"`
}

// Eligible reports whether the record belongs in the index at the given time.
// Posts must be published, past their publish date, and not soft-deleted.
// Tags and categories are indexed unconditionally unless soft-deleted.
func (r *Record) Eligible(now time.Time) bool {
	if r.DeletedAt != nil {
		return false
	}
	if r.Type != document.TypePost {
		return true
	}
	if r.Status != StatusPublished || r.PublishedAt == nil {
		return false
	}
	return !r.PublishedAt.After(now)
}

// Document maps the record to its index representation.
func (r *Record) Document() document.Document {
	return document.Document{
		ID:          r.ID,
		Type:        r.Type,
		Title:       r.Title,
		Excerpt:     r.Excerpt,
		Content:     r.Content,
		Author:      r.AuthorName,
		AuthorID:    r.AuthorID,
		Category:    r.CategoryName,
		CategoryID:  r.CategoryID,
		Tags:        r.TagNames,
		TagIDs:      r.TagIDs,
		PublishedAt: r.PublishedAt,
		ViewCount:   r.ViewCount,
	}
}

// SearchRelevantChanged compares the fixed allow-list of search-relevant
// fields between two revisions of a record. View-count increments and other
// non-relevant changes must not trigger index invalidation.
func SearchRelevantChanged(before, after *Record) bool {
	if before.Title != after.Title ||
		before.Excerpt != after.Excerpt ||
		before.Content != after.Content ||
		before.Status != after.Status ||
		before.AuthorID != after.AuthorID ||
		before.AuthorName != after.AuthorName ||
		before.CategoryID != after.CategoryID ||
		before.CategoryName != after.CategoryName {
		return true
	}
	if !timeEqual(before.PublishedAt, after.PublishedAt) {
		return true
	}
	if !timeEqual(before.DeletedAt, after.DeletedAt) {
		return true
	}
	return !stringsEqual(before.TagIDs, after.TagIDs) || !stringsEqual(before.TagNames, after.TagNames)
}

func timeEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func stringsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
