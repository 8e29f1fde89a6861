// Package document defines the denormalized searchable entity stored in the index.
package document

import "time"

// Type is the searchable entity type.
type Type string

// Indexed entity types.
const (
	TypePost     Type = "post"
	TypeTag      Type = "tag"
	TypeCategory Type = "category"
)

// IsValid checks if the type is one of the indexed entity types.
func (t Type) IsValid() bool {
	return t == TypePost || t == TypeTag || t == TypeCategory
}

// All returns every indexed entity type.
func All() []Type {
	return []Type{TypePost, TypeTag, TypeCategory}
}

// Document is the normalized snapshot of a searchable entity with its
// relations denormalized (author name, category name, tag names). Documents
// are serialized as-is into the type-scoped index snapshot in the cache store.
type Document struct {
	ID          string     `json:"id"`
	Type        Type       `json:"type"`
	Title       string     `json:"title"`
	Excerpt     string     `json:"excerpt"`
	Content     string     `json:"content,omitempty"` // posts only
	Author      string     `json:"author,omitempty"`
	AuthorID    string     `json:"author_id,omitempty"`
	Category    string     `json:"category,omitempty"`
	CategoryID  string     `json:"category_id,omitempty"`
	Tags        []string   `json:"tags,omitempty"`     // display names
	TagIDs      []string   `json:"tag_ids,omitempty"`  // identity, for filter matching
	PublishedAt *time.Time `json:"published_at,omitempty"`
	ViewCount   int        `json:"view_count"`
}

// HasTags reports whether the document carries every id in want (AND semantics).
func (d *Document) HasTags(want []string) bool {
	if len(want) == 0 {
		return true
	}
	have := make(map[string]struct{}, len(d.TagIDs))
	for _, id := range d.TagIDs {
		have[id] = struct{}{}
	}
	for _, id := range want {
		if _, ok := have[id]; !ok {
			return false
		}
	}
	return true
}

// PublishedTime returns the publish timestamp, or the zero time when unset.
// Keeps ordering deterministic for documents without a publish date.
func (d *Document) PublishedTime() time.Time {
	if d.PublishedAt == nil {
		return time.Time{}
	}
	return *d.PublishedAt
}
