// Package filter defines the structured predicate set applied to search candidates.
package filter

import (
	"fmt"
	"time"
)

// MaxTagIDs caps the number of tag ids in a single filter.
const MaxTagIDs = 16

// Filter is an optional, AND-composed predicate set. A zero field means
// "no constraint on that dimension"; dimensions never combine with OR.
type Filter struct {
	dateFrom   *time.Time
	dateTo     *time.Time
	authorID   string
	categoryID string
	tagIDs     []string
}

// New validates and creates a Filter. dateFrom/dateTo are calendar bounds;
// the engine treats dateTo as inclusive of the whole end day.
func New(dateFrom, dateTo *time.Time, authorID, categoryID string, tagIDs []string) (Filter, error) {
	if dateFrom != nil && dateTo != nil && dateFrom.After(*dateTo) {
		return Filter{}, fmt.Errorf("date_from must not be after date_to")
	}
	if len(tagIDs) > MaxTagIDs {
		return Filter{}, fmt.Errorf("too many tag ids (max %d)", MaxTagIDs)
	}
	return Filter{
		dateFrom:   dateFrom,
		dateTo:     dateTo,
		authorID:   authorID,
		categoryID: categoryID,
		tagIDs:     tagIDs,
	}, nil
}

// DateFrom returns the inclusive lower publish-date bound.
func (f Filter) DateFrom() *time.Time { return f.dateFrom }

// DateTo returns the inclusive upper publish-date bound (whole end day).
func (f Filter) DateTo() *time.Time { return f.dateTo }

// AuthorID returns the author identity constraint.
func (f Filter) AuthorID() string { return f.authorID }

// CategoryID returns the category constraint (matches the category and all descendants).
func (f Filter) CategoryID() string { return f.categoryID }

// TagIDs returns the tag constraints; every listed id must be present (AND).
func (f Filter) TagIDs() []string { return f.tagIDs }

// IsEmpty reports whether no dimension is constrained.
func (f Filter) IsEmpty() bool {
	return f.ActiveCount() == 0
}

// ActiveCount counts the constrained dimensions. A date range with both
// bounds set counts as one dimension, not two.
func (f Filter) ActiveCount() int {
	n := 0
	if f.dateFrom != nil || f.dateTo != nil {
		n++
	}
	if f.authorID != "" {
		n++
	}
	if f.categoryID != "" {
		n++
	}
	if len(f.tagIDs) > 0 {
		n++
	}
	return n
}
