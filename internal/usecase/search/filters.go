package search

import (
	"time"

	"github.com/lumenworks/searchd/internal/domain/document"
	"github.com/lumenworks/searchd/internal/domain/search/filter"
)

// applyFilter keeps the documents satisfying every constrained dimension.
// categorySet holds the filter category id plus all of its descendants;
// an empty non-nil set means the category constraint matches nothing.
// Pure: never errors, unknown ids simply match no documents.
func applyFilter(docs []document.Document, f filter.Filter, categorySet map[string]struct{}) []document.Document {
	if f.IsEmpty() {
		return docs
	}

	kept := make([]document.Document, 0, len(docs))
	for _, d := range docs {
		if !matchesFilter(d, f, categorySet) {
			continue
		}
		kept = append(kept, d)
	}
	return kept
}

func matchesFilter(d document.Document, f filter.Filter, categorySet map[string]struct{}) bool {
	if from := f.DateFrom(); from != nil {
		pub := d.PublishedTime()
		if pub.Before(*from) {
			return false
		}
	}
	if to := f.DateTo(); to != nil {
		// Inclusive of the whole end day: anything before the next midnight passes.
		end := endOfDay(*to)
		if !d.PublishedTime().Before(end) {
			return false
		}
	}
	if author := f.AuthorID(); author != "" && d.AuthorID != author {
		return false
	}
	if f.CategoryID() != "" {
		if _, ok := categorySet[d.CategoryID]; !ok {
			return false
		}
	}
	if tags := f.TagIDs(); len(tags) > 0 && !d.HasTags(tags) {
		return false
	}
	return true
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location()).AddDate(0, 0, 1)
}
