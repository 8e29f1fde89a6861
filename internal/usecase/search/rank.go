package search

import (
	"sort"

	"github.com/lumenworks/searchd/internal/domain/search/order"
	"github.com/lumenworks/searchd/internal/domain/search/result"
)

// Relevance tiers. An exact-title match always outranks a partial title
// match, which outranks a match found only in the excerpt or body. The tier
// dominates the composite score; the raw field score orders within a tier.
const (
	tierBody       = 1
	tierTitle      = 2
	tierTitleExact = 3
	tierWeight     = 1000
)

// sortByRelevance orders by composite score descending, then newest first,
// then id for full determinism.
func sortByRelevance(items []result.ScoredResult) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		ti, tj := items[i].Document.PublishedTime(), items[j].Document.PublishedTime()
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return items[i].Document.ID < items[j].Document.ID
	})
}

// sortByOrder applies an explicit sort that bypasses relevance ranking.
func sortByOrder(items []result.ScoredResult, ord order.Order) {
	switch ord {
	case order.Latest:
		sort.SliceStable(items, func(i, j int) bool {
			ti, tj := items[i].Document.PublishedTime(), items[j].Document.PublishedTime()
			if !ti.Equal(tj) {
				return ti.After(tj)
			}
			return items[i].Document.ID < items[j].Document.ID
		})
	case order.Oldest:
		sort.SliceStable(items, func(i, j int) bool {
			ti, tj := items[i].Document.PublishedTime(), items[j].Document.PublishedTime()
			if !ti.Equal(tj) {
				return ti.Before(tj)
			}
			return items[i].Document.ID < items[j].Document.ID
		})
	case order.Popular:
		sort.SliceStable(items, func(i, j int) bool {
			if items[i].Document.ViewCount != items[j].Document.ViewCount {
				return items[i].Document.ViewCount > items[j].Document.ViewCount
			}
			ti, tj := items[i].Document.PublishedTime(), items[j].Document.PublishedTime()
			if !ti.Equal(tj) {
				return ti.After(tj)
			}
			return items[i].Document.ID < items[j].Document.ID
		})
	default:
		sortByRelevance(items)
	}
}
