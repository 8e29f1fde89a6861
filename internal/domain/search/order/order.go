// Package order defines the result ordering modes.
package order

// Order is the result ordering strategy.
type Order string

// Ordering constants.
const (
	// Relevance applies the tiered scoring model with publish-date tie-breaks.
	Relevance Order = "relevance"
	// Latest and Oldest bypass scoring and order purely by publish date.
	Latest Order = "latest"
	Oldest Order = "oldest"
	// Popular bypasses scoring and orders purely by view count.
	Popular Order = "popular"
)

// IsValid checks if the order is one of the supported values.
func (o Order) IsValid() bool {
	return o == Relevance || o == Latest || o == Oldest || o == Popular
}
