package domain

// Author is a distinct post author exposed by the facet aggregates.
type Author struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Tag is a distinct post tag exposed by the facet aggregates.
type Tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
