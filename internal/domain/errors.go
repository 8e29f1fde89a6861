package domain

import "errors"

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrCategoryNotFound signals an unknown category slug at the API boundary.
	ErrCategoryNotFound = errors.New("category not found")
	// ErrAuthorNotFound signals an unknown author id at the API boundary.
	ErrAuthorNotFound = errors.New("author not found")
	// ErrInvalidQuery signals malformed or out-of-range search parameters.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrSourceUnavailable signals that the content record store cannot be reached.
	// Distinct from an empty result set: callers must not conflate the two.
	ErrSourceUnavailable = errors.New("content source unavailable")
)
