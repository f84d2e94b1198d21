package model

import "errors"

var (
	// ErrInvalidURL is returned for URLs that are malformed or have no host.
	ErrInvalidURL = errors.New("invalid url")
	// ErrFetch is returned when the page behind a URL could not be retrieved.
	ErrFetch = errors.New("fetch failed")
	// ErrDuplicateURL is returned when a record with the same URL is already stored.
	ErrDuplicateURL = errors.New("link already exists")
	// ErrNotFound is returned when no record has the requested ID.
	ErrNotFound = errors.New("link not found")

	ErrEmptyTitle    = errors.New("title must not be empty")
	ErrInvalidRecord = errors.New("invalid record")
)
