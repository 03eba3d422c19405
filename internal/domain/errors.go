package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing entity in the source-of-truth store.
	ErrNotFound = errors.New("not found")
	// ErrInvalidQuery signals a search request rejected before reaching the engine.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrOrphanedComponent signals a component whose parent cannot be resolved.
	ErrOrphanedComponent = errors.New("orphaned component")
	// ErrReindexRunning signals that a reindex run is already in progress.
	ErrReindexRunning = errors.New("reindex already running")
)

// Search failure kinds. Every engine failure is reported as exactly one of these.
var (
	// ErrSearchUnavailable signals an unreachable or uninitialized engine.
	ErrSearchUnavailable = errors.New("search unavailable")
	// ErrIndexNotFound signals a missing index.
	ErrIndexNotFound = errors.New("index not found")
	// ErrMalformedQuery signals a query the engine could not parse.
	ErrMalformedQuery = errors.New("malformed query")
	// ErrSearch is the catch-all engine failure.
	ErrSearch = errors.New("search error")
)

// SearchError carries the engine's reason alongside one of the search failure kinds.
type SearchError struct {
	Kind   error
	Reason string
}

func (e *SearchError) Error() string {
	if e.Reason == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Reason)
}

func (e *SearchError) Unwrap() error { return e.Kind }

// NewSearchError creates a search error of the given kind.
func NewSearchError(kind error, reason string) error {
	return &SearchError{Kind: kind, Reason: reason}
}

// IsSearchFailure reports whether err is one of the four search failure kinds.
func IsSearchFailure(err error) bool {
	return errors.Is(err, ErrSearchUnavailable) ||
		errors.Is(err, ErrIndexNotFound) ||
		errors.Is(err, ErrMalformedQuery) ||
		errors.Is(err, ErrSearch)
}
