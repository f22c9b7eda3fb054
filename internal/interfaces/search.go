package interfaces

import "context"

// SearchResult is a single result from a search provider
type SearchResult struct {
	URL      string
	Title    string
	Snippet  string
	Position int // 1-based rank within the result set
}

// SearchProvider issues natural-language queries against a search engine.
// Implementations must rate-limit (at least 3s between queries) and back
// off on rate-limit signals.
type SearchProvider interface {
	Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error)
}
