package domain

import "context"

// MaxSearchResults is the hard cap on results per search request.
const MaxSearchResults = 50

// SearchOptions tune a single search request.
type SearchOptions struct {
	MaxResults int
	// DomainAllowList, when non-empty, drops hits whose source domain
	// is not listed. No backfill is attempted for dropped hits.
	DomainAllowList []string
}

// SearchProvider queries an external text-search service for candidate
// source URLs. Implementations handle their own internal retries and
// surface exhaustion as ErrSearchUnavailable.
type SearchProvider interface {
	Search(ctx context.Context, query string, opts SearchOptions) ([]SearchHit, error)
}
