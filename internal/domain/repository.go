package domain

import "context"

// IdentifierLookup defines the interface for an identifier-keyed product
// database (e.g. UPCItemDB). Implementations return ErrNoResult,
// ErrSourceDisabled or ErrSourceUnavailable instead of partial data; the
// pipeline treats every error as "this source had no opinion".
type IdentifierLookup interface {
	Lookup(ctx context.Context, identifier string) (*SourceResult, error)
}

// LinkSearcher defines the interface for a web-search API that returns
// organic result URLs for a free-text query, already trust-ranked and
// capped by the implementation.
type LinkSearcher interface {
	Search(ctx context.Context, query string) ([]string, error)
}

// PageScraper defines the interface for fetching an arbitrary product page
// and extracting title, brand, image and measurements from it.
type PageScraper interface {
	Scrape(ctx context.Context, pageURL string) (*SourceResult, error)
}

// Refiner defines the interface for the generative refinement collaborator.
// A no-op response (empty description, empty or passed-through brand) is a
// valid answer and must not be treated as a failure.
type Refiner interface {
	Refine(ctx context.Context, input RefineInput) (*RefineResult, error)
}
