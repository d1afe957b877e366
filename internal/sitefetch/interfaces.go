package sitefetch

import (
	"context"
)

// Fetcher performs a single page request and reduces it to an Outcome.
// Implementations never return an error; every failure mode degrades to an
// Outcome carrying the error text.
type Fetcher interface {
	Fetch(ctx context.Context, url string) Outcome
}

// SitemapLoader fetches and parses one sitemap document.
type SitemapLoader interface {
	Load(ctx context.Context, url string) (Listing, error)
}

// BodySink persists a fetched response body keyed by its URL.
type BodySink interface {
	Put(url string, body []byte) error
}
