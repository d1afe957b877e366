// Package sitefetch defines core types shared across subsystems.
package sitefetch

import (
	"time"
)

// TimeoutError is the Outcome error text recorded when a page request
// exceeds its deadline.
const TimeoutError = "request timed out"

// TaskKind tells the scheduler how to process a dequeued task.
type TaskKind string

// Task kinds handled by the worker pool.
const (
	// TaskPage is a plain page URL; fetching it produces exactly one Outcome.
	TaskPage TaskKind = "page"
	// TaskSitemap is a sitemap document URL; fetching it produces zero or
	// more new tasks instead of an Outcome.
	TaskSitemap TaskKind = "sitemap"
)

// Task is a single unit of work consumed by the worker pool.
type Task struct {
	URL  string
	Kind TaskKind
}

// Outcome is the terminal record of one page fetch attempt. It is produced
// exactly once per page task that completes, success or failure.
type Outcome struct {
	// URL is the page URL as listed in the sitemap, without any
	// cache-bust parameter that may have been appended on the wire.
	URL string
	// Status is the HTTP status code, or 0 when the request never
	// produced a response (timeout, DNS failure, connection refused).
	Status int
	// Elapsed covers connection plus full body read.
	Elapsed time.Duration
	// Bytes is the response body size.
	Bytes int64
	// Err describes a network-level or timeout failure. Empty on any
	// response, including HTTP error statuses.
	Err string
}

// Failed reports whether the outcome belongs in the failure section of the
// report: any network error, or any response outside the 2xx class.
func (o Outcome) Failed() bool {
	return o.Err != "" || o.Status < 200 || o.Status >= 300
}

// Class returns the coarse status grouping for the outcome.
func (o Outcome) Class() StatusClass {
	if o.Err != "" {
		return ClassError
	}
	return ClassOf(o.Status)
}

// StatusClass is a coarse HTTP response grouping used by the report
// histogram and the metrics labels.
type StatusClass string

// Status classes tracked for completed fetches.
const (
	Class2xx   StatusClass = "2xx"
	Class3xx   StatusClass = "3xx"
	Class4xx   StatusClass = "4xx"
	Class5xx   StatusClass = "5xx"
	ClassError StatusClass = "error"
)

// Classes lists all status classes in report order.
func Classes() []StatusClass {
	return []StatusClass{Class2xx, Class3xx, Class4xx, Class5xx, ClassError}
}

// ClassOf groups an HTTP status code. Codes outside 200-599 (including 0,
// meaning no response) map to ClassError.
func ClassOf(status int) StatusClass {
	switch {
	case status >= 200 && status < 300:
		return Class2xx
	case status >= 300 && status < 400:
		return Class3xx
	case status >= 400 && status < 500:
		return Class4xx
	case status >= 500 && status < 600:
		return Class5xx
	default:
		return ClassError
	}
}

// ListingKind distinguishes the two sitemap document structures.
type ListingKind string

// Sitemap document kinds, detected by XML structure rather than URL shape.
const (
	// ListingURLSet is a leaf <urlset> document listing page URLs.
	ListingURLSet ListingKind = "urlset"
	// ListingIndex is a <sitemapindex> document listing other sitemaps.
	ListingIndex ListingKind = "sitemapindex"
)

// Listing is the parsed content of one sitemap document.
type Listing struct {
	Kind ListingKind
	// Locs holds page URLs for a urlset, child sitemap URLs for an index.
	Locs []string
}
