// Package progress defines the event stream emitted by the worker pool
// and the sinks that consume it.
package progress

import (
	"time"

	"github.com/google/uuid"

	"github.com/sitefetch/sitefetch/internal/sitefetch"
)

// Stage denotes the type of milestone represented by an Event.
type Stage string

// Supported progress stages.
const (
	StageFetchStart  Stage = "FETCH_START"
	StageFetchDone   Stage = "FETCH_DONE"
	StageSitemapDone Stage = "SITEMAP_DONE"
)

// Event captures a single milestone of a fetch run.
type Event struct {
	// RunID identifies the run the event belongs to.
	RunID uuid.UUID
	// TS is the UTC timestamp recorded by the emitter.
	TS time.Time
	// Stage denotes which milestone occurred.
	Stage Stage
	// URL is the page or sitemap URL the event concerns.
	URL string
	// Status is the HTTP status code of a completed fetch, 0 when the
	// request never produced a response.
	Status int
	// Class groups the status code for histogram-style consumers.
	Class sitefetch.StatusClass
	// Bytes carries the response size for completed fetches.
	Bytes int64
	// Dur captures fetch latency.
	Dur time.Duration
	// Discovered counts tasks contributed by a sitemap expansion.
	Discovered int
	// Note carries low-volume error text.
	Note string
}

// Sink consumes events. The hub calls Record from a single goroutine, so
// implementations need no locking against other Record calls.
type Sink interface {
	Record(evt Event)
}
