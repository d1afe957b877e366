// Package report aggregates fetch outcomes into the run summary.
package report

import (
	"sort"
	"time"

	"github.com/sitefetch/sitefetch/internal/sitefetch"
)

// Report is a read-only view over the ordered outcome sequence of one run.
// It is built once after all work completes and never mutated afterward.
type Report struct {
	SitemapURL  string
	Limit       int // 0 means no limit
	Concurrency int
	TotalTime   time.Duration

	// Outcomes are in completion order.
	Outcomes []sitefetch.Outcome
	// Unexpanded lists child sitemap URLs that were not followed.
	Unexpanded []string
}

// Build constructs a Report. Outcomes may be empty; the report is then
// valid with all-zero statistics.
func Build(
	sitemapURL string,
	limit, concurrency int,
	totalTime time.Duration,
	outcomes []sitefetch.Outcome,
	unexpanded []string,
) *Report {
	return &Report{
		SitemapURL:  sitemapURL,
		Limit:       limit,
		Concurrency: concurrency,
		TotalTime:   totalTime,
		Outcomes:    outcomes,
		Unexpanded:  unexpanded,
	}
}

// Histogram holds counts per status class.
type Histogram struct {
	Counts map[sitefetch.StatusClass]int
	Total  int
}

// Percent returns the share of class in percent, 0 for an empty report.
func (h Histogram) Percent(class sitefetch.StatusClass) float64 {
	if h.Total == 0 {
		return 0
	}
	return float64(h.Counts[class]) / float64(h.Total) * 100
}

// Histogram groups outcomes by status class.
func (r *Report) Histogram() Histogram {
	h := Histogram{Counts: make(map[sitefetch.StatusClass]int), Total: len(r.Outcomes)}
	for _, o := range r.Outcomes {
		h.Counts[o.Class()]++
	}
	return h
}

// Slow returns the outcomes whose elapsed time exceeds threshold, sorted
// by elapsed descending. Ties keep completion order. n caps the result;
// n < 0 returns all.
func (r *Report) Slow(threshold time.Duration, n int) []sitefetch.Outcome {
	slow := make([]sitefetch.Outcome, 0)
	for _, o := range r.Outcomes {
		if o.Elapsed > threshold {
			slow = append(slow, o)
		}
	}
	sort.SliceStable(slow, func(i, j int) bool {
		return slow[i].Elapsed > slow[j].Elapsed
	})
	if n >= 0 && len(slow) > n {
		slow = slow[:n]
	}
	return slow
}

// Failures returns every outcome outside the 2xx class, including
// network-level errors, in completion order.
func (r *Report) Failures() []sitefetch.Outcome {
	failed := make([]sitefetch.Outcome, 0)
	for _, o := range r.Outcomes {
		if o.Failed() {
			failed = append(failed, o)
		}
	}
	return failed
}
