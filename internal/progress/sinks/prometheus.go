package sinks

import (
	"github.com/sitefetch/sitefetch/internal/metrics"
	"github.com/sitefetch/sitefetch/internal/progress"
)

// PrometheusSink forwards progress events to the metrics collectors.
type PrometheusSink struct{}

// NewPrometheusSink initializes the collectors and returns the sink.
func NewPrometheusSink() *PrometheusSink {
	metrics.Init()
	return &PrometheusSink{}
}

// Record translates one event into collector updates.
func (s *PrometheusSink) Record(evt progress.Event) {
	switch evt.Stage {
	case progress.StageFetchStart:
		metrics.FetchStarted()
	case progress.StageFetchDone:
		metrics.ObserveFetch(string(evt.Class), evt.Dur.Seconds(), evt.Bytes)
	case progress.StageSitemapDone:
		result := "ok"
		if evt.Note != "" {
			result = "error"
		}
		metrics.ObserveSitemap(result)
	}
}
