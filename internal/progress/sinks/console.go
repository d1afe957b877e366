// Package sinks provides progress.Sink implementations.
package sinks

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"github.com/sitefetch/sitefetch/internal/progress"
	"github.com/sitefetch/sitefetch/internal/sitefetch"
)

// ConsoleSink prints one line per completed page fetch, mirroring the live
// output a user watches during a run.
type ConsoleSink struct {
	out           io.Writer
	slowThreshold time.Duration

	okStatus   *color.Color
	badStatus  *color.Color
	okTime     *color.Color
	slowTime   *color.Color
	timeoutTag *color.Color
}

// NewConsoleSink writes fetch completion lines to out, coloring elapsed
// times that exceed slowThreshold.
func NewConsoleSink(out io.Writer, slowThreshold time.Duration) *ConsoleSink {
	return &ConsoleSink{
		out:           out,
		slowThreshold: slowThreshold,
		okStatus:      color.New(color.FgGreen, color.Bold),
		badStatus:     color.New(color.FgRed, color.Bold),
		okTime:        color.New(color.FgGreen, color.Bold),
		slowTime:      color.New(color.FgRed, color.Bold),
		timeoutTag:    color.New(color.FgMagenta, color.Bold),
	}
}

// Record prints FETCH_DONE events and ignores everything else.
func (s *ConsoleSink) Record(evt progress.Event) {
	if evt.Stage != progress.StageFetchDone {
		return
	}

	var status string
	switch {
	case evt.Status == 0:
		status = s.badStatus.Sprint("ERR")
	case evt.Status >= 400:
		status = s.badStatus.Sprint(evt.Status)
	default:
		status = s.okStatus.Sprint(evt.Status)
	}

	var elapsed string
	switch {
	case evt.Note == sitefetch.TimeoutError:
		elapsed = s.timeoutTag.Sprint("Timeout")
	case evt.Dur > s.slowThreshold:
		elapsed = s.slowTime.Sprintf("%.3fs", evt.Dur.Seconds())
	default:
		elapsed = s.okTime.Sprintf("%.3fs", evt.Dur.Seconds())
	}

	fmt.Fprintf(s.out, "%s %s %s\n", status, evt.URL, elapsed)
}
