package report

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"github.com/sitefetch/sitefetch/internal/sitefetch"
)

// RenderOptions controls the terminal summary.
type RenderOptions struct {
	SlowThreshold time.Duration
	// SlowNum caps the slow-response list; -1 shows all.
	SlowNum int
}

// Render prints the run summary: totals, the status class histogram, the
// unexpanded sitemap entries, the failed responses, and the slowest
// responses over the threshold.
func Render(w io.Writer, r *Report, opts RenderOptions) {
	bold := color.New(color.Bold)

	limit := "No limit"
	if r.Limit > 0 {
		limit = fmt.Sprintf("%d", r.Limit)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Sitemap ........: %s\n", r.SitemapURL)
	fmt.Fprintf(w, "Limit ..........: %s\n", limit)
	fmt.Fprintf(w, "Concurrent Limit: %d\n", r.Concurrency)
	fmt.Fprintf(w, "Total Time .....: %.2fs\n", r.TotalTime.Seconds())
	fmt.Fprintf(w, "URLs fetched ...: %d\n", len(r.Outcomes))
	fmt.Fprintln(w)

	h := r.Histogram()
	for _, class := range sitefetch.Classes() {
		if h.Counts[class] == 0 {
			continue
		}
		fmt.Fprintf(w, "%-5s: %d (%.1f%%)\n", class, h.Counts[class], h.Percent(class))
	}

	if len(r.Unexpanded) > 0 {
		fmt.Fprintln(w)
		bold.Fprintln(w, "Sitemaps not followed (recursion disabled):")
		for _, u := range r.Unexpanded {
			fmt.Fprintf(w, "  %s\n", u)
		}
	}

	if failed := r.Failures(); len(failed) > 0 {
		fmt.Fprintln(w)
		bold.Fprintln(w, "Failed Responses:")
		for _, o := range failed {
			fmt.Fprintf(w, "  %s\n", outcomeLine(o, opts.SlowThreshold))
		}
	}

	if slow := r.Slow(opts.SlowThreshold, opts.SlowNum); len(slow) > 0 {
		fmt.Fprintln(w)
		if opts.SlowNum < 0 {
			bold.Fprintln(w, "Slow Responses:")
		} else {
			bold.Fprintf(w, "Top %d Slow Responses:\n", opts.SlowNum)
		}
		for _, o := range slow {
			fmt.Fprintf(w, "  %s\n", outcomeLine(o, opts.SlowThreshold))
		}
	}
}

func outcomeLine(o sitefetch.Outcome, slowThreshold time.Duration) string {
	okStatus := color.New(color.FgGreen, color.Bold)
	badStatus := color.New(color.FgRed, color.Bold)
	okTime := color.New(color.FgGreen, color.Bold)
	slowTime := color.New(color.FgRed, color.Bold)
	timeoutTag := color.New(color.FgMagenta, color.Bold)

	var status string
	switch {
	case o.Status == 0:
		status = badStatus.Sprint("ERR")
	case o.Failed():
		status = badStatus.Sprint(o.Status)
	default:
		status = okStatus.Sprint(o.Status)
	}

	var elapsed string
	switch {
	case o.Err == sitefetch.TimeoutError:
		elapsed = timeoutTag.Sprint("Timeout")
	case o.Elapsed > slowThreshold:
		elapsed = slowTime.Sprintf("%.3fs", o.Elapsed.Seconds())
	default:
		elapsed = okTime.Sprintf("%.3fs", o.Elapsed.Seconds())
	}

	line := fmt.Sprintf("%s %s %s", status, o.URL, elapsed)
	if o.Err != "" && o.Err != sitefetch.TimeoutError {
		line += " (" + o.Err + ")"
	}
	return line
}
