package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/sitefetch/sitefetch/internal/api"
	"github.com/sitefetch/sitefetch/internal/fetch"
	"github.com/sitefetch/sitefetch/internal/pool"
	"github.com/sitefetch/sitefetch/internal/progress"
	"github.com/sitefetch/sitefetch/internal/progress/sinks"
	"github.com/sitefetch/sitefetch/internal/report"
	"github.com/sitefetch/sitefetch/internal/sitefetch"
	"github.com/sitefetch/sitefetch/internal/sitemap"
	"github.com/sitefetch/sitefetch/internal/storage/local"
	"github.com/sitefetch/sitefetch/pkg/config"
)

// runFetch wires the components together and drives one complete run:
// load the root sitemap (fatal on failure), pump the worklist through the
// pool, then render the report.
func runFetch(ctx context.Context, cfg config.Config, out io.Writer) error {
	logger := mustLogger(cfg.Development)
	defer func() {
		_ = logger.Sync()
	}()

	user, pass := cfg.BasicAuthParts()

	var bodySink sitefetch.BodySink
	if cfg.OutputDir != "" {
		store, err := local.New(cfg.OutputDir)
		if err != nil {
			return fmt.Errorf("invalid configuration: output dir: %w", err)
		}
		bodySink = store
	}

	fetcher := fetch.NewClient(fetch.Config{
		Timeout:         cfg.RequestTimeout,
		UserAgent:       cfg.UserAgent,
		BasicAuthUser:   user,
		BasicAuthPass:   pass,
		CacheBust:       cfg.Random,
		CacheBustLength: cfg.RandomLength,
	}, bodySink, logger)

	loader := sitemap.NewLoader(sitemap.LoaderConfig{
		Timeout:       cfg.RequestTimeout,
		UserAgent:     cfg.UserAgent,
		BasicAuthUser: user,
		BasicAuthPass: pass,
	}, logger)

	store := sinks.NewStore()
	hub := progress.NewHub(0, logger,
		sinks.NewConsoleSink(out, cfg.SlowThreshold),
		sinks.NewPrometheusSink(),
		store,
	)

	if cfg.StatusAddr != "" {
		server := api.NewServer(cfg.StatusAddr, store, logger)
		server.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				logger.Warn("status server shutdown failed", zap.Error(err))
			}
		}()
	}

	// The root sitemap is the one document whose failure aborts the run.
	listing, err := loader.Load(ctx, cfg.SitemapURL)
	if err != nil {
		return err
	}

	seeds, unexpanded := seedTasks(listing, cfg.Recursive)

	p := pool.New(pool.Config{
		Concurrency: cfg.Concurrency,
		Limit:       cfg.Limit,
		Recursive:   cfg.Recursive,
	}, fetcher, loader, hub, logger)

	result := p.Run(ctx, seeds)
	hub.Close()

	result.Unexpanded = append(unexpanded, result.Unexpanded...)

	rep := report.Build(
		cfg.SitemapURL,
		cfg.Limit,
		cfg.Concurrency,
		result.Elapsed,
		result.Outcomes,
		result.Unexpanded,
	)
	report.Render(out, rep, report.RenderOptions{
		SlowThreshold: cfg.SlowThreshold,
		SlowNum:       cfg.SlowNum,
	})

	if cfg.ReportPath != "" {
		if err := report.SaveCSV(cfg.ReportPath, rep); err != nil {
			return fmt.Errorf("write csv report: %w", err)
		}
	}
	return nil
}

// seedTasks converts the root listing into the initial worklist. A urlset
// seeds page tasks; an index seeds sitemap tasks when recursion is
// enabled, and otherwise yields the children as unexpanded entries.
func seedTasks(listing sitefetch.Listing, recursive bool) (seeds []sitefetch.Task, unexpanded []string) {
	switch listing.Kind {
	case sitefetch.ListingURLSet:
		for _, loc := range listing.Locs {
			seeds = append(seeds, sitefetch.Task{URL: loc, Kind: sitefetch.TaskPage})
		}
	case sitefetch.ListingIndex:
		if !recursive {
			return nil, listing.Locs
		}
		for _, loc := range listing.Locs {
			seeds = append(seeds, sitefetch.Task{URL: loc, Kind: sitefetch.TaskSitemap})
		}
	}
	return seeds, nil
}
