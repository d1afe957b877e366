package pool

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sitefetch/sitefetch/internal/metrics"
	"github.com/sitefetch/sitefetch/internal/progress"
	"github.com/sitefetch/sitefetch/internal/sitefetch"
)

// Config controls Pool behavior.
type Config struct {
	// Concurrency is the fixed number of workers. Each worker processes
	// one task at a time, so at most Concurrency fetches are ever in
	// flight; sitemap expansion occupies a worker slot for its duration.
	Concurrency int
	// Limit caps the number of page outcomes produced. 0 means no limit.
	Limit int
	// Recursive controls whether sitemapindex children are followed.
	// When false they are collected as unexpanded entries instead.
	Recursive bool
}

// Result is everything a completed (or cancelled) run produced.
type Result struct {
	// Outcomes are in completion order, one per dispatched page task.
	Outcomes []sitefetch.Outcome
	// Unexpanded lists child sitemap URLs that were reported rather
	// than followed because recursion is disabled.
	Unexpanded []string
	// Elapsed is the wall-clock duration of the run.
	Elapsed time.Duration
}

// Pool drives a fixed set of workers over a dynamically growing worklist.
type Pool struct {
	cfg     Config
	runID   uuid.UUID
	fetcher sitefetch.Fetcher
	loader  sitefetch.SitemapLoader
	hub     *progress.Hub
	logger  *zap.Logger
	budget  *Budget

	mu         sync.Mutex
	outcomes   []sitefetch.Outcome
	unexpanded []string
}

// New constructs a Pool. hub may be nil when no progress consumers exist.
func New(
	cfg Config,
	fetcher sitefetch.Fetcher,
	loader sitefetch.SitemapLoader,
	hub *progress.Hub,
	logger *zap.Logger,
) *Pool {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	budget := Unlimited()
	if cfg.Limit > 0 {
		budget = NewBudget(cfg.Limit)
	}
	return &Pool{
		cfg:     cfg,
		runID:   uuid.New(),
		fetcher: fetcher,
		loader:  loader,
		hub:     hub,
		logger:  logger,
		budget:  budget,
	}
}

// Run seeds the worklist and blocks until every task completes, the
// worklist drains, or ctx is cancelled. On cancellation, queued tasks are
// dropped and in-flight fetches finish within their own timeouts; the
// outcomes collected so far are still returned.
func (p *Pool) Run(ctx context.Context, seeds []sitefetch.Task) Result {
	start := time.Now()

	wl := NewWorklist()
	for _, t := range seeds {
		wl.Push(t)
	}

	watchDone := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			p.logger.Info("run cancelled, dropping queued tasks",
				zap.Int("pending", wl.Pending()))
			wl.Close()
		case <-watchDone:
		}
	}()

	var wg sync.WaitGroup
	for range p.cfg.Concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.work(ctx, wl)
		}()
	}
	wg.Wait()
	close(watchDone)

	p.mu.Lock()
	defer p.mu.Unlock()
	return Result{
		Outcomes:   p.outcomes,
		Unexpanded: p.unexpanded,
		Elapsed:    time.Since(start),
	}
}

func (p *Pool) work(ctx context.Context, wl *Worklist) {
	for {
		task, ok := wl.Pop()
		if !ok {
			return
		}
		switch task.Kind {
		case sitefetch.TaskPage:
			p.processPage(ctx, task)
		case sitefetch.TaskSitemap:
			p.expandSitemap(ctx, wl, task)
		}
		wl.Finish()
	}
}

// processPage dispatches one page fetch, charging the budget first.
// Tasks past the limit are discarded: no outcome, no fetch.
func (p *Pool) processPage(ctx context.Context, task sitefetch.Task) {
	if !p.budget.TryAcquire() {
		p.logger.Debug("page task discarded, limit exhausted", zap.String("url", task.URL))
		metrics.PageDiscarded()
		return
	}

	p.emit(progress.Event{Stage: progress.StageFetchStart, URL: task.URL})
	out := p.fetcher.Fetch(ctx, task.URL)

	p.mu.Lock()
	p.outcomes = append(p.outcomes, out)
	p.mu.Unlock()

	p.emit(progress.Event{
		Stage:  progress.StageFetchDone,
		URL:    out.URL,
		Status: out.Status,
		Class:  out.Class(),
		Bytes:  out.Bytes,
		Dur:    out.Elapsed,
		Note:   out.Err,
	})
}

// expandSitemap resolves one sitemap task into new tasks. Failures degrade
// to zero discovered URLs; siblings and the rest of the run continue.
func (p *Pool) expandSitemap(ctx context.Context, wl *Worklist, task sitefetch.Task) {
	if p.budget.Exhausted() {
		// No page outcome can ever be produced from this expansion, so
		// skip the fetch instead of discovering work that would only be
		// discarded.
		p.logger.Debug("sitemap expansion halted, limit exhausted", zap.String("url", task.URL))
		return
	}

	listing, err := p.loader.Load(ctx, task.URL)
	if err != nil {
		p.logger.Warn("sitemap task degraded to zero URLs",
			zap.String("url", task.URL), zap.Error(err))
		p.emit(progress.Event{Stage: progress.StageSitemapDone, URL: task.URL, Note: err.Error()})
		return
	}

	discovered := 0
	switch listing.Kind {
	case sitefetch.ListingIndex:
		if !p.cfg.Recursive {
			p.mu.Lock()
			p.unexpanded = append(p.unexpanded, listing.Locs...)
			p.mu.Unlock()
			for range listing.Locs {
				metrics.UnexpandedEntry()
			}
			break
		}
		for _, loc := range listing.Locs {
			if wl.Push(sitefetch.Task{URL: loc, Kind: sitefetch.TaskSitemap}) {
				discovered++
			}
		}
	case sitefetch.ListingURLSet:
		for _, loc := range listing.Locs {
			if wl.Push(sitefetch.Task{URL: loc, Kind: sitefetch.TaskPage}) {
				discovered++
			}
		}
	}

	p.emit(progress.Event{Stage: progress.StageSitemapDone, URL: task.URL, Discovered: discovered})
}

func (p *Pool) emit(evt progress.Event) {
	if p.hub == nil {
		return
	}
	evt.RunID = p.runID
	evt.TS = time.Now().UTC()
	p.hub.Emit(evt)
}
