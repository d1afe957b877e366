package pool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sitefetch/sitefetch/internal/sitefetch"
)

// countingFetcher tracks the number of concurrently running fetches and
// returns a 200 outcome after an optional delay.
type countingFetcher struct {
	delay       time.Duration
	inFlight    atomic.Int64
	maxInFlight atomic.Int64
	calls       atomic.Int64
}

func (f *countingFetcher) Fetch(ctx context.Context, url string) sitefetch.Outcome {
	cur := f.inFlight.Add(1)
	for {
		max := f.maxInFlight.Load()
		if cur <= max || f.maxInFlight.CompareAndSwap(max, cur) {
			break
		}
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
		}
	}
	f.inFlight.Add(-1)
	f.calls.Add(1)
	return sitefetch.Outcome{URL: url, Status: 200, Elapsed: f.delay}
}

// fakeLoader serves canned listings per URL and records its calls.
type fakeLoader struct {
	mu       sync.Mutex
	listings map[string]sitefetch.Listing
	errs     map[string]error
	calls    []string
}

func (l *fakeLoader) Load(_ context.Context, url string) (sitefetch.Listing, error) {
	l.mu.Lock()
	l.calls = append(l.calls, url)
	l.mu.Unlock()
	if err, ok := l.errs[url]; ok {
		return sitefetch.Listing{}, err
	}
	if listing, ok := l.listings[url]; ok {
		return listing, nil
	}
	return sitefetch.Listing{}, errors.New("unknown sitemap")
}

func (l *fakeLoader) callCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.calls)
}

func pageSeeds(n int) []sitefetch.Task {
	seeds := make([]sitefetch.Task, 0, n)
	for i := range n {
		seeds = append(seeds, sitefetch.Task{
			URL:  fmt.Sprintf("https://example.com/p/%d", i),
			Kind: sitefetch.TaskPage,
		})
	}
	return seeds
}

func TestPool_ConcurrencyCeiling(t *testing.T) {
	t.Parallel()

	fetcher := &countingFetcher{delay: 5 * time.Millisecond}
	p := New(Config{Concurrency: 3, Recursive: true}, fetcher, &fakeLoader{}, nil, nil)

	result := p.Run(context.Background(), pageSeeds(20))

	require.Len(t, result.Outcomes, 20)
	require.LessOrEqual(t, fetcher.maxInFlight.Load(), int64(3))
}

func TestPool_SingleWorkerStillCompletes(t *testing.T) {
	t.Parallel()

	fetcher := &countingFetcher{}
	p := New(Config{Concurrency: 1, Recursive: true}, fetcher, &fakeLoader{}, nil, nil)

	result := p.Run(context.Background(), pageSeeds(5))

	require.Len(t, result.Outcomes, 5)
	require.Equal(t, int64(1), fetcher.maxInFlight.Load())
}

func TestPool_LimitCapsOutcomes(t *testing.T) {
	t.Parallel()

	fetcher := &countingFetcher{}
	p := New(Config{Concurrency: 4, Limit: 4, Recursive: true}, fetcher, &fakeLoader{}, nil, nil)

	result := p.Run(context.Background(), pageSeeds(10))

	require.Len(t, result.Outcomes, 4)
	require.Equal(t, int64(4), fetcher.calls.Load())
}

func TestPool_RecursiveIndexExpansion(t *testing.T) {
	t.Parallel()

	loader := &fakeLoader{
		listings: map[string]sitefetch.Listing{
			"https://example.com/sitemap.xml": {
				Kind: sitefetch.ListingIndex,
				Locs: []string{
					"https://example.com/sitemap_a.xml",
					"https://example.com/sitemap_b.xml",
				},
			},
			"https://example.com/sitemap_a.xml": {
				Kind: sitefetch.ListingURLSet,
				Locs: []string{"https://example.com/a1", "https://example.com/a2"},
			},
			"https://example.com/sitemap_b.xml": {
				Kind: sitefetch.ListingURLSet,
				Locs: []string{"https://example.com/b1", "https://example.com/b2"},
			},
		},
	}
	fetcher := &countingFetcher{}
	p := New(Config{Concurrency: 2, Recursive: true}, fetcher, loader, nil, nil)

	result := p.Run(context.Background(), []sitefetch.Task{
		{URL: "https://example.com/sitemap.xml", Kind: sitefetch.TaskSitemap},
	})

	// A sitemapindex with 2 leaves of 2 URLs each yields exactly 2x2 outcomes.
	require.Len(t, result.Outcomes, 4)
	require.Equal(t, 3, loader.callCount())
	require.Empty(t, result.Unexpanded)
}

func TestPool_MalformedNestedSitemapIsIsolated(t *testing.T) {
	t.Parallel()

	loader := &fakeLoader{
		listings: map[string]sitefetch.Listing{
			"https://example.com/sitemap.xml": {
				Kind: sitefetch.ListingIndex,
				Locs: []string{
					"https://example.com/broken.xml",
					"https://example.com/good.xml",
				},
			},
			"https://example.com/good.xml": {
				Kind: sitefetch.ListingURLSet,
				Locs: []string{"https://example.com/ok"},
			},
		},
		errs: map[string]error{
			"https://example.com/broken.xml": errors.New("parse sitemap: unable to parse sitemap document"),
		},
	}
	fetcher := &countingFetcher{}
	p := New(Config{Concurrency: 2, Recursive: true}, fetcher, loader, nil, nil)

	result := p.Run(context.Background(), []sitefetch.Task{
		{URL: "https://example.com/sitemap.xml", Kind: sitefetch.TaskSitemap},
	})

	require.Len(t, result.Outcomes, 1)
	require.Equal(t, "https://example.com/ok", result.Outcomes[0].URL)
}

func TestPool_NonRecursiveIndexCollectsUnexpanded(t *testing.T) {
	t.Parallel()

	loader := &fakeLoader{
		listings: map[string]sitefetch.Listing{
			"https://example.com/sitemap.xml": {
				Kind: sitefetch.ListingIndex,
				Locs: []string{
					"https://example.com/sitemap_a.xml",
					"https://example.com/sitemap_b.xml",
				},
			},
		},
	}
	p := New(Config{Concurrency: 2, Recursive: false}, &countingFetcher{}, loader, nil, nil)

	result := p.Run(context.Background(), []sitefetch.Task{
		{URL: "https://example.com/sitemap.xml", Kind: sitefetch.TaskSitemap},
	})

	require.Empty(t, result.Outcomes)
	require.Equal(t, []string{
		"https://example.com/sitemap_a.xml",
		"https://example.com/sitemap_b.xml",
	}, result.Unexpanded)
	// Only the index itself was loaded.
	require.Equal(t, 1, loader.callCount())
}

func TestPool_EmptyExpansionFinishesGracefully(t *testing.T) {
	t.Parallel()

	loader := &fakeLoader{
		listings: map[string]sitefetch.Listing{
			"https://example.com/empty.xml": {Kind: sitefetch.ListingURLSet},
		},
	}
	p := New(Config{Concurrency: 3, Recursive: true}, &countingFetcher{}, loader, nil, nil)

	done := make(chan Result, 1)
	go func() {
		done <- p.Run(context.Background(), []sitefetch.Task{
			{URL: "https://example.com/empty.xml", Kind: sitefetch.TaskSitemap},
		})
	}()

	select {
	case result := <-done:
		require.Empty(t, result.Outcomes)
	case <-time.After(2 * time.Second):
		t.Fatal("pool did not terminate on empty expansion")
	}
}

func TestPool_NoSeedsYieldsEmptyResult(t *testing.T) {
	t.Parallel()

	p := New(Config{Concurrency: 2, Recursive: true}, &countingFetcher{}, &fakeLoader{}, nil, nil)
	result := p.Run(context.Background(), nil)
	require.Empty(t, result.Outcomes)
	require.Empty(t, result.Unexpanded)
}

func TestPool_ExhaustedLimitHaltsExpansion(t *testing.T) {
	t.Parallel()

	loader := &fakeLoader{
		listings: map[string]sitefetch.Listing{
			"https://example.com/more.xml": {
				Kind: sitefetch.ListingURLSet,
				Locs: []string{"https://example.com/extra"},
			},
		},
	}
	fetcher := &countingFetcher{}
	p := New(Config{Concurrency: 1, Limit: 1, Recursive: true}, fetcher, loader, nil, nil)

	// One worker guarantees FIFO processing: the first page consumes the
	// whole budget, the second is discarded, and the sitemap task is
	// skipped without being fetched.
	seeds := []sitefetch.Task{
		{URL: "https://example.com/p/0", Kind: sitefetch.TaskPage},
		{URL: "https://example.com/p/1", Kind: sitefetch.TaskPage},
		{URL: "https://example.com/more.xml", Kind: sitefetch.TaskSitemap},
	}
	result := p.Run(context.Background(), seeds)

	require.Len(t, result.Outcomes, 1)
	require.Equal(t, 0, loader.callCount())
}

func TestPool_CancellationDropsQueuedWork(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	fetcher := &countingFetcher{delay: 20 * time.Millisecond}
	p := New(Config{Concurrency: 2, Recursive: true}, fetcher, &fakeLoader{}, nil, nil)

	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	done := make(chan Result, 1)
	go func() {
		done <- p.Run(ctx, pageSeeds(100))
	}()

	select {
	case result := <-done:
		require.NotEmpty(t, result.Outcomes)
		require.Less(t, len(result.Outcomes), 100)
	case <-time.After(5 * time.Second):
		t.Fatal("pool did not stop after cancellation")
	}
}
