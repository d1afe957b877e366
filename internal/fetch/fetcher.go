// Package fetch implements the HTTP page fetcher.
package fetch

import (
	"context"
	"errors"
	"io"
	"math/rand"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sitefetch/sitefetch/internal/sitefetch"
)

const cacheBustAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Config controls Client behavior.
type Config struct {
	// Timeout is a hard deadline covering connection and full body read.
	Timeout   time.Duration
	UserAgent string
	// BasicAuthUser/Pass are applied to every request when user is non-empty.
	BasicAuthUser string
	BasicAuthPass string
	// CacheBust appends a random alphanumeric query parameter of
	// CacheBustLength characters to every URL to defeat caching layers.
	CacheBust       bool
	CacheBustLength int
}

// Client fetches page URLs and reduces every failure mode to an Outcome.
type Client struct {
	cfg    Config
	http   *http.Client
	sink   sitefetch.BodySink
	logger *zap.Logger

	randMu sync.Mutex
	rand   *rand.Rand
}

// NewClient constructs a Client. sink may be nil when fetched bodies are
// not persisted.
func NewClient(cfg Config, sink sitefetch.BodySink, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{},
		sink:   sink,
		logger: logger,
		rand:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Fetch performs a single GET against url. The returned Outcome always
// carries the original url, not the cache-busted variant sent on the wire.
func (c *Client) Fetch(ctx context.Context, url string) sitefetch.Outcome {
	target := url
	if c.cfg.CacheBust {
		target = appendCacheBust(url, c.randString(c.cfg.CacheBustLength))
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return sitefetch.Outcome{URL: url, Elapsed: time.Since(start), Err: err.Error()}
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	if c.cfg.BasicAuthUser != "" {
		req.SetBasicAuth(c.cfg.BasicAuthUser, c.cfg.BasicAuthPass)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return c.errorOutcome(url, time.Since(start), err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	elapsed := time.Since(start)
	if err != nil {
		return c.errorOutcome(url, elapsed, err)
	}

	if c.sink != nil {
		if err := c.sink.Put(url, body); err != nil {
			c.logger.Warn("persist body failed", zap.String("url", url), zap.Error(err))
		}
	}

	return sitefetch.Outcome{
		URL:     url,
		Status:  resp.StatusCode,
		Elapsed: elapsed,
		Bytes:   int64(len(body)),
	}
}

// errorOutcome degrades a transport failure to an Outcome with no status
// code. Timeouts get a fixed marker so the report can single them out.
func (c *Client) errorOutcome(url string, elapsed time.Duration, err error) sitefetch.Outcome {
	out := sitefetch.Outcome{URL: url, Elapsed: elapsed}
	if isTimeout(err) {
		out.Err = sitefetch.TimeoutError
	} else {
		out.Err = err.Error()
	}
	c.logger.Debug("page fetch failed", zap.String("url", url), zap.String("error", out.Err))
	return out
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func (c *Client) randString(n int) string {
	c.randMu.Lock()
	defer c.randMu.Unlock()
	var b strings.Builder
	b.Grow(n)
	for range n {
		b.WriteByte(cacheBustAlphabet[c.rand.Intn(len(cacheBustAlphabet))])
	}
	return b.String()
}

// appendCacheBust appends the random token as a bare query key, picking
// the separator based on whether the URL already has a query string.
func appendCacheBust(url, token string) string {
	sep := "?"
	if strings.Contains(url, "?") {
		sep = "&"
	}
	return url + sep + token
}
