package sitemap

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/sitefetch/sitefetch/internal/sitefetch"
)

// LoaderConfig controls how sitemap documents are fetched.
type LoaderConfig struct {
	Timeout   time.Duration
	UserAgent string
	// BasicAuth is "username:password", empty to disable.
	BasicAuthUser string
	BasicAuthPass string
}

// Loader fetches sitemap documents over HTTP and parses them.
type Loader struct {
	cfg    LoaderConfig
	client *http.Client
	logger *zap.Logger
}

// NewLoader constructs a Loader. The request timeout covers connection
// and full body read.
func NewLoader(cfg LoaderConfig, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{
		cfg:    cfg,
		client: &http.Client{},
		logger: logger,
	}
}

// Load fetches the document at url and parses it into a Listing. Any
// non-2xx response, transport failure, or unparseable payload is an error;
// the caller decides whether that is fatal (root sitemap) or degrades to
// zero discovered URLs (nested sitemap).
func (l *Loader) Load(ctx context.Context, url string) (sitefetch.Listing, error) {
	ctx, cancel := context.WithTimeout(ctx, l.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return sitefetch.Listing{}, fmt.Errorf("build sitemap request: %w", err)
	}
	req.Header.Set("User-Agent", l.cfg.UserAgent)
	if l.cfg.BasicAuthUser != "" {
		req.SetBasicAuth(l.cfg.BasicAuthUser, l.cfg.BasicAuthPass)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return sitefetch.Listing{}, fmt.Errorf("fetch sitemap %s: %w", url, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return sitefetch.Listing{}, fmt.Errorf("read sitemap %s: %w", url, err)
	}
	if resp.StatusCode >= 300 {
		return sitefetch.Listing{}, fmt.Errorf("fetch sitemap %s: HTTP %d", url, resp.StatusCode)
	}

	listing, err := Parse(body)
	if err != nil {
		return sitefetch.Listing{}, fmt.Errorf("parse sitemap %s: %w", url, err)
	}
	l.logger.Debug("sitemap loaded",
		zap.String("url", url),
		zap.String("kind", string(listing.Kind)),
		zap.Int("locations", len(listing.Locs)),
	)
	return listing, nil
}
