package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sitefetch/sitefetch/internal/sitefetch"
)

func testClient(cfg Config, sink sitefetch.BodySink) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "sitefetch-test"
	}
	return NewClient(cfg, sink, nil)
}

func TestFetch_SuccessfulGet(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "sitefetch-test", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte("hello"))
	}))
	defer srv.Close()

	out := testClient(Config{}, nil).Fetch(context.Background(), srv.URL+"/page")
	require.Equal(t, srv.URL+"/page", out.URL)
	require.Equal(t, http.StatusOK, out.Status)
	require.Equal(t, int64(5), out.Bytes)
	require.Empty(t, out.Err)
	require.False(t, out.Failed())
	require.Greater(t, out.Elapsed, time.Duration(0))
}

func TestFetch_ErrorStatusIsNotAnError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	out := testClient(Config{}, nil).Fetch(context.Background(), srv.URL+"/missing")
	require.Equal(t, http.StatusNotFound, out.Status)
	require.Empty(t, out.Err)
	require.True(t, out.Failed())
}

func TestFetch_TimeoutHasNoStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(500 * time.Millisecond)
		_, _ = w.Write([]byte("too late"))
	}))
	defer srv.Close()

	out := testClient(Config{Timeout: 50 * time.Millisecond}, nil).Fetch(context.Background(), srv.URL)
	require.Zero(t, out.Status)
	require.Equal(t, sitefetch.TimeoutError, out.Err)
	require.True(t, out.Failed())
	require.Equal(t, sitefetch.ClassError, out.Class())
}

func TestFetch_ConnectionRefused(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	out := testClient(Config{}, nil).Fetch(context.Background(), url)
	require.Zero(t, out.Status)
	require.NotEmpty(t, out.Err)
	require.NotEqual(t, sitefetch.TimeoutError, out.Err)
}

func TestFetch_CacheBustQueryShape(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var queries []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		queries = append(queries, r.URL.RawQuery)
		mu.Unlock()
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := testClient(Config{CacheBust: true, CacheBustLength: 15}, nil)

	out := c.Fetch(context.Background(), srv.URL+"/plain")
	// Reported URL stays unmodified even though the wire URL was busted.
	require.Equal(t, srv.URL+"/plain", out.URL)

	c.Fetch(context.Background(), srv.URL+"/search?q=1")

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, queries, 2)
	require.Regexp(t, regexp.MustCompile(`^[A-Za-z0-9]{15}$`), queries[0])
	require.Regexp(t, regexp.MustCompile(`^q=1&[A-Za-z0-9]{15}$`), queries[1])
}

func TestFetch_BasicAuthForwarded(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "bob" || pass != "hunter2" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := testClient(Config{BasicAuthUser: "bob", BasicAuthPass: "hunter2"}, nil)
	out := c.Fetch(context.Background(), srv.URL)
	require.Equal(t, http.StatusOK, out.Status)
}

var errDiskFull = errors.New("disk full")

type recordingSink struct {
	mu     sync.Mutex
	bodies map[string][]byte
	err    error
}

func (s *recordingSink) Put(url string, body []byte) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bodies == nil {
		s.bodies = map[string][]byte{}
	}
	s.bodies[url] = body
	return nil
}

func TestFetch_BodyForwardedToSink(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>saved</html>"))
	}))
	defer srv.Close()

	sink := &recordingSink{}
	out := testClient(Config{}, sink).Fetch(context.Background(), srv.URL+"/page")
	require.Equal(t, http.StatusOK, out.Status)
	require.Equal(t, []byte("<html>saved</html>"), sink.bodies[srv.URL+"/page"])
}

func TestFetch_SinkFailureDoesNotFailFetch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	sink := &recordingSink{err: errDiskFull}
	out := testClient(Config{}, sink).Fetch(context.Background(), srv.URL)
	require.Equal(t, http.StatusOK, out.Status)
	require.Empty(t, out.Err)
}

func TestAppendCacheBust(t *testing.T) {
	t.Parallel()

	require.Equal(t, "https://e.com/a?tok", appendCacheBust("https://e.com/a", "tok"))
	require.Equal(t, "https://e.com/a?x=1&tok", appendCacheBust("https://e.com/a?x=1", "tok"))
}
