// Package cmd defines and implements the CLI for the sitefetch executable.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/sitefetch/sitefetch/internal/logging"
	"github.com/sitefetch/sitefetch/pkg/config"
)

// Version is overridden at build time via -ldflags.
var Version = "1.2.0"

// newRootCmd creates and configures the root command. sitefetch is a
// single-purpose tool, so the root command does all the work instead of
// delegating to subcommands.
func newRootCmd() *cobra.Command {
	v := viper.New()
	config.SetDefaults(v)

	cmd := &cobra.Command{
		Use:     "sitefetch [flags] SITEMAP_URL",
		Short:   "Fetch a sitemap and request every URL in it",
		Version: Version,
		Long: `sitefetch downloads a sitemap.xml document, extracts all URLs in it
(following nested sitemap indexes recursively), and requests each URL
with a bounded number of concurrent workers. It reports status codes,
slow responses, and failures, and can export the results as CSV or
store the fetched bodies on disk.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if noRecursive, _ := cmd.Flags().GetBool("no-recursive"); noRecursive {
				v.Set("fetch.recursive", false)
			}
			cfg, err := config.Load(v, args[0])
			if err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			return runFetch(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.IntP("concurrency-limit", "c", 5, "max number of concurrent requests")
	flags.DurationP("request-timeout", "t", 30*time.Second, "timeout for fetching a URL")
	flags.IntP("limit", "l", 0, "max number of URLs to fetch from the sitemap (0 = all)")
	flags.Bool("recursive", true, "follow sitemap index documents recursively")
	flags.Bool("no-recursive", false, "do not follow sitemap index documents; list them in the report instead")
	flags.Bool("random", false, "append a random string to each URL to bypass frontend caches")
	flags.Int("random-length", 15, "length of the random cache-bust string")
	flags.String("basic-auth", "", "basic auth credentials in the form username:password")
	flags.String("user-agent", config.DefaultUserAgent, "user agent header for all requests")
	flags.Duration("slow-threshold", 5*time.Second, "responses slower than this are reported as slow")
	flags.Int("slow-num", 10, "how many slow responses to list (-1 = all)")
	flags.String("report-path", "", "store results in a CSV file at this path")
	flags.StringP("output-dir", "o", "", "store each fetched response body in this directory")
	flags.String("status-addr", "", "serve live progress and metrics on this address (e.g. :8080)")
	flags.Bool("verbose", false, "enable debug logging")

	bind := map[string]string{
		"fetch.concurrency":     "concurrency-limit",
		"fetch.request_timeout": "request-timeout",
		"fetch.limit":           "limit",
		"fetch.recursive":       "recursive",
		"fetch.random":          "random",
		"fetch.random_length":   "random-length",
		"fetch.basic_auth":      "basic-auth",
		"fetch.user_agent":      "user-agent",
		"report.slow_threshold": "slow-threshold",
		"report.slow_num":       "slow-num",
		"report.path":           "report-path",
		"output.dir":            "output-dir",
		"status.addr":           "status-addr",
		"log.development":       "verbose",
	}
	for key, flag := range bind {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(fmt.Sprintf("bind flag %s: %v", flag, err))
		}
	}

	return cmd
}

// Execute is the main entry point. An interrupt cancels the run context;
// queued URLs are dropped, in-flight ones finish, and the partial report
// is still printed.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCmd()
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "sitefetch: %v\n", err)
		os.Exit(1)
	}
}

// mustLogger builds the run logger, falling back to a no-op logger so a
// broken logging config never blocks the fetch itself.
func mustLogger(development bool) *zap.Logger {
	logger, err := logging.New(development)
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
