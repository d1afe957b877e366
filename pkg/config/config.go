// Package config is responsible for the application's configuration.
// It uses the Viper library to read settings from a config file,
// environment variables, and command-line flags, providing a unified
// configuration system.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultUserAgent identifies the tool on the wire when no override is set.
const DefaultUserAgent = "sitefetch/1.2 (+https://github.com/sitefetch/sitefetch)"

// Config captures every knob that influences a fetch run. All values
// originate from Viper so the tool can be configured via a file, env
// vars, or CLI flags.
type Config struct {
	SitemapURL string

	Concurrency    int
	RequestTimeout time.Duration
	// Limit caps the number of page URLs fetched; 0 fetches all.
	Limit     int
	Recursive bool

	Random       bool
	RandomLength int
	BasicAuth    string
	UserAgent    string

	SlowThreshold time.Duration
	// SlowNum caps the slow-response list; -1 shows all.
	SlowNum    int
	ReportPath string
	OutputDir  string

	StatusAddr  string
	Development bool
}

// SetDefaults installs the default values and environment bindings on v.
// Environment variables use the SITEFETCH_ prefix, e.g.
// SITEFETCH_FETCH_CONCURRENCY=10.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("fetch.concurrency", 5)
	v.SetDefault("fetch.request_timeout", 30*time.Second)
	v.SetDefault("fetch.limit", 0)
	v.SetDefault("fetch.recursive", true)
	v.SetDefault("fetch.random", false)
	v.SetDefault("fetch.random_length", 15)
	v.SetDefault("fetch.basic_auth", "")
	v.SetDefault("fetch.user_agent", DefaultUserAgent)

	v.SetDefault("report.slow_threshold", 5*time.Second)
	v.SetDefault("report.slow_num", 10)
	v.SetDefault("report.path", "")
	v.SetDefault("output.dir", "")

	v.SetDefault("status.addr", "")
	v.SetDefault("log.development", false)

	v.SetEnvPrefix("SITEFETCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load constructs a Config from v and the positional sitemap URL, and
// validates it.
func Load(v *viper.Viper, sitemapURL string) (Config, error) {
	cfg := Config{
		SitemapURL:     sitemapURL,
		Concurrency:    v.GetInt("fetch.concurrency"),
		RequestTimeout: v.GetDuration("fetch.request_timeout"),
		Limit:          v.GetInt("fetch.limit"),
		Recursive:      v.GetBool("fetch.recursive"),
		Random:         v.GetBool("fetch.random"),
		RandomLength:   v.GetInt("fetch.random_length"),
		BasicAuth:      v.GetString("fetch.basic_auth"),
		UserAgent:      v.GetString("fetch.user_agent"),
		SlowThreshold:  v.GetDuration("report.slow_threshold"),
		SlowNum:        v.GetInt("report.slow_num"),
		ReportPath:     v.GetString("report.path"),
		OutputDir:      v.GetString("output.dir"),
		StatusAddr:     v.GetString("status.addr"),
		Development:    v.GetBool("log.development"),
	}
	return cfg, cfg.Validate()
}

// Validate checks for invalid configuration. Any error here is fatal and
// aborts before the first fetch.
func (c Config) Validate() error {
	u, err := url.Parse(c.SitemapURL)
	if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("sitemap URL must be an absolute http(s) URL, got %q", c.SitemapURL)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("fetch.concurrency must be >= 1")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("fetch.request_timeout must be > 0")
	}
	if c.Limit < 0 {
		return fmt.Errorf("fetch.limit must be >= 0")
	}
	if c.Random && (c.RandomLength < 1 || c.RandomLength > 100) {
		return fmt.Errorf("fetch.random_length must be between 1 and 100")
	}
	if c.BasicAuth != "" && !strings.Contains(c.BasicAuth, ":") {
		return fmt.Errorf("fetch.basic_auth must use the form username:password")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("fetch.user_agent must be set")
	}
	if c.SlowNum < -1 {
		return fmt.Errorf("report.slow_num must be -1 (all) or >= 0")
	}
	return nil
}

// BasicAuthParts splits the configured credentials. Both parts are empty
// when basic auth is disabled.
func (c Config) BasicAuthParts() (user, pass string) {
	if c.BasicAuth == "" {
		return "", ""
	}
	parts := strings.SplitN(c.BasicAuth, ":", 2)
	return parts[0], parts[1]
}
