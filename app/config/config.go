// Package config provides the configuration of a scrape run.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Configuration validation errors.
var (
	ErrNoListingURLs      = errors.New("listing.urls must contain at least one url")
	ErrInvalidListingURL  = errors.New("listing url must be an absolute http(s) url")
	ErrInvalidMaxArticles = errors.New("listing.max_articles must be at least 1")
	ErrMissingOutput      = errors.New("feed.output is required")
	ErrInvalidFeedMaxAge  = errors.New("feed.max_age must be positive")
	ErrInvalidSeenMaxAge  = errors.New("ledger.max_age must exceed feed.max_age")
	ErrInvalidLedgerType  = errors.New("ledger.type must be one of: json, bolt")
	ErrMissingLedgerPath  = errors.New("ledger.path is required")
	ErrInvalidDelay       = errors.New("fetch.delay must be non-negative")
	ErrInvalidRetries     = errors.New("fetch.retries must be at least 1")
	ErrInvalidTimeout     = errors.New("fetch.timeout must be positive")
	ErrInvalidSiteBaseURL = errors.New("site.base_url must be an absolute http(s) url")
)

// Ledger storage types.
const (
	LedgerJSON = "json"
	LedgerBolt = "bolt"
)

// Config is the complete configuration of a scrape run.
type Config struct {
	Listing ListingConfig `yaml:"listing"`
	Feed    FeedConfig    `yaml:"feed"`
	Ledger  LedgerConfig  `yaml:"ledger"`
	Fetch   FetchConfig   `yaml:"fetch"`
	Site    SiteConfig    `yaml:"site"`
}

// ListingConfig defines where to look for new articles.
type ListingConfig struct {
	URLs        []string `yaml:"urls"`
	MaxArticles int      `yaml:"max_articles"`
}

// FeedConfig defines the produced feed.
type FeedConfig struct {
	Title       string        `yaml:"title"`
	Description string        `yaml:"description"`
	Link        string        `yaml:"link"`
	SelfURL     string        `yaml:"self_url"`
	Language    string        `yaml:"language"`
	Generator   string        `yaml:"generator"`
	Output      string        `yaml:"output"`
	Placeholder string        `yaml:"placeholder"`
	MaxAge      time.Duration `yaml:"max_age"`
	UTCOffset   time.Duration `yaml:"utc_offset"`
}

// LedgerConfig defines where and how long the published articles are remembered.
type LedgerConfig struct {
	Type   string        `yaml:"type"`
	Path   string        `yaml:"path"`
	MaxAge time.Duration `yaml:"max_age"`
}

// FetchConfig defines the behavior of outbound requests.
type FetchConfig struct {
	Delay          time.Duration `yaml:"delay"`
	Retries        int           `yaml:"retries"`
	Timeout        time.Duration `yaml:"timeout"`
	UserAgent      string        `yaml:"user_agent"`
	AcceptLanguage string        `yaml:"accept_language"`
}

// SiteConfig defines the scraped site.
type SiteConfig struct {
	BaseURL   string `yaml:"base_url"`
	AssetHost string `yaml:"asset_host"`
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Default returns the configuration with default values.
func Default() Config {
	return Config{
		Listing: ListingConfig{
			URLs:        []string{"https://www.poskota.co.id/tag/paylater"},
			MaxArticles: 20,
		},
		Feed: FeedConfig{
			Title:       "Poskota.co.id - PayLater",
			Description: "RSS Feed dari poskota.co.id tag PayLater dengan konten artikel lengkap",
			Link:        "https://www.poskota.co.id",
			Language:    "id",
			Generator:   "tagfeed",
			Output:      "docs/feed.xml",
			Placeholder: "(Konten tidak dapat diambil)",
			MaxAge:      3 * time.Hour,
			UTCOffset:   7 * time.Hour,
		},
		Ledger: LedgerConfig{
			Type:   LedgerJSON,
			Path:   "seen_articles.json",
			MaxAge: 30 * 24 * time.Hour,
		},
		Fetch: FetchConfig{
			Delay:          2 * time.Second,
			Retries:        3,
			Timeout:        30 * time.Second,
			UserAgent:      defaultUserAgent,
			AcceptLanguage: "id-ID,id;q=0.9,en-US;q=0.8,en;q=0.7",
		},
		Site: SiteConfig{
			BaseURL:   "https://www.poskota.co.id",
			AssetHost: "assets.poskota.co.id",
		},
	}
}

// Load loads configuration from YAML file, values absent in the
// file keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if len(c.Listing.URLs) == 0 {
		return ErrNoListingURLs
	}

	for i, u := range c.Listing.URLs {
		if !isHTTPURL(u) {
			return fmt.Errorf("%w: listing.urls[%d] = %q", ErrInvalidListingURL, i, u)
		}
	}

	if c.Listing.MaxArticles < 1 {
		return ErrInvalidMaxArticles
	}

	if c.Feed.Output == "" {
		return ErrMissingOutput
	}

	if c.Feed.MaxAge <= 0 {
		return ErrInvalidFeedMaxAge
	}

	// the ledger has to outlive the feed window, otherwise articles
	// would be announced again after they leave the feed
	if c.Ledger.MaxAge <= c.Feed.MaxAge {
		return ErrInvalidSeenMaxAge
	}

	if c.Ledger.Type != LedgerJSON && c.Ledger.Type != LedgerBolt {
		return ErrInvalidLedgerType
	}

	if c.Ledger.Path == "" {
		return ErrMissingLedgerPath
	}

	if c.Fetch.Delay < 0 {
		return ErrInvalidDelay
	}

	if c.Fetch.Retries < 1 {
		return ErrInvalidRetries
	}

	if c.Fetch.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if !isHTTPURL(c.Site.BaseURL) {
		return ErrInvalidSiteBaseURL
	}

	return nil
}

// Location returns the time zone in which feed dates are rendered.
func (c *Config) Location() *time.Location {
	return time.FixedZone("", int(c.Feed.UTCOffset/time.Second))
}

// String returns a string representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Listings: %d, MaxArticles: %d, Output: %s, Ledger: %s:%s}",
		len(c.Listing.URLs),
		c.Listing.MaxArticles,
		c.Feed.Output,
		c.Ledger.Type,
		c.Ledger.Path,
	)
}

func isHTTPURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
