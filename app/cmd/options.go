// Package cmd contains commands for the application.
package cmd

import (
	"fmt"
	"time"

	"github.com/Semior001/tagfeed/app/config"
	"github.com/Semior001/tagfeed/app/store"
)

// Options are the settings shared by all commands.
type Options struct {
	Config string `long:"config" env:"CONFIG" description:"path to yaml config, flags are ignored if set"`

	Listing struct {
		URLs        []string `long:"url" env:"URLS" env-delim:"," default:"https://www.poskota.co.id/tag/paylater" description:"listing pages to scan, in order"`
		MaxArticles int      `long:"max-articles" env:"MAX_ARTICLES" default:"20" description:"max articles to consider per run"`
	} `group:"listing" namespace:"listing" env-namespace:"LISTING"`

	Feed struct {
		Title       string        `long:"title" env:"TITLE" default:"Poskota.co.id - PayLater" description:"feed title"`
		Description string        `long:"description" env:"DESCRIPTION" description:"feed description"`
		Link        string        `long:"link" env:"LINK" default:"https://www.poskota.co.id" description:"link to the site"`
		SelfURL     string        `long:"self-url" env:"SELF_URL" description:"url the feed is served from"`
		Language    string        `long:"language" env:"LANGUAGE" default:"id" description:"feed language"`
		Output      string        `long:"output" env:"OUTPUT" default:"docs/feed.xml" description:"path to write the feed to"`
		MaxAge      time.Duration `long:"max-age" env:"MAX_AGE" default:"3h" description:"how long an article stays in the feed"`
		UTCOffset   time.Duration `long:"utc-offset" env:"UTC_OFFSET" default:"7h" description:"time zone offset of feed dates"`
		Placeholder string        `long:"placeholder" env:"PLACEHOLDER" description:"body of articles which content is unavailable"`
	} `group:"feed" namespace:"feed" env-namespace:"FEED"`

	Ledger struct {
		Type   string        `long:"type" env:"TYPE" choice:"json" choice:"bolt" default:"json" description:"ledger storage type"`
		Path   string        `long:"path" env:"PATH" default:"seen_articles.json" description:"path to the ledger file"`
		MaxAge time.Duration `long:"max-age" env:"MAX_AGE" default:"720h" description:"how long a published article is remembered"`
	} `group:"ledger" namespace:"ledger" env-namespace:"LEDGER"`

	Fetch struct {
		Delay     time.Duration `long:"delay" env:"DELAY" default:"2s" description:"min delay between requests"`
		Retries   int           `long:"retries" env:"RETRIES" default:"3" description:"attempts per page"`
		Timeout   time.Duration `long:"timeout" env:"TIMEOUT" default:"30s" description:"timeout of a single request"`
		UserAgent string        `long:"user-agent" env:"USER_AGENT" description:"user agent of requests"`
	} `group:"fetch" namespace:"fetch" env-namespace:"FETCH"`

	Site struct {
		BaseURL   string `long:"base-url" env:"BASE_URL" default:"https://www.poskota.co.id" description:"base url of the site"`
		AssetHost string `long:"asset-host" env:"ASSET_HOST" default:"assets.poskota.co.id" description:"host of article pictures"`
	} `group:"site" namespace:"site" env-namespace:"SITE"`
}

// load returns the configuration from the yaml file, if it's set,
// or from the flags otherwise.
func (o Options) load() (*config.Config, error) {
	if o.Config != "" {
		cfg, err := config.Load(o.Config)
		if err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
		return cfg, nil
	}

	cfg := config.Default()

	cfg.Listing.URLs = o.Listing.URLs
	cfg.Listing.MaxArticles = o.Listing.MaxArticles

	cfg.Feed.Title = o.Feed.Title
	cfg.Feed.Link = o.Feed.Link
	cfg.Feed.SelfURL = o.Feed.SelfURL
	cfg.Feed.Language = o.Feed.Language
	cfg.Feed.Output = o.Feed.Output
	cfg.Feed.MaxAge = o.Feed.MaxAge
	cfg.Feed.UTCOffset = o.Feed.UTCOffset
	setIfNotEmpty(&cfg.Feed.Description, o.Feed.Description)
	setIfNotEmpty(&cfg.Feed.Placeholder, o.Feed.Placeholder)

	cfg.Ledger.Type = o.Ledger.Type
	cfg.Ledger.Path = o.Ledger.Path
	cfg.Ledger.MaxAge = o.Ledger.MaxAge

	cfg.Fetch.Delay = o.Fetch.Delay
	cfg.Fetch.Retries = o.Fetch.Retries
	cfg.Fetch.Timeout = o.Fetch.Timeout
	setIfNotEmpty(&cfg.Fetch.UserAgent, o.Fetch.UserAgent)

	cfg.Site.BaseURL = o.Site.BaseURL
	cfg.Site.AssetHost = o.Site.AssetHost

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate flags: %w", err)
	}

	return &cfg, nil
}

// openStorage opens the ledger storage of the configured type.
// The returned function closes the storage.
func openStorage(cfg config.LedgerConfig) (store.Storage, func() error, error) {
	switch cfg.Type {
	case config.LedgerBolt:
		b, err := store.NewBolt(cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open bolt ledger: %w", err)
		}
		return b, b.Close, nil
	case config.LedgerJSON:
		return store.NewJSONFile(cfg.Path), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", config.ErrInvalidLedgerType, cfg.Type)
	}
}

func setIfNotEmpty(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
