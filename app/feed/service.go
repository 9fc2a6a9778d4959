// Package feed assembles the feed of a single run: it finds new articles
// on the listing pages, tracks them in the ledger and merges them with the
// articles published by the recent runs.
package feed

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/Semior001/tagfeed/app/rss"
	"github.com/Semior001/tagfeed/app/store"
	"golang.org/x/exp/slog"
)

const untitled = "Tanpa Judul"

//go:generate moq -out mock_source.go -fmt goimports . Source

// Source provides listings and articles of the news site.
type Source interface {
	// Listing returns article links from the listing page, in page order.
	Listing(ctx context.Context, listingURL string) ([]store.Candidate, error)
	// Article returns the article, or an error if it can't be fetched or extracted.
	Article(ctx context.Context, articleURL string) (store.Article, error)
}

// Publisher writes the assembled feed.
type Publisher interface {
	Publish(ctx context.Context, items []store.FeedItem, builtAt time.Time) error
}

// Params defines the behavior of a run.
type Params struct {
	ListingURLs []string
	MaxArticles int
	// FeedMaxAge is how long an article stays in the feed after its discovery.
	FeedMaxAge time.Duration
	// LedgerMaxAge is how long an article is remembered as published,
	// must exceed FeedMaxAge.
	LedgerMaxAge time.Duration
	// Placeholder is the body of the article which content could not be extracted.
	Placeholder string
	// Location is the time zone of publication dates.
	Location *time.Location
}

// Service runs the feed assembly.
type Service struct {
	Logger    *slog.Logger
	Source    Source
	Storage   store.Storage
	Publisher Publisher
	Params    Params
	Now       func() time.Time
}

// Report is the summary of a run.
type Report struct {
	Candidates int
	New        int
	Failed     int
	StillFresh int
	Items      int
	Tracked    int
}

// LogValue implements slog.LogValuer.
func (r Report) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("candidates", r.Candidates),
		slog.Int("new", r.New),
		slog.Int("failed", r.Failed),
		slog.Int("still_fresh", r.StillFresh),
		slog.Int("items", r.Items),
		slog.Int("tracked", r.Tracked),
	)
}

// Run performs a single run: scans the listings, extracts new articles,
// persists the ledger and publishes the feed. Failures of particular
// pages are logged and never abort the run, only ledger and feed
// writes are fatal.
func (s *Service) Run(ctx context.Context) (Report, error) {
	now := s.now()

	ledger := store.LoadLedger(ctx, s.Storage, s.Logger).Prune(now, s.Params.LedgerMaxAge)

	candidates, err := s.scan(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("scan listings: %w", err)
	}

	rep := Report{Candidates: len(candidates)}

	var fresh []store.Candidate
	for _, c := range candidates {
		if !ledger.Has(c.URL) {
			fresh = append(fresh, c)
		}
	}

	s.Logger.InfoCtx(ctx, "listings scanned",
		slog.Int("candidates", len(candidates)),
		slog.Int("new", len(fresh)),
		slog.Int("tracked", ledger.Len()))

	items := make([]store.FeedItem, 0, len(fresh))
	published := make(map[string]bool, len(fresh))

	for i, c := range fresh {
		pubDate := SyntheticPubDate(now, i, s.Params.Location)

		article, err := s.Source.Article(ctx, c.URL)
		if err != nil {
			if ctx.Err() != nil {
				return rep, fmt.Errorf("extract article %s: %w", c.URL, ctx.Err())
			}

			s.Logger.WarnCtx(ctx, "failed to extract article, using placeholder",
				slog.String("url", c.URL),
				slog.Any("err", err))

			article = s.placeholder(c)
			rep.Failed++
		}

		article.URL = c.URL
		if article.Title == "" {
			article.Title = c.Title
		}

		ledger.Record(c.URL, article.Title, now, pubDate)
		items = append(items, newItem(article, pubDate))
		published[c.URL] = true
	}

	rep.New = len(fresh)

	for _, seen := range ledger.Window(now, s.Params.FeedMaxAge) {
		if published[seen.URL] {
			continue
		}
		items = append(items, recentItem(seen))
		rep.StillFresh++
	}

	rep.Items = len(items)
	rep.Tracked = ledger.Len()

	if err := store.PersistLedger(ctx, s.Storage, ledger); err != nil {
		return rep, fmt.Errorf("persist ledger: %w", err)
	}

	if err := s.Publisher.Publish(ctx, items, now); err != nil {
		return rep, fmt.Errorf("publish feed: %w", err)
	}

	s.Logger.InfoCtx(ctx, "run finished", slog.Any("report", rep))

	return rep, nil
}

// scan collects candidates from all listings in order, deduplicated
// by URL and capped at MaxArticles in total. Unavailable listings are
// skipped.
func (s *Service) scan(ctx context.Context) ([]store.Candidate, error) {
	var res []store.Candidate
	seen := map[string]bool{}

	for _, u := range s.Params.ListingURLs {
		if len(res) >= s.Params.MaxArticles {
			break
		}

		candidates, err := s.Source.Listing(ctx, u)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.Logger.WarnCtx(ctx, "failed to scan listing", slog.String("url", u), slog.Any("err", err))
			continue
		}

		for _, c := range candidates {
			if len(res) >= s.Params.MaxArticles {
				break
			}
			if seen[c.URL] {
				continue
			}
			seen[c.URL] = true
			res = append(res, c)
		}
	}

	return res, nil
}

func (s *Service) placeholder(c store.Candidate) store.Article {
	return store.Article{
		URL:   c.URL,
		Title: c.Title,
		Body:  []store.Block{{Kind: store.Paragraph, Text: s.Params.Placeholder}},
	}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func newItem(a store.Article, pubDate string) store.FeedItem {
	title := a.Title
	if title == "" {
		title = untitled
	}

	guid, permaLink := itemGUID(a.URL, title)

	return store.FeedItem{
		Title:       title,
		Link:        a.URL,
		GUID:        guid,
		PermaLink:   permaLink,
		Description: rss.Describe(a),
		PubDate:     pubDate,
		Category:    a.Category,
		Tags:        a.Tags,
		ImageURL:    a.ImageURL,
	}
}

// recentItem makes a content-free item of the article published by
// one of the recent runs.
func recentItem(seen store.Seen) store.FeedItem {
	title := seen.Title
	if title == "" {
		title = untitled
	}

	guid, permaLink := itemGUID(seen.URL, title)

	return store.FeedItem{
		Title:     title,
		Link:      seen.URL,
		GUID:      guid,
		PermaLink: permaLink,
		PubDate:   seen.PubDate,
	}
}

// itemGUID returns the link as the item identifier, or the hash of the
// title if there is no link.
func itemGUID(link, title string) (guid string, permaLink bool) {
	if link != "" {
		return link, true
	}

	sum := md5.Sum([]byte(title))
	return hex.EncodeToString(sum[:]), false
}
