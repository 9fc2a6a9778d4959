// Package scraper fetches pages of the news site and extracts
// articles from them.
package scraper

import (
	"context"
	"errors"
	"fmt"

	"github.com/Semior001/tagfeed/app/store"
	"golang.org/x/exp/slog"
)

// ErrNoContent is returned when the article page was fetched, but neither
// the title nor the text of the article could be found on it.
var ErrNoContent = errors.New("no article content")

//go:generate moq -out mock_fetcher.go -fmt goimports . PageFetcher

// PageFetcher downloads pages.
type PageFetcher interface {
	Fetch(ctx context.Context, u string) ([]byte, error)
}

// Scraper fetches listing and article pages and extracts their content.
type Scraper struct {
	log       *slog.Logger
	fetcher   PageFetcher
	extractor *Extractor
}

// New makes a new Scraper.
func New(lg *slog.Logger, f PageFetcher, e *Extractor) *Scraper {
	return &Scraper{log: lg, fetcher: f, extractor: e}
}

// Listing returns the article links found on the listing page, in page order.
func (s *Scraper) Listing(ctx context.Context, listingURL string) ([]store.Candidate, error) {
	body, err := s.fetcher.Fetch(ctx, listingURL)
	if err != nil {
		return nil, fmt.Errorf("fetch listing: %w", err)
	}

	candidates, err := s.extractor.Listing(body)
	if err != nil {
		return nil, fmt.Errorf("extract listing %s: %w", listingURL, err)
	}

	s.log.InfoCtx(ctx, "listing scanned",
		slog.String("url", listingURL),
		slog.Int("candidates", len(candidates)))

	return candidates, nil
}

// Article fetches the article with all its continuation pages.
// Continuation pages that fail to load are skipped.
func (s *Scraper) Article(ctx context.Context, articleURL string) (store.Article, error) {
	body, err := s.fetcher.Fetch(ctx, articleURL)
	if err != nil {
		return store.Article{}, fmt.Errorf("fetch article: %w", err)
	}

	article, pages, err := s.extractor.Article(ctx, body, articleURL)
	if err != nil {
		return store.Article{}, fmt.Errorf("extract article %s: %w", articleURL, err)
	}

	for _, page := range pages {
		blocks, err := s.continuation(ctx, page)
		if err != nil {
			if ctx.Err() != nil {
				return store.Article{}, fmt.Errorf("fetch continuation: %w", ctx.Err())
			}
			s.log.WarnCtx(ctx, "skipping continuation page",
				slog.String("url", page),
				slog.Any("err", err))
			continue
		}

		article.Body = append(article.Body, blocks...)
	}

	if article.Empty() {
		return store.Article{}, fmt.Errorf("%w: %s", ErrNoContent, articleURL)
	}

	return article, nil
}

func (s *Scraper) continuation(ctx context.Context, page string) ([]store.Block, error) {
	body, err := s.fetcher.Fetch(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}

	blocks, err := s.extractor.Continuation(body)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}

	return blocks, nil
}
