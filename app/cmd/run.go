package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Semior001/tagfeed/app/feed"
	"github.com/Semior001/tagfeed/app/rss"
	"github.com/Semior001/tagfeed/app/scraper"
	"github.com/Semior001/tagfeed/pkg/logx"
	"github.com/google/uuid"
	"golang.org/x/exp/slog"
	"golang.org/x/sync/errgroup"
)

// Run is a command to scrape the listings once and write the feed.
type Run struct {
	Options
}

// Execute runs the command.
func (r Run) Execute(_ []string) error {
	cfg, err := r.load()
	if err != nil {
		return fmt.Errorf("prepare config: %w", err)
	}

	lg := slog.Default()

	ctx, stop := context.WithCancel(logx.ContextWithRunID(context.Background(), uuid.NewString()))
	defer stop()

	lg.InfoCtx(ctx, "starting run", slog.String("config", cfg.String()))

	storage, closeStorage, err := openStorage(cfg.Ledger)
	if err != nil {
		return fmt.Errorf("make storage: %w", err)
	}

	defer func() {
		if err := closeStorage(); err != nil {
			lg.ErrorCtx(ctx, "close ledger storage", slog.Any("err", err))
		}
	}()

	extractor, err := scraper.NewExtractor(lg.With(slog.String("prefix", "extractor")), cfg.Site)
	if err != nil {
		return fmt.Errorf("make extractor: %w", err)
	}

	svc := &feed.Service{
		Logger: lg.With(slog.String("prefix", "feed")),
		Source: scraper.New(
			lg.With(slog.String("prefix", "scraper")),
			scraper.NewFetcher(lg.With(slog.String("prefix", "fetcher")), cfg.Fetch),
			extractor,
		),
		Storage: storage,
		Publisher: &rss.Writer{
			Logger: lg.With(slog.String("prefix", "rss")),
			Path:   cfg.Feed.Output,
			Channel: rss.Channel{
				Title:       cfg.Feed.Title,
				Description: cfg.Feed.Description,
				Link:        cfg.Feed.Link,
				SelfURL:     cfg.Feed.SelfURL,
				Language:    cfg.Feed.Language,
				Generator:   cfg.Feed.Generator,
			},
			Location: cfg.Location(),
		},
		Params: feed.Params{
			ListingURLs:  cfg.Listing.URLs,
			MaxArticles:  cfg.Listing.MaxArticles,
			FeedMaxAge:   cfg.Feed.MaxAge,
			LedgerMaxAge: cfg.Ledger.MaxAge,
			Placeholder:  cfg.Feed.Placeholder,
			Location:     cfg.Location(),
		},
	}

	ewg, ctx := errgroup.WithContext(ctx)
	ewg.Go(func() error {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
		defer signal.Stop(sig)

		select {
		case sig := <-sig:
			lg.WarnCtx(ctx, "caught signal, stopping", slog.String("signal", sig.String()))
			stop()
		case <-ctx.Done():
		}
		return nil
	})
	ewg.Go(func() error {
		// the run is over, release the signal listener
		defer stop()

		if _, err := svc.Run(ctx); err != nil {
			return fmt.Errorf("run: %w", err)
		}
		return nil
	})

	return ewg.Wait()
}
