package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Semior001/tagfeed/app/config"
	"github.com/Semior001/tagfeed/app/store"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-runewidth"
	"golang.org/x/exp/slog"
)

// Entry statuses.
const (
	statusInFeed  = "in feed"
	statusTracked = "tracked"
	statusExpired = "expired"
)

// Ledger is a command to print the articles remembered by the ledger.
type Ledger struct {
	Options

	InFeed     bool `long:"in-feed" description:"print only the articles which are in the feed window"`
	TitleWidth int  `long:"title-width" default:"60" description:"max width of the title column"`

	out io.Writer
	now func() time.Time
}

// Execute runs the command.
func (l Ledger) Execute(_ []string) error {
	cfg, err := l.load()
	if err != nil {
		return fmt.Errorf("prepare config: %w", err)
	}

	storage, closeStorage, err := openStorage(cfg.Ledger)
	if err != nil {
		return fmt.Errorf("make storage: %w", err)
	}

	defer func() {
		if err := closeStorage(); err != nil {
			slog.Error("close ledger storage", slog.Any("err", err))
		}
	}()

	// unlike a run, corrupted ledger is reported to the operator
	entries, err := storage.Load(context.Background())
	if err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}

	l.render(cfg, store.NewLedger(entries))
	return nil
}

func (l Ledger) render(cfg *config.Config, ledger *store.Ledger) {
	out, now := l.out, time.Now()
	if out == nil {
		out = os.Stdout
	}
	if l.now != nil {
		now = l.now()
	}

	inFeed := map[string]bool{}
	for _, s := range ledger.Window(now, cfg.Feed.MaxAge) {
		inFeed[s.URL] = true
	}

	retained := ledger.Prune(now, cfg.Ledger.MaxAge)

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Title", "URL", "First seen", "Pub date", "Status"})

	shown := 0
	for _, s := range ledger.List() {
		status := statusTracked
		switch {
		case inFeed[s.URL]:
			status = statusInFeed
		case !retained.Has(s.URL):
			status = statusExpired
		}

		if l.InFeed && status != statusInFeed {
			continue
		}

		shown++
		t.AppendRow(table.Row{
			shown,
			runewidth.Truncate(s.Title, l.TitleWidth, "…"),
			s.URL,
			s.FirstSeen.In(cfg.Location()).Format(time.DateTime),
			s.PubDate,
			status,
		})
	}

	t.AppendFooter(table.Row{"", "total", shown, "", "", fmt.Sprintf("%d in feed", len(inFeed))})
	t.Render()
}
