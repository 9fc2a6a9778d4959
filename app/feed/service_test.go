package feed

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Semior001/tagfeed/app/scraper"
	"github.com/Semior001/tagfeed/app/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

const (
	listingURL  = "https://www.poskota.co.id/tag/paylater"
	placeholder = "(Konten tidak dapat diambil)"

	urlA = "https://www.poskota.co.id/2024/03/10/artikel-a"
	urlB = "https://www.poskota.co.id/2024/03/10/artikel-b"
	urlC = "https://www.poskota.co.id/2024/03/10/artikel-c"
	urlD = "https://www.poskota.co.id/2024/03/10/artikel-d"
)

var (
	now = time.Date(2024, time.March, 10, 12, 0, 30, 0, time.UTC)
	wib = time.FixedZone("", 7*60*60)
)

type memStorage struct {
	entries map[string]store.Entry
	loadErr error
	saveErr error
	saved   map[string]store.Entry
	saves   int
}

func (m *memStorage) Load(context.Context) (map[string]store.Entry, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.entries, nil
}

func (m *memStorage) Save(_ context.Context, entries map[string]store.Entry) error {
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = entries
	return nil
}

type publisherStub struct {
	err     error
	items   []store.FeedItem
	builtAt time.Time
	calls   int
}

func (p *publisherStub) Publish(_ context.Context, items []store.FeedItem, builtAt time.Time) error {
	p.calls++
	p.items = items
	p.builtAt = builtAt
	return p.err
}

func newTestService(src Source, st store.Storage, pub Publisher) *Service {
	return &Service{
		Logger:    slog.Default(),
		Source:    src,
		Storage:   st,
		Publisher: pub,
		Params: Params{
			ListingURLs:  []string{listingURL},
			MaxArticles:  20,
			FeedMaxAge:   3 * time.Hour,
			LedgerMaxAge: 30 * 24 * time.Hour,
			Placeholder:  placeholder,
			Location:     wib,
		},
		Now: func() time.Time { return now },
	}
}

func listing(candidates ...store.Candidate) func(context.Context, string) ([]store.Candidate, error) {
	return func(context.Context, string) ([]store.Candidate, error) { return candidates, nil }
}

func articles(arts map[string]store.Article) func(context.Context, string) (store.Article, error) {
	return func(_ context.Context, u string) (store.Article, error) {
		a, ok := arts[u]
		if !ok {
			return store.Article{}, fmt.Errorf("%w: %s", scraper.ErrNoContent, u)
		}
		return a, nil
	}
}

func guids(items []store.FeedItem) []string {
	res := make([]string, 0, len(items))
	for _, it := range items {
		res = append(res, it.GUID)
	}
	return res
}

func TestService_Run_Degradation(t *testing.T) {
	entryB := store.Entry{
		Title:     "Artikel B",
		FirstSeen: now.Add(-time.Hour),
		PubDate:   "Sun, 10 Mar 2024 18:00:00 +0700",
	}

	st := &memStorage{entries: map[string]store.Entry{urlB: entryB}}
	pub := &publisherStub{}
	src := &SourceMock{
		ListingFunc: listing(
			store.Candidate{URL: urlA, Title: "Judul A dari listing"},
			store.Candidate{URL: urlB, Title: "Judul B dari listing"},
			store.Candidate{URL: urlC, Title: "Judul C dari listing"},
		),
		ArticleFunc: articles(map[string]store.Article{
			urlA: {
				Title:    "Artikel A lengkap",
				Body:     []store.Block{{Kind: store.Paragraph, Text: "Isi artikel A"}},
				Category: "Ekonomi",
				Tags:     []string{"PayLater"},
				ImageURL: "https://assets.poskota.co.id/crop/original/a.jpg",
			},
		}),
	}

	rep, err := newTestService(src, st, pub).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Report{Candidates: 3, New: 2, Failed: 1, StillFresh: 1, Items: 3, Tracked: 3}, rep)

	// B is known and is not extracted again
	require.Len(t, src.ArticleCalls(), 2)
	assert.Equal(t, urlA, src.ArticleCalls()[0].ArticleURL)
	assert.Equal(t, urlC, src.ArticleCalls()[1].ArticleURL)

	require.Len(t, pub.items, 3)
	assert.Equal(t, []string{urlA, urlC, urlB}, guids(pub.items))
	assert.Equal(t, now, pub.builtAt)

	a := pub.items[0]
	assert.Equal(t, "Artikel A lengkap", a.Title)
	assert.Equal(t, urlA, a.Link)
	assert.True(t, a.PermaLink)
	assert.Equal(t, "Sun, 10 Mar 2024 19:00:30 +0700", a.PubDate)
	assert.Equal(t, "Ekonomi", a.Category)
	assert.Equal(t, []string{"PayLater"}, a.Tags)
	assert.Equal(t, "https://assets.poskota.co.id/crop/original/a.jpg", a.ImageURL)
	assert.Contains(t, a.Description, "<p>Isi artikel A</p>")

	c := pub.items[1]
	assert.Equal(t, "Judul C dari listing", c.Title)
	assert.Equal(t, "Sun, 10 Mar 2024 19:01:30 +0700", c.PubDate)
	assert.Contains(t, c.Description, placeholder)

	b := pub.items[2]
	assert.Equal(t, store.FeedItem{
		Title:     "Artikel B",
		Link:      urlB,
		GUID:      urlB,
		PermaLink: true,
		PubDate:   "Sun, 10 Mar 2024 18:00:00 +0700",
	}, b)

	assert.Equal(t, map[string]store.Entry{
		urlA: {Title: "Artikel A lengkap", FirstSeen: now, PubDate: "Sun, 10 Mar 2024 19:00:30 +0700"},
		urlB: entryB,
		urlC: {Title: "Judul C dari listing", FirstSeen: now, PubDate: "Sun, 10 Mar 2024 19:01:30 +0700"},
	}, st.saved)
}

func TestService_Run_EmptyListing(t *testing.T) {
	fresh := store.Entry{Title: "Segar", FirstSeen: now.Add(-time.Hour), PubDate: "Sun, 10 Mar 2024 18:00:00 +0700"}
	old := store.Entry{Title: "Lama", FirstSeen: now.Add(-5 * time.Hour), PubDate: "Sun, 10 Mar 2024 14:00:00 +0700"}
	expired := store.Entry{Title: "Kedaluwarsa", FirstSeen: now.Add(-40 * 24 * time.Hour), PubDate: "Wed, 31 Jan 2024 19:00:00 +0700"}

	st := &memStorage{entries: map[string]store.Entry{urlA: fresh, urlB: old, urlC: expired}}
	pub := &publisherStub{}
	src := &SourceMock{ListingFunc: listing()}

	rep, err := newTestService(src, st, pub).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Report{StillFresh: 1, Items: 1, Tracked: 2}, rep)
	assert.Empty(t, src.ArticleCalls())

	// only the fresh entry is in the feed, without content
	require.Len(t, pub.items, 1)
	assert.Equal(t, urlA, pub.items[0].GUID)
	assert.Empty(t, pub.items[0].Description)

	// the entry first seen 5 hours ago still suppresses re-discovery
	assert.Equal(t, map[string]store.Entry{urlA: fresh, urlB: old}, st.saved)
}

func TestService_Run_NothingAtAll(t *testing.T) {
	st := &memStorage{}
	pub := &publisherStub{}
	src := &SourceMock{ListingFunc: listing()}

	_, err := newTestService(src, st, pub).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, pub.calls, "empty feed is still published")
	assert.Empty(t, pub.items)
	assert.Equal(t, 1, st.saves)
	assert.Empty(t, st.saved)
}

func TestService_Run_CorruptedLedger(t *testing.T) {
	st := &memStorage{loadErr: fmt.Errorf("decode: %w", store.ErrCorrupted)}
	pub := &publisherStub{}
	src := &SourceMock{
		ListingFunc: listing(
			store.Candidate{URL: urlA, Title: "Judul A dari listing"},
			store.Candidate{URL: urlB, Title: "Judul B dari listing"},
		),
		ArticleFunc: articles(map[string]store.Article{
			urlA: {Title: "A", Body: []store.Block{{Kind: store.Paragraph, Text: "isi A"}}},
			urlB: {Title: "B", Body: []store.Block{{Kind: store.Paragraph, Text: "isi B"}}},
		}),
	}

	rep, err := newTestService(src, st, pub).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, rep.New)
	assert.Equal(t, []string{urlA, urlB}, guids(pub.items))
	assert.Len(t, st.saved, 2)
	assert.Contains(t, st.saved, urlA)
	assert.Contains(t, st.saved, urlB)
}

func TestService_Run_NoDuplicateItems(t *testing.T) {
	st := &memStorage{entries: map[string]store.Entry{
		urlB: {Title: "B", FirstSeen: now.Add(-time.Hour), PubDate: "Sun, 10 Mar 2024 18:00:00 +0700"},
	}}
	pub := &publisherStub{}
	src := &SourceMock{
		ListingFunc: listing(
			store.Candidate{URL: urlA, Title: "Judul A dari listing"},
			store.Candidate{URL: urlB, Title: "Judul B dari listing"},
			store.Candidate{URL: urlA, Title: "Judul A lagi"},
		),
		ArticleFunc: articles(map[string]store.Article{urlA: {Title: "A"}}),
	}

	_, err := newTestService(src, st, pub).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{urlA, urlB}, guids(pub.items))
	assert.Len(t, src.ArticleCalls(), 1)
}

func TestService_Run_PubDatesOneMinuteApart(t *testing.T) {
	st := &memStorage{}
	pub := &publisherStub{}
	src := &SourceMock{
		ListingFunc: listing(
			store.Candidate{URL: urlA, Title: "A dari listing"},
			store.Candidate{URL: urlB, Title: "B dari listing"},
			store.Candidate{URL: urlC, Title: "C dari listing"},
			store.Candidate{URL: urlD, Title: "D dari listing"},
		),
		ArticleFunc: articles(map[string]store.Article{
			urlA: {Title: "A"}, urlC: {Title: "C"}, urlD: {Title: "D"},
		}),
	}

	_, err := newTestService(src, st, pub).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, pub.items, 4)
	assert.Equal(t, []string{urlA, urlB, urlC, urlD}, guids(pub.items))

	var prev time.Time
	for i, it := range pub.items {
		ts, err := time.Parse(time.RFC1123Z, it.PubDate)
		require.NoError(t, err)

		if i > 0 {
			assert.Equal(t, time.Minute, ts.Sub(prev), "item %d", i)
		}
		prev = ts

		assert.Equal(t, it.PubDate, st.saved[it.Link].PubDate)
	}
}

func TestService_Run_CapAcrossListings(t *testing.T) {
	st := &memStorage{}
	pub := &publisherStub{}
	src := &SourceMock{
		ListingFunc: func(_ context.Context, u string) ([]store.Candidate, error) {
			switch u {
			case "https://www.poskota.co.id/tag/pinjol":
				return []store.Candidate{{URL: urlA, Title: "A"}, {URL: urlB, Title: "B"}}, nil
			case "https://www.poskota.co.id/tag/broken":
				return nil, fmt.Errorf("%w: %s", scraper.ErrUnavailable, u)
			default:
				return []store.Candidate{{URL: urlB, Title: "B"}, {URL: urlC, Title: "C"}, {URL: urlD, Title: "D"}}, nil
			}
		},
		ArticleFunc: articles(map[string]store.Article{urlA: {Title: "A"}, urlB: {Title: "B"}, urlC: {Title: "C"}}),
	}

	svc := newTestService(src, st, pub)
	svc.Params.MaxArticles = 3
	svc.Params.ListingURLs = []string{
		"https://www.poskota.co.id/tag/pinjol",
		"https://www.poskota.co.id/tag/broken",
		listingURL,
		"https://www.poskota.co.id/tag/never-scanned",
	}

	rep, err := svc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, rep.Candidates)
	assert.Equal(t, []string{urlA, urlB, urlC}, guids(pub.items))
	assert.Len(t, src.ListingCalls(), 3)
}

func TestService_Run_PersistFailure(t *testing.T) {
	st := &memStorage{saveErr: errors.New("disk is full")}
	pub := &publisherStub{}
	src := &SourceMock{ListingFunc: listing()}

	_, err := newTestService(src, st, pub).Run(context.Background())
	require.Error(t, err)
	assert.Zero(t, pub.calls)
}

func TestService_Run_PublishFailure(t *testing.T) {
	st := &memStorage{}
	pub := &publisherStub{err: errors.New("read-only file system")}
	src := &SourceMock{ListingFunc: listing()}

	_, err := newTestService(src, st, pub).Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, st.saves)
}

func TestService_Run_Canceled(t *testing.T) {
	st := &memStorage{}
	pub := &publisherStub{}

	ctx, cancel := context.WithCancel(context.Background())
	src := &SourceMock{
		ListingFunc: listing(store.Candidate{URL: urlA, Title: "A"}, store.Candidate{URL: urlB, Title: "B"}),
		ArticleFunc: func(ctx context.Context, u string) (store.Article, error) {
			cancel()
			return store.Article{}, ctx.Err()
		},
	}

	_, err := newTestService(src, st, pub).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, st.saves)
	assert.Zero(t, pub.calls)
	assert.Len(t, src.ArticleCalls(), 1)
}

func TestItemGUID(t *testing.T) {
	guid, permaLink := itemGUID(urlA, "A")
	assert.Equal(t, urlA, guid)
	assert.True(t, permaLink)

	guid, permaLink = itemGUID("", "hello")
	assert.Equal(t, "5d41402abc4b2a76b9719d911017c592", guid)
	assert.False(t, permaLink)
}
