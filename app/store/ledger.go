package store

import (
	"sort"
	"time"
)

// Entry is what the ledger remembers about an article that was
// put into the feed once.
type Entry struct {
	Title string `json:"title"`
	// FirstSeen is the time of the run which discovered the article,
	// not the time the article was published on the site.
	FirstSeen time.Time `json:"first_seen"`
	PubDate   string    `json:"pub_date"`
}

// Seen is a ledger entry along with its article URL.
type Seen struct {
	URL string
	Entry
}

// Ledger maps canonical article URLs to the metadata of their first discovery.
// Entries are never changed once recorded, they only leave the ledger by
// aging out through Prune.
type Ledger struct {
	entries map[string]Entry
}

// NewLedger makes a ledger with a copy of the given entries.
func NewLedger(entries map[string]Entry) *Ledger {
	l := &Ledger{entries: make(map[string]Entry, len(entries))}
	for u, e := range entries {
		l.entries[u] = e
	}
	return l
}

// Len returns the number of tracked articles.
func (l *Ledger) Len() int { return len(l.entries) }

// Has returns true if the article was already recorded.
func (l *Ledger) Has(url string) bool {
	_, ok := l.entries[url]
	return ok
}

// Get returns the entry for the given article URL.
func (l *Ledger) Get(url string) (Entry, bool) {
	e, ok := l.entries[url]
	return e, ok
}

// Record adds the article to the ledger, unless it's already there.
// Returns false if the article was recorded before, the existing entry
// stays untouched in that case.
func (l *Ledger) Record(url, title string, discoveredAt time.Time, pubDate string) bool {
	if l.Has(url) {
		return false
	}

	l.entries[url] = Entry{
		Title:     title,
		FirstSeen: discoveredAt.UTC(),
		PubDate:   pubDate,
	}

	return true
}

// Prune returns a new ledger with entries first seen strictly after now-maxAge.
func (l *Ledger) Prune(now time.Time, maxAge time.Duration) *Ledger {
	cutoff := now.Add(-maxAge)

	res := &Ledger{entries: make(map[string]Entry, len(l.entries))}
	for u, e := range l.entries {
		if e.FirstSeen.After(cutoff) {
			res.entries[u] = e
		}
	}

	return res
}

// Window returns entries first seen strictly after now-span, which have
// a publication date, in the order of discovery.
func (l *Ledger) Window(now time.Time, span time.Duration) []Seen {
	cutoff := now.Add(-span)

	var res []Seen
	for u, e := range l.entries {
		if e.PubDate == "" || !e.FirstSeen.After(cutoff) {
			continue
		}
		res = append(res, Seen{URL: u, Entry: e})
	}

	sortSeen(res)
	return res
}

// List returns all entries in the order of discovery.
func (l *Ledger) List() []Seen {
	res := make([]Seen, 0, len(l.entries))
	for u, e := range l.entries {
		res = append(res, Seen{URL: u, Entry: e})
	}

	sortSeen(res)
	return res
}

// Entries returns a copy of the underlying mapping.
func (l *Ledger) Entries() map[string]Entry {
	res := make(map[string]Entry, len(l.entries))
	for u, e := range l.entries {
		res[u] = e
	}
	return res
}

// sortSeen orders entries by the run that discovered them and then by the
// publication date, which grows within a run in the order of discovery.
func sortSeen(s []Seen) {
	sort.SliceStable(s, func(i, j int) bool {
		if !s[i].FirstSeen.Equal(s[j].FirstSeen) {
			return s[i].FirstSeen.Before(s[j].FirstSeen)
		}

		pi, pj := parsePubDate(s[i].PubDate), parsePubDate(s[j].PubDate)
		if !pi.Equal(pj) {
			return pi.Before(pj)
		}

		return s[i].URL < s[j].URL
	})
}

func parsePubDate(s string) time.Time {
	t, err := time.Parse(time.RFC1123Z, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
