// Package rss renders the feed items into an RSS 2.0 document.
package rss

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"time"

	"github.com/Semior001/tagfeed/app/store"
	"github.com/Semior001/tagfeed/pkg/fsx"
	"golang.org/x/exp/slog"
)

// Namespaces declared by the document.
const (
	NamespaceDC      = "http://purl.org/dc/elements/1.1/"
	NamespaceContent = "http://purl.org/rss/1.0/modules/content/"
	NamespaceAtom    = "http://www.w3.org/2005/Atom"
	NamespaceMedia   = "http://search.yahoo.com/mrss/"
)

// Channel describes the feed itself.
type Channel struct {
	Title       string
	Description string
	Link        string
	// SelfURL is where the feed is served from, optional.
	SelfURL   string
	Language  string
	Generator string
}

// Writer writes the feed to a file.
type Writer struct {
	Logger   *slog.Logger
	Path     string
	Channel  Channel
	Location *time.Location
}

// Publish renders the items in the given order and overwrites the feed
// file with the result. Empty feed is written as well.
func (w *Writer) Publish(ctx context.Context, items []store.FeedItem, builtAt time.Time) error {
	data, err := w.Render(items, builtAt)
	if err != nil {
		return fmt.Errorf("render feed: %w", err)
	}

	if err = fsx.WriteFileAtomic(w.Path, data, 0o644); err != nil {
		return fmt.Errorf("write feed: %w", err)
	}

	w.Logger.InfoCtx(ctx, "feed written",
		slog.String("path", w.Path),
		slog.Int("items", len(items)),
		slog.Int("bytes", len(data)))

	return nil
}

// Render renders the RSS document.
func (w *Writer) Render(items []store.FeedItem, builtAt time.Time) ([]byte, error) {
	loc := w.Location
	if loc == nil {
		loc = time.UTC
	}

	doc := document{
		Version:   "2.0",
		NSDC:      NamespaceDC,
		NSContent: NamespaceContent,
		NSAtom:    NamespaceAtom,
		NSMedia:   NamespaceMedia,
		Channel: channel{
			Title:         w.Channel.Title,
			Description:   w.Channel.Description,
			Link:          w.Channel.Link,
			Language:      w.Channel.Language,
			LastBuildDate: builtAt.In(loc).Format(time.RFC1123Z),
			Generator:     w.Channel.Generator,
			Items:         make([]item, 0, len(items)),
		},
	}

	if w.Channel.SelfURL != "" {
		doc.Channel.AtomLink = &atomLink{Href: w.Channel.SelfURL, Rel: "self", Type: "application/rss+xml"}
	}

	for _, it := range items {
		doc.Channel.Items = append(doc.Channel.Items, makeItem(it))
	}

	buf := &bytes.Buffer{}
	buf.WriteString(xml.Header)

	enc := xml.NewEncoder(buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode xml: %w", err)
	}
	buf.WriteByte('\n')

	return buf.Bytes(), nil
}

func makeItem(it store.FeedItem) item {
	res := item{
		Title:       cdata{Text: it.Title},
		Link:        it.Link,
		GUID:        guid{IsPermaLink: it.PermaLink, Value: it.GUID},
		PubDate:     it.PubDate,
		Description: cdata{Text: it.Description},
		Content:     cdata{Text: it.Description},
	}

	if it.Category != "" {
		res.Categories = append(res.Categories, cdata{Text: it.Category})
	}

	for _, tag := range it.Tags {
		res.Categories = append(res.Categories, cdata{Text: tag})
	}

	if it.ImageURL != "" {
		res.Media = &mediaContent{URL: it.ImageURL, Medium: "image"}
	}

	return res
}

type document struct {
	XMLName   xml.Name `xml:"rss"`
	Version   string   `xml:"version,attr"`
	NSDC      string   `xml:"xmlns:dc,attr"`
	NSContent string   `xml:"xmlns:content,attr"`
	NSAtom    string   `xml:"xmlns:atom,attr"`
	NSMedia   string   `xml:"xmlns:media,attr"`
	Channel   channel  `xml:"channel"`
}

type channel struct {
	Title         string    `xml:"title"`
	Description   string    `xml:"description"`
	Link          string    `xml:"link"`
	AtomLink      *atomLink `xml:"atom:link,omitempty"`
	Language      string    `xml:"language"`
	LastBuildDate string    `xml:"lastBuildDate"`
	Generator     string    `xml:"generator"`
	Items         []item    `xml:"item"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

type item struct {
	Title       cdata         `xml:"title"`
	Link        string        `xml:"link,omitempty"`
	GUID        guid          `xml:"guid"`
	PubDate     string        `xml:"pubDate"`
	Categories  []cdata       `xml:"category"`
	Media       *mediaContent `xml:"media:content,omitempty"`
	Description cdata         `xml:"description"`
	Content     cdata         `xml:"content:encoded"`
}

type cdata struct {
	Text string `xml:",cdata"`
}

type guid struct {
	IsPermaLink bool   `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

type mediaContent struct {
	URL    string `xml:"url,attr"`
	Medium string `xml:"medium,attr"`
}
