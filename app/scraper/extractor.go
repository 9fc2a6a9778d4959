package scraper

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/Semior001/tagfeed/app/config"
	"github.com/Semior001/tagfeed/app/store"
	"github.com/go-shiori/go-readability"
	"github.com/samber/lo"
	"golang.org/x/exp/slog"
	"golang.org/x/net/html"
)

var (
	datePathRe     = regexp.MustCompile(`/\d{4}/\d{2}/\d{2}/`)
	originalDateRe = regexp.MustCompile(`\d{2}\s+(Jan|Feb|Mar|Apr|Mei|May|Jun|Jul|Agu|Agus|Aug|Sep|Okt|Oct|Nov|Des|Dec)\s+\d{4}`)
)

const (
	minListingTitle  = 20
	minCaption       = 10
	maxCategory      = 30
	maxContinuations = 5
	continuationKey  = "halaman"
)

// Extractor extracts listing links and articles from HTML pages of the site.
type Extractor struct {
	log       *slog.Logger
	base      *url.URL
	assetHost string
	category  *regexp.Regexp
}

// NewExtractor creates new Extractor for the configured site.
func NewExtractor(lg *slog.Logger, site config.SiteConfig) (*Extractor, error) {
	base, err := url.Parse(site.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url %q: %w", site.BaseURL, err)
	}

	return &Extractor{
		log:       lg,
		base:      base,
		assetHost: site.AssetHost,
		category:  regexp.MustCompile(`^https?://` + regexp.QuoteMeta(base.Host) + `/[a-z-]+$`),
	}, nil
}

// Listing extracts links to articles from a listing page, in page order,
// first occurrence of a link wins.
func (e *Extractor) Listing(body []byte) ([]store.Candidate, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var res []store.Candidate
	seen := map[string]bool{}

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		title := cleanText(a.Text())

		if href == "" || title == "" || !datePathRe.MatchString(href) {
			return
		}

		u, ok := resolve(e.base, href)
		if !ok || !e.onSite(u) || seen[u.String()] {
			return
		}

		if utf8.RuneCountInString(title) < minListingTitle {
			return
		}

		seen[u.String()] = true
		res = append(res, store.Candidate{URL: u.String(), Title: title})
	})

	return res, nil
}

// Article extracts the article from its page. Along with the article it
// returns the links to the continuation pages of a multi-page article.
// Malformed pages yield an article with empty fields rather than an error.
func (e *Extractor) Article(ctx context.Context, body []byte, pageURL string) (store.Article, []string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return store.Article{}, nil, fmt.Errorf("parse html: %w", err)
	}

	a := store.Article{
		URL:          pageURL,
		Title:        cleanText(doc.Find("h1").First().Text()),
		OriginalDate: originalDate(doc),
		Reporter:     attribution(doc, "Reporter"),
		Editor:       attribution(doc, "Editor"),
		Category:     e.categoryOf(doc),
	}

	a.ImageURL = e.leadImage(doc)
	a.Caption = caption(doc, a.ImageURL)
	a.Body = articleRules.blocks(doc.Selection, a.Caption)
	a.AddTags(tags(doc)...)

	if len(a.Body) == 0 {
		if err := e.fillReadable(&a, body, pageURL); err != nil {
			e.log.WarnCtx(ctx, "readability fallback failed", slog.String("url", pageURL), slog.Any("err", err))
		}
	}

	return a, e.continuations(doc, pageURL), nil
}

// Continuation extracts the article text from a continuation page.
func (e *Extractor) Continuation(body []byte) ([]store.Block, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	return continuationRules.blocks(doc.Selection, ""), nil
}

// fillReadable fills the missing fields of the article with the content
// found by readability.
func (e *Extractor) fillReadable(a *store.Article, body []byte, pageURL string) error {
	u, err := url.Parse(pageURL)
	if err != nil {
		return fmt.Errorf("parse page url: %w", err)
	}

	doc, err := readability.FromReader(bytes.NewReader(body), u)
	if err != nil {
		return fmt.Errorf("parse readable content: %w", err)
	}

	content, err := goquery.NewDocumentFromReader(strings.NewReader(doc.Content))
	if err != nil {
		return fmt.Errorf("parse readable html: %w", err)
	}

	content.Find(blockSelector).Each(func(_ int, sel *goquery.Selection) {
		if text := cleanText(sel.Text()); text != "" {
			a.Body = append(a.Body, store.Block{Kind: blockKind(goquery.NodeName(sel)), Text: text})
		}
	})

	if a.Title == "" {
		a.Title = cleanText(doc.Title)
	}
	if a.Reporter == "" {
		a.Reporter = cleanText(doc.Byline)
	}
	if a.ImageURL == "" {
		a.ImageURL = doc.Image
	}

	return nil
}

// leadImage returns the main picture of the article, preferring
// the original crop over thumbnails.
func (e *Extractor) leadImage(doc *goquery.Document) string {
	var res string

	doc.Find("img[src]").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		src := img.AttrOr("src", "")
		if !strings.Contains(src, e.assetHost) {
			return true
		}
		if !strings.Contains(src, "crop") && !strings.Contains(src, "medias") {
			return true
		}

		if strings.Contains(src, "/crop/original/") || strings.Contains(src, "/crop/538") {
			res = src
			return false
		}

		if res == "" {
			res = src
		}
		return true
	})

	return res
}

// categoryOf returns the first section link of the site which looks like a name.
func (e *Extractor) categoryOf(doc *goquery.Document) string {
	var res string

	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		text := cleanText(a.Text())
		if text == "" || !e.category.MatchString(a.AttrOr("href", "")) {
			return true
		}

		first, _ := utf8.DecodeRuneInString(text)
		if strings.ToUpper(text) != text && !unicode.IsUpper(first) {
			return true
		}

		if text == "Home" || text == "E-Paper" || utf8.RuneCountInString(text) >= maxCategory {
			return true
		}

		res = text
		return false
	})

	return res
}

// continuations returns sorted unique links to further pages of the article.
func (e *Extractor) continuations(doc *goquery.Document, pageURL string) []string {
	base, err := url.Parse(pageURL)
	if err != nil {
		base = e.base
	}

	var res []string

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href := a.AttrOr("href", "")
		if !strings.Contains(href, "?"+continuationKey+"=") {
			return
		}

		u, ok := resolve(base, href)
		if !ok || u.String() == pageURL {
			return
		}

		res = append(res, u.String())
	})

	res = lo.Uniq(res)
	sort.Strings(res)

	if len(res) > maxContinuations {
		res = res[:maxContinuations]
	}

	return res
}

// resolve makes an absolute link without a fragment.
func resolve(base *url.URL, href string) (*url.URL, bool) {
	u, err := url.Parse(href)
	if err != nil {
		return nil, false
	}

	u = base.ResolveReference(u)
	u.Fragment = ""

	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, false
	}

	return u, true
}

func (e *Extractor) onSite(u *url.URL) bool {
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	site := strings.TrimPrefix(strings.ToLower(e.base.Hostname()), "www.")
	return host == site || strings.HasSuffix(host, "."+site)
}

// caption returns the alt text of the lead image if it's descriptive enough.
func caption(doc *goquery.Document, image string) string {
	if image == "" {
		return ""
	}

	var alt string
	doc.Find("img[src]").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		if img.AttrOr("src", "") != image {
			return true
		}
		alt = cleanText(img.AttrOr("alt", ""))
		return false
	})

	if utf8.RuneCountInString(alt) <= minCaption {
		return ""
	}

	return alt
}

func tags(doc *goquery.Document) []string {
	var res []string

	doc.Find(`a[href*="/tag/"]`).Each(func(_ int, a *goquery.Selection) {
		text := cleanText(a.Text())
		if utf8.RuneCountInString(text) <= 1 || text == "Tags" || text == "Tag" {
			return
		}

		if tag := strings.TrimSpace(strings.ReplaceAll(text, "#", "")); tag != "" {
			res = append(res, tag)
		}
	})

	return res
}

// originalDate returns the first text on the page which contains a date,
// like "10 Mar 2024".
func originalDate(doc *goquery.Document) string {
	for _, root := range doc.Nodes {
		if n := findText(root, originalDateRe.MatchString); n != nil {
			return strings.TrimSpace(n.Data)
		}
	}
	return ""
}

// attribution returns the name of the first author link that follows
// the given label, e.g. "Reporter" or "Editor".
func attribution(doc *goquery.Document, label string) string {
	var labelNode *html.Node
	for _, root := range doc.Nodes {
		if labelNode = findText(root, func(s string) bool { return strings.Contains(s, label) }); labelNode != nil {
			break
		}
	}

	if labelNode == nil || labelNode.Parent == nil {
		return ""
	}

	// all elements in document order, so the ones after the
	// label's parent are its descendants and following elements
	elems := doc.Find("*").Nodes
	idx := lo.IndexOf(elems, labelNode.Parent)
	if idx < 0 {
		return ""
	}

	for _, n := range elems[idx+1:] {
		if n.Data == "a" && strings.Contains(attr(n, "href"), "/author/") {
			return cleanText(nodeText(n))
		}
	}

	return ""
}

// findText returns the first text node in document order which satisfies the predicate.
func findText(n *html.Node, match func(string) bool) *html.Node {
	if n.Type == html.TextNode && match(n.Data) {
		return n
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findText(c, match); found != nil {
			return found
		}
	}

	return nil
}

func nodeText(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}

	sb := &strings.Builder{}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(nodeText(c))
	}
	return sb.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
