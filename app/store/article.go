package store

import "github.com/samber/lo"

// Candidate is an article link discovered on a listing page.
type Candidate struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// BlockKind defines the type of body block.
type BlockKind string

// Block kinds.
const (
	Paragraph BlockKind = "paragraph"
	Heading   BlockKind = "heading"
	ListItem  BlockKind = "list_item"
)

// Block is a single piece of an article body.
type Block struct {
	Kind BlockKind `json:"kind"`
	Text string    `json:"text"`
}

// Article is a struct that contains the extracted article.
type Article struct {
	URL          string   `json:"url"`
	Title        string   `json:"title"`
	Body         []Block  `json:"body"`
	ImageURL     string   `json:"image_url"`
	Caption      string   `json:"caption"`
	Reporter     string   `json:"reporter"`
	Editor       string   `json:"editor"`
	OriginalDate string   `json:"original_date"`
	Tags         []string `json:"tags"`
	Category     string   `json:"category"`
}

// AddTags appends tags that are not present yet, comparing case-sensitively.
func (a *Article) AddTags(tags ...string) {
	tags = lo.Filter(tags, func(s string, _ int) bool { return s != "" })
	a.Tags = lo.Uniq(append(a.Tags, tags...))
}

// Empty returns true if the article has neither a title nor a body.
func (a Article) Empty() bool {
	return a.Title == "" && len(a.Body) == 0
}

// FeedItem is a single entry of the produced feed.
// PermaLink reports whether GUID is the article URL.
type FeedItem struct {
	Title       string
	Link        string
	GUID        string
	PermaLink   bool
	Description string
	PubDate     string
	Category    string
	Tags        []string
	ImageURL    string
}
