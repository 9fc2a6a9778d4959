package scraper

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/Semior001/tagfeed/app/store"
	"github.com/samber/lo"
)

// contentState is the position of the body walker relative to the article text.
type contentState int

const (
	beforeContent contentState = iota
	inContent
)

// contentRules tell which blocks of a page belong to the article body.
type contentRules struct {
	// skipClasses drop blocks whose parent has one of these class fragments
	skipClasses []string
	// checkGrandparent applies skipClasses to the grandparent as well
	checkGrandparent bool
	// skipPhrases drop blocks containing any of these phrases
	skipPhrases []string
	// minParagraph drops shorter paragraphs
	minParagraph int
	// minBlock drops shorter blocks of any kind
	minBlock int
	// lead marks the first line of the article text, e.g. the dateline
	lead *regexp.Regexp
	// startLen is the length of a block which surely is article text
	startLen int
}

var articleRules = contentRules{
	skipClasses: []string{
		"sidebar", "footer", "nav", "menu", "comment", "trending",
		"news-update", "berita-terkait", "terkait",
	},
	checkGrandparent: true,
	skipPhrases: []string{
		"Reporter", "Editor", "Follow Poskota", "Google News", "WhatsApp Channel",
		"Cek berita", "Berita Terkait", "News Update", "Trending",
	},
	minParagraph: 15,
	lead:         regexp.MustCompile(`^(POSKOTA\.CO\.ID|[A-Z]{3,})`),
	startLen:     40,
}

var continuationRules = contentRules{
	skipClasses: []string{"sidebar", "footer", "nav", "trending"},
	skipPhrases: []string{"Reporter", "Editor", "Follow Poskota", "Google News", "WhatsApp Channel"},
	minBlock:    15,
	startLen:    40,
}

const blockSelector = "p, h2, h3, h4, li"

// starts reports whether the block opens the article text.
func (r contentRules) starts(text string) bool {
	if r.lead != nil && r.lead.MatchString(text) {
		return true
	}
	return utf8.RuneCountInString(text) > r.startLen
}

// skipped reports whether the block is page chrome rather than article text.
func (r contentRules) skipped(sel *goquery.Selection, text, caption string) bool {
	parent := sel.Parent()
	if hasClassFragment(parent, r.skipClasses) {
		return true
	}

	if r.checkGrandparent && hasClassFragment(parent.Parent(), r.skipClasses) {
		return true
	}

	if lo.ContainsBy(r.skipPhrases, func(p string) bool { return strings.Contains(text, p) }) {
		return true
	}

	n := utf8.RuneCountInString(text)
	if n < r.minBlock || (n < r.minParagraph && goquery.NodeName(sel) == "p") {
		return true
	}

	return caption != "" && text == caption
}

// blocks walks the page blocks in document order and returns the ones
// that belong to the article body.
func (r contentRules) blocks(doc *goquery.Selection, caption string) []store.Block {
	var res []store.Block
	state := beforeContent

	doc.Find(blockSelector).Each(func(_ int, sel *goquery.Selection) {
		text := cleanText(sel.Text())
		if text == "" || r.skipped(sel, text, caption) {
			return
		}

		if state == beforeContent && r.starts(text) {
			state = inContent
		}

		if state != inContent {
			return
		}

		res = append(res, store.Block{Kind: blockKind(goquery.NodeName(sel)), Text: text})
	})

	return res
}

func blockKind(tag string) store.BlockKind {
	switch tag {
	case "h2", "h3", "h4":
		return store.Heading
	case "li":
		return store.ListItem
	default:
		return store.Paragraph
	}
}

func hasClassFragment(sel *goquery.Selection, fragments []string) bool {
	if sel.Length() == 0 {
		return false
	}

	class := strings.ToLower(sel.AttrOr("class", ""))
	if class == "" {
		return false
	}

	return lo.ContainsBy(fragments, func(f string) bool { return strings.Contains(class, f) })
}

// cleanText collapses whitespace, including non-breaking spaces.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
