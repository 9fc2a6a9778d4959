package rss

import (
	"fmt"
	"html"
	"strings"

	"github.com/Semior001/tagfeed/app/store"
	"github.com/microcosm-cc/bluemonday"
)

var sanitizer = bluemonday.UGCPolicy()

// Describe renders the article into the HTML description of a feed item:
// the lead image with its caption, the attribution, the original date,
// the body and the tags.
func Describe(a store.Article) string {
	sb := &strings.Builder{}

	if a.ImageURL != "" {
		fmt.Fprintf(sb, "<p><img src=\"%s\" alt=\"%s\"/></p>\n", esc(a.ImageURL), esc(a.Title))
	}

	if a.Caption != "" {
		fmt.Fprintf(sb, "<p><em>%s</em></p>\n", esc(a.Caption))
	}

	if a.Reporter != "" {
		fmt.Fprintf(sb, "<p><strong>Reporter:</strong> %s", esc(a.Reporter))
		if a.Editor != "" {
			fmt.Fprintf(sb, " | <strong>Editor:</strong> %s", esc(a.Editor))
		}
		sb.WriteString("</p>\n")
	}

	if a.OriginalDate != "" {
		fmt.Fprintf(sb, "<p><em>Tanggal asli: %s</em></p>\n", esc(a.OriginalDate))
	}

	for _, b := range a.Body {
		if b.Text == "" {
			continue
		}

		switch b.Kind {
		case store.Heading:
			fmt.Fprintf(sb, "<h3>%s</h3>\n", esc(b.Text))
		case store.ListItem:
			fmt.Fprintf(sb, "<li>%s</li>\n", esc(b.Text))
		default:
			fmt.Fprintf(sb, "<p>%s</p>\n", esc(b.Text))
		}
	}

	if len(a.Tags) > 0 {
		fmt.Fprintf(sb, "<p><strong>Tags:</strong> %s</p>\n", esc(strings.Join(a.Tags, ", ")))
	}

	if sb.Len() == 0 {
		return ""
	}

	return sanitizer.Sanitize(sb.String())
}

func esc(s string) string { return html.EscapeString(s) }
