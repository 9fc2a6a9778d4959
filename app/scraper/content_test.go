package scraper

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/Semior001/tagfeed/app/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentRules_Starts(t *testing.T) {
	tbl := []struct {
		text string
		want bool
	}{
		{text: "POSKOTA.CO.ID - Berita singkat", want: true},
		{text: "JAKARTA - Berita singkat", want: true},
		{text: "Ab - singkat", want: false},
		{text: "Kalimat ini cukup panjang untuk dianggap teks artikel.", want: true},
		{text: "Kalimat pendek tanpa penanda", want: false},
	}

	for _, tt := range tbl {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, articleRules.starts(tt.text))
		})
	}
}

func TestContentRules_Blocks(t *testing.T) {
	page := `<html><body>
		<p>Menu singkat di atas artikel</p>
		<h3>Judul bagian sebelum artikel</h3>
		<p>JAKARTA - Artikel dimulai dari sini.</p>
		<p>Paragraf pendek masuk setelah awal.</p>
		<div class="comment-box"><p>Komentar pembaca yang panjang sekali</p></div>
		<div class="news-update"><div><p>Berita lain yang dibungkus dua kali</p></div></div>
		<p>Baca juga: Editor memilih artikel lain</p>
		<h4>Penutup artikel</h4>
	</body></html>`

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	require.NoError(t, err)

	assert.Equal(t, []store.Block{
		{Kind: store.Paragraph, Text: "JAKARTA - Artikel dimulai dari sini."},
		{Kind: store.Paragraph, Text: "Paragraf pendek masuk setelah awal."},
		{Kind: store.Heading, Text: "Penutup artikel"},
	}, articleRules.blocks(doc.Selection, ""))
}

func TestContentRules_BlocksNoStart(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		"<p>Hanya teks pendek saja</p><p>dan satu lagi yang pendek</p>",
	))
	require.NoError(t, err)
	assert.Empty(t, articleRules.blocks(doc.Selection, ""))
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "a b c", cleanText("  a\n\tb  c "))
	assert.Equal(t, "", cleanText(" \n "))
}
