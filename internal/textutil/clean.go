package textutil

import (
	"html"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	markdownLinkExpr = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	urlExpr          = regexp.MustCompile(`(?:https?://|www\.)\S+`)
	markupExpr       = regexp.MustCompile(`[*#_|>]`)
	whitespaceExpr   = regexp.MustCompile(`\s+`)
)

// Clean normalizes raw post or comment text. It is pure and total: every
// input yields a string, empty input yields "". Rules apply in order:
// entity decode, markup-tag strip, markdown links to their text, bare URLs
// removed, markdown emphasis characters removed, doubled quotes collapsed,
// whitespace runs collapsed, trim.
func Clean(text string) string {
	if text == "" {
		return ""
	}

	text = html.UnescapeString(text)
	text = stripTags(text)
	text = markdownLinkExpr.ReplaceAllString(text, "$1")
	text = urlExpr.ReplaceAllString(text, "")
	text = markupExpr.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, `""`, `"`)
	text = whitespaceExpr.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// WordCount counts whitespace-delimited tokens.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

func stripTags(text string) string {
	if !strings.Contains(text, "<") {
		return text
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return text
	}
	return doc.Text()
}
