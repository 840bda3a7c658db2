package application

import (
	"strings"

	"golang.org/x/net/html"
)

const maxExcerptLength = 160

// Excerpt strips markup from an HTML fragment and returns at most 160
// characters of its text, with runs of whitespace collapsed.
func Excerpt(fragment string) string {
	text := []rune(strings.Join(strings.Fields(extractText(fragment)), " "))
	if len(text) > maxExcerptLength {
		text = text[:maxExcerptLength]
	}
	return strings.TrimSpace(string(text))
}

func extractText(fragment string) string {
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(fragment))
	skip := 0
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return b.String()
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			if tt == html.StartTagToken && isInvisible(name) {
				skip++
			}
			if isBreaking(name) {
				b.WriteByte(' ')
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if isInvisible(name) && skip > 0 {
				skip--
			}
			if isBreaking(name) {
				b.WriteByte(' ')
			}
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		}
	}
}

func isInvisible(tag []byte) bool {
	switch string(tag) {
	case "script", "style", "template":
		return true
	}
	return false
}

// isBreaking reports whether tag separates words when rendered.
func isBreaking(tag []byte) bool {
	switch string(tag) {
	case "p", "br", "div", "li", "ul", "ol", "h1", "h2", "h3", "h4", "h5", "h6",
		"blockquote", "pre", "tr", "td", "th", "figure", "figcaption", "hr", "section", "article":
		return true
	}
	return false
}
