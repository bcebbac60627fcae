package catalog

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultExcerptLength is the excerpt size product cards use
const DefaultExcerptLength = 150

var (
	htmlTag    = regexp.MustCompile(`<[^>]*>`)
	whitespace = regexp.MustCompile(`\s+`)
)

// StripHTML removes markup and entities from catalog rich text
func StripHTML(s string) string {
	s = htmlTag.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

// Excerpt returns plain text from the short description (falling back to the
// full description), cut to max runes with a trailing ellipsis when cut.
func (p Product) Excerpt(max int) string {
	src := p.ShortDescription
	if strings.TrimSpace(src) == "" {
		src = p.Description
	}
	text := StripHTML(src)
	if max <= 0 || utf8.RuneCountInString(text) <= max {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:max])) + "..."
}
