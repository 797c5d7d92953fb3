package format

import (
	"html"
	"regexp"
	"strings"
)

var tagRe = regexp.MustCompile(`<[^>]*>`)

// EscapeHTML escapes user supplied text for Telegram's HTML parse mode.
func EscapeHTML(text string) string {
	return html.EscapeString(text)
}

// PlainText returns what Telegram displays for an HTML formatted message:
// tags removed, entities decoded, outer whitespace trimmed.
func PlainText(text string) string {
	return strings.TrimSpace(html.UnescapeString(tagRe.ReplaceAllString(text, "")))
}

// Bold wraps escaped text in a <b> tag.
func Bold(text string) string {
	return "<b>" + EscapeHTML(text) + "</b>"
}
