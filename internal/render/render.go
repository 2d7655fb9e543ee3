// Package render turns post content into sanitized HTML and short
// plain-text previews.
package render

import (
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/russross/blackfriday"
)

// Single newlines in post content are line breaks, as authors type them.
const extensions = blackfriday.EXTENSION_NO_INTRA_EMPHASIS |
	blackfriday.EXTENSION_TABLES |
	blackfriday.EXTENSION_FENCED_CODE |
	blackfriday.EXTENSION_AUTOLINK |
	blackfriday.EXTENSION_STRIKETHROUGH |
	blackfriday.EXTENSION_SPACE_HEADERS |
	blackfriday.EXTENSION_HARD_LINE_BREAK

var policy = bluemonday.UGCPolicy()

func HTML(input string) string {
	input = strings.TrimSpace(strings.ReplaceAll(input, "\r\n", "\n"))
	if len(input) == 0 {
		return ""
	}
	renderer := blackfriday.HtmlRenderer(blackfriday.HTML_USE_XHTML, "", "")
	unsafe := blackfriday.Markdown([]byte(input), renderer, extensions)
	return string(policy.SanitizeBytes(unsafe))
}

// Preview is the first line of content, cut to max runes with an
// ellipsis.
func Preview(content string, max int) string {
	line := strings.TrimSpace(content)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = strings.TrimSpace(line[:i])
	}
	if max <= 0 || utf8.RuneCountInString(line) <= max {
		return line
	}
	runes := []rune(line)
	return strings.TrimSpace(string(runes[:max])) + "…"
}

// Description is a one-line summary for link previews.
func Description(content string) string {
	return Preview(policy.Sanitize(content), 160)
}
