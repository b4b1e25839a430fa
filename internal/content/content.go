// ABOUTME: Prepares stored article bodies for terminal display
// ABOUTME: HTML becomes Markdown; plain text passes through untouched

package content

import (
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

var (
	// tagPattern matches an opening tag for the elements feed bodies
	// actually use. Bare angle brackets in plain text do not match.
	tagPattern = regexp.MustCompile(`(?i)<(p|div|span|a|br|img|h[1-6]|ul|ol|li|table|tr|td|th|figure|strong|em|b|i|code|pre|blockquote)\b[^>]*>`)

	blankRuns = regexp.MustCompile(`\n{3,}`)
)

// IsHTML reports whether body looks like HTML rather than plain text.
func IsHTML(body string) bool {
	if strings.Contains(body, "<!DOCTYPE") || strings.Contains(body, "<html") {
		return true
	}
	return tagPattern.MatchString(body)
}

// ToMarkdown converts an HTML article body to Markdown. Plain text is
// returned unchanged, as is anything the converter chokes on.
func ToMarkdown(body string) string {
	if body == "" || !IsHTML(body) {
		return body
	}

	md, err := htmltomarkdown.ConvertString(body)
	if err != nil {
		return body
	}
	return Tidy(md)
}

// Tidy trims surrounding whitespace and collapses runs of blank lines
// to a single blank line.
func Tidy(s string) string {
	return strings.TrimSpace(blankRuns.ReplaceAllString(s, "\n\n"))
}
