package pdf

import (
	"regexp"
	"strings"
)

var (
	pageNumberRe = regexp.MustCompile(`(?i)\bpage\s+\d+\b`)
	pageOfRe     = regexp.MustCompile(`\b\d+\s*of\s*\d+\b`)
	disallowedRe = regexp.MustCompile(`[^\p{L}\p{N}_\s.,;:!?\-()\[\]{}]`)
)

// CleanText flattens extracted text into a single line suitable for
// display or embedding. It drops page markers such as "Page 3" and "3 of 12"
// and replaces symbols outside basic punctuation with spaces.
//
// Line breaks are lost, so never apply this before chunking.
func CleanText(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	text = pageNumberRe.ReplaceAllString(text, "")
	text = pageOfRe.ReplaceAllString(text, "")
	text = disallowedRe.ReplaceAllString(text, " ")
	return strings.Join(strings.Fields(text), " ")
}
