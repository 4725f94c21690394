package chunker

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Header is a line detected as a section heading.
type Header struct {
	// Text is the trimmed header line.
	Text string

	// Level is 1 for top-level sections and 2 for nested ones.
	Level int

	// Offset is the byte offset of the start of the header's line.
	Offset int

	// Rule names the rule that matched.
	Rule string
}

// headerRule is one entry in the detection cascade. Rules are evaluated in
// order against the trimmed line and the first match wins.
type headerRule struct {
	name    string
	pattern *regexp.Regexp
	level   int

	// gated rules only fire when isLikelyHeader accepts the line.
	gated bool
}

// defaultRules is the header cascade. The ungated rules come first; the gated
// rules are only consulted when none of them matched.
var defaultRules = []headerRule{
	{name: "numbered", pattern: regexp.MustCompile(`^(\d+)\.\s+([A-Z][^.\n]*)`), level: 1},
	{name: "dotted", pattern: regexp.MustCompile(`^(\d+\.\d+(?:\.\d+)*)\s+([A-Z][^.\n]*)`), level: 2},
	{
		name: "canonical",
		pattern: regexp.MustCompile(`^(Abstract|Introduction|Conclusion|References|Bibliography|` +
			`Appendix|Methods|Results|Discussion|Related Work|Background)`),
		level: 1,
	},
	{name: "capitalized", pattern: regexp.MustCompile(`^([A-Z][A-Za-z\s]+)$`), level: 2},
	{name: "uppercase", pattern: regexp.MustCompile(`^([A-Z][A-Z\s]+)$`), level: 1, gated: true},
	{name: "mixed_caps", pattern: regexp.MustCompile(`^([A-Z][A-Za-z\s]*[A-Z][A-Za-z\s]*)$`), level: 2, gated: true},
	{name: "paren_numbered", pattern: regexp.MustCompile(`^(\d+\)\s+[A-Z][^.\n]*)`), level: 2, gated: true},
}

// functionWords mark a line as prose rather than a heading.
var functionWords = map[string]struct{}{
	"the": {}, "and": {}, "or": {}, "but": {}, "in": {},
	"on": {}, "at": {}, "to": {}, "for": {},
}

// classify returns the header level for a trimmed line, or ok=false.
func classify(rules []headerRule, line string) (level int, rule string, ok bool) {
	for _, r := range rules {
		if !r.pattern.MatchString(line) {
			continue
		}
		if r.gated && !isLikelyHeader(line) {
			continue
		}
		return r.level, r.name, true
	}
	return 0, "", false
}

// isLikelyHeader rejects lines that look like prose: too short or long,
// ending in sentence punctuation, or containing function words unless the
// line is short and fully uppercase.
func isLikelyHeader(line string) bool {
	n := utf8.RuneCountInString(line)
	if n < 3 || n > 100 {
		return false
	}
	if strings.HasSuffix(line, ".") || strings.HasSuffix(line, "!") || strings.HasSuffix(line, "?") {
		return false
	}
	if hasFunctionWord(line) {
		return n < 30 && isUpper(line)
	}
	return true
}

func hasFunctionWord(line string) bool {
	for _, w := range strings.FieldsFunc(strings.ToLower(line), func(r rune) bool {
		return !unicode.IsLetter(r)
	}) {
		if _, ok := functionWords[w]; ok {
			return true
		}
	}
	return false
}

// isUpper reports whether line has at least one cased letter and no lowercase ones.
func isUpper(line string) bool {
	cased := false
	for _, r := range line {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			cased = true
		}
	}
	return cased
}

// detectHeaders scans text line by line. Offsets are exact, so repeated
// header lines are reported at each of their own positions.
func detectHeaders(rules []headerRule, text string) []Header {
	var headers []Header
	offset := 0
	for _, line := range strings.SplitAfter(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			if level, rule, ok := classify(rules, trimmed); ok {
				headers = append(headers, Header{Text: trimmed, Level: level, Offset: offset, Rule: rule})
			}
		}
		offset += len(line)
	}
	return headers
}
