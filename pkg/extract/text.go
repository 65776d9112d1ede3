package extract

import (
	"regexp"
	"strings"
)

var (
	spaceRunRegex       = regexp.MustCompile(`[ \t]+`)
	paragraphStartRegex = regexp.MustCompile(`\n(\S)`)
	blankRunRegex       = regexp.MustCompile(`\n{3,}`)
)

// reconstructParagraphs rebuilds paragraph spacing in line-oriented
// extractor output: lines are trimmed, runs of blank lines collapse to
// one separator, and any remaining single line break before text is
// widened to a paragraph break. Backends emit one block per line, so
// the result is double-newline-separated paragraphs.
func reconstructParagraphs(text string) string {
	lines := strings.Split(text, "\n")
	formatted := make([]string, 0, len(lines))
	for _, line := range lines {
		stripped := strings.TrimSpace(line)
		if stripped != "" {
			formatted = append(formatted, stripped)
		} else if n := len(formatted); n > 0 && formatted[n-1] != "" {
			formatted = append(formatted, "")
		}
	}
	text = strings.Join(formatted, "\n")
	text = paragraphStartRegex.ReplaceAllString(text, "\n\n$1")
	text = blankRunRegex.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// collapseSpaces squeezes runs of spaces and tabs to one space and
// trims the ends.
func collapseSpaces(s string) string {
	return strings.TrimSpace(spaceRunRegex.ReplaceAllString(s, " "))
}
