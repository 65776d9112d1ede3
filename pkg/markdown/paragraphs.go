package markdown

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var listLineRegex = regexp.MustCompile(`^([-*+]|\d+[.)])\s`)

var sentenceEndings = []string{".", "!", "?", "…"}

// Capitalized words that continue the previous sentence rather than
// opening a new paragraph.
var continuationConnectors = map[string]bool{
	"And": true, "But": true, "Or": true, "So": true, "Yet": true,
	"However": true, "Meanwhile": true,
	"Et": true, "Mais": true, "Donc": true, "Car": true, "Cependant": true,
	"Și": true, "Dar": true, "Iar": true, "Însă": true, "Totuși": true,
}

// reconstructParagraphs inserts a blank line between two adjacent prose
// lines that clearly belong to different paragraphs: the first ends a
// sentence and the second opens with a capital or quotation mark. Lines
// already separated by a blank, list items, headers, and blockquote
// lines are left alone.
func reconstructParagraphs(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines)+8)
	for i, line := range lines {
		out = append(out, line)
		if i+1 >= len(lines) {
			continue
		}
		if endsParagraph(strings.TrimSpace(line)) && opensParagraph(strings.TrimSpace(lines[i+1])) {
			out = append(out, "")
		}
	}
	return strings.Join(out, "\n")
}

func endsParagraph(line string) bool {
	if line == "" || isHeaderLine(line) {
		return false
	}
	line = strings.TrimRight(line, `"'»”’`)
	for _, p := range sentenceEndings {
		if strings.HasSuffix(line, p) {
			return true
		}
	}
	return false
}

func opensParagraph(next string) bool {
	if next == "" {
		return false
	}
	if strings.HasPrefix(next, "#") || strings.HasPrefix(next, ">") ||
		listLineRegex.MatchString(next) || underlineRowRegex.MatchString(next) {
		return false
	}
	first, _ := utf8.DecodeRuneInString(next)
	if !unicode.IsUpper(first) && !strings.ContainsRune(`"'«„“`, first) {
		return false
	}
	word := strings.TrimRight(strings.Fields(next)[0], ",")
	return !continuationConnectors[word]
}
