package markdown

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// A marker stranded at a line end with its word on the next line.
	splitMarkerRegex = regexp.MustCompile("(\\*\\*|\\*|`)\\n(\\p{L})")
	asteriskRunRegex = regexp.MustCompile(`\*{3,}`)
	emptyBoldRegex   = regexp.MustCompile(`\*\*[ \t]*\*\*`)
	emptyItalicRegex = regexp.MustCompile(`\*[ \t]+\*`)
	emptyCodeRegex   = regexp.MustCompile("`[ \t]*`")
)

// repairFormatting fixes inline marker damage introduced when emphasis
// spans get split across extraction boundaries: markers rejoined to
// their word, overlong asterisk runs read as bold, empty marker pairs
// dropped, and a missing space restored between a word and a bold run.
func repairFormatting(text string) string {
	text = splitMarkerRegex.ReplaceAllString(text, "$1$2")
	text = asteriskRunRegex.ReplaceAllString(text, "**")
	text = emptyBoldRegex.ReplaceAllString(text, "")
	text = emptyItalicRegex.ReplaceAllString(text, "")
	text = emptyCodeRegex.ReplaceAllString(text, "")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = spaceBoldMarkers(line)
	}
	return strings.Join(lines, "\n")
}

// spaceBoldMarkers inserts the space Markdown needs between a word and
// an adjacent bold marker: an opening ** glued to the preceding word,
// or a closing ** glued to the following one. Markers alternate
// open/close through the line.
func spaceBoldMarkers(line string) string {
	if !strings.Contains(line, "**") {
		return line
	}

	var b strings.Builder
	open := false
	i := 0
	for i < len(line) {
		if line[i] == '*' && i+1 < len(line) && line[i+1] == '*' {
			if !open && endsInWordRune(b.String()) {
				b.WriteByte(' ')
			}
			b.WriteString("**")
			i += 2
			if open {
				if next, size := utf8.DecodeRuneInString(line[i:]); size > 0 && isWordRune(next) {
					b.WriteByte(' ')
				}
			}
			open = !open
			continue
		}
		r, size := utf8.DecodeRuneInString(line[i:])
		b.WriteRune(r)
		i += size
	}
	return b.String()
}

func endsInWordRune(s string) bool {
	if s == "" {
		return false
	}
	r, _ := utf8.DecodeLastRuneInString(s)
	return isWordRune(r)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
