package markdown

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/unicode/norm"
)

// Heuristic bounds: a heading-like line is longer than headerMinRunes,
// shorter than headerMaxRunes, and the prose line after it is longer
// than contentMinRunes.
const (
	headerMinRunes  = 5
	headerMaxRunes  = 80
	contentMinRunes = 50
)

var (
	underlineRowRegex = regexp.MustCompile(`^[=-]+$`)
	keySpaceRegex     = regexp.MustCompile(`\s+`)
)

// Lines starting with these read as sentence continuations, never
// headings. Entries without a trailing space also match mid-word
// ("Astfel," and the like).
var headerStopPrefixes = []string{
	"În ", "De ", "Cu ", "Pentru ", "Prin ", "Astfel", "Așa", "Dar", "Și",
}

// A following line starting with one of these reads as prose.
var contentStartPrefixes = []string{
	"În ", "De ", "Cu ", "Pentru ", "Prin ", "Acest", "Potrivit", "După",
}

var headerTerminalPunct = []string{".", "!", "?", ":", ";", ","}

var headingTags = []string{"h1", "h2", "h3", "h4", "h5", "h6"}

// collectHeadingEvidence maps normalized heading text in htmlContent to
// its tag level. The lowest level wins when the same text appears under
// several tags.
func collectHeadingEvidence(htmlContent string) map[string]int {
	if strings.TrimSpace(htmlContent) == "" {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil
	}

	evidence := make(map[string]int)
	for i, tag := range headingTags {
		level := i + 1
		doc.Find(tag).Each(func(_ int, s *goquery.Selection) {
			key := headingKey(s.Text())
			if key == "" {
				return
			}
			if _, seen := evidence[key]; !seen {
				evidence[key] = level
			}
		})
	}
	if len(evidence) == 0 {
		return nil
	}
	return evidence
}

// headingKey normalizes heading text for comparison: NFKC form,
// lower-cased, interior whitespace collapsed.
func headingKey(s string) string {
	s = norm.NFKC.String(s)
	s = strings.ToLower(strings.TrimSpace(s))
	return keySpaceRegex.ReplaceAllString(s, " ")
}

// promoteHeaders rewrites heading-like lines as #-prefixed Markdown
// headers with a setext underline row for levels 1 and 2. Lines already
// carrying a # prefix and existing underline rows pass through
// untouched, which keeps the pass idempotent.
func (n *Normalizer) promoteHeaders(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines)+8)
	sawContent := false

	for i, line := range lines {
		stripped := strings.TrimSpace(line)
		if stripped == "" || strings.HasPrefix(stripped, "#") || underlineRowRegex.MatchString(stripped) {
			out = append(out, line)
			sawContent = sawContent || stripped != ""
			continue
		}
		// A line with its own underline row is a setext header already.
		if i+1 < len(lines) && underlineRowRegex.MatchString(strings.TrimSpace(lines[i+1])) {
			out = append(out, line)
			sawContent = true
			continue
		}

		level := 0
		if lvl, ok := n.evidence[headingKey(stripped)]; ok {
			level = lvl
		} else if heuristicHeader(lines, i, stripped) {
			if i < 3 && !sawContent {
				level = 1
			} else {
				level = 2
			}
		}

		if level == 0 {
			out = append(out, line)
			sawContent = true
			continue
		}

		if last := lastLine(out); last != "" && !isHeaderLine(last) {
			out = append(out, "")
		}
		out = append(out, strings.Repeat("#", level)+" "+stripped)
		width := utf8.RuneCountInString(stripped)
		switch level {
		case 1:
			out = append(out, strings.Repeat("=", width))
		case 2:
			out = append(out, strings.Repeat("-", width))
		}
		sawContent = true
	}

	return strings.Join(out, "\n")
}

// heuristicHeader reports whether the line at index i reads as a
// heading: short, no terminal punctuation, not a sentence continuation,
// and followed by something prose-like.
func heuristicHeader(lines []string, i int, stripped string) bool {
	width := utf8.RuneCountInString(stripped)
	if width <= headerMinRunes || width >= headerMaxRunes {
		return false
	}
	for _, p := range headerTerminalPunct {
		if strings.HasSuffix(stripped, p) {
			return false
		}
	}
	for _, p := range headerStopPrefixes {
		if strings.HasPrefix(stripped, p) {
			return false
		}
	}
	return nextLineLooksLikeProse(lines, i)
}

// nextLineLooksLikeProse checks up to two lines ahead; the first
// non-empty one decides.
func nextLineLooksLikeProse(lines []string, i int) bool {
	for j := i + 1; j < len(lines) && j <= i+2; j++ {
		next := strings.TrimSpace(lines[j])
		if next == "" {
			continue
		}
		if utf8.RuneCountInString(next) > contentMinRunes {
			return true
		}
		for _, p := range []string{".", "!", "?", ":", ";"} {
			if strings.HasSuffix(next, p) {
				return true
			}
		}
		for _, p := range contentStartPrefixes {
			if strings.HasPrefix(next, p) {
				return true
			}
		}
		return false
	}
	return false
}

func isHeaderLine(s string) bool {
	return strings.HasPrefix(s, "#") || underlineRowRegex.MatchString(s)
}

func lastLine(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.TrimSpace(lines[len(lines)-1])
}
