// Package sections extracts configured content blocks, such as title,
// subtitle, or author lines, from a page and renders them as Markdown
// to prepend to the article body.
//
// What to extract and how to format it comes from the domain's rules
// file (custom_content_sections). Each section tries its CSS selectors
// in order, taking the first match with more than three characters of
// text, then its fallback selectors; a title section with no match at
// all falls back to deriving a title from the URL slug. A selector may
// instead address a JSON object assigned in an inline script using the
// "js:" prefix.
package sections

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/jmylchreest/gazeta/pkg/rules"
	"github.com/jmylchreest/gazeta/pkg/textclean"
)

// minSectionRunes is the shortest selector match treated as real
// content; anything at or below it falls through to the next selector.
const minSectionRunes = 3

// Block is one extracted, formatted section.
type Block struct {
	Name    string
	Content string // plain extracted text
	Text    string // Content with the section's format applied
	Order   int
}

// Extract runs the configured custom sections against the page HTML and
// returns the formatted blocks in configured order. A nil result means
// sections are disabled, unconfigured, or nothing matched.
func Extract(htmlContent, pageURL string, r *rules.Rules) []Block {
	if r == nil || !r.CustomSections.Enabled || len(r.CustomSections.Sections) == 0 {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil
	}
	opts := r.CustomSections.ProcessingOptions
	lang, _ := textclean.ParseLanguage(r.Language)

	ordered := make([]rules.Section, len(r.CustomSections.Sections))
	copy(ordered, r.CustomSections.Sections)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Order < ordered[j].Order })

	var blocks []Block
	for _, s := range ordered {
		content := firstMatch(doc, s.Selectors)
		if content == "" {
			content = firstMatch(doc, s.FallbackSelectors)
		}
		if content == "" && s.Name == "title" {
			content = TitleFromSlug(pageURL, lang)
		}

		content = cleanSection(content, s.CleanPatterns)
		if opts.TrimWhitespace {
			content = collapseWhitespace(content)
		}
		if max := s.EffectiveMaxLength(opts); max > 0 {
			content = truncateWords(content, max)
		}
		if content == "" && opts.RemoveEmptySections {
			continue
		}

		blocks = append(blocks, Block{
			Name:    s.Name,
			Content: content,
			Text:    s.Render(content),
			Order:   s.Order,
		})
	}
	return blocks
}

// Prepend joins rendered section blocks ahead of the body. When
// SkipDuplicates is set, a block whose content substantially duplicates
// the body (token overlap at or above the threshold) is dropped, so a
// title already present in the body is not repeated.
func Prepend(body string, blocks []Block, opts rules.ProcessingOptions) string {
	threshold := opts.DuplicateThreshold
	if threshold == 0 {
		threshold = 0.8
	}
	sep := opts.Separator
	if sep == "" {
		sep = "\n\n"
	}
	if !opts.AddSeparatorBetweenSections {
		sep = "\n"
	}

	var parts []string
	for _, b := range blocks {
		if opts.SkipDuplicates && overlapRatio(b.Content, body) >= threshold {
			continue
		}
		parts = append(parts, b.Text)
	}
	if len(parts) == 0 {
		return body
	}
	parts = append(parts, body)
	return strings.Join(parts, sep)
}

func firstMatch(doc *goquery.Document, selectors []string) string {
	for _, selector := range selectors {
		var text string
		if path, ok := strings.CutPrefix(selector, "js:"); ok {
			text = fromInlineScript(doc, path)
		} else {
			text = selectorText(doc, selector)
		}
		text = strings.TrimSpace(text)
		if utf8.RuneCountInString(text) > minSectionRunes {
			return text
		}
	}
	return ""
}

// selectorText returns the text of the first element the selector hits.
// Meta tags carry their value in the content attribute instead.
func selectorText(doc *goquery.Document, selector string) string {
	sel := doc.Find(selector).First()
	if sel.Length() == 0 {
		return ""
	}
	if goquery.NodeName(sel) == "meta" {
		content, _ := sel.Attr("content")
		return content
	}
	return sel.Text()
}

func cleanSection(content string, patterns []string) string {
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			continue
		}
		content = re.ReplaceAllString(content, "")
	}
	return strings.TrimSpace(content)
}

var wsRunRegex = regexp.MustCompile(`\s+`)

func collapseWhitespace(s string) string {
	return strings.TrimSpace(wsRunRegex.ReplaceAllString(s, " "))
}

// truncateWords shortens s to at most max runes, cutting at a word
// boundary and appending an ellipsis.
func truncateWords(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	cut := string([]rune(s)[:max])
	if i := strings.LastIndexAny(cut, " \t"); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,;:") + "..."
}

// overlapRatio measures how much of the smaller token set of a and b
// appears in the larger one.
func overlapRatio(a, b string) float64 {
	ta, tb := tokenSet(a), tokenSet(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	small, large := ta, tb
	if len(tb) < len(ta) {
		small, large = tb, ta
	}
	hits := 0
	for tok := range small {
		if large[tok] {
			hits++
		}
	}
	return float64(hits) / float64(len(small))
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, f := range strings.Fields(strings.ToLower(s)) {
		f = strings.Trim(f, ".,;:!?\"'()[]#*«»„”")
		if f != "" {
			set[f] = true
		}
	}
	return set
}
