// Package textclean strips paywall notices, navigation stubs, social
// prompts, and other boilerplate lines from extracted article text.
//
// Cleaning is line oriented. Each non-blank line is tested against the
// pattern bank for the document's language plus a universal bank, and is
// dropped on any match. Subscription-wall patterns are terminal: once one
// matches, the rest of the document is teaser or paywall chrome and is
// cut. Blank lines pass through so paragraph structure survives.
package textclean

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Language selects a pattern bank.
type Language string

const (
	LanguageEnglish  Language = "english"
	LanguageFrench   Language = "french"
	LanguageRomanian Language = "romanian"
)

// ParseLanguage maps the language spellings found in site rule files
// ("fr", "french", ...) onto a Language.
func ParseLanguage(s string) (Language, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "en", "eng", "english":
		return LanguageEnglish, true
	case "fr", "fra", "french":
		return LanguageFrench, true
	case "ro", "ron", "romanian":
		return LanguageRomanian, true
	}
	return "", false
}

// Cleaner drops boilerplate lines from article text using per-language
// and universal pattern banks.
type Cleaner struct {
	banks     map[Language]*bank
	universal []*regexp.Regexp
}

// New builds a Cleaner from the embedded default pattern banks.
func New() (*Cleaner, error) {
	return loadPatterns(defaultPatterns)
}

// NewFromFile builds a Cleaner from a YAML pattern file, for sites whose
// boilerplate the default banks miss.
func NewFromFile(path string) (*Cleaner, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading pattern file: %w", err)
	}
	return loadPatterns(data)
}

// Options control a single Clean call.
type Options struct {
	// Language forces the pattern bank. When empty the language is
	// detected from the domain and the text. A language with no bank
	// falls back to the universal patterns alone.
	Language Language

	// Domain is the source site, used for language detection.
	Domain string

	// KeepPaywalled disables the terminal subscription-wall check, so
	// wall notices flow through like ordinary lines.
	KeepPaywalled bool
}

// Result carries the cleaned text and what happened on the way.
type Result struct {
	Text     string
	Language Language

	// PaywallHit reports that a subscription-wall line ended the
	// document early. PaywallLine holds the start of that line.
	PaywallHit  bool
	PaywallLine string

	// LinesIn and LinesOut count non-blank lines before and after.
	LinesIn  int
	LinesOut int
}

// paywallLineSample bounds how much of the matched wall line is kept on
// the Result for logging.
const paywallLineSample = 100

// Clean runs the line filter over text.
func (c *Cleaner) Clean(text string, opts Options) Result {
	lang := opts.Language
	if lang == "" {
		lang = DetectLanguage(text, opts.Domain)
	}
	res := Result{Language: lang}
	b := c.banks[lang]

	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			kept = append(kept, "")
			continue
		}
		res.LinesIn++
		if !opts.KeepPaywalled && b.wallMatch(line) {
			res.PaywallHit = true
			res.PaywallLine = truncateRunes(line, paywallLineSample)
			break
		}
		if b.dropMatch(line) || c.universalMatch(line) {
			continue
		}
		kept = append(kept, line)
	}

	res.Text = postProcess(strings.Join(kept, "\n"))
	for _, line := range strings.Split(res.Text, "\n") {
		if line != "" {
			res.LinesOut++
		}
	}
	return res
}

func (c *Cleaner) universalMatch(line string) bool {
	for _, re := range c.universal {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

var (
	blankRunRegex   = regexp.MustCompile(`\n{3,}`)
	spaceRunRegex   = regexp.MustCompile(`[ \t]+`)
	trailingWSRegex = regexp.MustCompile(` +\n`)
)

// postProcess tidies the joined output: blank runs collapse to a single
// empty line, space runs to one space, and non-blank fragments of three
// runes or fewer are dropped.
func postProcess(text string) string {
	text = blankRunRegex.ReplaceAllString(text, "\n\n")
	text = spaceRunRegex.ReplaceAllString(text, " ")
	text = trailingWSRegex.ReplaceAllString(text, "\n")

	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || utf8.RuneCountInString(line) > 3 {
			kept = append(kept, line)
		}
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
