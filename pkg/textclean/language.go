package textclean

import (
	"strings"
	"unicode/utf8"

	"github.com/RadhiFadlillah/whatlanggo"
)

// sniffMinRunes gates the trigram detector: below this the sample is too
// small for a reliable call and the stop-word check decides instead.
const sniffMinRunes = 120

var domainLanguages = map[string]Language{
	".ro":  LanguageRomanian,
	".fr":  LanguageFrench,
	".com": LanguageEnglish,
	".org": LanguageEnglish,
	".net": LanguageEnglish,
	".uk":  LanguageEnglish,
	".us":  LanguageEnglish,
}

// stopWords are checked as whole tokens, not substrings, so short words
// like "cu" do not fire inside unrelated English text.
var stopWords = map[Language][]string{
	LanguageRomanian: {"și", "cu", "pentru", "este", "sunt", "într-un", "într-o"},
	LanguageFrench:   {"avec", "pour", "dans", "cette", "vous", "nous", "être"},
}

// DetectLanguage picks the pattern bank for a document. The domain TLD
// decides when it maps cleanly; otherwise the text is sniffed, first with
// the trigram detector and then with per-language stop words. English is
// the fallback.
func DetectLanguage(text, domain string) Language {
	for suffix, lang := range domainLanguages {
		if strings.HasSuffix(domain, suffix) {
			return lang
		}
	}
	if lang, ok := sniffLanguage(text); ok {
		return lang
	}
	if lang, ok := stopWordLanguage(text); ok {
		return lang
	}
	return LanguageEnglish
}

func sniffLanguage(text string) (Language, bool) {
	if utf8.RuneCountInString(text) < sniffMinRunes {
		return "", false
	}
	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return "", false
	}
	switch info.Lang {
	case whatlanggo.Ron:
		return LanguageRomanian, true
	case whatlanggo.Fra:
		return LanguageFrench, true
	case whatlanggo.Eng:
		return LanguageEnglish, true
	}
	return "", false
}

func stopWordLanguage(text string) (Language, bool) {
	tokens := tokenize(text)
	for _, lang := range []Language{LanguageRomanian, LanguageFrench} {
		for _, word := range stopWords[lang] {
			if tokens[word] {
				return lang, true
			}
		}
	}
	return "", false
}

func tokenize(text string) map[string]bool {
	tokens := make(map[string]bool)
	for _, field := range strings.Fields(strings.ToLower(text)) {
		field = strings.Trim(field, ".,;:!?\"'()[]«»„”“’")
		if field != "" {
			tokens[field] = true
		}
	}
	return tokens
}
