package sections

import (
	"net/url"
	"path"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jmylchreest/gazeta/pkg/textclean"
)

// smallWords stay lowercase when a slug is promoted to a title, except
// in first position.
var smallWords = map[textclean.Language]map[string]bool{
	textclean.LanguageFrench: {
		"le": true, "la": true, "les": true, "l": true, "de": true,
		"du": true, "des": true, "d": true, "un": true, "une": true,
		"et": true, "à": true, "au": true, "aux": true, "en": true,
		"sur": true, "dans": true, "pour": true, "par": true,
	},
	textclean.LanguageRomanian: {
		"de": true, "la": true, "cu": true, "în": true, "și": true,
		"pe": true, "un": true, "o": true, "din": true, "al": true,
		"ale": true, "a": true, "sau": true, "pentru": true,
	},
	textclean.LanguageEnglish: {
		"the": true, "a": true, "an": true, "of": true, "in": true,
		"on": true, "at": true, "to": true, "and": true, "or": true,
		"for": true, "with": true,
	},
}

var trailingIDRegex = regexp.MustCompile(`[-_]\d{4,}$`)

// TitleFromSlug derives a display title from the last URL path segment,
// for pages that expose no usable title element. Hyphens and
// underscores split words; the first word and every non-function word
// is capitalized for the page language; trailing numeric article IDs
// are dropped. The result depends only on the URL and language.
func TitleFromSlug(pageURL string, lang textclean.Language) string {
	slug := lastSegment(pageURL)
	if slug == "" || slug == "index" {
		return ""
	}
	for {
		trimmed := trailingIDRegex.ReplaceAllString(slug, "")
		if trimmed == slug {
			break
		}
		slug = trimmed
	}

	words := strings.FieldsFunc(slug, func(r rune) bool { return r == '-' || r == '_' })
	if len(words) == 0 {
		return ""
	}

	small := smallWords[lang]
	caser := cases.Title(titleTag(lang))
	out := make([]string, 0, len(words))
	for i, w := range words {
		w = strings.ToLower(w)
		if i > 0 && small[w] {
			out = append(out, w)
			continue
		}
		out = append(out, caser.String(w))
	}
	return strings.Join(out, " ")
}

func lastSegment(pageURL string) string {
	p := pageURL
	if u, err := url.Parse(pageURL); err == nil && u.Path != "" {
		p = u.Path
	}
	seg := path.Base(strings.TrimSuffix(p, "/"))
	seg = strings.TrimSuffix(seg, ".html")
	seg = strings.TrimSuffix(seg, ".htm")
	if seg == "." || seg == "/" {
		return ""
	}
	return seg
}

func titleTag(lang textclean.Language) language.Tag {
	switch lang {
	case textclean.LanguageFrench:
		return language.French
	case textclean.LanguageRomanian:
		return language.Romanian
	default:
		return language.English
	}
}
