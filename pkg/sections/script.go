package sections

import (
	"html"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"
)

// fromInlineScript reads a value out of a JSON object assigned to a
// variable in an inline script. The path's first component names the
// variable and the rest descends into the object: "PAGE_DATA.article.title"
// finds var PAGE_DATA = {...} and returns article.title as plain text.
func fromInlineScript(doc *goquery.Document, path string) string {
	varName, keyPath, ok := strings.Cut(path, ".")
	if !ok || varName == "" || keyPath == "" {
		return ""
	}
	assign, err := regexp.Compile(`(?:var\s+|let\s+|const\s+|window\.)` + regexp.QuoteMeta(varName) + `\s*=\s*\{`)
	if err != nil {
		return ""
	}

	var found string
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := s.Text()
		loc := assign.FindStringIndex(text)
		if loc == nil {
			return true
		}
		blob, ok := jsonObjectAt(text, loc[1]-1)
		if !ok {
			return true
		}
		value := gjson.Get(blob, keyPath)
		if !value.Exists() {
			return true
		}
		found = plainText(value.String())
		return false
	})
	return found
}

// jsonObjectAt returns the balanced JSON object starting at the opening
// brace at index start, skipping braces inside string literals.
func jsonObjectAt(s string, start int) (string, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

var tagRegex = regexp.MustCompile(`<[^>]*>`)

// plainText unescapes HTML entities and strips embedded markup from a
// value pulled out of page JSON.
func plainText(s string) string {
	s = html.UnescapeString(s)
	s = tagRegex.ReplaceAllString(s, " ")
	return collapseWhitespace(s)
}
