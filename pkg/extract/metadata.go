package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
)

// Selector lists mirror the slots news CMSes actually populate. Meta
// tags win over visible elements because light cleaning leaves them
// untouched; the visible fallbacks carry the heuristic backend, whose
// aggressive input has no head metadata left.
var (
	metaTitleSelectors = []string{
		`meta[property="og:title"]`,
		`meta[name="twitter:title"]`,
		`meta[name="title"]`,
	}
	metaAuthorSelectors = []string{
		`meta[name="author"]`,
		`meta[property="article:author"]`,
	}
	metaDateSelectors = []string{
		`meta[property="article:published_time"]`,
		`meta[name="date"]`,
		`meta[name="publish-date"]`,
		`meta[name="DC.date.issued"]`,
	}
)

const (
	bylineSelector      = `.author, .byline, .by-author, [rel="author"], [class*="author"]`
	visibleDateSelector = `time, .date, .post-date, .published, [class*="date"]`
)

// harvestMetadata pulls title, author, and date from a parsed document.
func harvestMetadata(doc *goquery.Document) Metadata {
	md := Metadata{}

	for _, sel := range metaTitleSelectors {
		if v := metaContent(doc, sel); v != "" {
			md.Title = v
			break
		}
	}
	if md.Title == "" {
		if t := collapseSpaces(doc.Find("h1").First().Text()); t != "" {
			md.Title = t
		} else if t := collapseSpaces(doc.Find("title").First().Text()); t != "" {
			md.Title = t
		}
	}

	for _, sel := range metaAuthorSelectors {
		if v := metaContent(doc, sel); v != "" {
			md.Author = v
			break
		}
	}
	if md.Author == "" {
		md.Author = trimBylinePrefix(collapseSpaces(doc.Find(bylineSelector).First().Text()))
	}

	for _, sel := range metaDateSelectors {
		if v := metaContent(doc, sel); v != "" {
			md.Date = normalizeDate(v)
			break
		}
	}
	if md.Date == "" {
		dateEl := doc.Find(visibleDateSelector).First()
		if v, ok := dateEl.Attr("datetime"); ok && strings.TrimSpace(v) != "" {
			md.Date = normalizeDate(v)
		} else if v := collapseSpaces(dateEl.Text()); v != "" {
			md.Date = normalizeDate(v)
		}
	}

	return md
}

func metaContent(doc *goquery.Document, selector string) string {
	v, _ := doc.Find(selector).First().Attr("content")
	return strings.TrimSpace(v)
}

// trimBylinePrefix drops the lead-in word bylines carry in the corpus
// languages ("By Jane Doe", "De Ion Popescu", "Par Anne Martin").
func trimBylinePrefix(byline string) string {
	for _, prefix := range []string{"by ", "de ", "par ", "von "} {
		if len(byline) > len(prefix) && strings.EqualFold(byline[:len(prefix)], prefix) {
			return strings.TrimSpace(byline[len(prefix):])
		}
	}
	return byline
}

// normalizeDate renders recognizable date strings as YYYY-MM-DD and
// passes everything else through untouched.
func normalizeDate(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	t, err := dateparse.ParseAny(raw)
	if err != nil {
		return raw
	}
	return t.Format("2006-01-02")
}
