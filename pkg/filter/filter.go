// Package filter decides which URLs are worth fetching and extracting.
//
// News sites expose far more non-article pages than articles: shopping
// guides, tag indexes, legal boilerplate, feeds. The filter runs a fixed
// sequence of cheap checks over the URL alone, in order: universal and
// language-specific skip substrings, the site's own additional patterns,
// a numeric article-ID requirement, category page shapes, and non-article
// file extensions. URLs that cannot be parsed are skipped outright.
package filter

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/jmylchreest/gazeta/pkg/rules"
)

// universalSkipPatterns are substring matches against the decoded,
// lowercased path plus query. The "common" set applies everywhere; the
// language sets are added based on the domain's TLD.
var universalSkipPatterns = map[string][]string{
	"common": {
		// Shopping and commerce
		"/shop", "/store", "/buy", "/product", "/cart", "/purchase",
		"/guide", "/test", "/review", "/comparison", "/best-",

		// Navigation and system pages
		"/faq", "/help", "/about", "/contact", "/legal", "/terms",
		"/privacy", "/sitemap", "/search", "/404", "/error",
		"/login", "/register", "/account", "/profile", "/dashboard",

		// Media and technical
		"/rss", "/feed", "/xml", "/api/", "/embed/", "/iframe",
		"/widget/", "/app/", "/mobile/", "/newsletter/", "/podcast",

		// Advertising and tracking
		"?utm_", "?ref=", "?source=", "?campaign=", "?fbclid=",
		"?origin=", "?lmd_", "?tracking=", "?affiliate=", "#",

		// Archives and categories
		"/archive", "/category", "/categories", "/tag/", "/tags/",
		"/author/", "/date/", "/year/", "/month/", "/section/",

		// Social and alternate renderings
		"/social", "/share", "/print", "/pdf", "/download",
	},
	"french": {
		"/guides-d-achat/", "/guide-achat/", "/comparatif/",
		"/boutique/", "/abonnement/", "/subscription/",
		"/mentions-legales/", "/politique-confidentialite/",
		"/cgu/", "/conditions-utilisation/",
		"/services/", "/partenaires/", "/publicite/",
		"/applications-groupe/", "/annonces-legales/",
	},
	"romanian": {
		"/ghid-", "/ghiduri/", "/test-", "/recenzie-", "/review-",
		"/anunturi/", "/reclame/", "/publicitate/",
		"/contact", "/despre-noi", "/despre/",
		"/politica-", "/termeni-", "/conditii/",
		"/abonament/", "/newsletter/", "/servicii/",
	},
	"english": {
		"/guides/", "/guide/", "/reviews/", "/deals/", "/offers/",
		"/shop/", "/store/", "/buy/", "/subscription/",
		"/about-us/", "/contact-us/", "/privacy-policy/",
		"/terms-of-service/", "/advertise/", "/jobs/",
	},
}

// articleIDPatterns match the numeric ID shapes used by the supported
// sites. The digit thresholds keep date fragments from counting as IDs.
var articleIDPatterns = []string{
	`[-_](\d{6,})[_-]`,  // title_6632905_3232
	`/(\d{6,})\.html`,   // /123456.html
	`/(\d{6,})/`,        // /123456/
	`/article/(\d+)/`,   // /article/123456/
	`/news/(\d+)`,       // /news/123456
	`/story/(\d+)`,      // /story/123456
	`-a(\d+)\.html`,     // -a123456.html
	`/(\d+)-[a-z]`,      // /123456-title-here
	`article-(\d+)`,     // article-123456
	`/stire-(\d+)`,      // /stire-123456
	`/articol-(\d+)`,    // /articol-123456
	`[-/](\d{7,})$`,     // trailing 7+ digit ID
	`-(\d{6,})$`,        // trailing 6+ digits after hyphen
	`/(\d{6,})$`,        // trailing 6+ digits after slash
	`-(\d{5,})$`,        // trailing 5+ digits after hyphen
	`/(\d{5,})$`,        // trailing 5+ digits after slash
}

// categoryPagePatterns match section and tag index paths, which carry no
// article of their own.
var categoryPagePatterns = []string{
	`^/[a-z-]+/?$`,
	`^/[a-z-]+\.html?$`,
	`^/section/[a-z-]+/?$`,
	`^/category/[a-z-]+/?$`,
	`^/tag/[a-z-]+/?$`,
}

var skipExtensions = []string{
	".xml", ".rss", ".pdf", ".zip", ".doc", ".docx",
	".xls", ".xlsx", ".ppt", ".pptx", ".json",
}

// Filter holds the compiled URL checks. One Filter serves all domains.
type Filter struct {
	idPatterns []*regexp.Regexp
	categories []*regexp.Regexp
}

// New compiles the built-in pattern banks.
func New() *Filter {
	f := &Filter{}
	for _, p := range articleIDPatterns {
		f.idPatterns = append(f.idPatterns, regexp.MustCompile(p))
	}
	for _, p := range categoryPagePatterns {
		f.categories = append(f.categories, regexp.MustCompile("(?i)"+p))
	}
	return f
}

// ShouldSkip reports whether the URL should be skipped, and why. The
// decision depends only on the URL and the site rules, never on fetched
// content, so it is safe to run over large link lists.
func (f *Filter) ShouldSkip(rawURL string, siteRules *rules.Rules) (bool, string) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return true, fmt.Sprintf("error parsing URL: %v", err)
	}
	domain := strings.ToLower(parsed.Host)
	path := strings.ToLower(parsed.Path)
	query := strings.ToLower(parsed.RawQuery)
	fullURL := path
	if query != "" {
		fullURL = path + "?" + query
	}

	for _, set := range [][]string{universalSkipPatterns["common"], universalSkipPatterns[languageKey(domain)]} {
		for _, p := range set {
			if strings.Contains(fullURL, p) {
				return true, "matches skip pattern: " + p
			}
		}
	}

	if siteRules != nil {
		cf := siteRules.ContentFilters
		for _, p := range cf.AdditionalSkipPatterns {
			if strings.Contains(fullURL, p) {
				return true, "matches domain-specific pattern: " + p
			}
		}
		if cf.RequireArticleID && !cf.AllowNoIDPages {
			if !f.HasArticleID(rawURL) && !matchesSitePattern(rawURL, cf.ArticleIDPattern) {
				return true, "no article ID found"
			}
		}
	}

	if f.isCategoryPage(path) {
		return true, "appears to be category page"
	}

	for _, ext := range skipExtensions {
		if strings.HasSuffix(path, ext) {
			return true, "file extension " + ext
		}
	}

	return false, "passed all filters"
}

// HasArticleID reports whether the URL carries a numeric article ID in
// any of the built-in shapes.
func (f *Filter) HasArticleID(url string) bool {
	for _, re := range f.idPatterns {
		if re.MatchString(url) {
			return true
		}
	}
	return false
}

// ExtractArticleID returns the first article ID found in the URL, or ""
// when none matches.
func (f *Filter) ExtractArticleID(url string) string {
	for _, re := range f.idPatterns {
		if m := re.FindStringSubmatch(url); m != nil {
			return m[1]
		}
	}
	return ""
}

// matchesSitePattern checks a site's own article_id_pattern. The pattern
// was compiled during rules validation, so a compile error here means no
// pattern rather than a failure.
func matchesSitePattern(url, pattern string) bool {
	if pattern == "" {
		return false
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(url)
}

func (f *Filter) isCategoryPage(path string) bool {
	for _, re := range f.categories {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}

func languageKey(domain string) string {
	switch {
	case strings.HasSuffix(domain, ".ro"):
		return "romanian"
	case strings.HasSuffix(domain, ".fr"):
		return "french"
	case strings.HasSuffix(domain, ".com"),
		strings.HasSuffix(domain, ".org"),
		strings.HasSuffix(domain, ".net"),
		strings.HasSuffix(domain, ".uk"),
		strings.HasSuffix(domain, ".us"):
		return "english"
	}
	return ""
}

// SkippedURL records one filtered-out URL and the check that caught it.
type SkippedURL struct {
	URL    string
	Reason string
}

// FilterURLs splits urls into those worth processing and those skipped.
func (f *Filter) FilterURLs(urls []string, siteRules *rules.Rules) (kept []string, skipped []SkippedURL) {
	for _, u := range urls {
		if skip, reason := f.ShouldSkip(u, siteRules); skip {
			skipped = append(skipped, SkippedURL{URL: u, Reason: reason})
		} else {
			kept = append(kept, u)
		}
	}
	return kept, skipped
}

// SkipStats aggregates skip reasons for reporting.
func SkipStats(skipped []SkippedURL) map[string]int {
	stats := make(map[string]int, len(skipped))
	for _, s := range skipped {
		stats[s.Reason]++
	}
	return stats
}
