package discover

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/jmylchreest/gazeta/internal/logger"
	"github.com/jmylchreest/gazeta/pkg/fetcher"
)

// commonFeedPaths are probed, in order, when the homepage advertises
// no feed. Probing stops at the first path that parses; the rest are
// usually aliases of the same feed.
var commonFeedPaths = []string{
	"/feed",
	"/rss",
	"/feed.xml",
	"/rss.xml",
	"/atom.xml",
	"/index.xml",
}

// feedLinks collects article URLs from the site's RSS/Atom feeds.
// Feed trouble is never fatal to discovery; the homepage harvest
// already succeeded.
func (r *Runner) feedLinks(ctx context.Context, pageURL, domain, html string) []string {
	feeds := feedURLs(html, pageURL)
	probing := false
	if len(feeds) == 0 {
		probing = true
		feeds = commonFeedURLs(pageURL)
	}

	parser := gofeed.NewParser()
	var links []string
	for _, feedURL := range feeds {
		if ctx.Err() != nil {
			break
		}

		content, err := r.cfg.Fetcher.Fetch(ctx, feedURL, fetcher.Options{})
		if err != nil {
			logger.Debug("feed fetch failed", "url", feedURL, "error", err)
			continue
		}
		parsed, err := parser.ParseString(content.HTML)
		if err != nil {
			logger.Debug("feed parse failed", "url", feedURL, "error", err)
			continue
		}

		count := 0
		for _, item := range parsed.Items {
			link := item.Link
			if link == "" && strings.HasPrefix(item.GUID, "http") {
				link = item.GUID
			}
			if link == "" {
				continue
			}
			links = append(links, link)
			count++
		}
		logger.Debug("feed parsed", "url", feedURL, "title", parsed.Title, "items", count)

		if probing {
			break
		}
	}
	return links
}

// feedURLs finds the feeds the page advertises through alternate
// link tags.
func feedURLs(html, pageURL string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}

	var out []string
	doc.Find(`link[rel="alternate"]`).Each(func(_ int, s *goquery.Selection) {
		typ, _ := s.Attr("type")
		if !strings.Contains(typ, "rss+xml") && !strings.Contains(typ, "atom+xml") {
			return
		}
		href, ok := s.Attr("href")
		if !ok || href == "" {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		out = append(out, base.ResolveReference(ref).String())
	})
	return out
}

func commonFeedURLs(pageURL string) []string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(commonFeedPaths))
	for _, p := range commonFeedPaths {
		out = append(out, base.Scheme+"://"+base.Host+p)
	}
	return out
}
