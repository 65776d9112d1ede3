// Package discover harvests article links for configured news sites
// and appends the new ones to the monthly link logs under
// logs/<period>/<domain>.csv, where the fetch stage picks them up.
// Candidates come from the site homepage and, when enabled, its
// RSS/Atom feeds; every link passes the content filter before it is
// queued, so the logs stay close to article-only.
package discover

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/jmylchreest/gazeta/internal/logger"
	"github.com/jmylchreest/gazeta/pkg/fetcher"
	"github.com/jmylchreest/gazeta/pkg/filter"
	"github.com/jmylchreest/gazeta/pkg/rules"
)

// Source is one site to discover links on.
type Source struct {
	URL     string
	City    string
	Country string
}

// Config holds discovery run settings.
type Config struct {
	// LogsDir is the root of the period-partitioned link logs.
	LogsDir string

	// RulesDir holds per-domain rules consulted for filter settings.
	RulesDir string

	// CacheDir caches homepage HTML between runs. Empty disables the
	// cache, so every run sees the live front page.
	CacheDir string

	// Feeds also harvests the site's RSS/Atom feeds.
	Feeds bool

	// Fetcher performs the page loads. Defaults to the static fetcher.
	Fetcher fetcher.Fetcher
}

// DefaultConfig returns the settings used when flags leave them unset.
func DefaultConfig() Config {
	return Config{Feeds: true}
}

// Stats counts discovery run outcomes.
type Stats struct {
	Domains       int `json:"domains"`
	LinksFound    int `json:"links_found"`
	FeedLinks     int `json:"feed_links"`
	NewLinks      int `json:"new_links"`
	KnownLinks    int `json:"known_links"`
	FilteredLinks int `json:"filtered_links"`
}

// Runner drives one discovery run over a list of sources.
type Runner struct {
	cfg    Config
	rules  rules.Set
	filter *filter.Filter
	stats  Stats
}

// New validates cfg and assembles a Runner.
func New(cfg Config) (*Runner, error) {
	if cfg.LogsDir == "" {
		return nil, errors.New("logs directory is required")
	}
	if cfg.Fetcher == nil {
		cfg.Fetcher = fetcher.NewStatic(fetcher.DefaultStaticConfig())
	}

	set := rules.Set{}
	if cfg.RulesDir != "" {
		var err error
		set, err = rules.LoadDir(cfg.RulesDir)
		if err != nil {
			return nil, fmt.Errorf("loading domain rules: %w", err)
		}
	}

	return &Runner{cfg: cfg, rules: set, filter: filter.New()}, nil
}

// LoadSources reads the websites CSV: a header row, then one site per
// row as homepage-url,city,country. City and country are optional.
func LoadSources(path string) ([]Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening sources file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading sources file: %w", err)
	}

	var sources []Source
	for i, row := range rows {
		if i == 0 || len(row) == 0 {
			continue
		}
		s := Source{URL: strings.TrimSpace(row[0])}
		if s.URL == "" {
			continue
		}
		if len(row) > 1 {
			s.City = strings.TrimSpace(row[1])
		}
		if len(row) > 2 {
			s.Country = strings.TrimSpace(row[2])
		}
		sources = append(sources, s)
	}
	return sources, nil
}

// Run discovers links for every source and returns the run counters.
// Cancellation is honored between sources.
func (r *Runner) Run(ctx context.Context, sources []Source) (*Stats, error) {
	start := time.Now()
	r.stats = Stats{}

	if len(sources) == 0 {
		logger.Info("no sources to discover")
		return &r.stats, nil
	}
	logger.Info("discovery run starting", "sources", len(sources), "feeds", r.cfg.Feeds)

	var cancelled error
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			cancelled = err
			break
		}
		if err := r.processSource(ctx, src); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				cancelled = err
				break
			}
			logger.Error("source failed", "url", src.URL, "error", err)
		}
	}

	logger.Info("discovery run finished",
		"domains", r.stats.Domains,
		"found", r.stats.LinksFound,
		"new", r.stats.NewLinks,
		"known", r.stats.KnownLinks,
		"filtered", r.stats.FilteredLinks,
		"elapsed", time.Since(start).Round(10*time.Millisecond))
	return &r.stats, cancelled
}

// processSource harvests one site and appends its new links.
func (r *Runner) processSource(ctx context.Context, src Source) error {
	u, err := url.Parse(src.URL)
	if err != nil || u.Host == "" {
		return fmt.Errorf("invalid source URL %q", src.URL)
	}
	domain := u.Host
	logger.Info("discovering", "url", src.URL, "city", src.City, "country", src.Country)

	html, links, err := r.homepage(ctx, src.URL, domain)
	if err != nil {
		return err
	}

	candidates := samePaths(links, domain)
	if r.cfg.Feeds {
		feedPaths := samePaths(r.feedLinks(ctx, src.URL, domain, html), domain)
		r.stats.FeedLinks += len(feedPaths)
		candidates = union(candidates, feedPaths)
	}
	r.stats.Domains++
	r.stats.LinksFound += len(candidates)

	siteRules, _ := r.rules.ForDomain(domain)
	var kept []string
	for _, p := range candidates {
		full := "https://" + domain + p
		if skip, reason := r.filter.ShouldSkip(full, siteRules); skip {
			r.stats.FilteredLinks++
			logger.Debug("filtered", "url", full, "reason", reason)
			continue
		}
		kept = append(kept, p)
	}

	csvPath, err := r.linkLogPath(domain)
	if err != nil {
		return err
	}
	existing, err := loadExisting(csvPath)
	if err != nil {
		return err
	}

	var fresh []string
	for _, p := range kept {
		if existing[p] {
			r.stats.KnownLinks++
			continue
		}
		fresh = append(fresh, p)
	}
	if err := appendLinks(csvPath, fresh); err != nil {
		return fmt.Errorf("writing link log: %w", err)
	}
	r.stats.NewLinks += len(fresh)

	logger.Info("links discovered",
		"domain", domain,
		"found", len(candidates),
		"new", len(fresh),
		"known", len(kept)-len(fresh),
		"log", csvPath)
	return nil
}

// homepage returns the site's front page HTML and its harvested links,
// via the cache when one is configured.
func (r *Runner) homepage(ctx context.Context, pageURL, domain string) (string, []string, error) {
	var cachePath string
	if r.cfg.CacheDir != "" {
		cachePath = filepath.Join(r.cfg.CacheDir, strings.ReplaceAll(domain, ".", "_")+".html")
		if data, err := os.ReadFile(cachePath); err == nil {
			logger.Debug("homepage from cache", "domain", domain, "file", cachePath)
			links, err := extractLinks(string(data), pageURL)
			if err != nil {
				return "", nil, err
			}
			return string(data), links, nil
		}
	}

	content, err := r.cfg.Fetcher.Fetch(ctx, pageURL, fetcher.Options{})
	if err != nil {
		return "", nil, fmt.Errorf("fetching homepage: %w", err)
	}

	if cachePath != "" {
		if err := os.MkdirAll(r.cfg.CacheDir, 0o755); err != nil {
			logger.Warn("creating cache dir", "dir", r.cfg.CacheDir, "error", err)
		} else if err := os.WriteFile(cachePath, []byte(content.HTML), 0o644); err != nil {
			logger.Warn("caching homepage", "file", cachePath, "error", err)
		}
	}
	return content.HTML, content.Links, nil
}

// extractLinks pulls every anchor href out of cached HTML, resolved
// against the page URL the cache was taken from.
func extractLinks(html, pageURL string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing cached homepage: %w", err)
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, err
	}

	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || href == "" || strings.HasPrefix(href, "#") {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		links = append(links, base.ResolveReference(ref).String())
	})
	return links, nil
}

// samePaths keeps the links on domain and reduces them to the
// path[?query][#fragment] form the link logs store, sorted and unique.
func samePaths(links []string, domain string) []string {
	seen := map[string]bool{}
	for _, link := range links {
		u, err := url.Parse(link)
		if err != nil || u.Host != domain {
			continue
		}
		p := u.Path
		if u.RawQuery != "" {
			p += "?" + u.RawQuery
		}
		if u.Fragment != "" {
			p += "#" + u.Fragment
		}
		if p == "" {
			continue
		}
		seen[p] = true
	}

	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func union(a, b []string) []string {
	seen := map[string]bool{}
	for _, s := range a {
		seen[s] = true
	}
	for _, s := range b {
		seen[s] = true
	}

	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// linkLogPath returns the domain's CSV for the current period,
// creating the period directory.
func (r *Runner) linkLogPath(domain string) (string, error) {
	dir := filepath.Join(r.cfg.LogsDir, time.Now().Format("2006-01"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating log dir: %w", err)
	}
	return filepath.Join(dir, domain+".csv"), nil
}

// loadExisting reads the paths already logged so re-runs only append.
func loadExisting(path string) (map[string]bool, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]bool{}, nil
		}
		return nil, fmt.Errorf("reading link log: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading link log: %w", err)
	}

	existing := map[string]bool{}
	for _, row := range rows {
		if len(row) >= 2 {
			existing[row[1]] = true
		}
	}
	return existing, nil
}

// linkLogTimeLayout matches the timestamp format already present in
// the link logs. The month and day run together.
const linkLogTimeLayout = "2006-0102: 15:04"

// appendLinks appends one timestamped row per link.
func appendLinks(path string, links []string) error {
	if len(links) == 0 {
		return nil
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	stamp := time.Now().Format(linkLogTimeLayout)
	w := csv.NewWriter(f)
	for _, link := range links {
		if err := w.Write([]string{stamp, link}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
