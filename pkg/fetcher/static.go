package fetcher

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/jmylchreest/gazeta/internal/logger"
)

// DefaultUserAgent is a current desktop Chrome signature. News sites
// routinely serve degraded or blocked pages to unknown agents.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// StaticConfig configures the static fetcher.
type StaticConfig struct {
	UserAgent string
	Timeout   time.Duration
}

// DefaultStaticConfig returns the defaults used when fields are unset.
func DefaultStaticConfig() StaticConfig {
	return StaticConfig{
		UserAgent: DefaultUserAgent,
		Timeout:   30 * time.Second,
	}
}

// StaticFetcher downloads pages over plain HTTP with colly. It does
// not execute JavaScript, which is enough for most of the configured
// news sites.
type StaticFetcher struct {
	config StaticConfig
}

// NewStatic creates a static fetcher.
func NewStatic(cfg StaticConfig) *StaticFetcher {
	def := DefaultStaticConfig()
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = def.Timeout
	}
	return &StaticFetcher{config: cfg}
}

// Fetch downloads one page. Each call uses a fresh collector so
// per-request options never leak between fetches.
func (f *StaticFetcher) Fetch(ctx context.Context, pageURL string, opts Options) (Content, error) {
	if err := ctx.Err(); err != nil {
		return Content{URL: pageURL, FetchedAt: time.Now()}, err
	}

	result := Content{
		URL:       pageURL,
		FetchedAt: time.Now(),
	}

	c := colly.NewCollector(
		colly.UserAgent(coalesce(opts.UserAgent, f.config.UserAgent)),
	)

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = f.config.Timeout
	}
	c.SetRequestTimeout(timeout)

	if len(opts.Headers) > 0 {
		c.OnRequest(func(r *colly.Request) {
			for k, v := range opts.Headers {
				r.Headers.Set(k, v)
			}
		})
	}

	var fetchErr error
	c.OnResponse(func(r *colly.Response) {
		result.StatusCode = r.StatusCode
		result.ContentType = r.Headers.Get("Content-Type")
		result.HTML = string(r.Body)
	})
	c.OnError(func(r *colly.Response, err error) {
		if r != nil {
			result.StatusCode = r.StatusCode
		}
		fetchErr = fmt.Errorf("fetch error: %w", err)
	})
	c.OnHTML("title", func(e *colly.HTMLElement) {
		if result.Title == "" {
			result.Title = strings.Join(strings.Fields(e.Text), " ")
		}
	})
	c.OnHTML("a[href]", func(e *colly.HTMLElement) {
		href := strings.TrimSpace(e.Attr("href"))
		if href == "" || strings.HasPrefix(href, "#") {
			return
		}
		if abs := e.Request.AbsoluteURL(href); abs != "" {
			result.Links = append(result.Links, abs)
		}
	})

	if err := c.Visit(pageURL); err != nil {
		return result, fmt.Errorf("failed to visit URL: %w", err)
	}
	if fetchErr != nil {
		return result, fetchErr
	}

	logger.Debug("static fetch complete",
		"url", pageURL,
		"status", result.StatusCode,
		"body_size", len(result.HTML),
		"links", len(result.Links))
	return result, nil
}

// Close releases nothing; the static fetcher holds no resources.
func (f *StaticFetcher) Close() error { return nil }

// Type returns the fetcher type.
func (f *StaticFetcher) Type() string { return "static" }

func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
