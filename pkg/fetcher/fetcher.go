// Package fetcher abstracts how raw news pages are downloaded. The
// static implementation here covers ordinary sites; JS-rendered and
// challenge-protected sites use the browser-backed fetcher in the CLI.
package fetcher

import (
	"context"
	"errors"
	"time"
)

// Fetcher retrieves pages for the fetch and discovery stages.
type Fetcher interface {
	// Fetch downloads one page.
	Fetch(ctx context.Context, url string, opts Options) (Content, error)

	// Close releases held resources such as browser instances.
	Close() error

	// Type identifies the fetching strategy ("static", "dynamic").
	Type() string
}

// Options adjusts a single fetch.
type Options struct {
	UserAgent       string
	Timeout         time.Duration
	WaitForSelector string        // dynamic fetchers: selector to wait for
	WaitDuration    time.Duration // dynamic fetchers: extra settle time
	Headers         map[string]string
	Cookies         []Cookie
}

// Cookie is an HTTP cookie passed along with a fetch.
type Cookie struct {
	Name   string
	Value  string
	Domain string
}

// Content is one downloaded page. Article text is not extracted here;
// that is the extraction pipeline's job. Links carry every absolute
// href found on the page for the discovery stage.
type Content struct {
	URL         string
	HTML        string
	Title       string
	StatusCode  int
	ContentType string
	FetchedAt   time.Time
	Links       []string
}

// Sentinel errors for distinguishing why a protected site refused us.
// Check with errors.Is.
var (
	// ErrCaptchaChallenge means the page demands an interactive CAPTCHA.
	ErrCaptchaChallenge = errors.New("captcha challenge detected")
	// ErrAntiBot means anti-bot protection blocked the request.
	ErrAntiBot = errors.New("anti-bot protection detected")
	// ErrChallengeTimeout means a challenge did not resolve in time.
	ErrChallengeTimeout = errors.New("challenge timeout")
)
