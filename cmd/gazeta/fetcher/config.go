// Package fetcher holds the browser-backed fetching used by the CLI
// for JS-rendered and challenge-protected news sites: chromedp with
// stealth patches, Googlebot spoofing, and a FlareSolverr client for
// Cloudflare-fronted domains.
package fetcher

import (
	"time"

	"github.com/jmylchreest/gazeta/pkg/fetcher"
)

// Config holds dynamic fetcher settings.
type Config struct {
	UserAgent       string
	Timeout         time.Duration
	Stealth         bool   // apply anti-bot-detection evasions
	Googlebot       bool   // present as Googlebot instead of a browser
	FlareSolverrURL string // FlareSolverr API endpoint, empty disables it
}

// DefaultConfig returns the settings used when flags leave them unset.
func DefaultConfig() Config {
	return Config{
		UserAgent: fetcher.DefaultUserAgent,
		Timeout:   30 * time.Second,
	}
}

// GooglebotUserAgent is the desktop Googlebot signature.
const GooglebotUserAgent = "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)"

// GooglebotMobileUserAgent is the mobile-first crawler signature. Some
// paywalled sites serve full articles to it.
const GooglebotMobileUserAgent = "Mozilla/5.0 (Linux; Android 6.0.1; Nexus 5X Build/MMB29P) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)"
