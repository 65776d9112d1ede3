package fetcher

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/jmylchreest/gazeta/internal/logger"
	"github.com/jmylchreest/gazeta/pkg/fetcher"
)

// DynamicFetcher renders pages in headless Chrome. When FlareSolverr
// is configured, requests go through it first using one persistent
// session per domain, so a Cloudflare challenge is solved once and the
// session coasts on its cookies afterwards.
type DynamicFetcher struct {
	config       Config
	allocCtx     context.Context
	cancelAlloc  context.CancelFunc
	flareSolverr *FlareSolverr

	sessions   map[string]string // domain -> FlareSolverr session
	sessionsMu sync.RWMutex
}

// NewDynamicFetcher creates a dynamic fetcher and its browser
// allocator. Close must be called to release the browser.
func NewDynamicFetcher(cfg Config) (*DynamicFetcher, error) {
	def := DefaultConfig()
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.Googlebot {
		cfg.UserAgent = GooglebotMobileUserAgent
	}

	var opts []chromedp.ExecAllocatorOption
	if cfg.Stealth {
		opts = append(chromedp.DefaultExecAllocatorOptions[:], StealthExecAllocatorOptions()...)
	} else {
		opts = append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.Flag("disable-blink-features", "AutomationControlled"),
			chromedp.WindowSize(1920, 1080),
		)
	}
	if path := FindChromePath(); path != "" {
		opts = append(opts, chromedp.ExecPath(path))
	}
	opts = append(opts, chromedp.UserAgent(cfg.UserAgent))

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)

	var fs *FlareSolverr
	if cfg.FlareSolverrURL != "" {
		fs = NewFlareSolverr(cfg.FlareSolverrURL)
	}

	logger.Debug("dynamic fetcher created",
		"stealth", cfg.Stealth,
		"googlebot", cfg.Googlebot,
		"flaresolverr", fs != nil,
		"timeout", cfg.Timeout)

	return &DynamicFetcher{
		config:       cfg,
		allocCtx:     allocCtx,
		cancelAlloc:  cancelAlloc,
		flareSolverr: fs,
		sessions:     map[string]string{},
	}, nil
}

// sessionFor returns the domain's FlareSolverr session, creating it on
// first use. Creation errors are not fatal: the session may survive
// from an earlier process, in which case using the ID just works.
func (f *DynamicFetcher) sessionFor(ctx context.Context, domain string) string {
	f.sessionsMu.RLock()
	id := f.sessions[domain]
	f.sessionsMu.RUnlock()
	if id != "" {
		return id
	}

	id = strings.ReplaceAll(domain, ".", "-")
	if err := f.flareSolverr.CreateSession(ctx, id); err != nil {
		logger.Debug("FlareSolverr session creation failed, using it anyway",
			"session", id, "error", err)
	}

	f.sessionsMu.Lock()
	f.sessions[domain] = id
	f.sessionsMu.Unlock()
	return id
}

// Fetch retrieves one page.
func (f *DynamicFetcher) Fetch(ctx context.Context, targetURL string, opts fetcher.Options) (fetcher.Content, error) {
	parsed, err := url.Parse(targetURL)
	if err != nil {
		return fetcher.Content{}, fmt.Errorf("invalid URL: %w", err)
	}

	if f.flareSolverr != nil {
		sessionID := f.sessionFor(ctx, parsed.Host)
		sol, err := f.flareSolverr.Solve(ctx, targetURL, sessionID)
		if err != nil {
			return fetcher.Content{URL: targetURL, FetchedAt: time.Now()}, err
		}

		if sol.Response != "" {
			result := fetcher.Content{
				URL:        targetURL,
				FetchedAt:  time.Now(),
				HTML:       sol.Response,
				StatusCode: sol.Status,
			}
			if challenge := detectChallengePage("", result.HTML); challenge != "" {
				logger.Warn("challenge page in FlareSolverr response", "url", targetURL, "type", challenge)
				return result, fmt.Errorf("%w: %s", fetcher.ErrAntiBot, challenge)
			}
			if err := parseContent(&result); err != nil {
				return result, fmt.Errorf("failed to parse content: %w", err)
			}
			logger.Debug("dynamic fetch complete via FlareSolverr",
				"url", targetURL, "session", sessionID, "links", len(result.Links))
			return result, nil
		}

		// No page content came back; hand the challenge cookies to the
		// browser and render there.
		logger.Debug("FlareSolverr returned no content, falling back to browser", "url", targetURL)
		opts.Cookies = append(opts.Cookies, sol.cookies()...)
	}

	return f.fetchWithBrowser(ctx, targetURL, opts)
}

func (f *DynamicFetcher) fetchWithBrowser(ctx context.Context, targetURL string, opts fetcher.Options) (fetcher.Content, error) {
	result := fetcher.Content{URL: targetURL, FetchedAt: time.Now()}

	browserCtx, cancelBrowser := chromedp.NewContext(f.allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			logger.Debug("chromedp", "msg", fmt.Sprintf(format, args...))
		}),
	)
	defer cancelBrowser()

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = f.config.Timeout
	}
	timeoutCtx, cancelTimeout := context.WithTimeout(browserCtx, timeout)
	defer cancelTimeout()

	var html, title string
	var actions []chromedp.Action
	if len(opts.Cookies) > 0 {
		actions = append(actions, setCookies(targetURL, opts.Cookies))
	}
	if f.config.Stealth {
		actions = append(actions, InjectStealthScript())
	}
	actions = append(actions, chromedp.Navigate(targetURL))
	if opts.WaitForSelector != "" {
		actions = append(actions, chromedp.WaitReady(opts.WaitForSelector))
	} else {
		actions = append(actions, chromedp.WaitReady("body"))
	}
	if opts.WaitDuration > 0 {
		actions = append(actions, chromedp.Sleep(opts.WaitDuration))
	}
	actions = append(actions,
		chromedp.OuterHTML("html", &html),
		chromedp.Title(&title),
	)

	if err := chromedp.Run(timeoutCtx, actions...); err != nil {
		if shot := CaptureScreenshotOnError(browserCtx); shot != nil {
			path := filepath.Join(os.TempDir(), fmt.Sprintf("gazeta-debug-%d.png", time.Now().UnixNano()))
			if writeErr := os.WriteFile(path, shot, 0o644); writeErr == nil {
				logger.Debug("debug screenshot saved", "path", path)
			}
		}
		if ctx.Err() != nil || strings.Contains(err.Error(), "deadline exceeded") {
			logger.Warn("browser timeout, possible anti-bot protection", "url", targetURL)
			return result, fmt.Errorf("%w: %v", fetcher.ErrChallengeTimeout, err)
		}
		return result, fmt.Errorf("browser automation failed: %w", err)
	}

	result.HTML = html
	result.Title = title
	result.StatusCode = 200 // CDP does not surface the navigation status here

	if challenge := detectChallengePage(title, html); challenge != "" {
		logger.Warn("challenge page detected", "url", targetURL, "type", challenge)
		return result, fmt.Errorf("%w: %s", fetcher.ErrAntiBot, challenge)
	}
	if err := parseContent(&result); err != nil {
		return result, fmt.Errorf("failed to parse content: %w", err)
	}

	logger.Debug("dynamic fetch complete",
		"url", targetURL, "title", title, "links", len(result.Links))
	return result, nil
}

// detectChallengePage reports the kind of challenge or bot-detection
// page the content represents, or "" for a real page.
func detectChallengePage(title, html string) string {
	titleLower := strings.ToLower(title)
	htmlLower := strings.ToLower(html)

	if strings.Contains(titleLower, "just a moment") ||
		strings.Contains(titleLower, "attention required") ||
		strings.Contains(htmlLower, "cf-challenge") ||
		strings.Contains(htmlLower, "cf_chl_opt") {
		return "cloudflare"
	}
	if strings.Contains(htmlLower, "challenges.cloudflare.com/turnstile") ||
		strings.Contains(htmlLower, "cf-turnstile") {
		return "cloudflare-turnstile"
	}
	if strings.Contains(htmlLower, "hcaptcha.com") ||
		strings.Contains(htmlLower, "h-captcha") {
		return "hcaptcha"
	}
	if strings.Contains(htmlLower, "google.com/recaptcha") ||
		strings.Contains(htmlLower, "g-recaptcha") {
		return "recaptcha"
	}
	if strings.Contains(titleLower, "access denied") ||
		strings.Contains(titleLower, "blocked") ||
		strings.Contains(htmlLower, "robot or human") {
		return "anti-bot"
	}
	return ""
}

// parseContent fills Title and Links from the fetched HTML.
func parseContent(content *fetcher.Content) error {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content.HTML))
	if err != nil {
		return err
	}

	if content.Title == "" {
		content.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	base, _ := url.Parse(content.URL)
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || href == "" || strings.HasPrefix(href, "#") {
			return
		}
		link, err := url.Parse(href)
		if err != nil {
			return
		}
		if !link.IsAbs() && base != nil {
			link = base.ResolveReference(link)
		}
		content.Links = append(content.Links, link.String())
	})
	return nil
}

// Close destroys FlareSolverr sessions and shuts the browser down.
func (f *DynamicFetcher) Close() error {
	if f.flareSolverr != nil {
		f.sessionsMu.RLock()
		sessions := make([]string, 0, len(f.sessions))
		for _, id := range f.sessions {
			sessions = append(sessions, id)
		}
		f.sessionsMu.RUnlock()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		for _, id := range sessions {
			f.flareSolverr.DestroySession(ctx, id)
		}
	}

	if f.cancelAlloc != nil {
		f.cancelAlloc()
	}
	return nil
}

// Type returns the fetcher type.
func (f *DynamicFetcher) Type() string { return "dynamic" }

// setCookies installs cookies, such as a cf_clearance handed over by
// FlareSolverr, before navigation.
func setCookies(targetURL string, cookies []fetcher.Cookie) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		u, err := url.Parse(targetURL)
		if err != nil {
			return fmt.Errorf("failed to parse URL for cookies: %w", err)
		}

		var params []*network.CookieParam
		for _, c := range cookies {
			domain := c.Domain
			if domain == "" {
				domain = u.Host
			}
			params = append(params, &network.CookieParam{
				Name:   c.Name,
				Value:  c.Value,
				Domain: domain,
				Path:   "/",
				Secure: u.Scheme == "https",
			})
		}
		return network.SetCookies(params).Do(ctx)
	})
}
