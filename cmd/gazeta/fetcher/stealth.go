package fetcher

import (
	"context"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// stealthScript patches the browser properties that headless Chrome
// exposes and bot detectors probe. Derived from the
// puppeteer-extra-plugin-stealth evasions.
const stealthScript = `
(function() {
    'use strict';

    // navigator.webdriver is the first thing every detector checks.
    Object.defineProperty(navigator, 'webdriver', {
        get: () => undefined,
        configurable: true
    });
    delete Object.getPrototypeOf(navigator).webdriver;

    // Headless Chrome ships an empty plugin list.
    const specs = [
        { name: 'Chrome PDF Plugin', description: 'Portable Document Format', filename: 'internal-pdf-viewer' },
        { name: 'Chrome PDF Viewer', description: '', filename: 'mhjfbmdgcfjbbpaeojofohoefgiehjai' },
        { name: 'Native Client', description: '', filename: 'internal-nacl-plugin' }
    ];
    const plugins = Object.create(PluginArray.prototype);
    specs.forEach((spec, i) => {
        const plugin = Object.create(Plugin.prototype);
        Object.defineProperties(plugin, {
            name: { value: spec.name, enumerable: true },
            description: { value: spec.description, enumerable: true },
            filename: { value: spec.filename, enumerable: true },
            length: { value: 1, enumerable: true }
        });
        plugins[i] = plugin;
        plugins[spec.name] = plugin;
    });
    Object.defineProperty(plugins, 'length', { value: specs.length });
    Object.defineProperty(plugins, 'item', { value: (i) => plugins[i] || null });
    Object.defineProperty(plugins, 'namedItem', { value: (n) => plugins[n] || null });
    Object.defineProperty(plugins, 'refresh', { value: () => {} });
    Object.defineProperty(navigator, 'plugins', {
        get: () => plugins,
        configurable: true
    });

    // Match the Accept-Language the browser is launched with.
    Object.defineProperty(navigator, 'languages', {
        get: () => Object.freeze(['fr-FR', 'fr', 'en-US', 'en']),
        configurable: true
    });

    // Some detectors look for window.chrome.runtime.
    if (!window.chrome) {
        Object.defineProperty(window, 'chrome', { value: {}, writable: true, enumerable: true });
    }
    if (!window.chrome.runtime) {
        window.chrome.runtime = {
            get id() { return undefined; },
            connect: function() {},
            sendMessage: function() {}
        };
    }

    // Headless answers the notification permission query inconsistently.
    const originalQuery = Permissions.prototype.query;
    Permissions.prototype.query = function(parameters) {
        if (parameters.name === 'notifications') {
            return Promise.resolve({ state: Notification.permission });
        }
        return originalQuery.call(this, parameters);
    };

    // SwiftShader WebGL strings give headless away.
    const spoofParameter = {
        apply: function(target, ctx, args) {
            if (args[0] === 37445) { return 'Intel Inc.'; }
            if (args[0] === 37446) { return 'Intel Iris OpenGL Engine'; }
            return Reflect.apply(target, ctx, args);
        }
    };
    try {
        WebGLRenderingContext.prototype.getParameter =
            new Proxy(WebGLRenderingContext.prototype.getParameter, spoofParameter);
    } catch (e) {}
    try {
        WebGL2RenderingContext.prototype.getParameter =
            new Proxy(WebGL2RenderingContext.prototype.getParameter, spoofParameter);
    } catch (e) {}

    if (navigator.hardwareConcurrency === 0) {
        Object.defineProperty(navigator, 'hardwareConcurrency', { get: () => 4, configurable: true });
    }
    if (navigator.deviceMemory === undefined || navigator.deviceMemory === 0) {
        Object.defineProperty(navigator, 'deviceMemory', { get: () => 8, configurable: true });
    }
})();
`

// StealthExecAllocatorOptions returns Chrome launch flags for stealth
// mode. The language flags follow the target sites, which serve
// French-speaking readers first.
func StealthExecAllocatorOptions() []chromedp.ExecAllocatorOption {
	return []chromedp.ExecAllocatorOption{
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),

		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-features", "IsolateOrigins,site-per-process"),
		chromedp.Flag("excludeSwitches", "enable-automation"),
		chromedp.Flag("useAutomationExtension", false),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("disable-plugins-discovery", true),
		chromedp.Flag("disable-default-apps", true),

		chromedp.Flag("disable-background-timer-throttling", true),
		chromedp.Flag("disable-backgrounding-occluded-windows", true),
		chromedp.Flag("disable-renderer-backgrounding", true),
		chromedp.Flag("use-fake-ui-for-media-stream", true),
		chromedp.Flag("use-fake-device-for-media-stream", true),

		chromedp.WindowSize(1920, 1080),
		chromedp.Flag("start-maximized", true),
		chromedp.Flag("lang", "fr-FR,fr"),
		chromedp.Flag("accept-lang", "fr-FR,fr;q=0.9,en;q=0.8"),

		chromedp.Flag("ignore-certificate-errors", true),
	}
}

// InjectStealthScript returns an action that installs the stealth
// patches before any page script runs. Must precede Navigate.
func InjectStealthScript() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		_, err := page.AddScriptToEvaluateOnNewDocument(stealthScript).Do(ctx)
		return err
	})
}

// CaptureScreenshotOnError grabs a screenshot for debugging a failed
// fetch. Returns nil when the browser is too far gone to capture one.
func CaptureScreenshotOnError(ctx context.Context) []byte {
	captureCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var screenshot []byte
	if err := chromedp.Run(captureCtx, chromedp.CaptureScreenshot(&screenshot)); err != nil {
		return nil
	}
	return screenshot
}
