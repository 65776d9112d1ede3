package fetcher

import (
	"os/exec"

	"github.com/jmylchreest/gazeta/internal/logger"
)

// chromeBinaries lists PATH names and common install locations, in
// preference order.
var chromeBinaries = []string{
	"google-chrome-stable",
	"google-chrome",
	"chromium",
	"chromium-browser",
	"chrome",
	"/usr/bin/google-chrome-stable",
	"/usr/bin/google-chrome",
	"/usr/bin/chromium",
	"/usr/bin/chromium-browser",
	"/snap/bin/chromium",
	"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
	"/Applications/Chromium.app/Contents/MacOS/Chromium",
}

// FindChromePath locates a Chrome or Chromium binary for chromedp,
// which sometimes misses distro-packaged installs. Returns "" when no
// binary is found.
func FindChromePath() string {
	for _, name := range chromeBinaries {
		if path, err := exec.LookPath(name); err == nil {
			logger.Debug("found Chrome binary", "path", path)
			return path
		}
	}
	logger.Warn("no Chrome binary found, dynamic fetching may not work")
	return ""
}
