// Package fetch downloads the pages behind discovered links. It works
// through the per-domain link logs under logs/<period>/<domain>.csv,
// gates every URL through the content filter, and saves the raw HTML
// into <content-root>/<period>/<domain>/raw/ where the extraction
// pipeline picks it up. Fetch outcomes persist in the status file so
// interrupted runs resume without re-downloading.
package fetch

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/gazeta/internal/logger"
	"github.com/jmylchreest/gazeta/internal/status"
	"github.com/jmylchreest/gazeta/pkg/fetcher"
	"github.com/jmylchreest/gazeta/pkg/filter"
	"github.com/jmylchreest/gazeta/pkg/rules"
)

// Config holds fetch run settings.
type Config struct {
	// LogsDir is the root of the period-partitioned link logs.
	// Defaults to logs/ next to ContentDir.
	LogsDir string

	// ContentDir is the root of the content tree the run writes into.
	ContentDir string

	// RulesDir holds per-domain rules consulted for filter settings.
	RulesDir string

	// StatusFile is the fetch status JSON path. Defaults to
	// content_fetcher_status.json next to ContentDir.
	StatusFile string

	// Delay is the pause between download attempts against a domain.
	Delay time.Duration

	// Limit caps newly saved pages per domain. Zero means no limit.
	Limit int

	// Fetcher performs the downloads. Defaults to the static fetcher.
	Fetcher fetcher.Fetcher
}

// DefaultConfig returns the settings used when flags leave them unset.
func DefaultConfig() Config {
	return Config{Delay: time.Second}
}

// Stats counts fetch run outcomes.
type Stats struct {
	TotalProcessed      int `json:"total_processed"`
	SuccessfulDownloads int `json:"successful_downloads"`
	FailedDownloads     int `json:"failed_downloads"`
	AlreadyProcessed    int `json:"already_processed"`
	FilteredURLs        int `json:"filtered_urls"`
}

// Runner drives one fetch run over the link logs.
type Runner struct {
	cfg     Config
	rules   rules.Set
	filter  *filter.Filter
	tracker *status.Tracker
	stats   Stats
	bytes   int64
}

// New validates cfg and assembles a Runner.
func New(cfg Config) (*Runner, error) {
	if cfg.ContentDir == "" {
		return nil, errors.New("content directory is required")
	}
	if cfg.LogsDir == "" {
		cfg.LogsDir = filepath.Join(filepath.Dir(cfg.ContentDir), "logs")
	}
	if cfg.StatusFile == "" {
		cfg.StatusFile = filepath.Join(filepath.Dir(cfg.ContentDir), status.FetcherFile)
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

	return &Runner{
		cfg:     cfg,
		rules:   set,
		filter:  filter.New(),
		tracker: status.Load(cfg.StatusFile),
	}, nil
}

// linkLog is one discovered-links CSV: rows of timestamp,url-path for a
// single domain and period.
type linkLog struct {
	Period string
	Domain string
	Path   string
}

// findLinkLogs collects every domain CSV under the logs tree. Summary
// logs share the directory and are not link logs.
func findLinkLogs(dir string) ([]linkLog, error) {
	periods, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading logs dir: %w", err)
	}

	var logs []linkLog
	for _, period := range periods {
		if !period.IsDir() {
			continue
		}
		files, err := os.ReadDir(filepath.Join(dir, period.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading logs dir: %w", err)
		}
		for _, f := range files {
			name := f.Name()
			if f.IsDir() || !strings.HasSuffix(name, ".csv") || strings.HasPrefix(name, "summary") {
				continue
			}
			logs = append(logs, linkLog{
				Period: period.Name(),
				Domain: strings.TrimSuffix(name, ".csv"),
				Path:   filepath.Join(dir, period.Name(), name),
			})
		}
	}
	return logs, nil
}

// Run fetches every pending URL from the link logs and returns the run
// counters. Cancellation is honored between downloads; the status file
// is flushed either way.
func (r *Runner) Run(ctx context.Context) (*Stats, error) {
	start := time.Now()
	r.stats = Stats{}
	r.bytes = 0

	logs, err := findLinkLogs(r.cfg.LogsDir)
	if err != nil {
		return nil, err
	}
	if len(logs) == 0 {
		logger.Info("no link logs to process", "dir", r.cfg.LogsDir)
		return &r.stats, nil
	}
	logger.Info("fetch run starting",
		"link_logs", len(logs),
		"fetcher", r.cfg.Fetcher.Type(),
		"limit", r.cfg.Limit)

	var cancelled error
	for _, ll := range logs {
		if err := ctx.Err(); err != nil {
			cancelled = err
			break
		}
		if err := r.processDomain(ctx, ll); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				cancelled = err
				break
			}
			logger.Error("domain failed", "domain", ll.Domain, "error", err)
		}
	}

	elapsed := time.Since(start)
	if err := r.tracker.Flush(r.stats); err != nil {
		return &r.stats, fmt.Errorf("saving status: %w", err)
	}
	if err := r.writeSummary(elapsed); err != nil {
		logger.Warn("writing fetch summary log", "error", err)
	}

	logger.Info("fetch run finished",
		"processed", r.stats.TotalProcessed,
		"downloaded", r.stats.SuccessfulDownloads,
		"failed", r.stats.FailedDownloads,
		"already", r.stats.AlreadyProcessed,
		"filtered", r.stats.FilteredURLs,
		"size", humanize.Bytes(uint64(r.bytes)),
		"elapsed", elapsed.Round(10*time.Millisecond))
	return &r.stats, cancelled
}

// processDomain works through one domain's link log row by row.
func (r *Runner) processDomain(ctx context.Context, ll linkLog) error {
	f, err := os.Open(ll.Path)
	if err != nil {
		return fmt.Errorf("opening link log: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	siteRules, _ := r.rules.ForDomain(ll.Domain)
	var processed, downloaded, failed, skipped, saved int

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			logger.Warn("bad link log row", "file", ll.Path, "error", err)
			continue
		}
		if len(row) < 2 {
			continue
		}
		urlPath := row[1]
		fullURL := "https://" + ll.Domain + urlPath
		key := status.Key(ll.Domain, ll.Period+":"+urlPath)

		if r.tracker.IsSuccess(key) {
			skipped++
			r.stats.AlreadyProcessed++
			continue
		}

		rel, ok := slugPath(ll.Period, ll.Domain, urlPath, fullURL, r.filter)
		if !ok {
			skipped++
			r.stats.FilteredURLs++
			logger.Debug("skipped", "url", fullURL, "reason", "invalid path")
			r.tracker.Set(key, status.Entry{Status: status.StateFiltered, Reason: "invalid path"})
			continue
		}
		if skip, reason := r.filter.ShouldSkip(fullURL, siteRules); skip {
			skipped++
			r.stats.FilteredURLs++
			logger.Debug("filtered", "url", fullURL, "reason", reason)
			r.tracker.Set(key, status.Entry{Status: status.StateFiltered, Reason: reason})
			continue
		}

		processed++
		r.stats.TotalProcessed++
		logger.Info("fetching", "url", fullURL)

		content, err := r.cfg.Fetcher.Fetch(ctx, fullURL, fetcher.Options{})
		if ctx.Err() != nil {
			return ctx.Err()
		}
		switch {
		case err != nil:
			failed++
			r.stats.FailedDownloads++
			logger.Warn("download failed", "url", fullURL, "error", err)
			r.tracker.Set(key, status.Entry{Status: status.StateError, Error: err.Error()})
		case content.HTML == "":
			failed++
			r.stats.FailedDownloads++
			logger.Warn("download failed", "url", fullURL, "error", "empty response body")
			r.tracker.Set(key, status.Entry{Status: status.StateError, Error: "empty response body"})
		default:
			if err := r.save(rel, content.HTML); err != nil {
				failed++
				r.stats.FailedDownloads++
				logger.Error("saving page", "file", rel, "error", err)
				r.tracker.Set(key, status.Entry{Status: status.StateError, Error: err.Error()})
			} else {
				downloaded++
				saved++
				r.stats.SuccessfulDownloads++
				r.bytes += int64(len(content.HTML))
				r.tracker.Set(key, status.Entry{
					Status:        status.StateSuccess,
					FilePath:      rel,
					ContentLength: len(content.HTML),
				})
				logger.Info("saved", "url", fullURL, "file", rel,
					"size", humanize.Bytes(uint64(len(content.HTML))))
			}
		}

		if r.cfg.Limit > 0 && saved >= r.cfg.Limit {
			logger.Info("domain limit reached", "domain", ll.Domain, "limit", r.cfg.Limit)
			break
		}

		// politeness pause between download attempts
		if r.cfg.Delay > 0 {
			select {
			case <-time.After(r.cfg.Delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	logger.Info("domain finished",
		"domain", ll.Domain,
		"processed", processed,
		"downloaded", downloaded,
		"failed", failed,
		"skipped", skipped)
	return nil
}

func (r *Runner) save(rel, html string) error {
	path := filepath.Join(r.cfg.ContentDir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(html), 0o644)
}

// writeSummary appends the run's pipe-delimited summary line to the
// current period's log directory. Skipped reports already-downloaded
// pages; filtered URLs are counted in the status file instead.
func (r *Runner) writeSummary(elapsed time.Duration) error {
	now := time.Now()
	dir := filepath.Join(r.cfg.LogsDir, now.Format("2006-01"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(filepath.Join(dir, "content_fetcher_summary.log"),
		os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = fmt.Fprintf(f, "%s | Processed: %d | Downloaded: %d | Failed: %d | Skipped: %d | Time: %.2fs\n",
		now.Format("2006-01-02 15:04:05"),
		r.stats.TotalProcessed,
		r.stats.SuccessfulDownloads,
		r.stats.FailedDownloads,
		r.stats.AlreadyProcessed,
		elapsed.Seconds())
	return err
}
