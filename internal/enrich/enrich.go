// Package enrich layers AI-derived metadata onto extracted articles.
// It pairs each sidecar under <content>/<period>/<domain>/metadata/
// with its markdown body, gates the pair through the content-type
// classifier, and merges summary, entities, sentiment, importance and
// the other analysis fields back into the same YAML file without
// touching what extraction wrote. Outcomes persist in the enrichment
// status file so interrupted runs resume.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/gazeta/internal/logger"
	"github.com/jmylchreest/gazeta/internal/output"
	"github.com/jmylchreest/gazeta/internal/status"
	"github.com/jmylchreest/gazeta/pkg/nlp"
	"github.com/jmylchreest/gazeta/pkg/textclean"
)

// minContentLength is the shortest markdown body worth analyzing.
const minContentLength = 100

// extractionConfidence is recorded with every enriched document. The
// extraction stage does not score itself, so this is a fixed default.
const extractionConfidence = 0.8

// Config holds enrichment run settings.
type Config struct {
	// ContentDir is the root of the content tree.
	ContentDir string

	// StatusFile is the enrichment status JSON path. Defaults to
	// ai_analyzer_status.json next to ContentDir.
	StatusFile string

	// LogsDir receives the run summary. Defaults to logs/ next to
	// ContentDir.
	LogsDir string

	// Delay is the pause between documents.
	Delay time.Duration

	// Analyzer performs the NLP calls. Defaults to local-only.
	Analyzer *nlp.Analyzer
}

// DefaultConfig returns the settings used when flags leave them unset.
func DefaultConfig() Config {
	return Config{Delay: 100 * time.Millisecond}
}

// Stats counts enrichment run outcomes.
type Stats struct {
	TotalProcessed        int            `json:"total_processed"`
	SuccessfulAnalysis    int            `json:"successful_analysis"`
	FailedAnalysis        int            `json:"failed_analysis"`
	AlreadyProcessed      int            `json:"already_processed"`
	SkippedFiles          int            `json:"skipped_files"`
	FilteredByContentType int            `json:"filtered_by_content_type"`
	ContentTypes          map[string]int `json:"content_types_detected"`
}

// Runner drives one enrichment run over the content tree.
type Runner struct {
	cfg     Config
	tracker *status.Tracker
	stats   Stats
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
		cfg.StatusFile = filepath.Join(filepath.Dir(cfg.ContentDir), status.EnrichFile)
	}
	if cfg.Analyzer == nil {
		cfg.Analyzer = nlp.NewAnalyzer(nil)
	}
	return &Runner{cfg: cfg, tracker: status.Load(cfg.StatusFile)}, nil
}

// pair is one extracted article and its metadata sidecar.
type pair struct {
	Domain   string
	Markdown string
	Metadata string
	Rel      string // metadata path relative to the content root
}

// findPairs walks the content tree for metadata sidecars that have an
// extracted markdown body next to them. A missing root yields an empty
// result.
func findPairs(root string) ([]pair, error) {
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil, nil
	}

	var pairs []pair
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(d.Name()), ".yaml") {
			return nil
		}
		if filepath.Base(filepath.Dir(path)) != "metadata" {
			return nil
		}
		md := markdownFor(path)
		if _, err := os.Stat(md); err != nil {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		domain := domainFromPath(rel)
		if domain == "" {
			logger.Debug("no domain directory in path, skipping", "file", rel)
			return nil
		}
		pairs = append(pairs, pair{Domain: domain, Markdown: md, Metadata: path, Rel: rel})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking content tree: %w", err)
	}
	return pairs, nil
}

// markdownFor maps a metadata sidecar onto its extracted markdown file.
func markdownFor(metaPath string) string {
	dir := filepath.Dir(metaPath)
	base := strings.TrimSuffix(filepath.Base(metaPath), filepath.Ext(metaPath))
	return filepath.Join(filepath.Dir(dir), "extracted", base+".md")
}

// domainFromPath picks the first directory component that looks like a
// hostname. Period directories ("2025-08") contain no dot and never
// match.
func domainFromPath(rel string) string {
	parts := strings.Split(rel, string(filepath.Separator))
	for _, part := range parts[:len(parts)-1] {
		if strings.HasPrefix(part, "www.") || strings.Contains(part, ".") {
			return part
		}
	}
	return ""
}

// Run enriches every pending document and returns the run counters.
// Cancellation is honored between documents; the status file is
// flushed either way.
func (r *Runner) Run(ctx context.Context) (*Stats, error) {
	start := time.Now()
	r.stats = Stats{ContentTypes: map[string]int{}}

	pairs, err := findPairs(r.cfg.ContentDir)
	if err != nil {
		return nil, err
	}
	if len(pairs) == 0 {
		logger.Info("no documents to enrich", "root", r.cfg.ContentDir)
		return &r.stats, nil
	}
	logger.Info("enrichment run starting", "documents", len(pairs))

	var cancelled error
	for _, p := range pairs {
		if err := ctx.Err(); err != nil {
			cancelled = err
			break
		}
		r.process(ctx, p)

		if r.cfg.Delay > 0 {
			select {
			case <-time.After(r.cfg.Delay):
			case <-ctx.Done():
			}
		}
	}

	elapsed := time.Since(start)
	if err := r.tracker.Flush(r.stats); err != nil {
		return &r.stats, fmt.Errorf("saving status: %w", err)
	}
	if err := r.writeSummary(elapsed); err != nil {
		logger.Warn("writing enrichment summary log", "error", err)
	}

	logger.Info("enrichment run finished",
		"processed", r.stats.TotalProcessed,
		"analyzed", r.stats.SuccessfulAnalysis,
		"failed", r.stats.FailedAnalysis,
		"already", r.stats.AlreadyProcessed,
		"skipped", r.stats.SkippedFiles,
		"filtered", r.stats.FilteredByContentType,
		"elapsed", elapsed.Round(10*time.Millisecond))
	for _, label := range sortedLabels(r.stats.ContentTypes) {
		logger.Info("content type detected", "type", label, "count", r.stats.ContentTypes[label])
	}
	return &r.stats, cancelled
}

// process enriches one document. Hard errors become error entries and
// the run continues.
func (r *Runner) process(ctx context.Context, p pair) {
	key := status.Key(p.Domain, p.Rel)
	if r.tracker.IsSuccess(key) {
		r.stats.AlreadyProcessed++
		return
	}

	content, meta, err := load(p)
	if err != nil {
		r.fail(key, p, err)
		return
	}

	if len(strings.TrimSpace(content)) < minContentLength {
		r.stats.SkippedFiles++
		logger.Debug("skipped", "file", p.Rel, "reason", "too short")
		r.tracker.Set(key, status.Entry{
			Status: status.StateSkipped,
			Reason: "Content too short for AI analysis",
		})
		return
	}

	pageURL, _ := meta["url"].(string)
	title, _ := meta["title"].(string)

	contentType, confidence, err := r.cfg.Analyzer.Classify(ctx, content, pageURL)
	if err != nil {
		r.fail(key, p, err)
		return
	}
	r.stats.ContentTypes[string(contentType)]++

	if !contentType.Keep() {
		r.stats.FilteredByContentType++
		logger.Info("filtered", "file", p.Rel, "title", title, "type", contentType)
		r.tracker.Set(key, status.Entry{
			Status: status.StateFiltered,
			Reason: fmt.Sprintf("Content type: %s (confidence: %.2f)", contentType, confidence),
		})
		return
	}

	logger.Info("analyzing", "file", p.Rel, "title", title, "type", contentType)

	lang := textclean.DetectLanguage(content, p.Domain)
	analysis := r.cfg.Analyzer.Analyze(ctx, content, title, pageURL, lang)
	analysis.ContentType = string(contentType)
	analysis.ContentTypeConfidence = round2(confidence)

	merge(meta, analysis)
	if err := writeMetadata(p.Metadata, meta); err != nil {
		r.fail(key, p, err)
		return
	}

	r.stats.TotalProcessed++
	r.stats.SuccessfulAnalysis++
	r.tracker.Set(key, status.Entry{
		Status:          status.StateSuccess,
		ImportanceScore: analysis.ImportanceScore,
		Category:        first(analysis.Categories),
	})
	logger.Info("analyzed", "file", p.Rel, "title", title, "score", analysis.ImportanceScore)
}

func (r *Runner) fail(key string, p pair, err error) {
	r.stats.TotalProcessed++
	r.stats.FailedAnalysis++
	logger.Error("enrichment failed", "file", p.Rel, "error", err)
	r.tracker.Set(key, status.Entry{Status: status.StateError, Error: err.Error()})
}

// load reads the markdown body and the metadata map for one document.
func load(p pair) (string, map[string]any, error) {
	content, err := os.ReadFile(p.Markdown)
	if err != nil {
		return "", nil, fmt.Errorf("reading markdown: %w", err)
	}
	data, err := os.ReadFile(p.Metadata)
	if err != nil {
		return "", nil, fmt.Errorf("reading metadata: %w", err)
	}
	meta := map[string]any{}
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return "", nil, fmt.Errorf("parsing metadata: %w", err)
	}
	return string(content), meta, nil
}

// merge lays the analysis fields over the metadata map. Keys other
// stages wrote stay untouched unless the analysis owns them.
func merge(meta map[string]any, an *nlp.Analysis) {
	meta["summary"] = an.Summary
	meta["entities"] = an.Entities
	meta["sentiment"] = an.Sentiment
	meta["importance_score"] = an.ImportanceScore
	meta["categories"] = an.Categories
	meta["content_type"] = an.ContentType
	meta["content_type_confidence"] = an.ContentTypeConfidence
	meta["language"] = an.Language
	meta["word_count"] = an.WordCount
	meta["complexity_score"] = an.ComplexityScore
	meta["geographic_scope"] = an.GeographicScope
	meta["ai_processed_at"] = time.Now().Format(time.RFC3339)
	meta["extraction_confidence"] = extractionConfidence
}

func writeMetadata(path string, meta map[string]any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := output.NewYAMLWriter(f)
	if err := w.Write(meta); err != nil {
		return err
	}
	return w.Flush()
}

// writeSummary appends the run's pipe-delimited summary line. Skipped
// reports too-short documents; filtered ones are counted in the status
// file instead.
func (r *Runner) writeSummary(elapsed time.Duration) error {
	now := time.Now()
	dir := filepath.Join(r.cfg.LogsDir, now.Format("2006-01"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(filepath.Join(dir, "ai_analyzer_summary.log"),
		os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = fmt.Fprintf(f, "%s | Processed: %d | Analyzed: %d | Failed: %d | Skipped: %d | Time: %.2fs\n",
		now.Format("2006-01-02 15:04:05"),
		r.stats.TotalProcessed,
		r.stats.SuccessfulAnalysis,
		r.stats.FailedAnalysis,
		r.stats.SkippedFiles,
		elapsed.Seconds())
	return err
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func first(ss []string) string {
	if len(ss) == 0 {
		return ""
	}
	return ss[0]
}

func sortedLabels(m map[string]int) []string {
	labels := make([]string, 0, len(m))
	for label := range m {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}
