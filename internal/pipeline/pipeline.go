// Package pipeline turns fetched HTML trees into extracted Markdown
// and metadata. It walks <content-root>/<period>/<domain>/raw/*.html,
// runs each document through cleaning, extraction, section assembly,
// Markdown normalization, and language cleanup, and tracks per-document
// status between runs so finished work is never repeated.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/yosssi/gohtml"

	"github.com/jmylchreest/gazeta/internal/logger"
	"github.com/jmylchreest/gazeta/internal/output"
	"github.com/jmylchreest/gazeta/internal/status"
	"github.com/jmylchreest/gazeta/pkg/cleaner"
	"github.com/jmylchreest/gazeta/pkg/cleaner/structural"
	"github.com/jmylchreest/gazeta/pkg/extract"
	"github.com/jmylchreest/gazeta/pkg/markdown"
	"github.com/jmylchreest/gazeta/pkg/rules"
	"github.com/jmylchreest/gazeta/pkg/sections"
	"github.com/jmylchreest/gazeta/pkg/textclean"
)

// Config holds pipeline settings.
type Config struct {
	// ContentDir is the root of the fetched content tree, laid out as
	// <period>/<domain>/raw/*.html.
	ContentDir string

	// RulesDir holds per-domain rules files. Empty means generic
	// extraction everywhere.
	RulesDir string

	// StatusFile is the processing status JSON path. Defaults to
	// text_extractor_status.json next to ContentDir.
	StatusFile string

	// LogsDir is the root for period-partitioned run logs. Defaults to
	// logs/ next to ContentDir.
	LogsDir string

	// Method selects the extraction backend.
	Method extract.Method

	// MinLength is the minimum extracted text size in bytes below
	// which a document is recorded as skipped.
	MinLength int

	// PatternFile overrides the embedded language cleanup pattern
	// banks.
	PatternFile string

	// SaveCleanedHTML writes the post-cleaning HTML to the cleaned/
	// sibling directory for rule debugging.
	SaveCleanedHTML bool

	// KeepPaywalled lets subscription-wall notices through instead of
	// truncating the document at the wall line.
	KeepPaywalled bool

	// Limit caps how many documents are newly processed this run.
	// Already processed files do not count toward it. Zero means no
	// limit.
	Limit int
}

// DefaultConfig returns the settings used when flags leave them unset.
func DefaultConfig() Config {
	return Config{
		Method:    extract.MethodHeuristic,
		MinLength: extract.DefaultMinLength,
	}
}

// Stats counts run outcomes. TotalProcessed covers documents that ran
// to a success or error verdict; skipped and already processed files
// are tallied separately.
type Stats struct {
	TotalProcessed        int `json:"total_processed"`
	SuccessfulExtractions int `json:"successful_extractions"`
	FailedExtractions     int `json:"failed_extractions"`
	AlreadyProcessed      int `json:"already_processed"`
	SkippedFiles          int `json:"skipped_files"`
}

// Metadata is the per-document YAML sidecar written next to the
// extracted Markdown. The enrichment stage later merges its own keys
// into the same file.
type Metadata struct {
	Title            string `yaml:"title"`
	Author           string `yaml:"author"`
	Date             string `yaml:"date"`
	URL              string `yaml:"url"`
	ExtractedAt      string `yaml:"extracted_at"`
	SourceFile       string `yaml:"source_file"`
	MarkdownFile     string `yaml:"markdown_file"`
	ContentLength    int    `yaml:"content_length"`
	ExtractionMethod string `yaml:"extraction_method"`
	CleanedHTMLSaved bool   `yaml:"cleaned_html_saved"`
	CleanedHTMLFile  string `yaml:"cleaned_html_file,omitempty"`
}

// Pipeline drives extraction over a content tree.
type Pipeline struct {
	cfg        Config
	rules      rules.Set
	tracker    *status.Tracker
	backend    extract.Backend
	formatting *cleaner.FormattingCleaner
	text       *textclean.Cleaner
	stats      Stats
}

// New validates cfg and assembles a Pipeline.
func New(cfg Config) (*Pipeline, error) {
	if cfg.ContentDir == "" {
		return nil, errors.New("content directory is required")
	}
	if cfg.Method == "" {
		cfg.Method = extract.MethodHeuristic
	}
	if cfg.MinLength <= 0 {
		cfg.MinLength = extract.DefaultMinLength
	}
	if cfg.StatusFile == "" {
		cfg.StatusFile = filepath.Join(filepath.Dir(cfg.ContentDir), status.ExtractorFile)
	}
	if cfg.LogsDir == "" {
		cfg.LogsDir = filepath.Join(filepath.Dir(cfg.ContentDir), "logs")
	}

	backend, err := extract.NewBackend(cfg.Method)
	if err != nil {
		return nil, err
	}

	var text *textclean.Cleaner
	if cfg.PatternFile != "" {
		text, err = textclean.NewFromFile(cfg.PatternFile)
	} else {
		text, err = textclean.New()
	}
	if err != nil {
		return nil, fmt.Errorf("loading cleanup patterns: %w", err)
	}

	set := rules.Set{}
	if cfg.RulesDir != "" {
		set, err = rules.LoadDir(cfg.RulesDir)
		if err != nil {
			return nil, fmt.Errorf("loading domain rules: %w", err)
		}
	}

	return &Pipeline{
		cfg:        cfg,
		rules:      set,
		tracker:    status.Load(cfg.StatusFile),
		backend:    backend,
		formatting: cleaner.NewFormatting(),
		text:       text,
	}, nil
}

// Run processes every pending document under the content tree and
// returns the run counters. Cancellation is honored between documents;
// the status file is flushed either way, so an interrupted run resumes
// where it stopped.
func (p *Pipeline) Run(ctx context.Context) (*Stats, error) {
	start := time.Now()
	p.stats = Stats{}

	docs, err := FindDocuments(p.cfg.ContentDir)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		logger.Info("no HTML files to process", "dir", p.cfg.ContentDir)
		return &p.stats, nil
	}
	logger.Info("extraction run starting",
		"files", len(docs),
		"method", string(p.cfg.Method),
		"rules", len(p.rules),
		"limit", p.cfg.Limit)

	rl := newRunLog(filepath.Join(p.cfg.LogsDir, start.Format("2006-01")))

	attempted := 0
	var cancelled error
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			cancelled = err
			break
		}

		key := status.Key(doc.Domain, doc.Path)
		if p.tracker.IsSuccess(key) {
			logger.Debug("already processed", "file", doc.Path)
			p.stats.AlreadyProcessed++
			continue
		}
		if p.cfg.Limit > 0 && attempted >= p.cfg.Limit {
			logger.Info("processing limit reached", "limit", p.cfg.Limit)
			break
		}
		attempted++

		if err := p.process(doc, key, rl); err != nil {
			logger.Error("document failed", "file", doc.Path, "error", err)
			p.tracker.Set(key, status.Entry{Status: status.StateError, Error: err.Error()})
			p.stats.FailedExtractions++
			p.stats.TotalProcessed++
			rl.record(doc, status.StateError, err.Error())
		}
	}

	elapsed := time.Since(start)
	if err := p.tracker.Flush(p.stats); err != nil {
		return &p.stats, fmt.Errorf("saving status: %w", err)
	}
	if err := rl.close(&p.stats, elapsed); err != nil {
		logger.Warn("writing run summary log", "error", err)
	}

	logger.Info("extraction run finished",
		"processed", p.stats.TotalProcessed,
		"extracted", p.stats.SuccessfulExtractions,
		"failed", p.stats.FailedExtractions,
		"already", p.stats.AlreadyProcessed,
		"skipped", p.stats.SkippedFiles,
		"elapsed", elapsed.Round(10*time.Millisecond))
	return &p.stats, cancelled
}

// process runs one document start to finish. Soft outcomes (too-short
// or repetitive extraction) are recorded as skipped and return nil; a
// non-nil error means a hard failure the caller records as an error
// status.
func (p *Pipeline) process(doc Document, key string, rl *runLog) error {
	raw, err := os.ReadFile(filepath.Join(p.cfg.ContentDir, doc.Path))
	if err != nil {
		return fmt.Errorf("reading source: %w", err)
	}

	r, _ := p.rules.ForDomain(doc.Domain)
	pageURL := ReconstructURL(doc.Domain, doc.Path)

	formatted, err := p.formatting.Clean(string(raw))
	if err != nil {
		return fmt.Errorf("preserving formatting: %w", err)
	}
	cleaned, _ := p.structuralFor(r).Clean(formatted)

	var cleanedPath string
	if p.cfg.SaveCleanedHTML {
		cleanedPath = stagePath(doc.Path, "cleaned", "")
		if err := p.write(cleanedPath, gohtml.Format(cleaned)); err != nil {
			return fmt.Errorf("saving cleaned HTML: %w", err)
		}
		logger.Debug("cleaned HTML saved", "file", cleanedPath)
	}

	result, err := p.backend.Extract(cleaned, pageURL)
	if err != nil {
		logger.Debug("extraction failed", "file", doc.Path, "backend", p.backend.Name(), "error", err)
	}
	if ok, reason := extract.Check(p.cfg.Method, result.Text, p.cfg.MinLength); !ok {
		logger.Info("skipped", "file", doc.Path, "reason", reason)
		p.tracker.Set(key, status.Entry{Status: status.StateSkipped, Reason: reason})
		p.stats.SkippedFiles++
		rl.record(doc, status.StateSkipped, reason)
		return nil
	}

	blocks := sections.Extract(formatted, pageURL, r)
	opts := rules.DefaultProcessingOptions()
	if r != nil {
		opts = r.CustomSections.ProcessingOptions
	}
	content := sections.Prepend(strings.TrimSpace(result.Text), blocks, opts)

	md := markdown.NewWithEvidence(cleaned).Normalize(content)

	if r != nil && len(r.CleanupPatterns) > 0 {
		md = textclean.ApplyDomainPatterns(md, r.CleanupPatterns)
	}
	var lang textclean.Language
	if r != nil {
		lang, _ = textclean.ParseLanguage(r.Language)
	}
	res := p.text.Clean(md, textclean.Options{
		Language:      lang,
		Domain:        doc.Domain,
		KeepPaywalled: p.cfg.KeepPaywalled,
	})
	if res.PaywallHit {
		logger.Debug("subscription wall truncated document",
			"file", doc.Path, "line", res.PaywallLine)
	}
	md = res.Text

	mdPath := stagePath(doc.Path, "extracted", ".md")
	metaPath := stagePath(doc.Path, "metadata", ".yaml")

	if err := p.write(mdPath, md); err != nil {
		return fmt.Errorf("writing markdown: %w", err)
	}

	meta := p.metadataFor(formatted, r, result.Metadata)
	m := Metadata{
		Title:            meta.Title,
		Author:           meta.Author,
		Date:             meta.Date,
		URL:              pageURL,
		ExtractedAt:      time.Now().Format(time.RFC3339),
		SourceFile:       doc.Path,
		MarkdownFile:     mdPath,
		ContentLength:    len(md),
		ExtractionMethod: string(p.cfg.Method),
		CleanedHTMLSaved: p.cfg.SaveCleanedHTML,
		CleanedHTMLFile:  cleanedPath,
	}
	if err := p.writeMetadata(metaPath, m); err != nil {
		return fmt.Errorf("writing metadata: %w", err)
	}

	p.tracker.Set(key, status.Entry{
		Status:           status.StateSuccess,
		MarkdownFile:     mdPath,
		MetadataFile:     metaPath,
		ContentLength:    len(md),
		ExtractionMethod: string(p.cfg.Method),
		CleanedHTMLFile:  cleanedPath,
	})
	p.stats.SuccessfulExtractions++
	p.stats.TotalProcessed++
	logger.Info("extracted", "url", pageURL, "file", mdPath, "chars", len(md))
	return nil
}

// structuralFor builds the structural cleaner for one document,
// layering domain rule selectors over the backend's cleaning profile.
// Article selectors become keep selectors, so the regions the rules
// point at survive aggressive cleaning.
func (p *Pipeline) structuralFor(r *rules.Rules) *structural.Cleaner {
	cfg := structural.ProfileConfig(p.cfg.Method.Profile())
	if r != nil && (len(r.RemoveSelectors) > 0 || len(r.ArticleSelectors) > 0) {
		cfg = cfg.Merge(&structural.Config{
			RemoveSelectors: r.RemoveSelectors,
			KeepSelectors:   r.ArticleSelectors,
		})
	}
	return structural.New(cfg)
}

// metadataFor resolves document metadata. Rule selectors query the
// original page because cleaning may strip the nodes they target;
// backend metadata fills whatever they leave empty.
func (p *Pipeline) metadataFor(formattedHTML string, r *rules.Rules, fallback extract.Metadata) extract.Metadata {
	md := fallback
	if r == nil || (r.TitleSelector == "" && r.AuthorSelector == "" && r.DateSelector == "") {
		return md
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(formattedHTML))
	if err != nil {
		return md
	}
	if v := firstText(doc, r.TitleSelector); v != "" {
		md.Title = v
	}
	if v := firstText(doc, r.AuthorSelector); v != "" {
		md.Author = v
	}
	if v := firstText(doc, r.DateSelector); v != "" {
		md.Date = v
	}
	return md
}

func firstText(doc *goquery.Document, selector string) string {
	if selector == "" {
		return ""
	}
	return strings.Join(strings.Fields(doc.Find(selector).First().Text()), " ")
}

func (p *Pipeline) write(rel, content string) error {
	path := filepath.Join(p.cfg.ContentDir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}

func (p *Pipeline) writeMetadata(rel string, m Metadata) error {
	path := filepath.Join(p.cfg.ContentDir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := output.NewYAMLWriter(f)
	if err := w.Write(m); err != nil {
		return err
	}
	return w.Flush()
}
