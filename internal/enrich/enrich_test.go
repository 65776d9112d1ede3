package enrich

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/gazeta/internal/status"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return string(data)
}

func readMeta(t *testing.T, path string) map[string]any {
	t.Helper()
	m := map[string]any{}
	if err := yaml.Unmarshal([]byte(readFile(t, path)), &m); err != nil {
		t.Fatalf("parsing %s: %v", path, err)
	}
	return m
}

// testConfig lays out a content tree, status file and log dir under one
// temp root, with the inter-document delay off.
func testConfig(t *testing.T) Config {
	t.Helper()
	base := t.TempDir()
	cfg := DefaultConfig()
	cfg.ContentDir = filepath.Join(base, "content")
	cfg.StatusFile = filepath.Join(base, status.EnrichFile)
	cfg.LogsDir = filepath.Join(base, "logs")
	cfg.Delay = 0
	return cfg
}

const articleBody = `Inundațiile au lovit mai multe localități din județul Iași în cursul nopții de marți. Autoritățile au anunțat evacuarea locuitorilor din zonele aflate în pericol, iar pompierii au intervenit cu zeci de autospeciale. Primarul a cerut sprijinul guvernului pentru despăgubiri.`

const shoppingBody = `Top 10 aspiratoare robot din acest an. Comparăm modelele populare și prețurile pentru a alege varianta potrivită bugetului tău, cu recomandări de cumpărare și sfaturi pentru fiecare categorie de utilizatori.`

const articleMeta = `url: https://www.bzi.ro/stiri/social/inundatii-record-1234567
title: Inundații record în județul Iași
author: Redacția
extraction_method: heuristic
word_count: 12
`

func TestRun_EnrichesDocument(t *testing.T) {
	cfg := testConfig(t)
	rel := filepath.Join("2025-08", "www.bzi.ro", "metadata", "stiri_inundatii-record-1234567.yaml")
	writeFiles(t, cfg.ContentDir, map[string]string{
		rel: articleMeta,
		filepath.Join("2025-08", "www.bzi.ro", "extracted", "stiri_inundatii-record-1234567.md"): articleBody,
	})

	r, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	stats, err := r.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalProcessed != 1 || stats.SuccessfulAnalysis != 1 {
		t.Fatalf("stats = %+v, want one analyzed document", stats)
	}
	if stats.ContentTypes["news_article"] != 1 {
		t.Errorf("ContentTypes = %v, want one news_article", stats.ContentTypes)
	}

	m := readMeta(t, filepath.Join(cfg.ContentDir, rel))

	// Keys the extraction stage wrote survive the merge.
	if m["author"] != "Redacția" || m["extraction_method"] != "heuristic" {
		t.Errorf("extraction keys overwritten: %v", m)
	}
	if m["url"] != "https://www.bzi.ro/stiri/social/inundatii-record-1234567" {
		t.Errorf("url = %v", m["url"])
	}

	summary, _ := m["summary"].(string)
	if !strings.HasPrefix(summary, "Inundațiile au lovit") || !strings.HasSuffix(summary, "...") {
		t.Errorf("summary = %q, want truncated lead", summary)
	}
	if m["content_type"] != "news_article" {
		t.Errorf("content_type = %v", m["content_type"])
	}
	if m["content_type_confidence"] != 0.5 {
		t.Errorf("content_type_confidence = %v, want 0.5", m["content_type_confidence"])
	}
	if m["language"] != "ro" {
		t.Errorf("language = %v, want ro", m["language"])
	}
	if m["sentiment"] != "neutral" {
		t.Errorf("sentiment = %v", m["sentiment"])
	}
	if m["geographic_scope"] != "local" {
		t.Errorf("geographic_scope = %v, want local", m["geographic_scope"])
	}
	if m["importance_score"] != 0.2 {
		t.Errorf("importance_score = %v, want 0.2", m["importance_score"])
	}
	if m["extraction_confidence"] != 0.8 {
		t.Errorf("extraction_confidence = %v, want 0.8", m["extraction_confidence"])
	}
	cats, _ := m["categories"].([]any)
	if len(cats) != 1 || cats[0] != "social" {
		t.Errorf("categories = %v, want [social]", m["categories"])
	}
	if wc, ok := m["word_count"].(int); !ok || wc < 30 {
		t.Errorf("word_count = %v, want recount of the markdown body", m["word_count"])
	}
	if s, _ := m["ai_processed_at"].(string); s == "" {
		t.Error("ai_processed_at missing")
	}
	if _, ok := m["entities"]; !ok {
		t.Error("entities missing")
	}

	st := status.Load(cfg.StatusFile)
	e, ok := st.Get(status.Key("www.bzi.ro", rel))
	if !ok || e.Status != status.StateSuccess {
		t.Fatalf("entry = %+v, want success", e)
	}
	if e.ImportanceScore != 0.2 || e.Category != "social" {
		t.Errorf("entry = %+v, want importance 0.2 and category social", e)
	}
	raw := readFile(t, cfg.StatusFile)
	if !strings.Contains(raw, `"successful_analysis": 1`) {
		t.Errorf("status file missing persisted run stats:\n%s", raw)
	}

	summaryLog := readFile(t, filepath.Join(cfg.LogsDir,
		time.Now().Format("2006-01"), "ai_analyzer_summary.log"))
	if !strings.Contains(summaryLog, "Analyzed: 1") || !strings.Contains(summaryLog, "Skipped: 0") {
		t.Errorf("summary log = %q", summaryLog)
	}
}

func TestRun_TooShortSkips(t *testing.T) {
	cfg := testConfig(t)
	rel := filepath.Join("2025-08", "www.bzi.ro", "metadata", "stiri_scurt.yaml")
	writeFiles(t, cfg.ContentDir, map[string]string{
		rel: articleMeta,
		filepath.Join("2025-08", "www.bzi.ro", "extracted", "stiri_scurt.md"): "Prea scurt.",
	})

	r, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	stats, err := r.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.SkippedFiles != 1 {
		t.Fatalf("SkippedFiles = %d, want 1", stats.SkippedFiles)
	}
	if stats.TotalProcessed != 0 || stats.SuccessfulAnalysis != 0 {
		t.Errorf("stats = %+v, want skip only", stats)
	}

	e, ok := status.Load(cfg.StatusFile).Get(status.Key("www.bzi.ro", rel))
	if !ok {
		t.Fatal("no status entry for skipped document")
	}
	if e.Status != status.StateSkipped || e.Reason != "Content too short for AI analysis" {
		t.Errorf("entry = %+v", e)
	}
	if strings.Contains(readFile(t, filepath.Join(cfg.ContentDir, rel)), "ai_processed_at") {
		t.Error("metadata rewritten for a skipped document")
	}
}

func TestRun_FiltersNonNews(t *testing.T) {
	cfg := testConfig(t)
	rel := filepath.Join("2025-08", "www.bzi.ro", "metadata", "cumparaturi_aspiratoare.yaml")
	writeFiles(t, cfg.ContentDir, map[string]string{
		rel: "url: https://www.bzi.ro/cumparaturi/aspiratoare\ntitle: Aspiratoare robot\n",
		filepath.Join("2025-08", "www.bzi.ro", "extracted", "cumparaturi_aspiratoare.md"): shoppingBody,
	})

	r, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	stats, err := r.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.FilteredByContentType != 1 {
		t.Fatalf("FilteredByContentType = %d, want 1", stats.FilteredByContentType)
	}
	if stats.TotalProcessed != 0 || stats.SuccessfulAnalysis != 0 {
		t.Errorf("stats = %+v, want filter only", stats)
	}
	if stats.ContentTypes["shopping_guide"] != 1 {
		t.Errorf("ContentTypes = %v, want the filtered type counted", stats.ContentTypes)
	}

	e, ok := status.Load(cfg.StatusFile).Get(status.Key("www.bzi.ro", rel))
	if !ok {
		t.Fatal("no status entry for filtered document")
	}
	if e.Status != status.StateFiltered {
		t.Errorf("Status = %q, want %q", e.Status, status.StateFiltered)
	}
	if e.Reason != "Content type: shopping_guide (confidence: 0.70)" {
		t.Errorf("Reason = %q", e.Reason)
	}
	if strings.Contains(readFile(t, filepath.Join(cfg.ContentDir, rel)), "ai_processed_at") {
		t.Error("metadata rewritten for a filtered document")
	}
}

func TestRun_AlreadyProcessed(t *testing.T) {
	cfg := testConfig(t)
	rel := filepath.Join("2025-08", "www.bzi.ro", "metadata", "stiri_vechi.yaml")
	writeFiles(t, cfg.ContentDir, map[string]string{
		rel: articleMeta,
		filepath.Join("2025-08", "www.bzi.ro", "extracted", "stiri_vechi.md"): articleBody,
	})

	seed := status.Load(cfg.StatusFile)
	seed.Set(status.Key("www.bzi.ro", rel), status.Entry{Status: status.StateSuccess})
	if err := seed.Flush(nil); err != nil {
		t.Fatal(err)
	}

	r, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	stats, err := r.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.AlreadyProcessed != 1 {
		t.Errorf("AlreadyProcessed = %d, want 1", stats.AlreadyProcessed)
	}
	if stats.TotalProcessed != 0 || stats.SuccessfulAnalysis != 0 {
		t.Errorf("stats = %+v, want nothing reanalyzed", stats)
	}
	if strings.Contains(readFile(t, filepath.Join(cfg.ContentDir, rel)), "ai_processed_at") {
		t.Error("already processed document was re-enriched")
	}
}

func TestRun_BadMetadataContinuesBatch(t *testing.T) {
	cfg := testConfig(t)
	badRel := filepath.Join("2025-08", "www.err.ro", "metadata", "stiri_stricat.yaml")
	goodRel := filepath.Join("2025-08", "www.ok.ro", "metadata", "stiri_bun.yaml")
	writeFiles(t, cfg.ContentDir, map[string]string{
		badRel:  "url: [neterminat\n",
		goodRel: articleMeta,
		filepath.Join("2025-08", "www.err.ro", "extracted", "stiri_stricat.md"): articleBody,
		filepath.Join("2025-08", "www.ok.ro", "extracted", "stiri_bun.md"):      articleBody,
	})

	r, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	stats, err := r.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.FailedAnalysis != 1 || stats.SuccessfulAnalysis != 1 || stats.TotalProcessed != 2 {
		t.Fatalf("stats = %+v, want one failure and one success", stats)
	}

	e, ok := status.Load(cfg.StatusFile).Get(status.Key("www.err.ro", badRel))
	if !ok {
		t.Fatal("no status entry for failed document")
	}
	if e.Status != status.StateError || e.Error == "" {
		t.Errorf("entry = %+v, want error status with message", e)
	}
	if !strings.Contains(readFile(t, filepath.Join(cfg.ContentDir, goodRel)), "ai_processed_at") {
		t.Error("batch did not continue past the failed document")
	}
}

func TestRun_NoDocuments(t *testing.T) {
	cfg := testConfig(t)
	writeFiles(t, cfg.ContentDir, map[string]string{
		// Sidecar without an extracted body.
		filepath.Join("2025-08", "www.bzi.ro", "metadata", "orfan.yaml"): articleMeta,
		// YAML outside a metadata directory.
		filepath.Join("2025-08", "www.bzi.ro", "raw", "nota.yaml"): articleMeta,
	})

	r, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	stats, err := r.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalProcessed != 0 || stats.SuccessfulAnalysis != 0 || stats.FailedAnalysis != 0 ||
		stats.AlreadyProcessed != 0 || stats.SkippedFiles != 0 || stats.FilteredByContentType != 0 ||
		len(stats.ContentTypes) != 0 {
		t.Errorf("stats = %+v, want all zero", stats)
	}
}

func TestRun_MissingRoot(t *testing.T) {
	cfg := testConfig(t)

	r, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	stats, err := r.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalProcessed != 0 {
		t.Errorf("stats = %+v, want all zero", stats)
	}
}

func TestRun_CancelledContext(t *testing.T) {
	cfg := testConfig(t)
	writeFiles(t, cfg.ContentDir, map[string]string{
		filepath.Join("2025-08", "www.bzi.ro", "metadata", "stiri_unu.yaml"): articleMeta,
		filepath.Join("2025-08", "www.bzi.ro", "extracted", "stiri_unu.md"):  articleBody,
	})

	r, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	stats, err := r.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
	if stats.TotalProcessed != 0 {
		t.Errorf("stats = %+v, want nothing processed", stats)
	}
	if _, statErr := os.Stat(cfg.StatusFile); statErr != nil {
		t.Error("status file not flushed on cancellation")
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("New() without content dir, want error")
	}

	r, err := New(Config{ContentDir: filepath.Join(t.TempDir(), "content")})
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(r.cfg.StatusFile) != status.EnrichFile {
		t.Errorf("StatusFile default = %q", r.cfg.StatusFile)
	}
	if filepath.Base(r.cfg.LogsDir) != "logs" {
		t.Errorf("LogsDir default = %q", r.cfg.LogsDir)
	}
	if r.cfg.Analyzer == nil {
		t.Error("Analyzer default missing")
	}
	if DefaultConfig().Delay != 100*time.Millisecond {
		t.Errorf("Delay default = %v", DefaultConfig().Delay)
	}
}

func TestMarkdownFor(t *testing.T) {
	got := markdownFor(filepath.Join("content", "2025-08", "www.bzi.ro", "metadata", "stiri_a.yaml"))
	want := filepath.Join("content", "2025-08", "www.bzi.ro", "extracted", "stiri_a.md")
	if got != want {
		t.Errorf("markdownFor() = %q, want %q", got, want)
	}
}
