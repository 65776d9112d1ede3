// Package status persists per-document processing state between runs.
// Each pipeline stage keeps its own JSON file mapping a document key to
// the outcome of its last attempt; entries with state "success" are
// never reprocessed, everything else is retried on the next run.
package status

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/jmylchreest/gazeta/internal/logger"
)

// Default status file names, one per pipeline stage.
const (
	FetcherFile   = "content_fetcher_status.json"
	ExtractorFile = "text_extractor_status.json"
	EnrichFile    = "ai_analyzer_status.json"
)

// State is the outcome of one processing attempt.
type State string

const (
	StateSuccess  State = "success"
	StateSkipped  State = "skipped"
	StateError    State = "error"
	StateFiltered State = "filtered"
)

// Entry records the outcome of processing one document. Only the
// fields relevant to the stage that wrote it are set.
type Entry struct {
	Status      State  `json:"status"`
	Reason      string `json:"reason,omitempty"`
	Error       string `json:"error,omitempty"`
	ProcessedAt string `json:"processed_at"`

	// Fetch extras.
	FilePath string `json:"file_path,omitempty"`

	// Extraction extras.
	MarkdownFile     string `json:"markdown_file,omitempty"`
	MetadataFile     string `json:"metadata_file,omitempty"`
	ContentLength    int    `json:"content_length,omitempty"`
	ExtractionMethod string `json:"extraction_method,omitempty"`
	CleanedHTMLFile  string `json:"cleaned_html_file,omitempty"`

	// Enrichment extras.
	ImportanceScore float64 `json:"importance_score,omitempty"`
	Category        string  `json:"category,omitempty"`
}

// Key builds the canonical entry key for a document.
func Key(domain, sourcePath string) string {
	return domain + ":" + sourcePath
}

type statusFile struct {
	Entries map[string]Entry `json:"entries"`
	Stats   json.RawMessage  `json:"stats,omitempty"`
}

// Tracker is an in-memory status map bound to one JSON file. It is
// read once at startup, mutated in memory, and flushed at the end of
// the run; it is not safe for concurrent use.
type Tracker struct {
	path    string
	entries map[string]Entry
}

// Load reads the tracker state from path. A missing or unreadable file
// yields an empty tracker so a fresh or damaged state never blocks a
// run.
func Load(path string) *Tracker {
	t := &Tracker{
		path:    path,
		entries: map[string]Entry{},
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("could not read status file, starting empty", "path", path, "error", err)
		}
		return t
	}

	var f statusFile
	if err := json.Unmarshal(data, &f); err != nil {
		logger.Warn("could not parse status file, starting empty", "path", path, "error", err)
		return t
	}
	if f.Entries != nil {
		t.entries = f.Entries
	}
	return t
}

// Path returns the file the tracker flushes to.
func (t *Tracker) Path() string {
	return t.path
}

// Get returns the entry for key.
func (t *Tracker) Get(key string) (Entry, bool) {
	e, ok := t.entries[key]
	return e, ok
}

// IsSuccess reports whether key completed successfully in an earlier
// run.
func (t *Tracker) IsSuccess(key string) bool {
	e, ok := t.entries[key]
	return ok && e.Status == StateSuccess
}

// Set stores an entry, stamping ProcessedAt when the caller left it
// empty.
func (t *Tracker) Set(key string, e Entry) {
	if e.ProcessedAt == "" {
		e.ProcessedAt = time.Now().Format(time.RFC3339)
	}
	t.entries[key] = e
}

// Len returns the number of tracked documents.
func (t *Tracker) Len() int {
	return len(t.entries)
}

// Flush writes the tracker state back to its file. stats, when
// non-nil, is persisted alongside the entries as the most recent run's
// counters.
func (t *Tracker) Flush(stats any) error {
	f := statusFile{Entries: t.entries}

	if stats != nil {
		raw, err := json.Marshal(stats)
		if err != nil {
			return fmt.Errorf("failed to marshal stats: %w", err)
		}
		f.Stats = raw
	}

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal status: %w", err)
	}

	if err := os.WriteFile(t.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write status file: %w", err)
	}
	return nil
}
