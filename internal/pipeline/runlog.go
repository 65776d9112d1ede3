package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jmylchreest/gazeta/internal/logger"
	"github.com/jmylchreest/gazeta/internal/output"
	"github.com/jmylchreest/gazeta/internal/status"
)

// issueRecord is one skipped or failed document in the run log.
type issueRecord struct {
	Time   string `json:"time"`
	Status string `json:"status"`
	Domain string `json:"domain"`
	File   string `json:"file"`
	URL    string `json:"url"`
	Reason string `json:"reason"`
}

// runLog appends skipped and failed documents to a JSONL file for
// machines and a prose file for humans, both under the run's
// period-partitioned log directory. Files are created on the first
// record, so clean runs leave only the summary line behind.
type runLog struct {
	dir string

	jsonl  *output.JSONLWriter
	jsonlF *os.File
	proseF *os.File

	reasons map[string]int
	issues  int
}

func newRunLog(dir string) *runLog {
	return &runLog{dir: dir, reasons: make(map[string]int)}
}

func (l *runLog) open() bool {
	if l.dir == "" {
		return false
	}
	if l.jsonlF != nil {
		return true
	}
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		logger.Warn("run log directory unavailable", "dir", l.dir, "error", err)
		l.dir = ""
		return false
	}
	flags := os.O_CREATE | os.O_WRONLY | os.O_APPEND
	jf, err := os.OpenFile(filepath.Join(l.dir, "text_extractor_issues.jsonl"), flags, 0o644)
	if err != nil {
		logger.Warn("run log unavailable", "error", err)
		l.dir = ""
		return false
	}
	pf, err := os.OpenFile(filepath.Join(l.dir, "text_extractor_issues.log"), flags, 0o644)
	if err != nil {
		jf.Close()
		logger.Warn("run log unavailable", "error", err)
		l.dir = ""
		return false
	}
	l.jsonlF = jf
	l.proseF = pf
	l.jsonl = output.NewJSONLWriter(jf)
	return true
}

// record notes one skipped or failed document. Logging failures are
// reported once and never fail the run.
func (l *runLog) record(doc Document, state status.State, reason string) {
	l.issues++
	l.reasons[reasonKey(reason)]++

	if !l.open() {
		return
	}
	now := time.Now()
	rec := issueRecord{
		Time:   now.Format(time.RFC3339),
		Status: string(state),
		Domain: doc.Domain,
		File:   doc.Path,
		URL:    ReconstructURL(doc.Domain, doc.Path),
		Reason: reason,
	}
	if err := l.jsonl.Write(rec); err != nil {
		logger.Warn("writing run log record", "error", err)
	}
	fmt.Fprintf(l.proseF, "%s | %-7s | %s | %s | %s\n",
		now.Format("2006-01-02 15:04:05"), state, doc.Domain, doc.Path, reason)
}

// close writes the per-reason breakdown, appends the one-line run
// summary, and releases the log files.
func (l *runLog) close(stats *Stats, elapsed time.Duration) error {
	if l.dir == "" {
		return nil
	}
	now := time.Now()

	if l.proseF != nil {
		fmt.Fprintf(l.proseF, "--- %s | issues this run: %d\n",
			now.Format("2006-01-02 15:04:05"), l.issues)
		for _, rc := range l.sortedReasons() {
			fmt.Fprintf(l.proseF, "    %dx %s\n", rc.count, rc.reason)
		}
		l.proseF.Close()
	}
	if l.jsonlF != nil {
		l.jsonl.Close()
		l.jsonlF.Close()
	}

	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(filepath.Join(l.dir, "text_extractor_summary.log"),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = fmt.Fprintf(f, "%s | Processed: %d | Extracted: %d | Failed: %d | Skipped: %d | Time: %.2fs\n",
		now.Format("2006-01-02 15:04:05"),
		stats.TotalProcessed, stats.SuccessfulExtractions, stats.FailedExtractions,
		stats.SkippedFiles, elapsed.Seconds())
	return err
}

type reasonCount struct {
	reason string
	count  int
}

func (l *runLog) sortedReasons() []reasonCount {
	out := make([]reasonCount, 0, len(l.reasons))
	for reason, count := range l.reasons {
		out = append(out, reasonCount{reason, count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].reason < out[j].reason
	})
	return out
}

// reasonKey buckets reason strings for the breakdown by stripping the
// per-document parts: wrapped error detail after the first colon and
// parenthesized measurements.
func reasonKey(reason string) string {
	if i := strings.Index(reason, ": "); i > 0 {
		reason = reason[:i]
	}
	if i := strings.Index(reason, " ("); i > 0 {
		reason = reason[:i]
	}
	return reason
}
