// Package extract pulls article text and metadata out of HTML.
//
// Backends share one contract: Extract(html, url) returning the article
// body as line-oriented text plus whatever metadata the backend could
// recover. A backend that finds nothing usable returns an empty Result
// and a nil error; hard parse errors come back as errors and callers
// treat them the same way as empty output.
package extract

import (
	"fmt"
	"strings"

	"github.com/jmylchreest/gazeta/pkg/cleaner/structural"
)

// Method selects an extraction backend.
type Method string

const (
	// MethodHeuristic rebuilds paragraphs from block-level text in
	// aggressively cleaned HTML.
	MethodHeuristic Method = "heuristic"
	// MethodReadability locates the main content region with a
	// Readability.js-style scorer.
	MethodReadability Method = "readability"
	// MethodTrafilatura uses go-trafilatura, the most precise of the
	// three on news pages.
	MethodTrafilatura Method = "trafilatura"
)

// DefaultMinLength is the smallest extracted text, in characters, that
// counts as a usable article body.
const DefaultMinLength = 100

// Repetition check thresholds. Text longer than junkMinWords whose
// vocabulary covers less than junkUniqueRatio of its word count is
// treated as captured boilerplate.
const (
	junkMinWords    = 20
	junkUniqueRatio = 0.10
)

// Metadata holds document fields recovered during extraction. Empty
// strings mean the backend found nothing for that slot.
type Metadata struct {
	Title  string `json:"title" yaml:"title"`
	Author string `json:"author" yaml:"author"`
	Date   string `json:"date" yaml:"date"`
}

// Result is the outcome of one extraction. Text is empty when the
// backend could not find usable content.
type Result struct {
	Text     string
	Metadata Metadata
}

// Backend extracts article text from HTML.
type Backend interface {
	// Extract returns the article body and metadata for the page at
	// pageURL. An empty Result with a nil error means no usable content.
	Extract(htmlContent, pageURL string) (Result, error)
	// Name identifies the backend in statuses and logs.
	Name() string
}

// Methods lists the selectable extraction methods.
func Methods() []Method {
	return []Method{MethodHeuristic, MethodReadability, MethodTrafilatura}
}

// Valid reports whether m names a known backend.
func (m Method) Valid() bool {
	switch m {
	case MethodHeuristic, MethodReadability, MethodTrafilatura:
		return true
	}
	return false
}

// Profile returns the cleaning profile the backend expects as input.
// The heuristic backend wants everything non-textual gone beforehand;
// the scoring backends need document structure left in place to find
// the main content region themselves.
func (m Method) Profile() structural.Profile {
	if m == MethodHeuristic {
		return structural.ProfileAggressive
	}
	return structural.ProfileLight
}

// NewBackend constructs the backend for a method with default
// configuration.
func NewBackend(m Method) (Backend, error) {
	switch m {
	case MethodHeuristic:
		return NewHeuristic(), nil
	case MethodReadability:
		return NewReadability(nil), nil
	case MethodTrafilatura:
		return NewTrafilatura(nil), nil
	}
	return nil, fmt.Errorf("unknown extraction method %q", m)
}

// TooShort reports whether text falls under the usable-content
// threshold. min <= 0 uses DefaultMinLength.
func TooShort(text string, min int) bool {
	if min <= 0 {
		min = DefaultMinLength
	}
	return len(strings.TrimSpace(text)) < min
}

// LooksRepetitive flags text whose vocabulary is tiny relative to its
// length, which in practice means the backend latched onto repeated
// boilerplate such as a cookie notice rendered once per list item.
func LooksRepetitive(text string) bool {
	words := strings.Fields(strings.ToLower(text))
	if len(words) <= junkMinWords {
		return false
	}
	unique := make(map[string]struct{}, len(words))
	for _, w := range words {
		unique[w] = struct{}{}
	}
	return float64(len(unique))/float64(len(words)) < junkUniqueRatio
}

// Check validates extracted text, returning ok=false and a skip reason
// when the text is unusable.
func Check(m Method, text string, minLength int) (ok bool, reason string) {
	trimmed := strings.TrimSpace(text)
	if TooShort(trimmed, minLength) {
		return false, fmt.Sprintf("%s extraction failed or content too short (%d chars)",
			capitalize(string(m)), len(trimmed))
	}
	if LooksRepetitive(trimmed) {
		return false, fmt.Sprintf("%s extraction produced repetitive content (unique word ratio below %d%%)",
			capitalize(string(m)), int(junkUniqueRatio*100))
	}
	return true, ""
}

// capitalize upper-cases the first byte; method names are ASCII.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
