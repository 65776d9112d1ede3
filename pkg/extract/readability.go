package extract

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	readability "codeberg.org/readeck/go-readability/v2"
	"github.com/PuerkitoBio/goquery"
)

// ReadabilityConfig tunes the content scorer.
type ReadabilityConfig struct {
	// NTopCandidates is the number of top-scoring candidates considered
	// (0 = library default).
	NTopCandidates int
	// CharThreshold is the minimum character count for a candidate
	// (0 = library default).
	CharThreshold int
	// MaxElemsToParse caps the number of parsed nodes (0 = no limit).
	MaxElemsToParse int
}

// ReadabilityBackend locates the most probable main-content region
// with a Readability.js-style scorer and renders it as plain text.
// Title, author, and date come from the document's metadata slots
// rather than the scored region.
type ReadabilityBackend struct {
	parser readability.Parser
}

// NewReadability creates a readability extraction backend. Pass nil
// for default configuration.
func NewReadability(cfg *ReadabilityConfig) *ReadabilityBackend {
	if cfg == nil {
		cfg = &ReadabilityConfig{}
	}

	parser := readability.NewParser()
	if cfg.NTopCandidates > 0 {
		parser.NTopCandidates = cfg.NTopCandidates
	}
	if cfg.CharThreshold > 0 {
		parser.CharThresholds = cfg.CharThreshold
	}
	if cfg.MaxElemsToParse > 0 {
		parser.MaxElemsToParse = cfg.MaxElemsToParse
	}

	return &ReadabilityBackend{parser: parser}
}

// Name implements Backend.
func (b *ReadabilityBackend) Name() string { return string(MethodReadability) }

// Extract implements Backend.
func (b *ReadabilityBackend) Extract(htmlContent, pageURL string) (Result, error) {
	var baseURL *url.URL
	if pageURL != "" {
		if u, err := url.Parse(pageURL); err == nil {
			baseURL = u
		}
	}

	res := Result{}
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent)); err == nil {
		res.Metadata = harvestMetadata(doc)
	}

	article, err := b.parser.Parse(strings.NewReader(htmlContent), baseURL)
	if err != nil {
		return res, fmt.Errorf("readability parse: %w", err)
	}
	if article.Node == nil {
		return res, nil
	}

	var buf bytes.Buffer
	if err := article.RenderText(&buf); err != nil {
		return res, fmt.Errorf("rendering article text: %w", err)
	}
	res.Text = reconstructParagraphs(buf.String())

	return res, nil
}
