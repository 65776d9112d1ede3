// Package nlp enriches extracted articles with summaries, categories,
// named entities, sentiment and importance scores. A Provider backs the
// summarization and classification calls; every call degrades to the
// deterministic LocalAnalyzer when no provider is configured or a call
// fails, so enrichment never blocks on an external service.
package nlp

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/jmylchreest/gazeta/internal/logger"
	"github.com/jmylchreest/gazeta/pkg/filter"
	"github.com/jmylchreest/gazeta/pkg/textclean"
)

// Analysis holds the enrichment fields merged into article metadata.
type Analysis struct {
	Summary               string   `yaml:"summary" json:"summary"`
	Entities              Entities `yaml:"entities" json:"entities"`
	Sentiment             string   `yaml:"sentiment" json:"sentiment"`
	ImportanceScore       float64  `yaml:"importance_score" json:"importance_score"`
	Categories            []string `yaml:"categories" json:"categories"`
	ContentType           string   `yaml:"content_type,omitempty" json:"content_type,omitempty"`
	ContentTypeConfidence float64  `yaml:"content_type_confidence,omitempty" json:"content_type_confidence,omitempty"`
	Language              string   `yaml:"language" json:"language"`
	WordCount             int      `yaml:"word_count" json:"word_count"`
	ComplexityScore       float64  `yaml:"complexity_score" json:"complexity_score"`
	GeographicScope       string   `yaml:"geographic_scope" json:"geographic_scope"`
}

// Analyzer coordinates provider calls with local fallbacks.
type Analyzer struct {
	provider Provider
	local    LocalAnalyzer
}

// NewAnalyzer wraps a provider. A nil provider means local-only
// operation.
func NewAnalyzer(p Provider) *Analyzer {
	return &Analyzer{provider: p}
}

const (
	summaryInputRunes  = 3000
	classifyInputRunes = 500
	summaryMaxTokens   = 150
)

const (
	summaryPrompt  = "Summarize the news article in two or three sentences, in the language of the article. Reply with the summary only."
	classifyPrompt = "Label the kind of web page this text comes from and give your confidence between 0 and 1."
	categoryPrompt = "These words come from a news article URL. Pick the single best matching category."
)

// Analyze runs the full enrichment pass over one article. Content type
// fields are left empty; they come from a separate Classify call made
// before analysis.
func (a *Analyzer) Analyze(ctx context.Context, content, title, pageURL string, lang textclean.Language) *Analysis {
	entities := a.local.ExtractEntities(content)

	return &Analysis{
		Summary:         a.Summarize(ctx, content),
		Entities:        entities,
		Sentiment:       a.local.Sentiment(content),
		ImportanceScore: round2(a.local.ImportanceScore(content, title)),
		Categories:      []string{a.Categorize(ctx, pageURL)},
		Language:        LanguageCode(lang),
		WordCount:       len(strings.Fields(content)),
		ComplexityScore: round2(a.local.ComplexityScore(content)),
		GeographicScope: a.local.GeographicScope(content, entities.Locations),
	}
}

// Summarize produces a short summary, via the provider when available.
func (a *Analyzer) Summarize(ctx context.Context, content string) string {
	if a.provider == nil {
		return a.local.FallbackSummary(content)
	}

	resp, err := a.provider.Execute(ctx, Request{
		Messages: []Message{
			{Role: RoleSystem, Content: summaryPrompt},
			{Role: RoleUser, Content: firstRunes(content, summaryInputRunes)},
		},
		MaxTokens: summaryMaxTokens,
	})
	if err != nil {
		logger.Warn("summary call failed, using truncation",
			"provider", a.provider.Name(), "error", err)
		return a.local.FallbackSummary(content)
	}

	summary := strings.TrimSpace(resp.Content)
	if summary == "" {
		return a.local.FallbackSummary(content)
	}
	return summary
}

// Classify labels extracted content. Provider failures fall back to
// keyword classification, which never errors.
func (a *Analyzer) Classify(ctx context.Context, text, url string) (filter.ContentType, float64, error) {
	if a.provider != nil {
		label, confidence, err := a.classifyWithProvider(ctx, text, url)
		if err == nil {
			return label, confidence, nil
		}
		logger.Warn("classification call failed, using keyword fallback",
			"provider", a.provider.Name(), "error", err)
	}
	return filter.KeywordClassifier{}.Classify(ctx, text, url)
}

func (a *Analyzer) classifyWithProvider(ctx context.Context, text, url string) (filter.ContentType, float64, error) {
	prompt := fmt.Sprintf("This web content from URL %s appears to be about: %s",
		url, firstRunes(text, classifyInputRunes))

	resp, err := a.provider.Execute(ctx, Request{
		Messages: []Message{
			{Role: RoleSystem, Content: classifyPrompt},
			{Role: RoleUser, Content: prompt},
		},
		MaxTokens:  200,
		JSONSchema: classifySchema(),
	})
	if err != nil {
		return "", 0, err
	}

	label := gjson.Get(resp.Content, "content_type").String()
	confidence := gjson.Get(resp.Content, "confidence").Float()
	for _, t := range filter.ContentTypes() {
		if string(t) == label {
			return t, clamp01(confidence), nil
		}
	}
	return "", 0, fmt.Errorf("unexpected content type label %q", label)
}

// Categorize assigns one article category from the URL slug words.
func (a *Analyzer) Categorize(ctx context.Context, pageURL string) string {
	words := slugWords(pageURL)
	if len(words) == 0 {
		return "general"
	}

	if a.provider != nil {
		category, err := a.categorizeWithProvider(ctx, words)
		if err == nil {
			return category
		}
		logger.Warn("category call failed, using slug keywords",
			"provider", a.provider.Name(), "error", err)
	}
	return a.local.CategoryFromURL(pageURL)
}

func (a *Analyzer) categorizeWithProvider(ctx context.Context, words []string) (string, error) {
	resp, err := a.provider.Execute(ctx, Request{
		Messages: []Message{
			{Role: RoleSystem, Content: categoryPrompt},
			{Role: RoleUser, Content: strings.Join(words, " ")},
		},
		MaxTokens:  100,
		JSONSchema: categorySchema(),
	})
	if err != nil {
		return "", err
	}

	label := gjson.Get(resp.Content, "category").String()
	for _, l := range categoryLabels {
		if l == label {
			return mapCategory(label), nil
		}
	}
	return "", fmt.Errorf("unexpected category label %q", label)
}

func classifySchema() map[string]any {
	types := filter.ContentTypes()
	labels := make([]any, 0, len(types))
	for _, t := range types {
		labels = append(labels, string(t))
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"content_type": map[string]any{"type": "string", "enum": labels},
			"confidence":   map[string]any{"type": "number"},
		},
		"required": []any{"content_type", "confidence"},
	}
}

func categorySchema() map[string]any {
	labels := make([]any, 0, len(categoryLabels))
	for _, l := range categoryLabels {
		labels = append(labels, l)
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"category":   map[string]any{"type": "string", "enum": labels},
			"confidence": map[string]any{"type": "number"},
		},
		"required": []any{"category"},
	}
}

// LanguageCode maps a detected language to its two-letter metadata
// code.
func LanguageCode(lang textclean.Language) string {
	switch lang {
	case textclean.LanguageFrench:
		return "fr"
	case textclean.LanguageRomanian:
		return "ro"
	case textclean.LanguageEnglish:
		return "en"
	default:
		return string(lang)
	}
}

func firstRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

var _ filter.Classifier = (*Analyzer)(nil)
