package nlp

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jmylchreest/gazeta/pkg/filter"
	"github.com/jmylchreest/gazeta/pkg/textclean"
)

// fakeProvider returns canned content and records the last request.
type fakeProvider struct {
	content string
	err     error
	lastReq Request
	calls   int
}

func (f *fakeProvider) Execute(_ context.Context, req Request) (*Response, error) {
	f.lastReq = req
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &Response{Content: f.content, FinishReason: "stop"}, nil
}

func (f *fakeProvider) Name() string  { return "fake" }
func (f *fakeProvider) Model() string { return "fake-model" }

func TestClassify_ProviderLabel(t *testing.T) {
	fake := &fakeProvider{content: `{"content_type":"shopping_guide","confidence":0.91}`}
	a := NewAnalyzer(fake)

	label, confidence, err := a.Classify(context.Background(), "Quel chargeur choisir cette année", "https://example.com/guides/1")
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if label != filter.ContentShoppingGuide {
		t.Errorf("label = %q, want %q", label, filter.ContentShoppingGuide)
	}
	if confidence != 0.91 {
		t.Errorf("confidence = %v, want 0.91", confidence)
	}

	if fake.lastReq.JSONSchema == nil {
		t.Fatal("expected a JSON schema on the request")
	}
	props, ok := fake.lastReq.JSONSchema["properties"].(map[string]any)
	if !ok || props["content_type"] == nil {
		t.Errorf("schema missing content_type property: %v", fake.lastReq.JSONSchema)
	}
	if _, ok := fake.lastReq.JSONSchema["required"].([]any); !ok {
		t.Errorf("schema required must be []any for tool-call providers")
	}
}

func TestClassify_FallsBackOnProviderError(t *testing.T) {
	fake := &fakeProvider{err: errors.New("model unavailable")}
	a := NewAnalyzer(fake)

	label, confidence, err := a.Classify(context.Background(), "The parliament voted on the bill yesterday.", "https://example.com/p/1")
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if label != filter.ContentNewsArticle || confidence != 0.5 {
		t.Errorf("fallback = (%q, %v), want (news_article, 0.5)", label, confidence)
	}
}

func TestClassify_RejectsUnknownLabel(t *testing.T) {
	fake := &fakeProvider{content: `{"content_type":"poetry","confidence":0.99}`}
	a := NewAnalyzer(fake)

	label, confidence, err := a.Classify(context.Background(), "The parliament voted on the bill yesterday.", "")
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if label != filter.ContentNewsArticle || confidence != 0.5 {
		t.Errorf("got (%q, %v), want keyword fallback (news_article, 0.5)", label, confidence)
	}
}

func TestSummarize_Provider(t *testing.T) {
	fake := &fakeProvider{content: "  Une synthèse concise.\n"}
	a := NewAnalyzer(fake)

	got := a.Summarize(context.Background(), strings.Repeat("phrase ", 100))
	if got != "Une synthèse concise." {
		t.Errorf("Summarize() = %q", got)
	}
	if len(fake.lastReq.Messages) != 2 || fake.lastReq.Messages[0].Role != RoleSystem {
		t.Errorf("unexpected message shape: %+v", fake.lastReq.Messages)
	}
}

func TestSummarize_EmptyProviderResponseFallsBack(t *testing.T) {
	fake := &fakeProvider{content: "   "}
	a := NewAnalyzer(fake)

	content := strings.Repeat("a", 250)
	want := strings.Repeat("a", 200) + "..."
	if got := a.Summarize(context.Background(), content); got != want {
		t.Errorf("Summarize() = %q, want truncation fallback", got)
	}
}

func TestSummarize_NilProviderTruncates(t *testing.T) {
	a := NewAnalyzer(nil)

	if got := a.Summarize(context.Background(), "Texte court."); got != "Texte court." {
		t.Errorf("Summarize() = %q, want input unchanged", got)
	}
}

func TestCategorize_Provider(t *testing.T) {
	fake := &fakeProvider{content: `{"category":"tehnologie","confidence":0.83}`}
	a := NewAnalyzer(fake)

	got := a.Categorize(context.Background(), "https://www.bzi.ro/ceva-despre-telefoane-999")
	if got != "technology" {
		t.Errorf("Categorize() = %q, want %q", got, "technology")
	}
}

func TestCategorize_InvalidLabelUsesSlug(t *testing.T) {
	fake := &fakeProvider{content: `{"category":"astrologie","confidence":0.4}`}
	a := NewAnalyzer(fake)

	got := a.Categorize(context.Background(), "https://www.bzi.ro/sport/meci-decisiv-11")
	if got != "sport" {
		t.Errorf("Categorize() = %q, want %q", got, "sport")
	}
}

func TestCategorize_EmptySlugSkipsProvider(t *testing.T) {
	fake := &fakeProvider{content: `{"category":"sport","confidence":0.9}`}
	a := NewAnalyzer(fake)

	if got := a.Categorize(context.Background(), "https://www.bzi.ro/"); got != "general" {
		t.Errorf("Categorize() = %q, want %q", got, "general")
	}
	if fake.calls != 0 {
		t.Errorf("provider called %d times for an empty slug", fake.calls)
	}
}

func TestAnalyze_LocalOnly(t *testing.T) {
	a := NewAnalyzer(nil)

	content := "La crise continue à Paris."
	got := a.Analyze(context.Background(), content, "Un point sur la situation",
		"https://www.bzi.ro/politic/vot-in-parlament-55", textclean.LanguageFrench)

	if got.Summary != content {
		t.Errorf("Summary = %q, want short content unchanged", got.Summary)
	}
	if got.Sentiment != "negative" {
		t.Errorf("Sentiment = %q, want negative", got.Sentiment)
	}
	almost(t, got.ImportanceScore, 0.25)
	if !equalStrings(got.Categories, []string{"politic"}) {
		t.Errorf("Categories = %v, want [politic]", got.Categories)
	}
	if got.Language != "fr" {
		t.Errorf("Language = %q, want fr", got.Language)
	}
	if got.WordCount != 5 {
		t.Errorf("WordCount = %d, want 5", got.WordCount)
	}
	if got.GeographicScope != "national" {
		t.Errorf("GeographicScope = %q, want national", got.GeographicScope)
	}
	if !equalStrings(got.Entities.Locations, []string{"Paris"}) {
		t.Errorf("Locations = %v, want [Paris]", got.Entities.Locations)
	}
	if got.ComplexityScore <= 0 || got.ComplexityScore > 1 {
		t.Errorf("ComplexityScore = %v, want in (0,1]", got.ComplexityScore)
	}
	if got.ContentType != "" {
		t.Errorf("ContentType = %q, want unset before classification", got.ContentType)
	}
}

func TestLanguageCode(t *testing.T) {
	tests := []struct {
		lang textclean.Language
		want string
	}{
		{textclean.LanguageFrench, "fr"},
		{textclean.LanguageRomanian, "ro"},
		{textclean.LanguageEnglish, "en"},
		{textclean.Language(""), ""},
	}

	for _, tt := range tests {
		if got := LanguageCode(tt.lang); got != tt.want {
			t.Errorf("LanguageCode(%q) = %q, want %q", tt.lang, got, tt.want)
		}
	}
}
