package extract

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func mustParse(t *testing.T, input string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(input))
	if err != nil {
		t.Fatalf("parsing test document: %v", err)
	}
	return doc
}

func TestHarvestMetadata_MetaTagsWin(t *testing.T) {
	doc := mustParse(t, `<html><head>
<meta property="og:title" content="Budget Vote Delayed">
<meta name="author" content="Ana Pop">
<meta property="article:published_time" content="2024-03-12T08:00:00Z">
<title>Site | Budget</title>
</head><body><h1>Other Heading</h1></body></html>`)

	md := harvestMetadata(doc)
	if md.Title != "Budget Vote Delayed" {
		t.Errorf("title = %q, want og:title content", md.Title)
	}
	if md.Author != "Ana Pop" {
		t.Errorf("author = %q", md.Author)
	}
	if md.Date != "2024-03-12" {
		t.Errorf("date = %q, want normalized published_time", md.Date)
	}
}

func TestHarvestMetadata_VisibleFallbacks(t *testing.T) {
	doc := mustParse(t, `<html><body>
<h1>Le grand débat</h1>
<span class="author">Par Anne Martin</span>
<time datetime="2024-02-01T09:00:00+01:00">1 février 2024</time>
</body></html>`)

	md := harvestMetadata(doc)
	if md.Title != "Le grand débat" {
		t.Errorf("title = %q, want h1 text", md.Title)
	}
	if md.Author != "Anne Martin" {
		t.Errorf("author = %q, want byline without prefix", md.Author)
	}
	if md.Date != "2024-02-01" {
		t.Errorf("date = %q, want datetime attribute value", md.Date)
	}
}

func TestHarvestMetadata_TitleTagFallback(t *testing.T) {
	doc := mustParse(t, `<html><head><title>Plain Title</title></head><body><p>x</p></body></html>`)

	if md := harvestMetadata(doc); md.Title != "Plain Title" {
		t.Errorf("title = %q, want title tag text", md.Title)
	}
}

func TestHarvestMetadata_NothingFound(t *testing.T) {
	doc := mustParse(t, `<html><body><p>hello</p></body></html>`)

	if md := harvestMetadata(doc); md != (Metadata{}) {
		t.Errorf("expected empty metadata, got %+v", md)
	}
}

func TestTrimBylinePrefix(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"By John Smith", "John Smith"},
		{"by jane", "jane"},
		{"De Ion Popescu", "Ion Popescu"},
		{"Par Anne Martin", "Anne Martin"},
		{"VON Hans Gruber", "Hans Gruber"},
		{"Derek Smith", "Derek Smith"},
		{"By", "By"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := trimBylinePrefix(tt.in); got != tt.want {
			t.Errorf("trimBylinePrefix(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2024-03-12T10:30:00Z", "2024-03-12"},
		{"March 12, 2024", "2024-03-12"},
		{"2024/03/12", "2024-03-12"},
		{"12 mars 2024", "12 mars 2024"},
		{"  2024-03-12  ", "2024-03-12"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := normalizeDate(tt.in); got != tt.want {
			t.Errorf("normalizeDate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
