package extract

import (
	"strings"
	"testing"
)

func TestHeuristic_Extract(t *testing.T) {
	input := `<html><head></head><body>
<h1>Storm Warning Issued</h1>
<div class="article-body">
<p>Forecasters said the storm would reach the coast by nightfall.</p>
<p>Residents were told to move inland.</p>
Officials opened three shelters downtown.
<ul><li>Bring water</li><li>Bring batteries</li></ul>
</div>
</body></html>`

	want := "Storm Warning Issued\n\n" +
		"Forecasters said the storm would reach the coast by nightfall.\n\n" +
		"Residents were told to move inland.\n\n" +
		"Officials opened three shelters downtown.\n\n" +
		"Bring water\n\n" +
		"Bring batteries"

	res, err := NewHeuristic().Extract(input, "")
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	if res.Text != want {
		t.Errorf("Extract() text:\n%q\nwant:\n%q", res.Text, want)
	}
	if res.Metadata.Title != "Storm Warning Issued" {
		t.Errorf("title = %q, want h1 text", res.Metadata.Title)
	}
	if res.Metadata.Author != "" || res.Metadata.Date != "" {
		t.Errorf("unexpected metadata: %+v", res.Metadata)
	}
}

func TestHeuristic_QuotedLinesKeepBreaks(t *testing.T) {
	input := `<html><body><div>&gt; He said it would rain.
&gt; He was right.</div></body></html>`

	res, err := NewHeuristic().Extract(input, "")
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	want := "> He said it would rain.\n> He was right."
	if res.Text != want {
		t.Errorf("Extract() text = %q, want %q", res.Text, want)
	}
}

func TestHeuristic_NestedBlocksNotDuplicated(t *testing.T) {
	input := `<html><body><blockquote><p>Quoted paragraph.</p></blockquote></body></html>`

	res, err := NewHeuristic().Extract(input, "")
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	if n := strings.Count(res.Text, "Quoted paragraph."); n != 1 {
		t.Errorf("nested block text appears %d times in %q", n, res.Text)
	}
}

func TestHeuristic_InlineRunsJoin(t *testing.T) {
	input := `<html><body><div>Written by <span>Jane</span> on scene.</div></body></html>`

	res, err := NewHeuristic().Extract(input, "")
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	if res.Text != "Written by Jane on scene." {
		t.Errorf("Extract() text = %q", res.Text)
	}
}

func TestHeuristic_BrSplitsRuns(t *testing.T) {
	input := `<html><body><div>First part<br>Second part</div></body></html>`

	res, err := NewHeuristic().Extract(input, "")
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	if res.Text != "First part\n\nSecond part" {
		t.Errorf("Extract() text = %q", res.Text)
	}
}

func TestHeuristic_VisibleMetadata(t *testing.T) {
	input := `<html><body>
<h1>Election Results</h1>
<div class="byline">By Jane Doe</div>
<time>March 12, 2024</time>
<p>Counting finished overnight in all districts.</p>
</body></html>`

	res, err := NewHeuristic().Extract(input, "")
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	if res.Metadata.Title != "Election Results" {
		t.Errorf("title = %q", res.Metadata.Title)
	}
	if res.Metadata.Author != "Jane Doe" {
		t.Errorf("author = %q, want byline without prefix", res.Metadata.Author)
	}
	if res.Metadata.Date != "2024-03-12" {
		t.Errorf("date = %q, want normalized form", res.Metadata.Date)
	}
}

func TestHeuristic_EmptyDocument(t *testing.T) {
	for _, input := range []string{"", "<html><body></body></html>"} {
		res, err := NewHeuristic().Extract(input, "")
		if err != nil {
			t.Fatalf("Extract(%q) error: %v", input, err)
		}
		if res.Text != "" {
			t.Errorf("Extract(%q) text = %q, want empty", input, res.Text)
		}
	}
}
