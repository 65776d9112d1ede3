package markdown

import (
	"strings"
	"testing"
)

func TestPromoteHeaders_Evidence(t *testing.T) {
	html := `<html><body><h1>Titre Principal</h1><h3>Les Détails</h3></body></html>`
	text := "Titre Principal\n" +
		"Le gouvernement a annoncé de nouvelles mesures économiques pour le printemps.\n" +
		"\n" +
		"Les Détails\n" +
		"La mise en application commence lundi."

	want := "# Titre Principal\n" +
		strings.Repeat("=", 15) + "\n" +
		"Le gouvernement a annoncé de nouvelles mesures économiques pour le printemps.\n" +
		"\n" +
		"### Les Détails\n" +
		"La mise en application commence lundi."

	got := NewWithEvidence(html).promoteHeaders(text)
	if got != want {
		t.Errorf("promoteHeaders:\n%q\nwant:\n%q", got, want)
	}
}

func TestPromoteHeaders_EvidenceUnicodeNormalized(t *testing.T) {
	// Decomposed accent in the tag, composed in the text.
	html := "<h2>Café Review</h2>"
	text := "Café Review\nThe tasting panel visited twelve places across the old town district."

	got := NewWithEvidence(html).promoteHeaders(text)
	if !strings.Contains(got, "## Café Review") {
		t.Errorf("expected level 2 promotion, got %q", got)
	}
	if !strings.Contains(got, strings.Repeat("-", 11)) {
		t.Errorf("expected dash underline, got %q", got)
	}
}

func TestPromoteHeaders_HeuristicFirstLine(t *testing.T) {
	text := "Guvernul anunță măsuri\n" +
		"Potrivit ministerului, noile reguli intră în vigoare de luni în toate județele."

	got := New().promoteHeaders(text)
	wantPrefix := "# Guvernul anunță măsuri\n" + strings.Repeat("=", 22) + "\n"
	if !strings.HasPrefix(got, wantPrefix) {
		t.Errorf("expected level 1 heading with underline, got %q", got)
	}
}

func TestPromoteHeaders_HeuristicLaterLineGetsLevelTwo(t *testing.T) {
	text := "Ancheta a durat trei luni și a acoperit mai multe instituții publice.\n" +
		"Concluziile anchetei\n" +
		"Procurorii au transmis dosarul către instanța competentă săptămâna viitoare."

	want := "Ancheta a durat trei luni și a acoperit mai multe instituții publice.\n" +
		"\n" +
		"## Concluziile anchetei\n" +
		strings.Repeat("-", 20) + "\n" +
		"Procurorii au transmis dosarul către instanța competentă săptămâna viitoare."

	got := New().promoteHeaders(text)
	if got != want {
		t.Errorf("promoteHeaders:\n%q\nwant:\n%q", got, want)
	}
}

func TestPromoteHeaders_Rejections(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{
			name: "continuation word start",
			text: "Pentru moment nimic nou\nUrmează al doilea rând care este suficient de lung să pară proză reală.",
		},
		{
			name: "terminal punctuation",
			text: "Aceasta este o propoziție.\nUrmează al doilea rând care este suficient de lung să pară proză reală.",
		},
		{
			name: "next line not prose-like",
			text: "Titlu scurt aici\nmic",
		},
		{
			name: "too short",
			text: "Nou\nUrmează al doilea rând care este suficient de lung să pară proză reală.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := New().promoteHeaders(tt.text); strings.Contains(got, "#") {
				t.Errorf("unexpected promotion in %q", got)
			}
		})
	}
}

func TestPromoteHeaders_ExistingMarkupUntouched(t *testing.T) {
	atx := "# Existing Header\nSome body text follows that is long enough to be a paragraph here."
	if got := New().promoteHeaders(atx); got != atx {
		t.Errorf("ATX header changed:\n%q", got)
	}

	setext := "Existing Title\n==============\nLa prose continue ici avec suffisamment de mots pour une ligne complète."
	n := NewWithEvidence("<h1>Existing Title</h1>")
	if got := n.promoteHeaders(setext); got != setext {
		t.Errorf("setext header changed:\n%q", got)
	}
}

func TestPromoteHeaders_NoBlankBetweenConsecutiveHeaders(t *testing.T) {
	n := NewWithEvidence("<h1>Main Story Headline</h1><h2>Secondary Deck Line</h2>")
	text := "Main Story Headline\nSecondary Deck Line\nThe article body starts here with a full sentence of reasonable length."

	got := n.promoteHeaders(text)
	if strings.Contains(got, "\n\n## Secondary Deck Line") {
		t.Errorf("blank line inserted between adjacent headers:\n%q", got)
	}
	if !strings.Contains(got, "# Main Story Headline") || !strings.Contains(got, "## Secondary Deck Line") {
		t.Errorf("expected both headers promoted:\n%q", got)
	}
}

func TestHeadingKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Titre   Principal ", "titre principal"},
		{"Café", "café"},
		{"UPPER case", "upper case"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := headingKey(tt.in); got != tt.want {
			t.Errorf("headingKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCollectHeadingEvidence(t *testing.T) {
	html := `<html><body>
<h1>Top Level</h1>
<h2>Second Level</h2>
<h2>  </h2>
</body></html>`

	evidence := collectHeadingEvidence(html)
	if evidence["top level"] != 1 {
		t.Errorf("h1 level = %d", evidence["top level"])
	}
	if evidence["second level"] != 2 {
		t.Errorf("h2 level = %d", evidence["second level"])
	}
	if len(evidence) != 2 {
		t.Errorf("blank heading collected: %v", evidence)
	}

	if got := collectHeadingEvidence(""); got != nil {
		t.Errorf("expected nil evidence for empty input, got %v", got)
	}
	if got := collectHeadingEvidence("<p>no headings</p>"); got != nil {
		t.Errorf("expected nil evidence without headings, got %v", got)
	}
}
