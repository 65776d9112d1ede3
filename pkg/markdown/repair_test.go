package markdown

import (
	"strings"
	"testing"
)

func TestRepairFormatting(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "closing marker rejoined across line break",
			input: "He said **the war would end**\nThe next day brought proof.",
			want:  "He said **the war would end** The next day brought proof.",
		},
		{
			name:  "italic marker rejoined",
			input: "a note in *petit*\nformat here",
			want:  "a note in *petit*format here",
		},
		{
			name:  "asterisk run collapses to bold",
			input: "***Breaking news***",
			want:  "**Breaking news**",
		},
		{
			name:  "empty bold pair removed",
			input: "Before ** ** after",
			want:  "Before  after",
		},
		{
			name:  "empty italic pair removed",
			input: "Empty * * italic",
			want:  "Empty  italic",
		},
		{
			name:  "empty code pair removed",
			input: "Code ` ` gone",
			want:  "Code  gone",
		},
		{
			name:  "space restored before opening bold",
			input: "price**rises** soon",
			want:  "price **rises** soon",
		},
		{
			name:  "space restored after closing bold",
			input: "**rises**sharply today",
			want:  "**rises** sharply today",
		},
		{
			name:  "well formed text untouched",
			input: "Plain text with **bold** and *italic* markers.",
			want:  "Plain text with **bold** and *italic* markers.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := repairFormatting(tt.input)
			if got != tt.want {
				t.Errorf("repairFormatting(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if again := repairFormatting(got); again != got {
				t.Errorf("repair is not idempotent: %q then %q", got, again)
			}
		})
	}
}

func TestSpaceBoldMarkers_PunctuationBoundary(t *testing.T) {
	// Markers adjacent to punctuation need no spacing.
	input := `End of sentence.**Bold follows** ("**quoted**")`
	if got := spaceBoldMarkers(input); got != input {
		t.Errorf("spaceBoldMarkers changed %q to %q", input, got)
	}
}

func TestRepairFormatting_MultilineDocument(t *testing.T) {
	input := "First line stays.\nSecond has a stray ***run*** of markers.\nThird is fine."
	got := repairFormatting(input)
	if !strings.Contains(got, "**run**") {
		t.Errorf("expected run collapsed to bold, got %q", got)
	}
	if strings.Count(got, "\n") != 2 {
		t.Errorf("line structure changed: %q", got)
	}
}
