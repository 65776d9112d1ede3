package filter

import (
	"context"
	"testing"
)

func TestContentTypeKeep(t *testing.T) {
	keep := map[ContentType]bool{
		ContentNewsArticle:    true,
		ContentOpinionArticle: true,
	}
	for _, ct := range ContentTypes() {
		if got := ct.Keep(); got != keep[ct] {
			t.Errorf("%s.Keep() = %v, want %v", ct, got, keep[ct])
		}
	}
}

func TestKeywordClassifier(t *testing.T) {
	tests := []struct {
		name string
		text string
		want ContentType
	}{
		{
			name: "shopping keywords",
			text: "Our guide to the finest laptops this season",
			want: ContentShoppingGuide,
		},
		{
			name: "about keywords",
			text: "You can reach the newsroom via the contact form",
			want: ContentAboutPage,
		},
		{
			name: "plain news",
			text: "The parliament voted on the bill yesterday evening",
			want: ContentNewsArticle,
		},
	}
	var c KeywordClassifier
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, confidence, err := c.Classify(context.Background(), tt.text, "")
			if err != nil {
				t.Fatalf("Classify() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Classify(%q) = %s, want %s", tt.text, got, tt.want)
			}
			if confidence <= 0 || confidence > 1 {
				t.Errorf("confidence = %f, want in (0, 1]", confidence)
			}
		})
	}
}
