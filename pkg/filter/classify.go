package filter

import (
	"context"
	"strings"
)

// ContentType labels what kind of page a piece of extracted text is.
type ContentType string

const (
	ContentNewsArticle    ContentType = "news_article"
	ContentOpinionArticle ContentType = "opinion_article"
	ContentShoppingGuide  ContentType = "shopping_guide"
	ContentCategoryPage   ContentType = "category_page"
	ContentFAQPage        ContentType = "faq_page"
	ContentLegalPage      ContentType = "legal_page"
	ContentAdvertisement  ContentType = "advertisement"
	ContentAboutPage      ContentType = "about_page"
)

// ContentTypes lists every label a classifier may return.
func ContentTypes() []ContentType {
	return []ContentType{
		ContentNewsArticle,
		ContentOpinionArticle,
		ContentShoppingGuide,
		ContentCategoryPage,
		ContentFAQPage,
		ContentLegalPage,
		ContentAdvertisement,
		ContentAboutPage,
	}
}

// Keep reports whether pages of this type are worth archiving. Only real
// articles and opinion pieces are.
func (t ContentType) Keep() bool {
	return t == ContentNewsArticle || t == ContentOpinionArticle
}

// Classifier assigns a ContentType and a confidence to extracted text.
// Implementations may call out to a language model; KeywordClassifier is
// the offline fallback.
type Classifier interface {
	Classify(ctx context.Context, text, url string) (ContentType, float64, error)
}

// KeywordClassifier labels text from surface keywords alone. It never
// fails, so it also serves as the fallback when a model-backed
// classifier is unavailable.
type KeywordClassifier struct{}

func (KeywordClassifier) Classify(_ context.Context, text, _ string) (ContentType, float64, error) {
	lower := strings.ToLower(text)
	for _, w := range []string{"guide", "test", "review", "best", "top"} {
		if strings.Contains(lower, w) {
			return ContentShoppingGuide, 0.7, nil
		}
	}
	for _, w := range []string{"about", "contact", "terms", "privacy"} {
		if strings.Contains(lower, w) {
			return ContentAboutPage, 0.8, nil
		}
	}
	return ContentNewsArticle, 0.5, nil
}
