// Package markdown normalizes extractor output into tidy Markdown.
//
// Three passes always run in order: inline formatting repair, header
// promotion, and paragraph reconstruction. Normalization is idempotent;
// running it twice yields the same document.
package markdown

// Normalizer applies the cleanup passes to one document.
type Normalizer struct {
	evidence map[string]int
}

// New creates a Normalizer without heading evidence; header promotion
// then relies on the line heuristic alone.
func New() *Normalizer {
	return &Normalizer{}
}

// NewWithEvidence creates a Normalizer that additionally promotes any
// line whose text matches a real h1-h6 heading in htmlContent, at the
// tag's level. Matching is case-insensitive and Unicode-normalized.
func NewWithEvidence(htmlContent string) *Normalizer {
	return &Normalizer{evidence: collectHeadingEvidence(htmlContent)}
}

// Normalize runs formatting repair, header promotion, and paragraph
// reconstruction over text.
func (n *Normalizer) Normalize(text string) string {
	if text == "" {
		return text
	}
	text = repairFormatting(text)
	text = n.promoteHeaders(text)
	text = reconstructParagraphs(text)
	return text
}
