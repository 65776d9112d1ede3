// Package cleaner provides interfaces and implementations for cleaning article HTML.
// Cleaners transform raw HTML into a form suitable for text extraction.
package cleaner

// Cleaner transforms HTML content into a cleaner format for extraction.
type Cleaner interface {
	// Clean transforms the input HTML into a cleaned format.
	// The output format depends on the implementation (HTML, markdown-annotated HTML, etc.).
	Clean(html string) (string, error)

	// Name returns the cleaner type for logging/debugging.
	Name() string
}
