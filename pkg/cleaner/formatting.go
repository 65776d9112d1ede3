package cleaner

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// emphasisMarkers maps inline formatting tags to their Markdown markers.
var emphasisMarkers = map[string]struct {
	open  string
	close string
}{
	"b":      {"**", "**"},
	"strong": {"**", "**"},
	"i":      {"*", "*"},
	"em":     {"*", "*"},
	"u":      {"<u>", "</u>"},
	"code":   {"`", "`"},
	"tt":     {"`", "`"},
}

const formattingTagSelector = "b, strong, i, em, u, code, tt"

// FormattingCleaner rewrites inline formatting tags as Markdown-equivalent
// text before structural cleaning discards them. Bold and italic become
// asterisk markers, code spans become backticks, blockquotes become
// "> "-prefixed lines, and anchors nested inside formatting are kept
// as [text](url).
//
// It must run before the structural cleaner in a chain, since the
// structural pass strips the semantic tags outright.
type FormattingCleaner struct{}

// NewFormatting creates a new formatting preserver.
func NewFormatting() *FormattingCleaner {
	return &FormattingCleaner{}
}

// Name returns the cleaner type.
func (c *FormattingCleaner) Name() string {
	return "formatting"
}

// Clean replaces inline formatting tags with Markdown markers.
// Parse failures are not fatal: the input is returned unchanged.
func (c *FormattingCleaner) Clean(htmlContent string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return htmlContent, nil
	}

	// Blockquotes first: they are block-level and may contain inline
	// formatting that renderInline handles recursively.
	doc.Find("blockquote").Each(func(_ int, s *goquery.Selection) {
		if detached(s) {
			return
		}
		text := strings.TrimSpace(renderInline(s.Nodes[0]))
		if text == "" {
			s.Remove()
			return
		}
		lines := strings.Split(text, "\n")
		for i, line := range lines {
			lines[i] = "> " + strings.TrimSpace(line)
		}
		quoted := "\n" + strings.Join(lines, "\n") + "\n"
		s.ReplaceWithNodes(textNode(quoted))
	})

	doc.Find(formattingTagSelector).Each(func(_ int, s *goquery.Selection) {
		// Nested formatting is rendered when its outermost ancestor is
		// replaced; skip anything that still has a formatting parent.
		if s.ParentsFiltered(formattingTagSelector).Length() > 0 {
			return
		}
		if detached(s) {
			return
		}
		s.ReplaceWithNodes(textNode(renderInline(s.Nodes[0])))
	})

	out, err := doc.Html()
	if err != nil {
		return htmlContent, nil
	}
	return out, nil
}

// detached reports whether a selection was already removed from the
// document by an earlier replacement.
func detached(s *goquery.Selection) bool {
	return len(s.Nodes) == 0 || s.Nodes[0].Parent == nil
}

// textNode builds a plain text node carrying Markdown markup.
func textNode(text string) *html.Node {
	return &html.Node{
		Type: html.TextNode,
		Data: text,
	}
}

// renderInline converts a formatting subtree to Markdown-annotated text.
// Whitespace hugging the inside of a marker pair is moved outside, so
// "** text**" is emitted as " **text**".
func renderInline(n *html.Node) string {
	switch n.Type {
	case html.TextNode:
		return n.Data
	case html.ElementNode:
		inner := renderChildren(n)

		if n.Data == "a" {
			return renderAnchor(n, inner)
		}
		if n.Data == "br" {
			return "\n"
		}

		marker, ok := emphasisMarkers[n.Data]
		if !ok {
			// Block children inside a blockquote keep their line breaks.
			if n.Data == "p" || n.Data == "div" || n.Data == "li" {
				return strings.TrimRight(inner, "\n") + "\n"
			}
			return inner
		}

		trimmed := strings.TrimSpace(inner)
		if trimmed == "" {
			return inner
		}
		lead := inner[:len(inner)-len(strings.TrimLeft(inner, " \t\n"))]
		trail := inner[len(strings.TrimRight(inner, " \t\n")):]
		return lead + marker.open + trimmed + marker.close + trail
	default:
		return ""
	}
}

// renderChildren concatenates the rendered children of a node.
func renderChildren(n *html.Node) string {
	var sb strings.Builder
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		sb.WriteString(renderInline(child))
	}
	return sb.String()
}

// renderAnchor emits a Markdown link for an anchor with an href,
// or just its text when no target exists.
func renderAnchor(n *html.Node, inner string) string {
	text := strings.TrimSpace(inner)
	if text == "" {
		return inner
	}
	for _, attr := range n.Attr {
		if attr.Key == "href" && attr.Val != "" {
			return "[" + text + "](" + attr.Val + ")"
		}
	}
	return text
}
