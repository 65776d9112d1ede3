package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Tag sets for the block walker. Block tags contribute their full text
// as one paragraph; container tags are recursed into, with bare inline
// runs between their children flushed as paragraphs of their own.
var (
	heuristicBlockTags = map[string]bool{
		"p": true, "h1": true, "h2": true, "h3": true, "h4": true,
		"h5": true, "h6": true, "li": true, "blockquote": true,
		"pre": true, "figcaption": true, "dt": true, "dd": true,
		"td": true, "th": true,
	}
	heuristicContainerTags = map[string]bool{
		"html": true, "body": true, "div": true, "section": true,
		"article": true, "main": true, "ul": true, "ol": true,
		"dl": true, "table": true, "thead": true, "tbody": true,
		"tfoot": true, "tr": true, "figure": true, "header": true,
		"footer": true, "hgroup": true,
	}
)

// HeuristicBackend rebuilds article text from block-level elements in
// cleaned HTML. It assumes the aggressive cleaning profile already
// removed navigation and boilerplate, so whatever text remains is
// treated as content.
type HeuristicBackend struct{}

// NewHeuristic creates a heuristic extraction backend.
func NewHeuristic() *HeuristicBackend {
	return &HeuristicBackend{}
}

// Name implements Backend.
func (b *HeuristicBackend) Name() string { return string(MethodHeuristic) }

// Extract implements Backend. pageURL is unused; this backend works
// from document content alone.
func (b *HeuristicBackend) Extract(htmlContent, pageURL string) (Result, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return Result{}, fmt.Errorf("parsing html: %w", err)
	}

	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}

	return Result{
		Text:     strings.Join(collectBlocks(root), "\n\n"),
		Metadata: harvestMetadata(doc),
	}, nil
}

// collectBlocks walks the tree under root in document order and
// returns one string per logical paragraph.
func collectBlocks(root *goquery.Selection) []string {
	var blocks []string
	appendBlock := func(text string) {
		if text != "" {
			blocks = append(blocks, text)
		}
	}

	var walk func(*goquery.Selection)
	walk = func(s *goquery.Selection) {
		var run strings.Builder
		flush := func() {
			appendBlock(normalizeBlock(run.String()))
			run.Reset()
		}
		s.Contents().Each(func(_ int, child *goquery.Selection) {
			node := child.Get(0)
			switch {
			case node.Type == html.TextNode:
				run.WriteString(node.Data)
			case node.Type != html.ElementNode:
				// comments, doctypes
			case heuristicBlockTags[node.Data]:
				flush()
				appendBlock(normalizeBlock(child.Text()))
			case heuristicContainerTags[node.Data]:
				flush()
				walk(child)
			case node.Data == "br":
				flush()
			default:
				// inline element, its text joins the current run
				run.WriteString(child.Text())
			}
		})
		flush()
	}
	walk(root)

	return blocks
}

// normalizeBlock trims and de-spaces one block of text. Line breaks
// survive only for "> "-quoted lines so blockquote formatting emitted
// upstream stays intact; everything else joins into a single line.
func normalizeBlock(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	var kept []string
	quoted := false
	for _, line := range strings.Split(text, "\n") {
		line = collapseSpaces(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "> ") {
			quoted = true
		}
		kept = append(kept, line)
	}
	if len(kept) == 0 {
		return ""
	}
	if quoted {
		return strings.Join(kept, "\n")
	}
	return strings.Join(kept, " ")
}
