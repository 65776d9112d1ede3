package structural

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Cleaner strips non-content structure from HTML documents.
// It implements the cleaner.Cleaner interface.
type Cleaner struct {
	config *Config
	stats  *Stats
}

// New creates a new Cleaner with the given configuration.
// If config is nil, AggressiveConfig() is used.
func New(config *Config) *Cleaner {
	if config == nil {
		config = AggressiveConfig()
	}
	return &Cleaner{
		config: config,
	}
}

// Name returns the cleaner name for logging.
func (c *Cleaner) Name() string {
	return "structural"
}

// Clean transforms HTML content according to the configuration.
// This method implements the cleaner.Cleaner interface. Cleaning never
// fails: any internal error degrades to returning the input unchanged.
func (c *Cleaner) Clean(html string) (string, error) {
	result := c.CleanWithStats(html)
	return result.Content, nil
}

// CleanWithStats performs cleaning and returns detailed stats.
func (c *Cleaner) CleanWithStats(html string) *Result {
	startTime := time.Now()
	result := &Result{
		Stats: NewStats(),
	}
	result.Stats.InputBytes = len(html)

	// Comments are stripped textually before parsing so conditional
	// markup (<!--[if IE]> blocks and the like) never reaches the DOM.
	if c.config.StripComments {
		html = commentRegex.ReplaceAllString(html, "")
	}

	parseStart := time.Now()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	result.Stats.ParseDuration = time.Since(parseStart)

	if err != nil {
		// Graceful degradation: return original content with warning
		result.Content = html
		result.AddWarning("parse", "HTML parse failed, returning original", err.Error())
		result.Stats.OutputBytes = len(html)
		result.Stats.TotalDuration = time.Since(startTime)
		return result
	}

	transformStart := time.Now()
	c.transform(doc, result)
	result.Stats.TransformDuration = time.Since(transformStart)

	outputStart := time.Now()
	output, err := doc.Html()
	result.Stats.OutputDuration = time.Since(outputStart)

	if err != nil {
		result.Content = html
		result.AddWarning("output", "HTML render failed, returning original", err.Error())
		result.Stats.OutputBytes = len(html)
	} else {
		result.Content = normalizeWhitespace(output)
		result.Stats.OutputBytes = len(result.Content)
	}

	result.Stats.TotalDuration = time.Since(startTime)
	c.stats = result.Stats

	return result
}

// Stats returns the stats from the last Clean operation.
func (c *Cleaner) Stats() *Stats {
	return c.stats
}

// transform applies all configured transformations to the document.
func (c *Cleaner) transform(doc *goquery.Document, result *Result) {
	// Order matters: remove large chunks first, then clean attributes

	// 1. Remove elements by selector (user-defined, most specific)
	if len(c.config.RemoveSelectors) > 0 {
		c.removeBySelectors(doc, result)
	}

	// 2. Remove unconditionally unwanted tags
	for _, tag := range c.config.RemoveTags {
		c.removeElements(doc, tag, result)
	}

	// 3. Conditional header removal
	if c.config.RemoveConditionalHeaders {
		c.removeBareHeaders(doc, result)
	}

	// 4. Denylisted classes and ids
	if len(c.config.ClassDenylist) > 0 {
		c.removeDenylisted(doc, result)
	}

	// 5. Attribute allow-list
	if len(c.config.KeepAttributes) > 0 {
		c.cleanAttributes(doc, result)
	}

	// 6. Remove empty elements (after other removals)
	if c.config.StripEmptyElements {
		c.removeEmptyElements(doc, result)
	}

	// Count remaining elements
	doc.Find("*").Each(func(_ int, _ *goquery.Selection) {
		result.Stats.ElementsKept++
	})
}

// removeElements removes all elements matching the given tag.
func (c *Cleaner) removeElements(doc *goquery.Document, tag string, result *Result) {
	doc.Find(tag).Each(func(_ int, s *goquery.Selection) {
		if c.shouldKeep(s) {
			return
		}
		result.Stats.RecordRemoval(tag)
		s.Remove()
	})
}

// removeBySelectors removes elements matching user-defined selectors.
func (c *Cleaner) removeBySelectors(doc *goquery.Document, result *Result) {
	for _, selector := range c.config.RemoveSelectors {
		selection := doc.Find(selector)
		count := selection.Length()
		if count > 0 {
			result.Stats.RecordSelectorMatch(selector, count)
			selection.Each(func(_ int, s *goquery.Selection) {
				if !c.shouldKeep(s) {
					tagName := goquery.NodeName(s)
					result.Stats.RecordRemoval(tagName)
					s.Remove()
				}
			})
		}
	}
}

// shouldKeep checks if an element matches any keep selectors.
func (c *Cleaner) shouldKeep(s *goquery.Selection) bool {
	if len(c.config.KeepSelectors) == 0 {
		return false
	}
	for _, selector := range c.config.KeepSelectors {
		if s.Is(selector) {
			return true
		}
	}
	return false
}

// removeBareHeaders removes <header> elements that contain neither
// heading tags nor substantial text. A masthead full of nav links
// goes; an article header wrapping the h1 stays.
func (c *Cleaner) removeBareHeaders(doc *goquery.Document, result *Result) {
	threshold := c.config.HeaderTextThreshold
	if threshold <= 0 {
		threshold = 200
	}

	doc.Find("header").Each(func(_ int, s *goquery.Selection) {
		if c.shouldKeep(s) {
			return
		}
		if s.Find("h1, h2, h3, h4, h5, h6").Length() > 0 {
			return
		}
		if len(strings.TrimSpace(s.Text())) > threshold {
			return
		}
		result.Stats.HeaderRemovals++
		result.Stats.RecordRemoval("header")
		s.Remove()
	})
}

// removeDenylisted removes elements whose class or id contains a
// denylisted substring.
func (c *Cleaner) removeDenylisted(doc *goquery.Document, result *Result) {
	for _, substr := range c.config.ClassDenylist {
		selector := fmt.Sprintf("[class*=%q], [id*=%q]", substr, substr)
		doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			if c.shouldKeep(s) {
				return
			}
			result.Stats.DenylistRemovals++
			result.Stats.RecordRemoval(goquery.NodeName(s))
			s.Remove()
		})
	}
}

// cleanAttributes strips every attribute not on the allow-list.
func (c *Cleaner) cleanAttributes(doc *goquery.Document, result *Result) {
	keep := make(map[string]bool, len(c.config.KeepAttributes))
	for _, attr := range c.config.KeepAttributes {
		keep[strings.ToLower(attr)] = true
	}

	doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		var remove []string
		for _, attr := range s.Nodes[0].Attr {
			if !keep[strings.ToLower(attr.Key)] {
				remove = append(remove, attr.Key)
			}
		}
		for _, key := range remove {
			s.RemoveAttr(key)
			result.Stats.AttributesRemoved++
		}
	})
}

// removeEmptyElements removes elements with no text or meaningful children.
func (c *Cleaner) removeEmptyElements(doc *goquery.Document, result *Result) {
	// Elements that are allowed to be empty
	selfClosing := map[string]bool{
		"img": true, "br": true, "hr": true,
		"area": true, "base": true, "col": true,
		"source": true, "track": true, "wbr": true,
	}

	// Multiple passes since removing a child might make parent empty
	for i := 0; i < 3; i++ {
		removed := 0
		doc.Find("body *").Each(func(_ int, s *goquery.Selection) {
			tagName := goquery.NodeName(s)

			if selfClosing[tagName] {
				return
			}
			if c.shouldKeep(s) {
				return
			}

			if strings.TrimSpace(s.Text()) == "" && s.Children().Length() == 0 {
				result.Stats.EmptyElementRemovals++
				result.Stats.RecordRemoval(tagName)
				s.Remove()
				removed++
			}
		})
		if removed == 0 {
			break
		}
	}
}

var (
	// commentRegex matches HTML comments.
	commentRegex = regexp.MustCompile(`<!--[\s\S]*?-->`)

	// blankRunRegex matches runs of three or more newlines.
	blankRunRegex = regexp.MustCompile(`\n\s*\n\s*\n+`)

	// interTagRegex matches excessive whitespace between tags.
	interTagRegex = regexp.MustCompile(`>\s{3,}<`)

	// lineIndentRegex matches leading spaces and tabs on each line.
	lineIndentRegex = regexp.MustCompile(`(?m)^[ \t]+`)
)

// normalizeWhitespace tidies the rendered document without collapsing
// the line structure that markdown-annotated text relies on.
func normalizeWhitespace(html string) string {
	html = blankRunRegex.ReplaceAllString(html, "\n\n")
	html = interTagRegex.ReplaceAllString(html, ">\n<")
	html = lineIndentRegex.ReplaceAllString(html, "")
	return html
}
