package textclean

import (
	"regexp"
	"sort"
)

// ApplyDomainPatterns deletes every match of a site's own cleanup regexes
// from text. Sites list these under cleanup_patterns in their rule file,
// grouped by category; the pipeline runs this before the generic Clean
// pass. Patterns that fail to compile are skipped.
func ApplyDomainPatterns(text string, patterns map[string][]string) string {
	categories := make([]string, 0, len(patterns))
	for category := range patterns {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	for _, category := range categories {
		for _, p := range patterns[category] {
			re, err := regexp.Compile("(?im)" + p)
			if err != nil {
				continue
			}
			text = re.ReplaceAllString(text, "")
		}
	}
	return text
}
