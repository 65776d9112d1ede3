package textclean

import (
	_ "embed"
	"fmt"
	"regexp"

	"gopkg.in/yaml.v3"
)

//go:embed patterns.yaml
var defaultPatterns []byte

// wallCategory is handled apart from the other categories: a hit there
// ends the document instead of dropping a single line.
const wallCategory = "subscription_walls"

type patternFile struct {
	Languages map[string]map[string][]string `yaml:"languages"`
	Universal map[string][]string            `yaml:"universal"`
}

// bank holds the compiled patterns for one language.
type bank struct {
	walls []*regexp.Regexp
	drops []*regexp.Regexp
}

func (b *bank) wallMatch(line string) bool {
	if b == nil {
		return false
	}
	for _, re := range b.walls {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

func (b *bank) dropMatch(line string) bool {
	if b == nil {
		return false
	}
	for _, re := range b.drops {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

func loadPatterns(data []byte) (*Cleaner, error) {
	var pf patternFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parsing pattern file: %w", err)
	}
	c := &Cleaner{banks: make(map[Language]*bank, len(pf.Languages))}
	for name, categories := range pf.Languages {
		lang, ok := ParseLanguage(name)
		if !ok {
			return nil, fmt.Errorf("pattern file: unknown language %q", name)
		}
		b := &bank{}
		for category, patterns := range categories {
			compiled, err := compilePatterns(patterns)
			if err != nil {
				return nil, fmt.Errorf("language %q category %q: %w", name, category, err)
			}
			if category == wallCategory {
				b.walls = compiled
			} else {
				b.drops = append(b.drops, compiled...)
			}
		}
		c.banks[lang] = b
	}
	for category, patterns := range pf.Universal {
		compiled, err := compilePatterns(patterns)
		if err != nil {
			return nil, fmt.Errorf("universal category %q: %w", category, err)
		}
		c.universal = append(c.universal, compiled...)
	}
	return c, nil
}

func compilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("compiling %q: %w", p, err)
		}
		out = append(out, re)
	}
	return out, nil
}
