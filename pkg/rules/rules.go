// Package rules loads and validates per-domain extraction rules.
//
// Each domain gets one YAML file named after it (for example
// "www.lemonde.fr.yaml") describing which regions of a page hold the
// article, which regions must be removed, and how custom sections such
// as title or author are located and formatted. Absence of a rules
// file is valid: generic extraction applies.
package rules

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Rules holds the extraction configuration for a single domain.
type Rules struct {
	Domain   string `json:"domain" yaml:"domain" validate:"required"`
	Language string `json:"language,omitempty" yaml:"language,omitempty"`

	ContentFilters ContentFilters `json:"content_filters,omitempty" yaml:"content_filters,omitempty"`

	// ArticleSelectors locate the main content region, tried in order.
	ArticleSelectors []string `json:"article_selectors,omitempty" yaml:"article_selectors,omitempty"`

	// RemoveSelectors are stripped from the document before extraction.
	RemoveSelectors []string `json:"remove_selectors,omitempty" yaml:"remove_selectors,omitempty"`

	TitleSelector  string `json:"title_selector,omitempty" yaml:"title_selector,omitempty"`
	DateSelector   string `json:"date_selector,omitempty" yaml:"date_selector,omitempty"`
	AuthorSelector string `json:"author_selector,omitempty" yaml:"author_selector,omitempty"`

	// CleanupPatterns maps a category (subscription_walls,
	// navigation_elements, ...) to regexes deleted from the extracted
	// text before the generic language pass runs.
	CleanupPatterns map[string][]string `json:"cleanup_patterns,omitempty" yaml:"cleanup_patterns,omitempty"`

	CustomSections CustomSections `json:"custom_content_sections,omitempty" yaml:"custom_content_sections,omitempty"`
}

// ContentFilters controls URL-level filtering for a domain.
type ContentFilters struct {
	RequireArticleID       bool     `json:"require_article_id" yaml:"require_article_id"`
	ArticleIDPattern       string   `json:"article_id_pattern,omitempty" yaml:"article_id_pattern,omitempty"`
	MinWordCount           int      `json:"min_word_count,omitempty" yaml:"min_word_count,omitempty" validate:"omitempty,min=0"`
	AdditionalSkipPatterns []string `json:"additional_skip_patterns,omitempty" yaml:"additional_skip_patterns,omitempty"`
	AllowNoIDPages         bool     `json:"allow_no_id_pages,omitempty" yaml:"allow_no_id_pages,omitempty"`
}

// CustomSections configures the ordered section blocks prepended to
// the extracted body.
type CustomSections struct {
	Enabled           bool              `json:"enabled" yaml:"enabled"`
	Sections          []Section         `json:"sections,omitempty" yaml:"sections,omitempty" validate:"dive"`
	ProcessingOptions ProcessingOptions `json:"processing_options,omitempty" yaml:"processing_options,omitempty"`
}

// Section describes a single named content section.
type Section struct {
	Name        string `json:"name" yaml:"name" validate:"required"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Selectors are tried in order; the first match with more than
	// three characters of text wins. A selector may use the prefix
	// "js:path.to.value" to read a value out of a JSON object assigned
	// to a variable in an inline script.
	Selectors         []string `json:"selectors,omitempty" yaml:"selectors,omitempty"`
	FallbackSelectors []string `json:"fallback_selectors,omitempty" yaml:"fallback_selectors,omitempty"`

	// Format is a template with a {content} placeholder, e.g.
	// "# {content}" or "*By {content}*".
	Format string `json:"format,omitempty" yaml:"format,omitempty"`

	// CleanPatterns are regexes removed from this section's text.
	CleanPatterns []string `json:"clean_patterns,omitempty" yaml:"clean_patterns,omitempty"`

	Required bool `json:"required,omitempty" yaml:"required,omitempty"`
	Order    int  `json:"order,omitempty" yaml:"order,omitempty"`

	// MaxLength overrides ProcessingOptions.MaxSectionLength when set.
	MaxLength int `json:"max_length,omitempty" yaml:"max_length,omitempty" validate:"omitempty,min=0"`
}

// ProcessingOptions tunes section post-processing.
type ProcessingOptions struct {
	TrimWhitespace              bool    `json:"trim_whitespace" yaml:"trim_whitespace"`
	RemoveEmptySections         bool    `json:"remove_empty_sections" yaml:"remove_empty_sections"`
	AddSeparatorBetweenSections bool    `json:"add_separator_between_sections" yaml:"add_separator_between_sections"`
	Separator                   string  `json:"separator,omitempty" yaml:"separator,omitempty"`
	MaxSectionLength            int     `json:"max_section_length,omitempty" yaml:"max_section_length,omitempty" validate:"omitempty,min=0"`
	SkipDuplicates              bool    `json:"skip_duplicates" yaml:"skip_duplicates"`
	DuplicateThreshold          float64 `json:"duplicate_threshold,omitempty" yaml:"duplicate_threshold,omitempty" validate:"omitempty,gte=0,lte=1"`
}

// DefaultProcessingOptions returns the options used when a rules file
// omits them.
func DefaultProcessingOptions() ProcessingOptions {
	return ProcessingOptions{
		TrimWhitespace:              true,
		RemoveEmptySections:         true,
		AddSeparatorBetweenSections: true,
		Separator:                   "\n\n",
		MaxSectionLength:            500,
		SkipDuplicates:              true,
		DuplicateThreshold:          0.8,
	}
}

var validate = validator.New()

// FromFile loads rules from a YAML file.
func FromFile(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	r, err := FromYAML(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return r, nil
}

// FromYAML parses and validates rules from YAML data.
func FromYAML(data []byte) (*Rules, error) {
	var r Rules
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse YAML rules: %w", err)
	}
	r.applyDefaults()
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

// applyDefaults fills zero-valued processing options.
func (r *Rules) applyDefaults() {
	def := DefaultProcessingOptions()
	opts := &r.CustomSections.ProcessingOptions
	if opts.Separator == "" {
		opts.Separator = def.Separator
	}
	if opts.MaxSectionLength == 0 {
		opts.MaxSectionLength = def.MaxSectionLength
	}
	if opts.DuplicateThreshold == 0 {
		opts.DuplicateThreshold = def.DuplicateThreshold
	}
}

// Validate checks structural constraints and compiles every regex the
// rules carry so a broken pattern fails at load time, not per page.
func (r *Rules) Validate() error {
	if err := validate.Struct(r); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			e := verrs[0]
			return fmt.Errorf("invalid rules: field %s %s", e.Field(), describeValidation(e))
		}
		return fmt.Errorf("invalid rules: %w", err)
	}

	if p := r.ContentFilters.ArticleIDPattern; p != "" {
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("invalid article_id_pattern: %w", err)
		}
	}
	for category, patterns := range r.CleanupPatterns {
		for _, p := range patterns {
			if _, err := regexp.Compile("(?i)" + p); err != nil {
				return fmt.Errorf("invalid cleanup pattern in %s: %w", category, err)
			}
		}
	}
	for _, s := range r.CustomSections.Sections {
		for _, p := range s.CleanPatterns {
			if _, err := regexp.Compile(p); err != nil {
				return fmt.Errorf("invalid clean pattern in section %s: %w", s.Name, err)
			}
		}
	}

	return nil
}

// describeValidation creates a human-readable validation message.
func describeValidation(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", e.Param())
	case "gte":
		return fmt.Sprintf("must be >= %s", e.Param())
	case "lte":
		return fmt.Sprintf("must be <= %s", e.Param())
	default:
		return fmt.Sprintf("failed validation '%s'", e.Tag())
	}
}

// Render applies the section's format template to extracted content.
func (s Section) Render(content string) string {
	if s.Format == "" {
		return content
	}
	return strings.ReplaceAll(s.Format, "{content}", content)
}

// EffectiveMaxLength resolves the per-section length limit.
func (s Section) EffectiveMaxLength(opts ProcessingOptions) int {
	if s.MaxLength > 0 {
		return s.MaxLength
	}
	return opts.MaxSectionLength
}

// Set holds the rules for every configured domain.
type Set map[string]*Rules

// LoadDir loads every *.yaml file in dir into a Set keyed by domain.
// A missing directory yields an empty set.
func LoadDir(dir string) (Set, error) {
	set := make(Set)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return set, nil
		}
		return nil, fmt.Errorf("failed to read rules directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		r, err := FromFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		set[r.Domain] = r
	}

	return set, nil
}

// ForDomain returns the rules for a domain, trying the exact name and
// then its www-prefixed and www-stripped variants.
func (s Set) ForDomain(domain string) (*Rules, bool) {
	if r, ok := s[domain]; ok {
		return r, true
	}
	if stripped, ok := strings.CutPrefix(domain, "www."); ok {
		if r, found := s[stripped]; found {
			return r, true
		}
	} else if r, ok := s["www."+domain]; ok {
		return r, true
	}
	return nil, false
}
