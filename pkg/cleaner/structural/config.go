// Package structural provides a profile-driven HTML structural cleaner.
// It strips non-content DOM elements (scripts, navigation, ads, form
// controls, empty tags) from raw article HTML while preserving the
// regions text extractors need.
package structural

// Profile names a cleaning intensity.
type Profile string

const (
	// ProfileAggressive strips everything a heuristic text extractor
	// does not need: conditional headers, denylisted classes, most
	// attributes, and empty elements.
	ProfileAggressive Profile = "aggressive"

	// ProfileLight removes only unconditionally unwanted tags and ad
	// markers, preserving document structure and metadata for
	// extractors that rely on positional context.
	ProfileLight Profile = "light"
)

// Config defines all configuration options for the structural cleaner.
type Config struct {
	// RemoveTags are element types removed wherever they appear,
	// together with their contents.
	RemoveTags []string `json:"remove_tags"`

	// StripComments removes HTML comments.
	StripComments bool `json:"strip_comments"`

	// RemoveConditionalHeaders removes <header> elements that contain
	// neither heading tags nor substantial text. Site mastheads match;
	// article headers holding the h1 do not.
	RemoveConditionalHeaders bool `json:"remove_conditional_headers"`

	// HeaderTextThreshold is the character count above which a <header>
	// without heading tags still counts as substantial.
	HeaderTextThreshold int `json:"header_text_threshold"`

	// ClassDenylist removes any element whose class or id attribute
	// contains one of these substrings.
	ClassDenylist []string `json:"class_denylist"`

	// KeepAttributes is the attribute allow-list. When non-empty, every
	// attribute not named here is stripped from every element. Empty
	// means attributes are left alone.
	KeepAttributes []string `json:"keep_attributes"`

	// StripEmptyElements removes elements with no text content,
	// excluding self-closing media/break tags.
	StripEmptyElements bool `json:"strip_empty_elements"`

	// RemoveSelectors is a list of CSS selectors to always remove.
	// Domain rules append their remove_selectors here.
	RemoveSelectors []string `json:"remove_selectors"`

	// KeepSelectors is a list of CSS selectors to always keep
	// (overrides removals).
	KeepSelectors []string `json:"keep_selectors"`
}

// baseRemoveTags are stripped under every profile. They never carry
// article text.
func baseRemoveTags() []string {
	return []string{
		"script", "style", "nav", "footer", "aside",
		"iframe", "embed", "object", "applet",
		"form", "button", "input", "textarea", "select", "option",
	}
}

// adDenylist matches advertisement markup under every profile.
func adDenylist() []string {
	return []string{"advertisement", "ad-", "ads"}
}

// ProfileConfig returns the config for a named profile, defaulting to
// aggressive for unknown names.
func ProfileConfig(p Profile) *Config {
	if p == ProfileLight {
		return LightConfig()
	}
	return AggressiveConfig()
}

// AggressiveConfig returns the configuration used ahead of heuristic
// text extraction. It removes metadata tags, conditional headers,
// denylisted regions, and all attributes outside the allow-list.
func AggressiveConfig() *Config {
	return &Config{
		RemoveTags: append(baseRemoveTags(),
			"noscript", "meta", "link", "title"),
		StripComments:            true,
		RemoveConditionalHeaders: true,
		HeaderTextThreshold:      200,
		ClassDenylist: append(adDenylist(),
			"sidebar", "widget", "menu", "nav",
			"header", "footer", "social", "share", "comment"),
		KeepAttributes:     []string{"href", "src", "alt", "title", "id", "class"},
		StripEmptyElements: true,
	}
}

// LightConfig returns the configuration used ahead of readability-style
// extraction. Head metadata, headers, and attributes survive so the
// extractor can use them.
func LightConfig() *Config {
	return &Config{
		RemoveTags:    baseRemoveTags(),
		StripComments: true,
		ClassDenylist: adDenylist(),
	}
}

// Merge merges another config into this one. Boolean options from
// other win when true, thresholds win when non-zero, and selector
// lists are appended with duplicates dropped.
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}

	merged := *c

	if other.StripComments {
		merged.StripComments = true
	}
	if other.RemoveConditionalHeaders {
		merged.RemoveConditionalHeaders = true
	}
	if other.HeaderTextThreshold > 0 {
		merged.HeaderTextThreshold = other.HeaderTextThreshold
	}
	if other.StripEmptyElements {
		merged.StripEmptyElements = true
	}
	if len(other.KeepAttributes) > 0 {
		merged.KeepAttributes = appendUnique(merged.KeepAttributes, other.KeepAttributes)
	}

	merged.RemoveTags = appendUnique(merged.RemoveTags, other.RemoveTags)
	merged.ClassDenylist = appendUnique(merged.ClassDenylist, other.ClassDenylist)
	merged.RemoveSelectors = appendUnique(merged.RemoveSelectors, other.RemoveSelectors)
	merged.KeepSelectors = appendUnique(merged.KeepSelectors, other.KeepSelectors)

	return &merged
}

// appendUnique appends items from add that are not already in dst.
func appendUnique(dst, add []string) []string {
	if len(add) == 0 {
		return dst
	}
	seen := make(map[string]bool, len(dst))
	for _, s := range dst {
		seen[s] = true
	}
	for _, s := range add {
		if !seen[s] {
			dst = append(dst, s)
			seen[s] = true
		}
	}
	return dst
}
