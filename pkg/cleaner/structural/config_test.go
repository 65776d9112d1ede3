package structural

import (
	"testing"
)

func TestProfileConfig(t *testing.T) {
	t.Run("aggressive", func(t *testing.T) {
		cfg := ProfileConfig(ProfileAggressive)
		if !cfg.RemoveConditionalHeaders {
			t.Error("expected conditional header removal")
		}
		if !cfg.StripEmptyElements {
			t.Error("expected empty element removal")
		}
		if len(cfg.KeepAttributes) == 0 {
			t.Error("expected attribute allow-list")
		}
	})

	t.Run("light", func(t *testing.T) {
		cfg := ProfileConfig(ProfileLight)
		if cfg.RemoveConditionalHeaders {
			t.Error("expected headers kept under light profile")
		}
		if cfg.StripEmptyElements {
			t.Error("expected empty elements kept under light profile")
		}
		if len(cfg.KeepAttributes) != 0 {
			t.Error("expected attributes untouched under light profile")
		}
		if len(cfg.ClassDenylist) != 3 {
			t.Errorf("expected ad-only denylist, got %v", cfg.ClassDenylist)
		}
	})

	t.Run("unknown profile falls back to aggressive", func(t *testing.T) {
		cfg := ProfileConfig(Profile("bogus"))
		if !cfg.RemoveConditionalHeaders {
			t.Error("expected aggressive fallback")
		}
	})

	t.Run("both profiles share unconditional tags", func(t *testing.T) {
		light := toSet(LightConfig().RemoveTags)
		for _, tag := range []string{"script", "style", "nav", "footer", "aside", "iframe", "form"} {
			if !light[tag] {
				t.Errorf("expected light profile to remove %q", tag)
			}
		}
	})
}

func TestConfig_Merge(t *testing.T) {
	t.Run("nil other is identity", func(t *testing.T) {
		cfg := LightConfig()
		merged := cfg.Merge(nil)
		if merged != cfg {
			t.Error("expected same config back")
		}
	})

	t.Run("selectors are appended without duplicates", func(t *testing.T) {
		base := &Config{RemoveSelectors: []string{".ads", ".promo"}}
		merged := base.Merge(&Config{RemoveSelectors: []string{".promo", ".related"}})

		if len(merged.RemoveSelectors) != 3 {
			t.Errorf("expected 3 selectors, got %v", merged.RemoveSelectors)
		}
	})

	t.Run("true booleans win", func(t *testing.T) {
		base := &Config{}
		merged := base.Merge(&Config{StripEmptyElements: true, StripComments: true})

		if !merged.StripEmptyElements || !merged.StripComments {
			t.Error("expected boolean options merged")
		}
	})

	t.Run("threshold wins when non-zero", func(t *testing.T) {
		base := AggressiveConfig()
		merged := base.Merge(&Config{HeaderTextThreshold: 500})

		if merged.HeaderTextThreshold != 500 {
			t.Errorf("expected threshold 500, got %d", merged.HeaderTextThreshold)
		}
	})

	t.Run("base is not mutated", func(t *testing.T) {
		base := &Config{RemoveSelectors: []string{".a"}}
		_ = base.Merge(&Config{StripComments: true})

		if base.StripComments {
			t.Error("expected base config unchanged")
		}
	})
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}
