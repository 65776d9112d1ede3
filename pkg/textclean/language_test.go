package textclean

import "testing"

func TestDetectLanguage_DomainTLD(t *testing.T) {
	tests := []struct {
		domain string
		want   Language
	}{
		{"lemonde.fr", LanguageFrench},
		{"adevarul.ro", LanguageRomanian},
		{"example.com", LanguageEnglish},
		{"example.org", LanguageEnglish},
		{"example.net", LanguageEnglish},
		{"bbc.co.uk", LanguageEnglish},
	}
	for _, tt := range tests {
		t.Run(tt.domain, func(t *testing.T) {
			if got := DetectLanguage("", tt.domain); got != tt.want {
				t.Errorf("DetectLanguage(%q) = %s, want %s", tt.domain, got, tt.want)
			}
		})
	}
}

func TestDetectLanguage_StopWords(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Language
	}{
		{
			name: "romanian tokens",
			text: "Acesta este un text scurt pentru verificare",
			want: LanguageRomanian,
		},
		{
			name: "french tokens",
			text: "Nous travaillons avec vous dans cette région",
			want: LanguageFrench,
		},
		{
			// "cu" appears inside "Discussing" but never as a token.
			name: "substring does not fire",
			text: "Discussing the council agenda now",
			want: LanguageEnglish,
		},
		{
			name: "plain english fallback",
			text: "Short plain text sample",
			want: LanguageEnglish,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectLanguage(tt.text, "example.info"); got != tt.want {
				t.Errorf("DetectLanguage(%q) = %s, want %s", tt.text, got, tt.want)
			}
		})
	}
}

func TestDetectLanguage_DomainBeatsText(t *testing.T) {
	text := "Nous travaillons avec vous dans cette région"
	if got := DetectLanguage(text, "example.ro"); got != LanguageRomanian {
		t.Errorf("DetectLanguage() = %s, want romanian from the domain", got)
	}
}

func TestParseLanguage(t *testing.T) {
	tests := []struct {
		in   string
		want Language
		ok   bool
	}{
		{"en", LanguageEnglish, true},
		{"EN", LanguageEnglish, true},
		{"english", LanguageEnglish, true},
		{"fr", LanguageFrench, true},
		{"french", LanguageFrench, true},
		{"ro", LanguageRomanian, true},
		{"ron", LanguageRomanian, true},
		{"Romanian", LanguageRomanian, true},
		{" fr ", LanguageFrench, true},
		{"es", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseLanguage(tt.in)
			if got != tt.want || ok != tt.ok {
				t.Errorf("ParseLanguage(%q) = %s, %v, want %s, %v", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}
