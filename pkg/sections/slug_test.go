package sections

import (
	"testing"

	"github.com/jmylchreest/gazeta/pkg/textclean"
)

func TestTitleFromSlug(t *testing.T) {
	tests := []struct {
		name string
		url  string
		lang textclean.Language
		want string
	}{
		{
			name: "french keeps articles lowercase",
			url:  "https://example.fr/culture/katrina-l-ouragan-infernal.html",
			lang: textclean.LanguageFrench,
			want: "Katrina l Ouragan Infernal",
		},
		{
			name: "romanian drops trailing id",
			url:  "https://www.bzi.ro/concurs-pentru-ocuparea-functiei-5334351",
			lang: textclean.LanguageRomanian,
			want: "Concurs pentru Ocuparea Functiei",
		},
		{
			name: "english function words",
			url:  "https://example.com/the-state-of-the-union",
			lang: textclean.LanguageEnglish,
			want: "The State of the Union",
		},
		{
			name: "underscore ids stripped repeatedly",
			url:  "https://www.lemonde.fr/idees/article/2025/08/21/mon-grand-titre_6632905_3232.html",
			lang: textclean.LanguageFrench,
			want: "Mon Grand Titre",
		},
		{
			name: "short numbers survive",
			url:  "https://example.ro/top-10-momente",
			lang: textclean.LanguageRomanian,
			want: "Top 10 Momente",
		},
		{
			name: "index page yields nothing",
			url:  "https://example.com/index.html",
			lang: textclean.LanguageEnglish,
			want: "",
		},
		{
			name: "bare root yields nothing",
			url:  "https://example.com/",
			lang: textclean.LanguageEnglish,
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TitleFromSlug(tt.url, tt.lang); got != tt.want {
				t.Errorf("TitleFromSlug(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestTitleFromSlug_Deterministic(t *testing.T) {
	url := "https://example.fr/politique/le-vote-de-la-loi"
	first := TitleFromSlug(url, textclean.LanguageFrench)
	for i := 0; i < 3; i++ {
		if got := TitleFromSlug(url, textclean.LanguageFrench); got != first {
			t.Fatalf("TitleFromSlug() varied: %q then %q", first, got)
		}
	}
	if want := "Le Vote de la Loi"; first != want {
		t.Errorf("TitleFromSlug() = %q, want %q", first, want)
	}
}
