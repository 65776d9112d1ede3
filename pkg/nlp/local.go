package nlp

import (
	"math"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// Entities groups named entities found in article text.
type Entities struct {
	Persons       []string `yaml:"persons" json:"persons"`
	Locations     []string `yaml:"locations" json:"locations"`
	Organizations []string `yaml:"organizations" json:"organizations"`
}

// Pattern-based entity recognition tuned for French news text. \b in
// RE2 only treats ASCII letters as word characters, so names starting
// with an accented letter are matched without a leading boundary.
var personRegexps = []*regexp.Regexp{
	regexp.MustCompile(`\b[A-Z][a-z]+\s+[A-Z][a-z]+\b`),
	regexp.MustCompile(`\b[A-Z]\.\s*[A-Z][a-z]+\b`),
}

var locationRegexps = []*regexp.Regexp{
	// Major French cities
	regexp.MustCompile(`(?i)\b(?:Paris|Lyon|Marseille|Toulouse|Nice|Nantes|Strasbourg|Montpellier|Bordeaux|Lille|Rennes|Reims|Le Havre|Saint-Étienne|Toulon|Grenoble|Angers|Dijon|Nîmes|Aix-en-Provence|Brest|Le Mans|Amiens|Tours|Limoges|Clermont-Ferrand|Villeurbanne|Besançon)\b`),
	// Countries
	regexp.MustCompile(`(?i)\b(?:France|Allemagne|Italie|Espagne|Portugal|Belgique|Suisse|Luxembourg|Royaume-Uni|Canada|Chine|Japon|Russie|Inde|Brésil|Argentine|Mexique|Australie|Afrique du Sud)\b`),
	regexp.MustCompile(`(?i)États-Unis`),
	// Continents
	regexp.MustCompile(`(?i)\b(?:Europe|Asie|Afrique|Amérique|Océanie)\b`),
	// Current conflict zones
	regexp.MustCompile(`(?i)\b(?:Gaza|Israël|Palestine|Ukraine|Russie|Syrie|Irak|Afghanistan|Iran)\b`),
}

var orgRegexps = []*regexp.Regexp{
	regexp.MustCompile(`\b(?:ONU|UNESCO|OTAN|UE|Commission européenne|Parlement européen|Assemblée nationale|Sénat|Matignon)\b`),
	regexp.MustCompile(`Élysée`),
	regexp.MustCompile(`\b(?:Apple|Google|Microsoft|Amazon|Facebook|Meta|Twitter|Tesla|BMW|Mercedes|Volkswagen|Airbus|Total|LVMH|L'Oréal)\b`),
	regexp.MustCompile(`\b[A-Z][A-Za-z]*\s+(?:SA|SAS|SARL|Inc|Corp|Ltd|AG|GmbH)\b`),
}

// French sentiment keywords.
var positiveWords = []string{
	"réussite", "succès", "victoire", "progrès", "amélioration", "développement",
	"croissance", "augmentation", "hausse", "gain", "bénéfice", "prospérité",
	"innovation", "modernisation", "excellence", "qualité",
}

var negativeWords = []string{
	"crise", "problème", "difficulté", "échec", "perte", "baisse", "chute",
	"diminution", "réduction", "conflit", "guerre", "violence", "accident",
	"catastrophe", "danger", "risque", "menace", "inquiétude", "préoccupation",
	"corruption", "scandale", "polémique",
}

// Topic keywords that raise an article's importance.
var importantKeywords = []string{
	"gouvernement", "président", "ministre", "parlement", "élection",
	"économie", "crise", "guerre", "paix", "accord", "traité",
	"innovation", "découverte", "recherche", "technologie", "santé",
	"climat", "environnement", "éducation", "culture",
}

// Commercial or tabloid markers that lower it.
var lowValuePatterns = []string{
	"guide d'achat", "meilleur", "comparatif", "test", "avis",
	"accident de voiture", "faits divers", "people", "célébrité",
}

var urgencyWords = []string{"urgent", "alerte", "exclusif", "breaking"}

// Geographic scope keywords, checked narrowest first.
var localKeywords = []string{"iași", "iasi", "moldavie", "moldova", "românia", "romania", "roumanie"}

var nationalKeywords = []string{"france", "français", "nationale", "gouvernement français", "paris"}

var internationalKeywords = []string{"international", "mondial", "europe", "union européenne", "otan", "onu"}

// LocalAnalyzer derives enrichment signals from article text without
// calling any external model. All methods are deterministic.
type LocalAnalyzer struct{}

// ExtractEntities pulls person, location and organization names out of
// the text. Matches are deduplicated and sorted.
func (LocalAnalyzer) ExtractEntities(text string) Entities {
	return Entities{
		Persons:       matchAll(personRegexps, text, false),
		Locations:     matchAll(locationRegexps, text, true),
		Organizations: matchAll(orgRegexps, text, false),
	}
}

func matchAll(patterns []*regexp.Regexp, text string, capitalizeMatches bool) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, re := range patterns {
		for _, m := range re.FindAllString(text, -1) {
			if capitalizeMatches {
				m = capitalize(m)
			}
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	sort.Strings(out)
	return out
}

// capitalize uppercases the first rune and lowercases the rest.
func capitalize(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	return string(unicode.ToUpper(r[0])) + strings.ToLower(string(r[1:]))
}

// Sentiment labels text "positive", "negative" or "neutral" by sentiment
// keyword presence.
func (LocalAnalyzer) Sentiment(text string) string {
	lower := strings.ToLower(text)
	var pos, neg int
	for _, w := range positiveWords {
		if strings.Contains(lower, w) {
			pos++
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(lower, w) {
			neg++
		}
	}
	switch {
	case pos > neg:
		return "positive"
	case neg > pos:
		return "negative"
	default:
		return "neutral"
	}
}

// ImportanceScore scores an article in [0,1] from its length, topic
// keywords and title urgency.
func (LocalAnalyzer) ImportanceScore(text, title string) float64 {
	score := 0.5

	wordCount := len(strings.Fields(text))
	switch {
	case wordCount > 1000:
		score += 0.2
	case wordCount > 500:
		score += 0.1
	case wordCount < 100:
		score -= 0.3
	}

	lower := strings.ToLower(text)

	matches := 0
	for _, w := range importantKeywords {
		if strings.Contains(lower, w) {
			matches++
		}
	}
	score += math.Min(float64(matches)*0.05, 0.3)

	for _, p := range lowValuePatterns {
		if strings.Contains(lower, p) {
			score -= 0.2
			break
		}
	}

	lowerTitle := strings.ToLower(title)
	for _, w := range urgencyWords {
		if strings.Contains(lowerTitle, w) {
			score += 0.2
			break
		}
	}

	return math.Max(0.0, math.Min(1.0, score))
}

// GeographicScope classifies coverage as "local", "national",
// "international" or "regional". locations comes from ExtractEntities;
// more than two distinct locations reads as international coverage.
func (LocalAnalyzer) GeographicScope(text string, locations []string) string {
	lower := strings.ToLower(text)

	if containsAny(lower, localKeywords) {
		return "local"
	}
	if containsAny(lower, nationalKeywords) && !strings.Contains(lower, "international") {
		return "national"
	}
	if containsAny(lower, internationalKeywords) || len(locations) > 2 {
		return "international"
	}
	return "regional"
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// ComplexityScore blends average sentence length and vocabulary
// richness into [0,1].
func (LocalAnalyzer) ComplexityScore(text string) float64 {
	sentences := strings.Split(text, ".")
	sentenceWords := 0
	for _, s := range sentences {
		sentenceWords += len(strings.Fields(s))
	}
	avgSentenceLen := float64(sentenceWords) / float64(len(sentences))

	totalWords := len(strings.Fields(text))
	richness := 0.0
	if totalWords > 0 {
		unique := map[string]bool{}
		for _, w := range strings.Fields(strings.ToLower(text)) {
			unique[w] = true
		}
		richness = float64(len(unique)) / float64(totalWords)
	}

	return math.Min(1.0, (avgSentenceLen/20+richness)/2)
}

const summaryFallbackRunes = 200

// FallbackSummary truncates content to a lead snippet. Used whenever no
// provider is configured or the summary call fails.
func (LocalAnalyzer) FallbackSummary(content string) string {
	r := []rune(content)
	if len(r) <= summaryFallbackRunes {
		return content
	}
	return string(r[:summaryFallbackRunes]) + "..."
}

// categoryLabels are the candidate article categories as the source
// sites name them in URL slugs (Romanian taxonomy).
var categoryLabels = []string{
	"economic", "politic", "social", "sport", "tehnologie",
	"educatie", "sanatate", "cultural", "international",
}

// categoryNames maps taxonomy labels to their English metadata names.
var categoryNames = map[string]string{
	"economic":      "economic",
	"politic":       "politic",
	"social":        "social",
	"sport":         "sport",
	"tehnologie":    "technology",
	"educatie":      "education",
	"sanatate":      "health",
	"cultural":      "culture",
	"international": "international",
}

// categoryStems map URL slug fragments to taxonomy labels, checked in
// order per slug word.
var categoryStems = []struct{ stem, label string }{
	{"politic", "politic"},
	{"politique", "politic"},
	{"econom", "economic"},
	{"sport", "sport"},
	{"tehnolog", "tehnologie"},
	{"tech", "tehnologie"},
	{"educat", "educatie"},
	{"sanatate", "sanatate"},
	{"sante", "sanatate"},
	{"medical", "sanatate"},
	{"cultur", "cultural"},
	{"extern", "international"},
	{"international", "international"},
	{"monde", "international"},
	{"social", "social"},
}

// CategoryFromURL guesses an article category from URL slug words
// alone, returning "general" when nothing matches.
func (LocalAnalyzer) CategoryFromURL(rawURL string) string {
	for _, w := range slugWords(rawURL) {
		for _, cs := range categoryStems {
			if strings.Contains(w, cs.stem) {
				return mapCategory(cs.label)
			}
		}
	}
	return "general"
}

func mapCategory(label string) string {
	if name, ok := categoryNames[label]; ok {
		return name
	}
	return "general"
}

// slugWords splits a URL path into slug words, dropping pure numbers
// (article IDs).
func slugWords(rawURL string) []string {
	pathPart := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		pathPart = u.Path
	}

	var words []string
	for _, p := range strings.Split(strings.Trim(pathPart, "/"), "-") {
		if p == "" || isDigits(p) {
			continue
		}
		words = append(words, p)
	}
	return words
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
