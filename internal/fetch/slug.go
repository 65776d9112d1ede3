package fetch

import (
	"crypto/md5"
	"encoding/hex"
	"path/filepath"
	"strings"

	"github.com/jmylchreest/gazeta/pkg/filter"
)

// invalidPaths are URL paths that cannot name a stored file: root
// pages and comment fragments that leak out of broken site markup.
var invalidPaths = map[string]bool{
	"":             true,
	"/":            true,
	"?getmobile=1": true,
	"--><!--":      true,
	"-->":          true,
	"<!--":         true,
	"<!":           true,
	"--":           true,
}

// slugPath maps a URL path onto its storage location under the content
// root: <period>/<domain>/raw/<slug>.html. The slug is the last path
// segment with query and fragment separators flattened to underscores.
// Digit-only segments fall back to article_<id> when the URL carries an
// article ID, then to a short content hash so the name stays stable
// across runs. Returns false for paths that cannot name a file.
func slugPath(period, domain, urlPath, fullURL string, f *filter.Filter) (string, bool) {
	clean := strings.Trim(urlPath, "/")
	if clean == "" || invalidPaths[clean] ||
		strings.HasPrefix(clean, "-->") || strings.HasPrefix(clean, "<!--") {
		return "", false
	}

	name := clean
	if i := strings.LastIndex(clean, "/"); i >= 0 {
		name = clean[i+1:]
	}
	name = strings.NewReplacer("?", "_", "#", "_", "&", "_").Replace(name)

	if name == "" || allDigits(name) {
		if id := f.ExtractArticleID(fullURL); id != "" {
			name = "article_" + id
		} else {
			sum := md5.Sum([]byte(urlPath))
			name = hex.EncodeToString(sum[:])[:10]
		}
	}

	if !strings.HasSuffix(name, ".html") {
		name += ".html"
	}
	return filepath.Join(period, domain, "raw", name), true
}

func allDigits(s string) bool {
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
