package pipeline

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmylchreest/gazeta/internal/logger"
)

// Document is one raw HTML file found under the content tree.
type Document struct {
	// Path is relative to the content root, for example
	// "2025-08/www.lemonde.fr/raw/politique_vote.html".
	Path   string
	Domain string
}

// FindDocuments walks the content tree and returns every HTML file
// sitting in a raw/ directory, in walk order. A missing root yields an
// empty result, since a first run has nothing fetched yet.
func FindDocuments(root string) ([]Document, error) {
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil, nil
	}

	var docs []Document
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(d.Name()), ".html") {
			return nil
		}
		if filepath.Base(filepath.Dir(path)) != "raw" {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		domain := domainFromPath(rel)
		if domain == "" {
			logger.Debug("no domain directory in path, skipping", "file", rel)
			return nil
		}
		docs = append(docs, Document{Path: rel, Domain: domain})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking content tree: %w", err)
	}
	return docs, nil
}

// domainFromPath picks the first directory component that looks like a
// hostname. Period directories ("2025-08") contain no dot and never
// match.
func domainFromPath(rel string) string {
	parts := strings.Split(rel, string(filepath.Separator))
	for _, part := range parts[:len(parts)-1] {
		if strings.HasPrefix(part, "www.") || strings.Contains(part, ".") {
			return part
		}
	}
	return ""
}

// ReconstructURL rebuilds the page URL a raw file was fetched from.
// Slugs encode the URL path with underscores standing in for slashes;
// index.html marks the site root.
func ReconstructURL(domain, sourcePath string) string {
	name := filepath.Base(sourcePath)
	if name == "index.html" {
		return "https://" + domain + "/"
	}
	slug := strings.TrimSuffix(name, ".html")
	return "https://" + domain + "/" + strings.ReplaceAll(slug, "_", "/")
}

// stagePath maps a raw-relative path onto a sibling stage directory
// (extracted, metadata, cleaned), optionally swapping the extension.
func stagePath(rel, stage, ext string) string {
	parts := strings.Split(rel, string(filepath.Separator))
	for i := len(parts) - 2; i >= 0; i-- {
		if parts[i] == "raw" {
			parts[i] = stage
			break
		}
	}
	out := filepath.Join(parts...)
	if ext != "" {
		out = strings.TrimSuffix(out, filepath.Ext(out)) + ext
	}
	return out
}
