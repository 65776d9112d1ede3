// extract-compare runs every extraction backend on the same input.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/jmylchreest/gazeta/pkg/cleaner"
	"github.com/jmylchreest/gazeta/pkg/cleaner/structural"
	"github.com/jmylchreest/gazeta/pkg/extract"
	"github.com/jmylchreest/gazeta/pkg/fetcher"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: extract-compare <url-or-file>\n")
		os.Exit(1)
	}

	input := os.Args[1]
	var html string
	var pageURL string
	var err error

	if strings.HasPrefix(input, "http") {
		pageURL = input
		html, err = fetchURL(input)
	} else {
		var data []byte
		data, err = os.ReadFile(input)
		html = string(data)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Input: %d bytes\n\n", len(html))
	fmt.Printf("%-14s %10s %8s %8s %10s\n", "Backend", "Chars", "Words", "Reduce%", "Time")
	fmt.Printf("%-14s %10s %8s %8s %10s\n", "-------", "-----", "-----", "-------", "----")

	titles := make(map[extract.Method]string)
	for _, m := range extract.Methods() {
		start := time.Now()
		text, md, err := run(m, html, pageURL)
		duration := time.Since(start)

		if err != nil {
			fmt.Printf("%-14s %10s %8s %8s %10v (error: %v)\n",
				m, "ERROR", "-", "-", duration.Round(time.Millisecond), err)
			continue
		}

		reduction := float64(len(html)-len(text)) / float64(len(html)) * 100
		fmt.Printf("%-14s %10d %8d %7.1f%% %10v\n",
			m, len(text), len(strings.Fields(text)), reduction,
			duration.Round(time.Millisecond))
		if md.Title != "" {
			titles[m] = md.Title
		}
	}

	// Reference row: the whole page through a naive Markdown
	// conversion, no cleaning and no extraction.
	start := time.Now()
	raw, err := htmltomarkdown.ConvertString(html)
	duration := time.Since(start)
	if err != nil {
		fmt.Printf("%-14s %10s %8s %8s %10v (error: %v)\n",
			"raw markdown", "ERROR", "-", "-", duration.Round(time.Millisecond), err)
	} else {
		reduction := float64(len(html)-len(raw)) / float64(len(html)) * 100
		fmt.Printf("%-14s %10d %8d %7.1f%% %10v\n",
			"raw markdown", len(raw), len(strings.Fields(raw)), reduction,
			duration.Round(time.Millisecond))
	}

	if len(titles) > 0 {
		fmt.Println()
		for _, m := range extract.Methods() {
			if t, ok := titles[m]; ok {
				fmt.Printf("%-14s title: %s\n", m, t)
			}
		}
	}
}

// run cleans the page with the backend's profile and extracts from the
// result, the same steps the pipeline applies per document.
func run(m extract.Method, html, pageURL string) (string, extract.Metadata, error) {
	chain := cleaner.NewChain(
		cleaner.NewFormatting(),
		structural.New(structural.ProfileConfig(m.Profile())),
	)
	cleaned, err := chain.Clean(html)
	if err != nil {
		return "", extract.Metadata{}, err
	}
	backend, err := extract.NewBackend(m)
	if err != nil {
		return "", extract.Metadata{}, err
	}
	res, err := backend.Extract(cleaned, pageURL)
	if err != nil {
		return "", extract.Metadata{}, err
	}
	return res.Text, res.Metadata, nil
}

func fetchURL(pageURL string) (string, error) {
	f := fetcher.NewStatic(fetcher.DefaultStaticConfig())
	defer f.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	content, err := f.Fetch(ctx, pageURL, fetcher.Options{})
	if err != nil {
		return "", err
	}
	return content.HTML, nil
}
