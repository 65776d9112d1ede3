package discover

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"
)

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func TestRun_DiscoversAndLogs(t *testing.T) {
	var baseURL string
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head>
  <title>Știri din oraș</title>
  <link rel="alternate" type="application/rss+xml" title="RSS" href="/feed.xml">
</head>
<body>
  <nav><a href="/tag/politica">Politică</a> <a href="/contact">Contact</a></nav>
  <a href="/stiri/accident-grav-1234567">Accident grav</a>
  <a href="%s/stiri/alegeri-locale-2345678">Alegeri locale</a>
  <a href="https://extern.example/preluare">Extern</a>
  <a href="#sus">Sus</a>
</body>
</html>`, baseURL)
	})
	mux.HandleFunc("/feed.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Știri locale</title>
    <item>
      <title>Alertă meteo</title>
      <link>%s/stiri/alerta-meteo-3456789</link>
    </item>
    <item>
      <title>Preluare externă</title>
      <link>https://alt.example/preluare</link>
    </item>
    <item>
      <title>Doar GUID</title>
      <guid>%s/stiri/din-guid-9876543</guid>
    </item>
  </channel>
</rss>`, baseURL, baseURL)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	baseURL = srv.URL
	domain := strings.TrimPrefix(srv.URL, "http://")

	logsDir := t.TempDir()
	runner, err := New(Config{LogsDir: logsDir, Feeds: true})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	sources := []Source{{URL: srv.URL, City: "Iași", Country: "România"}}
	stats, err := runner.Run(context.Background(), sources)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := Stats{Domains: 1, LinksFound: 6, FeedLinks: 2, NewLinks: 4, KnownLinks: 0, FilteredLinks: 2}
	if *stats != want {
		t.Errorf("stats = %+v, want %+v", *stats, want)
	}

	csvPath := filepath.Join(logsDir, time.Now().Format("2006-01"), domain+".csv")
	lines := readLines(t, csvPath)
	wantPaths := []string{
		"/stiri/accident-grav-1234567",
		"/stiri/alegeri-locale-2345678",
		"/stiri/alerta-meteo-3456789",
		"/stiri/din-guid-9876543",
	}
	if len(lines) != len(wantPaths) {
		t.Fatalf("link log has %d rows, want %d:\n%s", len(lines), len(wantPaths), strings.Join(lines, "\n"))
	}
	stampRe := regexp.MustCompile(`^\d{4}-\d{4}: \d{2}:\d{2}$`)
	for i, line := range lines {
		parts := strings.SplitN(line, ",", 2)
		if len(parts) != 2 {
			t.Fatalf("row %d = %q, want timestamp,path", i, line)
		}
		if !stampRe.MatchString(parts[0]) {
			t.Errorf("row %d timestamp = %q", i, parts[0])
		}
		if parts[1] != wantPaths[i] {
			t.Errorf("row %d path = %q, want %q", i, parts[1], wantPaths[i])
		}
	}

	// A second run finds the same links and appends nothing.
	runner2, err := New(Config{LogsDir: logsDir, Feeds: true})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	stats2, err := runner2.Run(context.Background(), sources)
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if stats2.NewLinks != 0 || stats2.KnownLinks != 4 {
		t.Errorf("second run stats = %+v, want 0 new and 4 known", *stats2)
	}
	if got := readLines(t, csvPath); len(got) != len(wantPaths) {
		t.Errorf("link log grew to %d rows after second run", len(got))
	}
}

func TestRun_ProbesCommonFeedPaths(t *testing.T) {
	hits := map[string]int{}
	var baseURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits[r.URL.Path]++
		switch r.URL.Path {
		case "/rss":
			w.Header().Set("Content-Type", "application/rss+xml")
			fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>Flux</title>
<item><title>Din flux</title><link>%s/stiri/din-flux-8765432</link></item>
</channel></rss>`, baseURL)
		default:
			fmt.Fprint(w, `<!DOCTYPE html>
<html><head><title>Fără feed declarat</title></head>
<body><a href="/stiri/anunt-important-1112223">Anunț important</a></body></html>`)
		}
	}))
	defer srv.Close()
	baseURL = srv.URL

	runner, err := New(Config{LogsDir: t.TempDir(), Feeds: true})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	stats, err := runner.Run(context.Background(), []Source{{URL: srv.URL}})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if stats.FeedLinks != 1 {
		t.Errorf("FeedLinks = %d, want 1", stats.FeedLinks)
	}
	if stats.NewLinks != 2 {
		t.Errorf("NewLinks = %d, want 2", stats.NewLinks)
	}
	// /feed fails to parse, /rss succeeds, later probe paths are skipped.
	if hits["/feed"] != 1 {
		t.Errorf("/feed hits = %d, want 1", hits["/feed"])
	}
	if hits["/feed.xml"] != 0 {
		t.Errorf("/feed.xml hits = %d, want 0 after a successful probe", hits["/feed.xml"])
	}
}

func TestRun_CachedHomepage(t *testing.T) {
	homepageHits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		homepageHits++
		fmt.Fprint(w, `<html><body><a href="/stiri/de-pe-server-1231231">live</a></body></html>`)
	}))
	defer srv.Close()
	domain := strings.TrimPrefix(srv.URL, "http://")

	cacheDir := t.TempDir()
	cached := `<html><body><a href="/stiri/din-arhiva-5556667">cached</a></body></html>`
	cacheFile := filepath.Join(cacheDir, strings.ReplaceAll(domain, ".", "_")+".html")
	if err := os.WriteFile(cacheFile, []byte(cached), 0o644); err != nil {
		t.Fatal(err)
	}

	logsDir := t.TempDir()
	runner, err := New(Config{LogsDir: logsDir, CacheDir: cacheDir, Feeds: false})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	stats, err := runner.Run(context.Background(), []Source{{URL: srv.URL}})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if homepageHits != 0 {
		t.Errorf("homepage hits = %d, want 0 with a warm cache", homepageHits)
	}
	if stats.NewLinks != 1 {
		t.Errorf("NewLinks = %d, want 1", stats.NewLinks)
	}
	lines := readLines(t, filepath.Join(logsDir, time.Now().Format("2006-01"), domain+".csv"))
	if len(lines) != 1 || !strings.HasSuffix(lines[0], ",/stiri/din-arhiva-5556667") {
		t.Errorf("link log = %v, want the cached link", lines)
	}
}

func TestRun_CancelledContext(t *testing.T) {
	runner, err := New(Config{LogsDir: t.TempDir()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stats, err := runner.Run(ctx, []Source{{URL: "https://www.bzi.ro"}})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
	if stats.Domains != 0 || stats.NewLinks != 0 {
		t.Errorf("stats = %+v, want zero counts", *stats)
	}
}

func TestLoadSources(t *testing.T) {
	path := filepath.Join(t.TempDir(), "websites.csv")
	content := "website,city,country\n" +
		"https://www.bzi.ro,Iasi,Romania\n" +
		"https://www.lemonde.fr\n" +
		",,\n" +
		"https://www.seattletimes.com,Seattle,USA\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	sources, err := LoadSources(path)
	if err != nil {
		t.Fatalf("LoadSources() error = %v", err)
	}

	want := []Source{
		{URL: "https://www.bzi.ro", City: "Iasi", Country: "Romania"},
		{URL: "https://www.lemonde.fr"},
		{URL: "https://www.seattletimes.com", City: "Seattle", Country: "USA"},
	}
	if len(sources) != len(want) {
		t.Fatalf("sources = %+v, want %+v", sources, want)
	}
	for i := range want {
		if sources[i] != want[i] {
			t.Errorf("sources[%d] = %+v, want %+v", i, sources[i], want[i])
		}
	}

	if _, err := LoadSources(filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Error("LoadSources() on a missing file returned nil error")
	}
}

func TestSamePaths(t *testing.T) {
	links := []string{
		"https://www.bzi.ro/stiri/a-1234567",
		"https://www.bzi.ro/stiri/a-1234567",
		"https://www.bzi.ro/stiri/b?page=2",
		"https://www.bzi.ro/stiri/c#comentarii",
		"https://alt.example/stiri/d",
		"https://www.bzi.ro",
	}

	got := samePaths(links, "www.bzi.ro")
	want := []string{"/stiri/a-1234567", "/stiri/b?page=2", "/stiri/c#comentarii"}
	if len(got) != len(want) {
		t.Fatalf("samePaths() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("samePaths()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
