package commands

import (
	"bufio"
	"fmt"
	"net/url"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/gazeta/pkg/filter"
	"github.com/jmylchreest/gazeta/pkg/rules"
)

var filterCmd = &cobra.Command{
	Use:   "filter [url]...",
	Short: "Evaluate URLs against the content filters",
	Long: `Filter runs URLs through the same checks the discover and fetch
stages apply: the language-aware skip pattern banks, the per-domain
rules, the article ID requirement, and the category page and file
extension checks. Each URL prints as keep or skip with the check that
caught it.

Useful for tuning a site's rules file before a fetch run.

Examples:
  gazeta filter https://www.bzi.ro/stiri/accident-grav-1234567
  gazeta filter --file urls.txt --stats`,
	RunE: runFilter,
}

func init() {
	rootCmd.AddCommand(filterCmd)

	flags := filterCmd.Flags()
	flags.String("file", "", "read URLs from this file, one per line (\"-\" for stdin)")
	flags.Bool("stats", false, "print per-reason skip totals after the verdicts")
}

func runFilter(cmd *cobra.Command, args []string) error {
	initLogger()

	urls := append([]string(nil), args...)
	if path, _ := cmd.Flags().GetString("file"); path != "" {
		fileURLs, err := readURLList(path)
		if err != nil {
			return err
		}
		urls = append(urls, fileURLs...)
	}
	if len(urls) == 0 {
		return cmd.Help()
	}

	set, err := rules.LoadDir(viper.GetString("rules_dir"))
	if err != nil {
		return err
	}
	f := filter.New()

	var skipped []filter.SkippedURL
	for _, raw := range urls {
		var siteRules *rules.Rules
		if u, err := url.Parse(raw); err == nil {
			siteRules, _ = set.ForDomain(u.Host)
		}

		skip, reason := f.ShouldSkip(raw, siteRules)
		if skip {
			skipped = append(skipped, filter.SkippedURL{URL: raw, Reason: reason})
			fmt.Printf("skip  %s  (%s)\n", raw, reason)
		} else {
			fmt.Printf("keep  %s\n", raw)
		}
	}

	if showStats, _ := cmd.Flags().GetBool("stats"); showStats {
		fmt.Printf("\n%d of %d URLs skipped\n", len(skipped), len(urls))
		stats := filter.SkipStats(skipped)
		reasons := make([]string, 0, len(stats))
		for reason := range stats {
			reasons = append(reasons, reason)
		}
		sort.Strings(reasons)
		for _, reason := range reasons {
			fmt.Printf("  %4d  %s\n", stats[reason], reason)
		}
	}
	return nil
}

// readURLList reads one URL per line, skipping blanks and # comments.
func readURLList(path string) ([]string, error) {
	var r *os.File
	if path == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var urls []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	return urls, scanner.Err()
}
