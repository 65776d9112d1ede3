package commands

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/gazeta/internal/discover"
	"github.com/jmylchreest/gazeta/internal/logger"
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Collect article links from site front pages and feeds",
	Long: `Discover loads each configured site's front page, keeps the
same-domain links that pass the content filters, and appends the new
ones to this period's link log. With feeds enabled it also reads the
site's RSS or Atom feed, probing the common feed paths when the page
does not advertise one.

The source list is a CSV of homepage-url,city,country rows; the first
row is treated as a header.`,
	RunE: runDiscover,
}

func init() {
	rootCmd.AddCommand(discoverCmd)

	flags := discoverCmd.Flags()
	flags.String("sources", "websites.csv", "CSV file listing the sites to discover")
	flags.String("cache-dir", "", "cache front pages here and reuse them (off when empty)")
	flags.Bool("feeds", true, "also harvest RSS/Atom feed links")
}

func runDiscover(cmd *cobra.Command, args []string) error {
	initLogger()

	ctx, cancel := signalContext()
	defer cancel()

	sourcesPath, _ := cmd.Flags().GetString("sources")
	sources, err := discover.LoadSources(sourcesPath)
	if err != nil {
		logger.Error("failed to load source list", "path", sourcesPath, "error", err)
		return err
	}

	cfg := discover.DefaultConfig()
	cfg.LogsDir = viper.GetString("logs_dir")
	cfg.RulesDir = viper.GetString("rules_dir")
	cfg.CacheDir, _ = cmd.Flags().GetString("cache-dir")
	cfg.Feeds, _ = cmd.Flags().GetBool("feeds")

	r, err := discover.New(cfg)
	if err != nil {
		return err
	}

	_, err = r.Run(ctx, sources)
	return err
}
