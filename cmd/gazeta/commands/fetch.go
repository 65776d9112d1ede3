package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	clifetcher "github.com/jmylchreest/gazeta/cmd/gazeta/fetcher"
	"github.com/jmylchreest/gazeta/internal/fetch"
	"github.com/jmylchreest/gazeta/internal/logger"
	"github.com/jmylchreest/gazeta/pkg/fetcher"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download discovered article pages into the content tree",
	Long: `Fetch walks this period's link logs and downloads every page not
already fetched, saving raw HTML under
<content>/<period>/<domain>/raw/. Links pass the content filters again
before any request, and a politeness delay separates downloads.

Dynamic mode renders pages in headless Chrome for sites that need
JavaScript; with a FlareSolverr URL configured, challenge-protected
sites are solved through it first.`,
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	flags := fetchCmd.Flags()
	flags.Duration("delay", time.Second, "pause between downloads from one domain")
	flags.Int("limit", 0, "max newly saved pages per domain (0 = no limit)")
	flags.Duration("timeout", 30*time.Second, "request timeout")
	flags.String("fetch-mode", "static", "fetch mode: static, dynamic")
	flags.Bool("stealth", false, "enable anti-bot detection evasion for dynamic fetch mode")
	flags.Bool("googlebot", false, "spoof Googlebot user-agent (sites often whitelist Googlebot)")
	flags.String("flaresolverr-url", "", "FlareSolverr API URL for Cloudflare bypass (e.g., http://localhost:8191/v1)")

	_ = viper.BindPFlag("fetch_mode", flags.Lookup("fetch-mode"))
	_ = viper.BindPFlag("stealth", flags.Lookup("stealth"))
	_ = viper.BindPFlag("googlebot", flags.Lookup("googlebot"))
	_ = viper.BindPFlag("flaresolverr_url", flags.Lookup("flaresolverr-url"))
}

// newFetcher builds the transport for a fetch run from the shared
// settings. The run and fetch commands both go through it.
func newFetcher(mode string, timeout time.Duration) (fetcher.Fetcher, error) {
	switch mode {
	case "dynamic":
		return clifetcher.NewDynamicFetcher(clifetcher.Config{
			Timeout:         timeout,
			Stealth:         viper.GetBool("stealth"),
			Googlebot:       viper.GetBool("googlebot"),
			FlareSolverrURL: viper.GetString("flaresolverr_url"),
		})
	case "static", "":
		return fetcher.NewStatic(fetcher.StaticConfig{Timeout: timeout}), nil
	}
	return nil, fmt.Errorf("unknown fetch mode: %s (use 'static' or 'dynamic')", mode)
}

func runFetch(cmd *cobra.Command, args []string) error {
	initLogger()

	ctx, cancel := signalContext()
	defer cancel()

	timeout, _ := cmd.Flags().GetDuration("timeout")
	f, err := newFetcher(viper.GetString("fetch_mode"), timeout)
	if err != nil {
		return err
	}
	defer func() {
		if err := f.Close(); err != nil {
			logger.Warn("closing fetcher", "error", err)
		}
	}()

	cfg := fetch.DefaultConfig()
	cfg.ContentDir = viper.GetString("content_dir")
	cfg.RulesDir = viper.GetString("rules_dir")
	cfg.LogsDir = viper.GetString("logs_dir")
	cfg.Fetcher = f
	cfg.Delay, _ = cmd.Flags().GetDuration("delay")
	cfg.Limit, _ = cmd.Flags().GetInt("limit")

	r, err := fetch.New(cfg)
	if err != nil {
		return err
	}

	_, err = r.Run(ctx)
	return err
}
