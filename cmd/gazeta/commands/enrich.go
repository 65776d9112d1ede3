package commands

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/gazeta/internal/enrich"
	"github.com/jmylchreest/gazeta/internal/logger"
	"github.com/jmylchreest/gazeta/pkg/nlp"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Layer AI-derived metadata onto extracted articles",
	Long: `Enrich pairs each metadata sidecar with its extracted Markdown
body, filters out non-article content, and merges summaries, entities,
sentiment, importance scores and categories back into the sidecar.

With an Anthropic or OpenAI API key set, summaries and classification
go through the model; without one, everything runs on the local
heuristics. Either way the run is resumable and never blocks on the
provider.`,
	RunE: runEnrich,
}

func init() {
	rootCmd.AddCommand(enrichCmd)

	flags := enrichCmd.Flags()
	flags.StringP("provider", "p", "", "NLP provider: anthropic, openai (default: auto-detect from API key env vars)")
	flags.StringP("model", "m", "", "model name (provider-specific)")
	flags.StringP("api-key", "k", "", "API key (or use env var)")
	flags.Bool("local", false, "skip provider calls and run the local analyzer only")
	flags.Duration("delay", 100*time.Millisecond, "pause between documents")

	_ = viper.BindPFlag("provider", flags.Lookup("provider"))
	_ = viper.BindPFlag("model", flags.Lookup("model"))
	_ = viper.BindPFlag("api_key", flags.Lookup("api-key"))
}

// newAnalyzer assembles the NLP analyzer from the provider settings. A
// nil provider is valid and means local-only enrichment.
func newAnalyzer(localOnly bool) (*nlp.Analyzer, error) {
	if localOnly {
		logger.Info("enrichment running local-only")
		return nlp.NewAnalyzer(nil), nil
	}

	name := viper.GetString("provider")
	apiKey := viper.GetString("api_key")
	if name == "" {
		name, apiKey = nlp.DetectProvider()
	}
	if name == "" {
		logger.Info("no provider API key found, enrichment running local-only")
		return nlp.NewAnalyzer(nil), nil
	}

	cfg := nlp.DefaultProviderConfig()
	cfg.APIKey = apiKey
	cfg.Model = viper.GetString("model")
	if cfg.Model == "" {
		cfg.Model = nlp.GetDefaultModel(name)
	}

	p, err := nlp.NewProvider(name, cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("enrichment provider selected", "provider", name, "model", cfg.Model)
	return nlp.NewAnalyzer(p), nil
}

func runEnrich(cmd *cobra.Command, args []string) error {
	initLogger()

	ctx, cancel := signalContext()
	defer cancel()

	localOnly, _ := cmd.Flags().GetBool("local")
	analyzer, err := newAnalyzer(localOnly)
	if err != nil {
		return err
	}

	cfg := enrich.DefaultConfig()
	cfg.ContentDir = viper.GetString("content_dir")
	cfg.LogsDir = viper.GetString("logs_dir")
	cfg.Analyzer = analyzer
	cfg.Delay, _ = cmd.Flags().GetDuration("delay")

	r, err := enrich.New(cfg)
	if err != nil {
		return err
	}

	_, err = r.Run(ctx)
	return err
}
