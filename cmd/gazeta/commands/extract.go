package commands

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/gazeta/internal/pipeline"
	"github.com/jmylchreest/gazeta/pkg/extract"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Turn fetched pages into Markdown articles with metadata",
	Long: `Extract processes the raw HTML under the content tree into
Markdown article files and YAML metadata sidecars. Per-domain rules
drive the structural cleaning, custom sections, and cleanup patterns;
the language banks strip boilerplate lines afterwards.

Backends: heuristic (default), readability, trafilatura.`,
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	flags := extractCmd.Flags()
	flags.String("method", string(extract.MethodHeuristic), "extraction backend: heuristic, readability, trafilatura")
	flags.Int("limit", 0, "max newly processed documents this run (0 = no limit)")
	flags.Int("min-length", extract.DefaultMinLength, "minimum extracted text length in bytes")
	flags.String("patterns", "", "YAML file overriding the embedded cleanup pattern banks")
	flags.Bool("save-cleaned-html", false, "also write the post-cleaning HTML for rule debugging")
	flags.Bool("keep-paywalled", false, "keep text after subscription-wall notices instead of truncating")

	_ = viper.BindPFlag("method", flags.Lookup("method"))
}

func runExtract(cmd *cobra.Command, args []string) error {
	initLogger()

	ctx, cancel := signalContext()
	defer cancel()

	cfg := pipeline.DefaultConfig()
	cfg.ContentDir = viper.GetString("content_dir")
	cfg.RulesDir = viper.GetString("rules_dir")
	cfg.LogsDir = viper.GetString("logs_dir")
	cfg.Method = extract.Method(viper.GetString("method"))
	cfg.Limit, _ = cmd.Flags().GetInt("limit")
	cfg.MinLength, _ = cmd.Flags().GetInt("min-length")
	cfg.PatternFile, _ = cmd.Flags().GetString("patterns")
	cfg.SaveCleanedHTML, _ = cmd.Flags().GetBool("save-cleaned-html")
	cfg.KeepPaywalled, _ = cmd.Flags().GetBool("keep-paywalled")

	p, err := pipeline.New(cfg)
	if err != nil {
		return err
	}

	_, err = p.Run(ctx)
	return err
}
