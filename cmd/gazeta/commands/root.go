// Package commands implements the CLI commands for gazeta.
package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/gazeta/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "gazeta",
	Short: "News archiving pipeline: discover, fetch, extract, enrich",
	Long: `Gazeta archives news sites as clean Markdown with metadata.

The pipeline runs in four stages over a shared content tree:
discover collects article links from front pages and feeds,
fetch downloads the pages, extract turns them into Markdown with
YAML sidecars, and enrich layers NLP-derived metadata on top.
Each stage resumes from its own status file, so re-running only
touches new work.

Examples:
  # Collect links for the sites in websites.csv
  gazeta discover --sources websites.csv

  # Download this month's discovered links
  gazeta fetch --limit 50

  # Extract articles with the trafilatura backend
  gazeta extract --method trafilatura

  # Run the whole pipeline every morning at six
  gazeta run --schedule "0 6 * * *"`,
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config file (default $HOME/.gazeta.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "suppress progress output")

	// Tree layout shared by every stage
	rootCmd.PersistentFlags().String("content-dir", "content", "root of the content tree")
	rootCmd.PersistentFlags().String("rules-dir", "rules", "directory with per-domain rules files")
	rootCmd.PersistentFlags().String("logs-dir", "logs", "root of the period-partitioned run logs")

	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("content_dir", rootCmd.PersistentFlags().Lookup("content-dir"))
	_ = viper.BindPFlag("rules_dir", rootCmd.PersistentFlags().Lookup("rules-dir"))
	_ = viper.BindPFlag("logs_dir", rootCmd.PersistentFlags().Lookup("logs-dir"))
}

func initConfig() {
	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".gazeta")
		viper.SetConfigType("yaml")
	}

	// Environment variables
	viper.SetEnvPrefix("GAZETA")
	viper.AutomaticEnv()

	// Also check common API key env vars
	_ = viper.BindEnv("api_key", "ANTHROPIC_API_KEY", "OPENAI_API_KEY")

	// Read config file (ignore error if not found)
	_ = viper.ReadInConfig()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// initLogger configures logging from the global flags. Every RunE calls
// it first.
func initLogger() {
	logger.Init(logger.Options{
		Debug: viper.GetBool("debug"),
		Quiet: viper.GetBool("quiet"),
	})
}

// signalContext returns a context cancelled by SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
