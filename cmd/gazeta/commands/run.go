package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/gazeta/internal/discover"
	"github.com/jmylchreest/gazeta/internal/enrich"
	"github.com/jmylchreest/gazeta/internal/fetch"
	"github.com/jmylchreest/gazeta/internal/logger"
	"github.com/jmylchreest/gazeta/internal/pipeline"
	"github.com/jmylchreest/gazeta/pkg/extract"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline, once or on a cron schedule",
	Long: `Run executes discover, fetch, extract and enrich in order against
the configured tree. Every stage resumes from its status file, so a run
only touches new work.

With --schedule the process stays up and re-runs the batch on a
standard five-field cron expression, starting with an immediate run.
Stage settings come from the config file or environment (fetch_mode,
method, provider, ...).

Examples:
  gazeta run
  gazeta run --schedule "0 6 * * *"`,
	RunE: runPipeline,
}

func init() {
	rootCmd.AddCommand(runCmd)

	flags := runCmd.Flags()
	flags.String("sources", "websites.csv", "CSV file listing the sites to discover")
	flags.String("schedule", "", "cron expression for repeated runs (minute hour dom month dow)")
}

// cronLogger adapts the package logger to the cron.Logger interface.
// Scheduler chatter logs at debug; recovered panics at error.
type cronLogger struct{}

func (cronLogger) Info(msg string, kv ...any) { logger.Debug(msg, kv...) }

func (cronLogger) Error(err error, msg string, kv ...any) {
	logger.Error(msg, append(kv, "error", err)...)
}

func runPipeline(cmd *cobra.Command, args []string) error {
	initLogger()

	ctx, cancel := signalContext()
	defer cancel()

	spec, _ := cmd.Flags().GetString("schedule")
	if spec == "" {
		return runOnce(ctx, cmd)
	}

	// Standard 5-field cron parser (minute hour day month weekday).
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	c := cron.New(
		cron.WithParser(parser),
		cron.WithChain(cron.SkipIfStillRunning(cronLogger{}), cron.Recover(cronLogger{})),
	)
	if _, err := c.AddFunc(spec, func() {
		if err := runOnce(ctx, cmd); err != nil {
			logger.Error("scheduled run failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}

	if err := runOnce(ctx, cmd); err != nil {
		logger.Error("initial run failed", "error", err)
	}

	c.Start()
	logger.Info("scheduler started", "schedule", spec)
	<-ctx.Done()

	logger.Info("shutting down, waiting for the running batch")
	<-c.Stop().Done()
	return nil
}

// runOnce executes the four stages in order. A stage error stops this
// run; the next one resumes from the status files.
func runOnce(ctx context.Context, cmd *cobra.Command) error {
	started := time.Now()
	logger.Info("pipeline run starting")

	sourcesPath, _ := cmd.Flags().GetString("sources")
	sources, err := discover.LoadSources(sourcesPath)
	if err != nil {
		return fmt.Errorf("loading source list: %w", err)
	}

	dcfg := discover.DefaultConfig()
	dcfg.LogsDir = viper.GetString("logs_dir")
	dcfg.RulesDir = viper.GetString("rules_dir")
	dr, err := discover.New(dcfg)
	if err != nil {
		return err
	}
	if _, err := dr.Run(ctx, sources); err != nil {
		return fmt.Errorf("discover stage: %w", err)
	}

	f, err := newFetcher(viper.GetString("fetch_mode"), 30*time.Second)
	if err != nil {
		return err
	}
	fcfg := fetch.DefaultConfig()
	fcfg.ContentDir = viper.GetString("content_dir")
	fcfg.RulesDir = viper.GetString("rules_dir")
	fcfg.LogsDir = viper.GetString("logs_dir")
	fcfg.Fetcher = f
	fr, err := fetch.New(fcfg)
	if err != nil {
		_ = f.Close()
		return err
	}
	_, ferr := fr.Run(ctx)
	if cerr := f.Close(); cerr != nil {
		logger.Warn("closing fetcher", "error", cerr)
	}
	if ferr != nil {
		return fmt.Errorf("fetch stage: %w", ferr)
	}

	pcfg := pipeline.DefaultConfig()
	pcfg.ContentDir = viper.GetString("content_dir")
	pcfg.RulesDir = viper.GetString("rules_dir")
	pcfg.LogsDir = viper.GetString("logs_dir")
	pcfg.Method = extract.Method(viper.GetString("method"))
	p, err := pipeline.New(pcfg)
	if err != nil {
		return err
	}
	if _, err := p.Run(ctx); err != nil {
		return fmt.Errorf("extract stage: %w", err)
	}

	analyzer, err := newAnalyzer(false)
	if err != nil {
		return err
	}
	ecfg := enrich.DefaultConfig()
	ecfg.ContentDir = viper.GetString("content_dir")
	ecfg.LogsDir = viper.GetString("logs_dir")
	ecfg.Analyzer = analyzer
	er, err := enrich.New(ecfg)
	if err != nil {
		return err
	}
	if _, err := er.Run(ctx); err != nil {
		return fmt.Errorf("enrich stage: %w", err)
	}

	logger.Info("pipeline run finished", "elapsed", time.Since(started).Round(time.Second))
	return nil
}
