package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/wikirace/internal/config"
	"github.com/nao1215/wikirace/internal/model"
	"github.com/nao1215/wikirace/internal/pipeline"
	"github.com/spf13/cobra"
)

// NewRaceCmd creates the race command.
func NewRaceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "race <races.yaml>",
		Short: "Run many searches from a race file",
		Long: `Race runs every start/finish pair listed in a YAML file and prints one
report for the whole batch. Races run concurrently and share the article
cache and the request rate limit.

Race file example:
  races:
    - start: Київ
      finish: Дніпро
    - start: Дружба
      finish: Фото

Examples:
  # Run three races at a time and save a Markdown report
  wikirace race -b 3 --markdown -o report.md races.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: runRaceCmd,
	}

	addCrawlFlags(cmd)
	addDatabaseFlags(cmd)
	addReportFlags(cmd)
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of concurrent races")

	return cmd
}

// runRaceCmd executes the race command.
func runRaceCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	races, err := pipeline.LoadRaces(args[0])
	if err != nil {
		return err
	}

	logger := setupLogger(cmd.ErrOrStderr(), cfg)
	slog.SetDefault(logger)

	ctx, cancel := signalContext(cmd.Context(), logger)
	defer cancel()

	return runRaces(ctx, cmd, cfg, races, logger)
}

// runRaces runs the batch and writes a single report for it.
func runRaces(ctx context.Context, cmd *cobra.Command, cfg *config.Config, races []model.Race, logger *slog.Logger) error {
	cache, err := openCache(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cache.Close()

	// One spider serves every race, so the rate limit covers the batch.
	shared := cfg.BatchSize > 1 || cfg.Workers > 1
	spider, err := newSpider(cfg, shared, logger)
	if err != nil {
		return err
	}

	// Fail on a bad policy before any race starts.
	if _, err := newFinder(cfg, spider, cache, logger); err != nil {
		return err
	}

	runner := pipeline.NewBatchRunner(
		func() pipeline.Searcher {
			finder, _ := newFinder(cfg, spider, cache, logger) //nolint:errcheck // validated above
			return finder
		},
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
	)

	fmt.Fprintf(cmd.ErrOrStderr(), "Running %d races (concurrency: %d)...\n", len(races), cfg.BatchSize)
	startTime := time.Now()

	results, runErr := runner.Run(ctx, races)
	logCrawlStats(logger, spider)

	fmt.Fprintf(cmd.ErrOrStderr(), "Batch completed in %s\n", time.Since(startTime).Round(time.Millisecond))

	if err := writeResults(cfg, cmd.OutOrStdout(), results); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return runErr
}
