package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nao1215/wikirace/internal/config"
	"github.com/nao1215/wikirace/internal/model"
	"github.com/nao1215/wikirace/internal/pipeline"
	"github.com/spf13/cobra"
)

// NewFindCmd creates the find command.
func NewFindCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "find <start> <finish>",
		Short: "Find a path of links from one article to another",
		Long: `Find searches for a chain of article links leading from the start article
to the finish article, following at most --depth links.

Titles are given exactly as they appear on the site, e.g. "Київ".
Every crawled article is cached, so repeating a search is faster.

Examples:
  # Search on the default encyclopedia
  wikirace find "Дружба" "Фото"

  # Follow up to four links and keep searching past failed pages
  wikirace find -d 4 --policy backtrack "Київ" "Марс"

  # Expand the start article with 8 goroutines
  wikirace find -w 8 "Київ" "Марс"

  # Search the English Wikipedia and print a JSON report
  wikirace find --base-url https://en.wikipedia.org --json "Go (programming language)" "Unix"`,
		Args: cobra.ExactArgs(2),
		RunE: runFindCmd,
	}

	addCrawlFlags(cmd)
	addDatabaseFlags(cmd)
	addReportFlags(cmd)

	return cmd
}

// runFindCmd executes the find command.
func runFindCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger := setupLogger(cmd.ErrOrStderr(), cfg)
	slog.SetDefault(logger)

	ctx, cancel := signalContext(cmd.Context(), logger)
	defer cancel()

	return runFind(ctx, cmd, cfg, model.Race{Start: args[0], Finish: args[1]}, logger)
}

// runFind searches one race and writes its report. A failed search is
// reported and then returned.
func runFind(ctx context.Context, cmd *cobra.Command, cfg *config.Config, race model.Race, logger *slog.Logger) error {
	cache, err := openCache(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cache.Close()

	spider, err := newSpider(cfg, cfg.Workers > 1, logger)
	if err != nil {
		return err
	}

	finder, err := newFinder(cfg, spider, cache, logger)
	if err != nil {
		return err
	}

	logger.Info("starting search",
		"start", race.Start,
		"finish", race.Finish,
		"depth", cfg.SearchDepth,
		"workers", cfg.Workers,
	)

	result, searchErr := pipeline.RunRace(ctx, finder, race, nil)
	logCrawlStats(logger, spider)
	if err := writeResult(cfg, cmd.OutOrStdout(), result); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	if searchErr != nil {
		return fmt.Errorf("search failed: %w", searchErr)
	}
	return nil
}
