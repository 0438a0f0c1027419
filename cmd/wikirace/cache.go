package main

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nao1215/wikirace/internal/config"
	"github.com/nao1215/wikirace/internal/database"
	"github.com/nao1215/wikirace/internal/model"
	"github.com/spf13/cobra"
)

// NewCacheCmd creates the cache command and its subcommands.
func NewCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the article cache",
		Long: `Cache shows what previous searches stored.

Examples:
  # Count cached articles and links
  wikirace cache stats

  # List the cached links of an article
  wikirace cache show "Київ"`,
	}

	cmd.AddCommand(newCacheShowCmd())
	cmd.AddCommand(newCacheStatsCmd())

	return cmd
}

func newCacheShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <title>",
		Short: "Show the cached links of an article",
		Args:  cobra.ExactArgs(1),
		RunE:  runCacheShowCmd,
	}
	addDatabaseFlags(cmd)
	cmd.Flags().BoolP("json", "j", false, "Output JSON")
	return cmd
}

func newCacheStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Count cached articles and links",
		Args:  cobra.NoArgs,
		RunE:  runCacheStatsCmd,
	}
	addDatabaseFlags(cmd)
	cmd.Flags().BoolP("json", "j", false, "Output JSON")
	return cmd
}

// openCacheForCmd loads the configuration and opens the cache it names.
func openCacheForCmd(cmd *cobra.Command) (*config.Config, *database.SQLStore, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}

	logger := setupLogger(cmd.ErrOrStderr(), cfg)
	slog.SetDefault(logger)

	store, err := openCache(cmd.Context(), cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return cfg, store, nil
}

func runCacheShowCmd(cmd *cobra.Command, args []string) error {
	cfg, store, err := openCacheForCmd(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	title := args[0]
	if cfg.NormalizeTitles {
		title = model.NormalizeTitle(title)
	}

	article, err := store.Lookup(cmd.Context(), title)
	if err != nil {
		return fmt.Errorf("failed to look up %q: %w", title, err)
	}
	if article == nil {
		return fmt.Errorf("article %q is not cached", title)
	}

	out := cmd.OutOrStdout()
	if cfg.JSONReport {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(article)
	}

	status := "stub (never crawled)"
	if article.IsCrawled() {
		status = "crawled"
	}
	fmt.Fprintf(out, "Title:   %s\n", article.Title)
	fmt.Fprintf(out, "Status:  %s\n", status)
	fmt.Fprintf(out, "Links:   %d\n", len(article.Links))
	for i, link := range article.Links {
		fmt.Fprintf(out, "  %3d. %s\n", i+1, link)
	}
	return nil
}

func runCacheStatsCmd(cmd *cobra.Command, _ []string) error {
	cfg, store, err := openCacheForCmd(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	stats, err := store.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to read cache stats: %w", err)
	}

	out := cmd.OutOrStdout()
	if cfg.JSONReport {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(stats)
	}

	fmt.Fprintf(out, "Driver:    %s\n", store.DriverName())
	fmt.Fprintf(out, "Articles:  %d\n", stats.Articles)
	fmt.Fprintf(out, "Crawled:   %d\n", stats.Crawled)
	fmt.Fprintf(out, "Links:     %d\n", stats.Links)
	return nil
}
