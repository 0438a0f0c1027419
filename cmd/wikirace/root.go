package main

import (
	"fmt"
	"os"

	"github.com/nao1215/wikirace/internal/config"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for wikirace.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wikirace",
		Short: "Find the shortest link path between Wikipedia articles",
		Long: `wikirace finds a path of article links from a start article to a finish
article, searching level by level up to a fixed depth.

Every crawled article is cached in SQLite (default) or PostgreSQL, so
repeated searches over the same region of the encyclopedia need fewer
network requests.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .wikirace in current or home directory, then XDG config.yaml)")
	cmd.PersistentFlags().String("log-format", config.LogFormatText, "Log format: text or json")

	cmd.AddCommand(NewFindCmd())
	cmd.AddCommand(NewRaceCmd())
	cmd.AddCommand(NewCacheCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
