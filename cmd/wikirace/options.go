package main

import (
	"errors"
	"fmt"

	"github.com/nao1215/wikirace/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// addCrawlFlags registers the flags that shape how pages are fetched and
// searched. Defaults mirror config.NewConfig so --help shows real values;
// only flags the user changed override the configuration file.
func addCrawlFlags(cmd *cobra.Command) {
	cmd.Flags().String("base-url", config.DefaultBaseURL,
		"Root URL of the encyclopedia to crawl")
	cmd.Flags().String("canonical-host", config.DefaultCanonicalHost,
		"Scheme and host that absolute article links may carry")
	cmd.Flags().String("selector", config.DefaultContentSelector,
		"CSS selector of the article body")
	cmd.Flags().IntP("depth", "d", config.DefaultSearchDepth,
		"Maximum number of links followed from the start article")
	cmd.Flags().String("policy", config.PolicyFailFast,
		"Behaviour when a nested level fails: fail-fast or backtrack")
	cmd.Flags().IntP("workers", "w", config.DefaultWorkers,
		"Goroutines expanding the start article's links (1 = sequential)")
	cmd.Flags().Int("rpm", config.DefaultRequestsPerMinute,
		"Maximum requests per minute, retries included")
	cmd.Flags().Int("links", config.DefaultLinksPerPage,
		"Maximum links kept from one article")
	cmd.Flags().Int("retries", config.DefaultMaxRetries,
		"Retries after a failed request")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each request")
	cmd.Flags().String("proxy", "",
		"Route requests through a SOCKS5 proxy at host:port")
	cmd.Flags().Bool("normalize", false,
		"Apply Unicode NFC normalization to every title")
	cmd.Flags().Bool("no-verify", false,
		"Skip resolving the start and finish articles before searching")
}

// addDatabaseFlags registers the article cache flags.
func addDatabaseFlags(cmd *cobra.Command) {
	cmd.Flags().String("db-driver", config.DriverSQLite,
		"Article cache backend: sqlite or postgres")
	cmd.Flags().String("db-dir", "",
		"Directory of the SQLite cache (default: XDG data directory)")
}

// addReportFlags registers the output format flags.
func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
}

// loadConfig builds the effective configuration: defaults, then the
// configuration file, then flags the user set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Verbose = getVerboseFlag(cmd)
	if format := getLogFormatFlag(cmd); format != "" {
		cfg.LogFormat = format
	}

	configPath := getConfigFlag(cmd)
	cfg.ConfigFilePath = configPath

	// An explicitly named file must exist; the default search is optional.
	found := config.FindConfigFile(configPath)
	switch {
	case found != "":
		file, err := config.LoadConfigFile(found)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", found, err)
		}
		file.Apply(cfg)
	case configPath != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, configPath)
	}

	if err := applyFlags(cmd.Flags(), cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return cfg, nil
}

// applyFlags copies every changed flag onto cfg. Flags a command does not
// define are skipped.
func applyFlags(flags *pflag.FlagSet, cfg *config.Config) error {
	var errs []error
	str := func(name string, dst *string) {
		if flags.Changed(name) {
			v, err := flags.GetString(name)
			errs = append(errs, err)
			*dst = v
		}
	}
	num := func(name string, dst *int) {
		if flags.Changed(name) {
			v, err := flags.GetInt(name)
			errs = append(errs, err)
			*dst = v
		}
	}
	flag := func(name string, dst *bool) {
		if flags.Changed(name) {
			v, err := flags.GetBool(name)
			errs = append(errs, err)
			*dst = v
		}
	}

	str("base-url", &cfg.BaseURL)
	str("canonical-host", &cfg.CanonicalHost)
	str("selector", &cfg.ContentSelector)
	num("depth", &cfg.SearchDepth)
	str("policy", &cfg.Policy)
	num("workers", &cfg.Workers)
	num("rpm", &cfg.RequestsPerMinute)
	num("links", &cfg.LinksPerPage)
	num("retries", &cfg.MaxRetries)
	num("batch", &cfg.BatchSize)
	str("proxy", &cfg.Proxy)
	flag("normalize", &cfg.NormalizeTitles)
	if flags.Changed("no-verify") {
		v, err := flags.GetBool("no-verify")
		errs = append(errs, err)
		cfg.VerifyEndpoints = !v
	}
	if flags.Changed("timeout") {
		v, err := flags.GetDuration("timeout")
		errs = append(errs, err)
		cfg.Timeout = v
	}

	str("db-driver", &cfg.Database.Driver)
	str("db-dir", &cfg.Database.Dir)

	flag("json", &cfg.JSONReport)
	flag("markdown", &cfg.MarkdownReport)
	str("output", &cfg.ReportFile)

	return errors.Join(errs...)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// getLogFormatFlag returns the --log-format value, or "" when the command
// runs without the root command.
func getLogFormatFlag(cmd *cobra.Command) string {
	format, err := cmd.Flags().GetString("log-format")
	if err != nil {
		return ""
	}
	return format
}

// getConfigFlag returns the --config value, or "" when the command runs
// without the root command.
func getConfigFlag(cmd *cobra.Command) string {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return ""
	}
	return path
}
