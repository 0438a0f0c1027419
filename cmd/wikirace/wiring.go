package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/nao1215/wikirace/internal/config"
	"github.com/nao1215/wikirace/internal/crawler"
	"github.com/nao1215/wikirace/internal/database"
	"github.com/nao1215/wikirace/internal/log"
	"github.com/nao1215/wikirace/internal/model"
	"github.com/nao1215/wikirace/internal/pathfinder"
	"github.com/nao1215/wikirace/internal/report"
	"golang.org/x/time/rate"
)

// setupLogger creates the process logger writing to w in the configured
// format. Credentials in attributes and connection strings are redacted.
func setupLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	if cfg.LogFormat == config.LogFormatJSON {
		return log.NewSecureJSONLogger(w, cfg.Verbose)
	}
	return log.NewSecureLogger(w, cfg.Verbose)
}

// logCrawlStats logs the request counters of spider.
func logCrawlStats(logger *slog.Logger, spider *crawler.Spider) {
	stats := spider.Stats()
	logger.Info("crawl finished",
		"attempts", stats.Attempts,
		"fetches", stats.Fetches,
		"failures", stats.Failures,
	)
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context, logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sigCh)
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// openCache opens the article cache selected by cfg.Database.
func openCache(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*database.SQLStore, error) {
	store, err := database.Open(ctx, database.Config{
		Driver: cfg.Database.Driver,
		Dir:    cfg.Database.Dir,
		SQLite: database.DefaultOptions(),
		Postgres: database.PostgresConfig{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			DBName:   cfg.Database.DBName,
			SSLMode:  cfg.Database.SSLMode,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open article cache: %w", err)
	}

	logger.Debug("article cache opened", "driver", store.DriverName(), "dir", cfg.Database.Dir)
	return store, nil
}

// newSpider builds the fetcher. With shared set, several goroutines use the
// spider at once: a single rate.Limiter then bounds their aggregate rate
// and the per-caller pacer is disabled.
func newSpider(cfg *config.Config, shared bool, logger *slog.Logger) (*crawler.Spider, error) {
	extractor := crawler.NewExtractor(
		crawler.WithContentSelector(cfg.ContentSelector),
		crawler.WithCanonicalHost(cfg.CanonicalHost),
		crawler.WithLinksPerPage(cfg.LinksPerPage),
	)

	opts := []crawler.SpiderOption{
		crawler.WithExtractor(extractor),
		crawler.WithMaxRetries(cfg.MaxRetries),
		crawler.WithUserAgent(cfg.UserAgent),
		crawler.WithMaxBodySize(cfg.MaxBodySize),
		crawler.WithLogger(logger),
	}
	if shared {
		interval := crawler.IntervalForRate(cfg.RequestsPerMinute)
		opts = append(opts,
			crawler.WithRateLimiter(rate.NewLimiter(rate.Every(interval), 1)),
			crawler.WithPacer(crawler.NewIntervalPacer(0, nil)),
		)
	} else {
		opts = append(opts, crawler.WithPacer(crawler.NewRatePacer(cfg.RequestsPerMinute, nil)))
	}

	client, err := crawler.NewHTTPClient(cfg.Timeout, crawler.WithProxy(cfg.Proxy))
	if err != nil {
		return nil, err
	}
	return crawler.NewSpider(client, cfg.BaseURL, opts...)
}

// newFinder builds a Finder from the configuration.
func newFinder(cfg *config.Config, spider *crawler.Spider, cache database.ArticleCache, logger *slog.Logger) (*pathfinder.Finder, error) {
	policy, err := pathfinder.ParsePolicy(cfg.Policy)
	if err != nil {
		return nil, err
	}

	return pathfinder.New(spider, cache,
		pathfinder.WithSearchDepth(cfg.SearchDepth),
		pathfinder.WithPolicy(policy),
		pathfinder.WithWorkers(cfg.Workers),
		pathfinder.WithTitleNormalization(cfg.NormalizeTitles),
		pathfinder.WithEndpointVerification(cfg.VerifyEndpoints),
		pathfinder.WithLogger(logger),
	), nil
}

// newReportWriter returns the writer for the configured format.
func newReportWriter(cfg *config.Config, output io.Writer) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewJSONWriter(output, report.WithPrettyPrint(), report.WithVersion(getVersion()))
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(output)
	default:
		return report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}
}

// withReportOutput calls fn with the report destination: cfg.ReportFile
// when set, stdout otherwise.
func withReportOutput(cfg *config.Config, stdout io.Writer, fn func(w report.Writer) error) error {
	if cfg.ReportFile == "" {
		return fn(newReportWriter(cfg, stdout))
	}

	dir := filepath.Dir(cfg.ReportFile)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	return fn(newReportWriter(cfg, f))
}

// writeResult writes one race result.
func writeResult(cfg *config.Config, stdout io.Writer, result *model.RaceResult) error {
	return withReportOutput(cfg, stdout, func(w report.Writer) error {
		_, err := w.Write(result)
		return err
	})
}

// writeResults writes a batch of race results.
func writeResults(cfg *config.Config, stdout io.Writer, results []*model.RaceResult) error {
	return withReportOutput(cfg, stdout, func(w report.Writer) error {
		_, err := w.WriteBatch(results)
		return err
	})
}
