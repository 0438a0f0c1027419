package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/nao1215/wikirace/internal/model"
	"github.com/nao1215/wikirace/internal/pathfinder"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of races run at once when none is set.
const DefaultConcurrency = 2

// Searcher finds a path between two articles.
// *pathfinder.Finder satisfies it.
type Searcher interface {
	Search(ctx context.Context, start, finish string) (*pathfinder.Result, error)
	SearchDepth() int
}

// BatchRunner handles concurrent processing of multiple races.
// It uses errgroup to manage goroutines and respect concurrency limits.
type BatchRunner struct {
	// searcherFactory creates a new searcher for each race, so per-race
	// state never leaks between races. Searchers may share a cache.
	searcherFactory func() Searcher

	// concurrency is the maximum number of concurrent races.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger

	// now returns the current time; replaced in tests.
	now func() time.Time
}

// BatchOption configures a BatchRunner.
type BatchOption func(*BatchRunner)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchRunner) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent races.
// Non-positive values keep the default.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchRunner) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// WithNow sets the time source used for StartedAt.
func WithNow(now func() time.Time) BatchOption {
	return func(b *BatchRunner) {
		if now != nil {
			b.now = now
		}
	}
}

// NewBatchRunner creates a new BatchRunner.
func NewBatchRunner(searcherFactory func() Searcher, opts ...BatchOption) *BatchRunner {
	br := &BatchRunner{
		searcherFactory: searcherFactory,
		concurrency:     DefaultConcurrency,
		now:             time.Now,
	}

	for _, opt := range opts {
		opt(br)
	}

	if br.logger == nil {
		br.logger = slog.Default()
	}

	return br
}

// Run executes every race and returns their results in input order.
// Races not started before ctx was cancelled leave a nil entry and Run
// returns the context error.
func (br *BatchRunner) Run(ctx context.Context, races []model.Race) ([]*model.RaceResult, error) {
	br.logger.Info("starting batch",
		"total_races", len(races),
		"concurrency", br.concurrency,
	)

	startTime := br.now()
	results := make([]*model.RaceResult, len(races))
	var mu sync.Mutex

	err := br.RunWithCallback(ctx, races, func(result *model.RaceResult, index int) {
		mu.Lock()
		results[index] = result
		mu.Unlock()
	})

	br.logger.Info("batch complete",
		"total_races", len(races),
		"elapsed", br.now().Sub(startTime),
	)

	return results, err
}

// RunWithCallback executes every race and calls callback for each
// completed one. The callback runs on the goroutine that finished the race
// and must be safe for concurrent use.
func (br *BatchRunner) RunWithCallback(
	ctx context.Context,
	races []model.Race,
	callback func(result *model.RaceResult, index int),
) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(br.concurrency)

	for i, race := range races {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			br.logger.Info("running race",
				"start", race.Start,
				"finish", race.Finish,
				"index", i+1,
				"total", len(races),
			)

			result, err := RunRace(ctx, br.searcherFactory(), race, br.now)
			if err != nil {
				// Recorded on the result; the batch goes on.
				br.logger.Warn("race failed",
					"start", race.Start,
					"finish", race.Finish,
					"error", err,
				)
			}

			callback(result, i)
			return nil
		})
	}

	return g.Wait()
}

// RunRace runs one race and converts the search outcome into a result.
// A search error is returned and also stored in RaceResult.Error, so the
// result is always usable for reporting.
func RunRace(ctx context.Context, s Searcher, race model.Race, now func() time.Time) (*model.RaceResult, error) {
	if now == nil {
		now = time.Now
	}

	result := &model.RaceResult{
		Race:        race,
		Path:        model.Path{},
		SearchDepth: s.SearchDepth(),
		StartedAt:   now(),
	}

	res, err := s.Search(ctx, race.Start, race.Finish)
	result.Elapsed = now().Sub(result.StartedAt)
	if err != nil {
		result.Error = err.Error()
		return result, err
	}

	result.Path = res.Path
	result.Levels = res.Levels
	result.Fetches = res.Fetches
	result.CacheHits = res.CacheHits
	for _, e := range res.Skipped {
		result.Skipped = append(result.Skipped, e.Error())
	}
	for _, e := range res.Errors {
		result.Warnings = append(result.Warnings, e.Error())
	}
	return result, nil
}
