package pathfinder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/nao1215/wikirace/internal/crawler"
	"github.com/nao1215/wikirace/internal/database"
	"github.com/nao1215/wikirace/internal/model"
)

// DefaultSearchDepth is the number of descents a search may take.
const DefaultSearchDepth = 3

// Policy decides what happens when a nested level fails.
type Policy int

const (
	// FailFast abandons the whole search when a nested level fails.
	FailFast Policy = iota

	// Backtrack resumes the parent level's breadth-first search with its
	// next frontier candidate.
	Backtrack
)

// ErrUnknownPolicy is returned by ParsePolicy.
var ErrUnknownPolicy = errors.New("unknown failure policy")

// String returns the configuration name of the policy.
func (p Policy) String() string {
	switch p {
	case FailFast:
		return "fail-fast"
	case Backtrack:
		return "backtrack"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy parses "fail-fast" or "backtrack".
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fail-fast", "failfast", "":
		return FailFast, nil
	case "backtrack":
		return Backtrack, nil
	default:
		return FailFast, fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}

// Finder searches for paths between articles.
// A Finder holds no per-search state and may run searches concurrently.
type Finder struct {
	spider *crawler.Spider
	cache  database.ArticleCache

	searchDepth     int
	policy          Policy
	workers         int
	normalize       bool
	verifyEndpoints bool
	logger          *slog.Logger
	clock           crawler.Clock
}

// Option configures a Finder.
type Option func(*Finder)

// WithSearchDepth sets how many descents a search may take.
func WithSearchDepth(depth int) Option {
	return func(f *Finder) {
		f.searchDepth = depth
	}
}

// WithPolicy sets the nested-failure policy.
func WithPolicy(p Policy) Option {
	return func(f *Finder) {
		f.policy = p
	}
}

// WithWorkers sets how many goroutines expand the start article's links.
// One means a fully sequential search.
func WithWorkers(n int) Option {
	return func(f *Finder) {
		f.workers = n
	}
}

// WithTitleNormalization applies Unicode NFC to every title entering the
// search and the cache.
func WithTitleNormalization(enabled bool) Option {
	return func(f *Finder) {
		f.normalize = enabled
	}
}

// WithEndpointVerification controls whether start and finish are resolved
// before the search begins.
func WithEndpointVerification(enabled bool) Option {
	return func(f *Finder) {
		f.verifyEndpoints = enabled
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Finder) {
		f.logger = logger
	}
}

// WithClock sets the clock used to time searches.
func WithClock(clock crawler.Clock) Option {
	return func(f *Finder) {
		f.clock = clock
	}
}

// New creates a Finder that crawls with spider and caches into cache.
func New(spider *crawler.Spider, cache database.ArticleCache, opts ...Option) *Finder {
	f := &Finder{
		spider:          spider,
		cache:           cache,
		searchDepth:     DefaultSearchDepth,
		policy:          FailFast,
		workers:         1,
		verifyEndpoints: true,
		logger:          slog.Default(),
		clock:           crawler.SystemClock{},
	}

	for _, opt := range opts {
		opt(f)
	}

	if f.workers < 1 {
		f.workers = 1
	}
	return f
}

// SearchDepth returns the configured search depth.
func (f *Finder) SearchDepth() int {
	return f.searchDepth
}

// Result describes a finished search.
type Result struct {
	// Path is the found path, empty when none exists within the depth.
	Path model.Path

	// Levels is the number of search levels opened.
	Levels int

	// Fetches is the number of pages downloaded.
	Fetches int

	// CacheHits is the number of articles whose links came from the cache.
	CacheHits int

	// Skipped holds the page failures whose article was left out of the
	// search, such as pages that were unavailable after every retry.
	Skipped []error

	// Errors holds the other per-item failures, cache errors among them.
	Errors []error

	// Elapsed is the wall time of the search.
	Elapsed time.Duration
}

// FindPath returns the path from start to finish, or an empty path when
// none exists within the search depth.
func (f *Finder) FindPath(ctx context.Context, start, finish string) ([]string, error) {
	res, err := f.Search(ctx, start, finish)
	if err != nil {
		return nil, err
	}
	return res.Path, nil
}

// Search finds a path from start to finish and reports how it went.
// Unresolvable endpoints yield an error wrapping
// crawler.ErrResourceUnavailable. Per-article failures never stop the
// search; they are kept in Result.Skipped or Result.Errors and logged once
// the search is over.
func (f *Finder) Search(ctx context.Context, start, finish string) (*Result, error) {
	began := f.clock.Now()
	start, finish = f.title(start), f.title(finish)

	t := &tally{}
	path, err := f.search(ctx, start, finish, 0, t)
	res := t.result(path, f.clock.Now().Sub(began))

	for _, e := range res.Skipped {
		f.logger.Warn("skipped article", "error", e)
	}
	for _, e := range res.Errors {
		f.logger.Warn("search error", "error", e)
	}
	if err != nil {
		return nil, err
	}

	f.logger.Debug("search finished",
		"start", start,
		"finish", finish,
		"found", res.Path.Found(),
		"levels", res.Levels,
		"fetches", res.Fetches,
		"cache_hits", res.CacheHits,
	)
	return res, nil
}

func (f *Finder) title(s string) string {
	if f.normalize {
		return model.NormalizeTitle(s)
	}
	return s
}

// tally accumulates search statistics; parallel workers share it.
type tally struct {
	mu        sync.Mutex
	levels    int
	fetches   int
	cacheHits int
	skipped   []error
	errs      []error
}

func (t *tally) addLevel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.levels++
}

func (t *tally) addFetch() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fetches++
}

func (t *tally) addCacheHit() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cacheHits++
}

// addError files err under skipped pages when it only concerns one page.
func (t *tally) addError(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if crawler.IsPageError(err) {
		t.skipped = append(t.skipped, err)
		return
	}
	t.errs = append(t.errs, err)
}

func (t *tally) result(path model.Path, elapsed time.Duration) *Result {
	t.mu.Lock()
	defer t.mu.Unlock()

	if path == nil {
		path = model.Path{}
	}
	return &Result{
		Path:      path,
		Levels:    t.levels,
		Fetches:   t.fetches,
		CacheHits: t.cacheHits,
		Skipped:   append([]error(nil), t.skipped...),
		Errors:    append([]error(nil), t.errs...),
		Elapsed:   elapsed,
	}
}
