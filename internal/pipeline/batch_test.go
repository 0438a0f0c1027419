package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nao1215/wikirace/internal/crawler"
	"github.com/nao1215/wikirace/internal/database"
	"github.com/nao1215/wikirace/internal/model"
	"github.com/nao1215/wikirace/internal/pathfinder"
)

// mockSearcher answers every search with searchFunc.
type mockSearcher struct {
	depth      int
	searchFunc func(ctx context.Context, start, finish string) (*pathfinder.Result, error)
}

func (m *mockSearcher) Search(ctx context.Context, start, finish string) (*pathfinder.Result, error) {
	if m.searchFunc == nil {
		return &pathfinder.Result{Path: model.Path{start, finish}}, nil
	}
	return m.searchFunc(ctx, start, finish)
}

func (m *mockSearcher) SearchDepth() int { return m.depth }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func races(n int) []model.Race {
	out := make([]model.Race, n)
	for i := range out {
		out[i] = model.Race{Start: fmt.Sprintf("S%d", i), Finish: fmt.Sprintf("F%d", i)}
	}
	return out
}

// TestNewBatchRunner tests the BatchRunner constructor.
func TestNewBatchRunner(t *testing.T) {
	t.Parallel()

	factory := func() Searcher { return &mockSearcher{} }

	t.Run("creates runner with defaults", func(t *testing.T) {
		t.Parallel()

		br := NewBatchRunner(factory)
		if br.concurrency != DefaultConcurrency {
			t.Errorf("expected default concurrency %d, got %d", DefaultConcurrency, br.concurrency)
		}
		if br.logger == nil {
			t.Error("expected non-nil logger")
		}
	})

	t.Run("applies WithConcurrency option", func(t *testing.T) {
		t.Parallel()

		if br := NewBatchRunner(factory, WithConcurrency(5)); br.concurrency != 5 {
			t.Errorf("expected concurrency 5, got %d", br.concurrency)
		}
	})

	t.Run("ignores non-positive concurrency", func(t *testing.T) {
		t.Parallel()

		if br := NewBatchRunner(factory, WithConcurrency(0)); br.concurrency != DefaultConcurrency {
			t.Errorf("expected concurrency %d, got %d", DefaultConcurrency, br.concurrency)
		}
	})

	t.Run("nil logger falls back to default", func(t *testing.T) {
		t.Parallel()

		if br := NewBatchRunner(factory, WithBatchLogger(nil)); br.logger == nil {
			t.Error("expected non-nil logger")
		}
	})
}

// TestBatchRunnerRun tests batch processing.
func TestBatchRunnerRun(t *testing.T) {
	t.Parallel()

	t.Run("runs all races in order", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		br := NewBatchRunner(func() Searcher {
			return &mockSearcher{
				depth: 3,
				searchFunc: func(_ context.Context, start, finish string) (*pathfinder.Result, error) {
					calls.Add(1)
					return &pathfinder.Result{Path: model.Path{start, finish}, Fetches: 2}, nil
				},
			}
		}, WithBatchLogger(quietLogger()))

		input := races(5)
		results, err := br.Run(context.Background(), input)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if calls.Load() != 5 {
			t.Errorf("expected 5 searches, got %d", calls.Load())
		}
		for i, r := range results {
			if r.Race != input[i] {
				t.Errorf("result[%d]: got race %+v, expected %+v", i, r.Race, input[i])
			}
			if !r.Succeeded() || r.SearchDepth != 3 || r.Fetches != 2 {
				t.Errorf("result[%d]: unexpected %+v", i, r)
			}
		}
	})

	t.Run("respects concurrency limit", func(t *testing.T) {
		t.Parallel()

		var current, peak atomic.Int32
		var mu sync.Mutex

		br := NewBatchRunner(func() Searcher {
			return &mockSearcher{
				searchFunc: func(_ context.Context, start, finish string) (*pathfinder.Result, error) {
					n := current.Add(1)
					mu.Lock()
					if n > peak.Load() {
						peak.Store(n)
					}
					mu.Unlock()

					time.Sleep(20 * time.Millisecond)
					current.Add(-1)
					return &pathfinder.Result{Path: model.Path{start, finish}}, nil
				},
			}
		}, WithConcurrency(2), WithBatchLogger(quietLogger()))

		if _, err := br.Run(context.Background(), races(8)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if peak.Load() > 2 {
			t.Errorf("peak concurrency was %d, expected <= 2", peak.Load())
		}
	})

	t.Run("continues after individual race failure", func(t *testing.T) {
		t.Parallel()

		errBoom := errors.New("start article unavailable")
		br := NewBatchRunner(func() Searcher {
			return &mockSearcher{
				searchFunc: func(_ context.Context, start, finish string) (*pathfinder.Result, error) {
					if start == "S1" {
						return nil, errBoom
					}
					return &pathfinder.Result{Path: model.Path{start, finish}}, nil
				},
			}
		}, WithBatchLogger(quietLogger()))

		results, err := br.Run(context.Background(), races(3))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if results[1].Error != errBoom.Error() || results[1].Path.Found() {
			t.Errorf("expected failed result, got %+v", results[1])
		}
		if !results[0].Succeeded() || !results[2].Succeeded() {
			t.Error("expected the other races to succeed")
		}
	})

	t.Run("cancelled context leaves unstarted races empty", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		br := NewBatchRunner(func() Searcher { return &mockSearcher{} }, WithBatchLogger(quietLogger()))
		results, err := br.Run(ctx, races(3))
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if len(results) != 3 {
			t.Fatalf("expected 3 slots, got %d", len(results))
		}
		for i, r := range results {
			if r != nil {
				t.Errorf("result[%d]: expected nil, got %+v", i, r)
			}
		}
	})
}

// TestBatchRunnerRunWithCallback tests streaming results.
func TestBatchRunnerRunWithCallback(t *testing.T) {
	t.Parallel()

	br := NewBatchRunner(func() Searcher { return &mockSearcher{} }, WithBatchLogger(quietLogger()))

	var mu sync.Mutex
	seen := make(map[int]string)
	err := br.RunWithCallback(context.Background(), races(4), func(r *model.RaceResult, i int) {
		mu.Lock()
		defer mu.Unlock()
		seen[i] = r.Race.Start
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(seen) != 4 {
		t.Fatalf("expected 4 callbacks, got %d", len(seen))
	}
	for i := range 4 {
		if seen[i] != fmt.Sprintf("S%d", i) {
			t.Errorf("callback %d got race %q", i, seen[i])
		}
	}
}

func TestRunRace(t *testing.T) {
	t.Parallel()

	t.Run("copies search statistics", func(t *testing.T) {
		t.Parallel()

		base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		ticks := 0
		now := func() time.Time {
			ticks++
			return base.Add(time.Duration(ticks) * time.Second)
		}

		s := &mockSearcher{
			depth: 2,
			searchFunc: func(context.Context, string, string) (*pathfinder.Result, error) {
				return &pathfinder.Result{
					Path:      model.Path{"A", "B"},
					Levels:    1,
					Fetches:   3,
					CacheHits: 4,
					Skipped:   []error{crawler.ErrMalformedDocument},
					Errors:    []error{errors.New("cache is read-only")},
				}, nil
			},
		}

		r, err := RunRace(context.Background(), s, model.Race{Start: "A", Finish: "B"}, now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if r.Path.String() != "A -> B" || r.Levels != 1 || r.Fetches != 3 || r.CacheHits != 4 || r.SearchDepth != 2 {
			t.Errorf("unexpected result %+v", r)
		}
		if len(r.Skipped) != 1 || r.Skipped[0] != crawler.ErrMalformedDocument.Error() {
			t.Errorf("unexpected skipped %v", r.Skipped)
		}
		if len(r.Warnings) != 1 || r.Warnings[0] != "cache is read-only" {
			t.Errorf("unexpected warnings %v", r.Warnings)
		}
		if r.Elapsed != time.Second {
			t.Errorf("expected elapsed 1s, got %v", r.Elapsed)
		}
	})

	t.Run("search error is returned and recorded", func(t *testing.T) {
		t.Parallel()

		s := &mockSearcher{
			searchFunc: func(context.Context, string, string) (*pathfinder.Result, error) {
				return nil, crawler.ErrResourceUnavailable
			},
		}
		r, err := RunRace(context.Background(), s, model.Race{Start: "A", Finish: "B"}, nil)
		if !errors.Is(err, crawler.ErrResourceUnavailable) {
			t.Fatalf("expected ErrResourceUnavailable, got %v", err)
		}
		if r.Error != err.Error() || r.Path.Found() {
			t.Errorf("unexpected result %+v", r)
		}
	})

	t.Run("no path keeps an empty, non-nil path", func(t *testing.T) {
		t.Parallel()

		s := &mockSearcher{
			searchFunc: func(context.Context, string, string) (*pathfinder.Result, error) {
				return &pathfinder.Result{Path: model.Path{}}, nil
			},
		}
		r, err := RunRace(context.Background(), s, model.Race{Start: "A", Finish: "B"}, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if r.Path == nil || r.Path.Found() || r.Error != "" {
			t.Errorf("unexpected result %+v", r)
		}
	})
}

// TestBatchRunnerWithFinder runs a batch against real finders that share
// one cache.
func TestBatchRunnerWithFinder(t *testing.T) {
	t.Parallel()

	pages := map[string][]string{
		"Київ":    {"Україна", "Дніпро"},
		"Україна": {"Львів", "Одеса"},
		"Дніпро":  {"Київ"},
		"Львів":   {"Україна"},
		"Одеса":   {"Україна"},
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		title, _ := strings.CutPrefix(r.URL.Path, "/wiki/")
		links, ok := pages[title]
		if !ok {
			http.NotFound(w, r)
			return
		}
		var b strings.Builder
		b.WriteString(`<div class="mw-content-ltr">`)
		for _, l := range links {
			fmt.Fprintf(&b, `<a href="/wiki/%s" title="%s">%s</a>`, l, l, l)
		}
		b.WriteString(`</div>`)
		_, _ = io.WriteString(w, b.String())
	}))
	t.Cleanup(server.Close)

	cache := database.NewMemoryStore()
	factory := func() Searcher {
		spider, err := crawler.NewSpider(server.Client(), server.URL,
			crawler.WithPacer(crawler.NewIntervalPacer(0, nil)),
		)
		if err != nil {
			t.Errorf("failed to create spider: %v", err)
			return nil
		}
		return pathfinder.New(spider, cache, pathfinder.WithLogger(quietLogger()))
	}

	input := []model.Race{
		{Start: "Київ", Finish: "Одеса"},
		{Start: "Дніпро", Finish: "Дніпро"},
		{Start: "Київ", Finish: "Відсутня"},
	}
	results, err := NewBatchRunner(factory, WithBatchLogger(quietLogger())).Run(context.Background(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := results[0].Path.String(); got != "Київ -> Україна -> Одеса" {
		t.Errorf("race 0: got path %q", got)
	}
	if got := results[1].Path.String(); got != "Дніпро" {
		t.Errorf("race 1: got path %q", got)
	}
	if results[2].Error == "" {
		t.Error("race 2: expected an error for a missing finish article")
	}
}
