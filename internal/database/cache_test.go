package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// stores returns a fresh instance of every ArticleCache implementation.
func stores(t *testing.T) map[string]ArticleCache {
	t.Helper()

	sqlite, err := OpenSQLite(context.Background(), t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = sqlite.Close() })

	return map[string]ArticleCache{
		"sqlite": sqlite,
		"memory": NewMemoryStore(),
	}
}

// TestArticleCache runs the cache contract against every backend.
func TestArticleCache(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	for name, cache := range stores(t) {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			t.Run("unknown title", func(t *testing.T) {
				article, err := cache.Lookup(ctx, "Nowhere")
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if article != nil {
					t.Errorf("expected nil article, got %+v", article)
				}

				cached, err := cache.IsFullyCached(ctx, "Nowhere")
				if err != nil || cached {
					t.Errorf("IsFullyCached() = %v, %v; want false, nil", cached, err)
				}

				links, err := cache.OutboundTitles(ctx, "Nowhere")
				if err != nil || len(links) != 0 {
					t.Errorf("OutboundTitles() = %v, %v; want empty, nil", links, err)
				}
			})

			t.Run("saving no links is not fully cached", func(t *testing.T) {
				if _, err := cache.Save(ctx, "Empty", nil); err != nil {
					t.Fatalf("unexpected error: %v", err)
				}

				cached, err := cache.IsFullyCached(ctx, "Empty")
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if cached {
					t.Error("article without links should not be fully cached")
				}

				article, err := cache.Lookup(ctx, "Empty")
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if article == nil || article.IsCrawled() {
					t.Errorf("expected known but uncrawled article, got %+v", article)
				}
			})

			t.Run("saved links are returned in order", func(t *testing.T) {
				saved, err := cache.Save(ctx, "Kyiv", []string{"Dnipro", "Ukraine"})
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if saved.Title != "Kyiv" || !equal(saved.Links, []string{"Dnipro", "Ukraine"}) {
					t.Errorf("unexpected saved article %+v", saved)
				}

				cached, err := cache.IsFullyCached(ctx, "Kyiv")
				if err != nil || !cached {
					t.Errorf("IsFullyCached() = %v, %v; want true, nil", cached, err)
				}

				links, err := cache.OutboundTitles(ctx, "Kyiv")
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if !equal(links, []string{"Dnipro", "Ukraine"}) {
					t.Errorf("OutboundTitles() = %v, want [Dnipro Ukraine]", links)
				}

				article, err := cache.Lookup(ctx, "Kyiv")
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if article == nil || article.ID == 0 || !equal(article.Links, links) {
					t.Errorf("Lookup() = %+v", article)
				}
			})

			t.Run("link targets become stubs", func(t *testing.T) {
				if _, err := cache.Save(ctx, "Lviv", []string{"Galicia"}); err != nil {
					t.Fatalf("unexpected error: %v", err)
				}

				stub, err := cache.Lookup(ctx, "Galicia")
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if stub == nil {
					t.Fatal("expected stub article for link target")
				}
				if stub.IsCrawled() {
					t.Error("stub should not be crawled")
				}
			})

			t.Run("save replaces the link set", func(t *testing.T) {
				if _, err := cache.Save(ctx, "Odesa", []string{"Black Sea", "Port"}); err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if _, err := cache.Save(ctx, "Odesa", []string{"Opera"}); err != nil {
					t.Fatalf("unexpected error: %v", err)
				}

				links, err := cache.OutboundTitles(ctx, "Odesa")
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if !equal(links, []string{"Opera"}) {
					t.Errorf("OutboundTitles() = %v, want [Opera]", links)
				}

				linked, err := cache.LinksTo(ctx, "Odesa", "Port")
				if err != nil || linked {
					t.Errorf("LinksTo(Odesa, Port) = %v, %v; want false, nil", linked, err)
				}
			})

			t.Run("empty titles keep their slot and repeats are dropped", func(t *testing.T) {
				saved, err := cache.Save(ctx, "Kharkiv", []string{"B", "", "A", "B", ""})
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if !equal(saved.Links, []string{"B", "", "A"}) {
					t.Errorf("saved links = %q, want [B \"\" A]", saved.Links)
				}

				links, err := cache.OutboundTitles(ctx, "Kharkiv")
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if !equal(links, []string{"B", "", "A"}) {
					t.Errorf("OutboundTitles() = %q, want [B \"\" A]", links)
				}

				linked, err := cache.LinksTo(ctx, "Kharkiv", "")
				if err != nil || !linked {
					t.Errorf("LinksTo(Kharkiv, \"\") = %v, %v; want true, nil", linked, err)
				}
			})

			t.Run("links to", func(t *testing.T) {
				if _, err := cache.Save(ctx, "Poltava", []string{"Battle", "Poltava"}); err != nil {
					t.Fatalf("unexpected error: %v", err)
				}

				tests := []struct {
					from, to string
					want     bool
				}{
					{"Poltava", "Battle", true},
					{"Poltava", "Poltava", true},
					{"Poltava", "Kyiv", false},
					{"Battle", "Poltava", false},
					{"Unknown", "Battle", false},
				}
				for _, tt := range tests {
					got, err := cache.LinksTo(ctx, tt.from, tt.to)
					if err != nil {
						t.Fatalf("unexpected error: %v", err)
					}
					if got != tt.want {
						t.Errorf("LinksTo(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.want)
					}
				}
			})

			t.Run("long link lists keep their order", func(t *testing.T) {
				links := make([]string, 0, 50)
				for i := 50; i > 0; i-- {
					links = append(links, fmt.Sprintf("Link %02d", i))
				}
				if _, err := cache.Save(ctx, "Index", links); err != nil {
					t.Fatalf("unexpected error: %v", err)
				}

				got, err := cache.OutboundTitles(ctx, "Index")
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if !equal(got, links) {
					t.Errorf("order not preserved: got %v", got)
				}
			})

			t.Run("unicode titles", func(t *testing.T) {
				title := "Марка (грошова одиниця)"
				if _, err := cache.Save(ctx, title, []string{"Німеччина", "2017"}); err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				linked, err := cache.LinksTo(ctx, title, "Німеччина")
				if err != nil || !linked {
					t.Errorf("LinksTo() = %v, %v; want true, nil", linked, err)
				}
			})
		})
	}
}

// TestArticleCacheStats tests cache statistics.
func TestArticleCacheStats(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	for name, cache := range stores(t) {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			if _, err := cache.Save(ctx, "A", []string{"B", "C"}); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if _, err := cache.Save(ctx, "B", []string{"C"}); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			stats, err := cache.Stats(ctx)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			want := CacheStats{Articles: 3, Crawled: 2, Links: 3}
			if stats != want {
				t.Errorf("Stats() = %+v, want %+v", stats, want)
			}
		})
	}
}

// TestArticleCacheConcurrentSaves tests concurrent saves sharing link targets.
func TestArticleCacheConcurrentSaves(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	for name, cache := range stores(t) {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var wg sync.WaitGroup
			errs := make(chan error, 20)
			for i := range 20 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					title := fmt.Sprintf("Article %d", i)
					if _, err := cache.Save(ctx, title, []string{"Shared", "Common"}); err != nil {
						errs <- err
					}
				}()
			}
			wg.Wait()
			close(errs)

			for err := range errs {
				t.Errorf("concurrent save failed: %v", err)
			}

			stats, err := cache.Stats(ctx)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if stats.Articles != 22 || stats.Links != 40 {
				t.Errorf("unexpected stats %+v", stats)
			}
		})
	}
}

// TestOpenSQLite tests database opening and creation.
func TestOpenSQLite(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "newdir", "subdir")
		store, err := OpenSQLite(ctx, dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer store.Close()

		if _, err := os.Stat(filepath.Join(dbDir, DBFileName)); os.IsNotExist(err) {
			t.Error("database file was not created")
		}
		if store.DriverName() != DriverSQLite {
			t.Errorf("DriverName() = %q", store.DriverName())
		}
	})

	t.Run("CreateIfNotExists=false returns error when database does not exist", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "nonexistent-db")
		_, err := OpenSQLite(ctx, dbDir, Options{CreateIfNotExists: false, EnableWAL: true})
		if err == nil {
			t.Fatal("expected error when CreateIfNotExists=false and database does not exist")
		}
		if !strings.Contains(err.Error(), "database not found") {
			t.Errorf("unexpected error %q", err)
		}
		if _, statErr := os.Stat(dbDir); !os.IsNotExist(statErr) {
			t.Error("database directory should not have been created")
		}
	})

	t.Run("contents survive reopening", func(t *testing.T) {
		t.Parallel()

		dbDir := t.TempDir()
		store, err := OpenSQLite(ctx, dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		if _, err := store.Save(ctx, "A", []string{"B"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := store.Close(); err != nil {
			t.Fatalf("failed to close database: %v", err)
		}

		reopened, err := OpenSQLite(ctx, dbDir, Options{CreateIfNotExists: false, EnableWAL: true})
		if err != nil {
			t.Fatalf("failed to reopen database: %v", err)
		}
		defer reopened.Close()

		cached, err := reopened.IsFullyCached(ctx, "A")
		if err != nil || !cached {
			t.Errorf("IsFullyCached() = %v, %v; want true, nil", cached, err)
		}
	})
}

// TestOpen tests driver selection.
func TestOpen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("empty driver means sqlite", func(t *testing.T) {
		t.Parallel()

		store, err := Open(ctx, Config{Dir: t.TempDir(), SQLite: DefaultOptions()})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer store.Close()

		if store.DriverName() != DriverSQLite {
			t.Errorf("DriverName() = %q", store.DriverName())
		}
	})

	t.Run("unknown driver", func(t *testing.T) {
		t.Parallel()

		_, err := Open(ctx, Config{Driver: "mysql"})
		if !errors.Is(err, ErrUnsupportedDriver) {
			t.Errorf("expected ErrUnsupportedDriver, got %v", err)
		}
	})
}

func TestPostgresConfigDSN(t *testing.T) {
	t.Parallel()

	cfg := PostgresConfig{
		Host: "localhost", Port: "5432", User: "race",
		Password: "secret", DBName: "wikirace", SSLMode: "disable",
	}
	want := "host=localhost port=5432 user=race password=secret dbname=wikirace sslmode=disable"
	if got := cfg.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
