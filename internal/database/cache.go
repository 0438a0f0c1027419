package database

import (
	"context"

	"github.com/nao1215/wikirace/internal/model"
)

// ArticleCache is the process-wide title to links mapping consulted by the
// path finder. Implementations must tolerate concurrent saves of different
// titles.
type ArticleCache interface {
	// Lookup returns the article and its stored links, or nil when the title
	// is unknown.
	Lookup(ctx context.Context, title string) (*model.Article, error)

	// IsFullyCached reports whether the article has at least one stored
	// outbound link.
	IsFullyCached(ctx context.Context, title string) (bool, error)

	// Save replaces the outbound links of title with links, creating stub
	// articles for link targets that are not known yet. An empty title is
	// stored like any other, so it keeps its position. A repeated title is
	// stored once, at its first position. The returned article carries the
	// stored links.
	Save(ctx context.Context, title string, links []string) (*model.Article, error)

	// LinksTo reports whether title has a stored link to candidate.
	LinksTo(ctx context.Context, title, candidate string) (bool, error)

	// OutboundTitles returns the stored links of title in their original
	// order. Unknown titles have no links.
	OutboundTitles(ctx context.Context, title string) ([]string, error)

	// Stats summarizes the cache contents.
	Stats(ctx context.Context) (CacheStats, error)

	// Close releases the underlying resources.
	Close() error
}

// CacheStats counts what the cache holds.
type CacheStats struct {
	// Articles is the number of known titles, stubs included.
	Articles int64 `db:"articles" json:"articles"`

	// Crawled is the number of articles with at least one stored link.
	Crawled int64 `db:"crawled" json:"crawled"`

	// Links is the number of stored edges.
	Links int64 `db:"links" json:"links"`
}

// uniqueLinks drops repeated titles, keeping first-seen order. An edge is
// keyed by its two articles, so a title can appear only once.
func uniqueLinks(links []string) []string {
	out := make([]string, 0, len(links))
	seen := make(map[string]struct{}, len(links))
	for _, link := range links {
		if _, ok := seen[link]; ok {
			continue
		}
		seen[link] = struct{}{}
		out = append(out, link)
	}
	return out
}
