package database

import (
	"context"
	"slices"
	"sync"

	"github.com/nao1215/wikirace/internal/model"
)

// MemoryStore is an ArticleCache held in memory. It is safe for concurrent
// use and loses its contents when the process exits.
type MemoryStore struct {
	mu       sync.RWMutex
	nextID   int64
	articles map[string]*memoryEntry
}

type memoryEntry struct {
	id    int64
	links []string
}

var _ ArticleCache = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{articles: make(map[string]*memoryEntry)}
}

// Lookup returns a copy of the stored article, or nil when unknown.
func (m *MemoryStore) Lookup(_ context.Context, title string) (*model.Article, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.articles[title]
	if !ok {
		return nil, nil //nolint:nilnil // absent article is not an error
	}
	return &model.Article{ID: e.id, Title: title, Links: slices.Clone(e.links)}, nil
}

// IsFullyCached reports whether title has at least one stored link.
func (m *MemoryStore) IsFullyCached(_ context.Context, title string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.articles[title]
	return ok && len(e.links) > 0, nil
}

// Save replaces the links of title and creates stubs for its targets.
func (m *MemoryStore) Save(_ context.Context, title string, links []string) (*model.Article, error) {
	links = uniqueLinks(links)

	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.entry(title)
	e.links = links
	for _, link := range links {
		m.entry(link)
	}

	return &model.Article{ID: e.id, Title: title, Links: slices.Clone(links)}, nil
}

// entry returns the entry for title, creating a stub. Callers hold mu.
func (m *MemoryStore) entry(title string) *memoryEntry {
	if e, ok := m.articles[title]; ok {
		return e
	}
	m.nextID++
	e := &memoryEntry{id: m.nextID}
	m.articles[title] = e
	return e
}

// LinksTo reports whether title has a stored link to candidate.
func (m *MemoryStore) LinksTo(_ context.Context, title, candidate string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.articles[title]
	return ok && slices.Contains(e.links, candidate), nil
}

// OutboundTitles returns the stored links of title in order.
func (m *MemoryStore) OutboundTitles(_ context.Context, title string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.articles[title]
	if !ok {
		return []string{}, nil
	}
	return slices.Clone(e.links), nil
}

// Stats counts articles, crawled articles and edges.
func (m *MemoryStore) Stats(_ context.Context) (CacheStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := CacheStats{Articles: int64(len(m.articles))}
	for _, e := range m.articles {
		if len(e.links) > 0 {
			stats.Crawled++
			stats.Links += int64(len(e.links))
		}
	}
	return stats, nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error {
	return nil
}
