// Package database provides the persistent article link cache.
//
// The cache maps an article title to the ordered titles it links to. It is
// stored as an articles table and an article_links edge table whose position
// column keeps link order. Two backends implement ArticleCache:
//   - SQLStore, over SQLite (modernc.org/sqlite, a single CGO-free file in the
//     data directory) or PostgreSQL (lib/pq), both through sqlx
//   - MemoryStore, a mutex-guarded map for tests and throwaway runs
//
// An article counts as crawled only once it has at least one outbound link.
// Articles created as link targets are stubs until they are crawled.
package database
