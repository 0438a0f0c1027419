package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/wikirace/internal/model"
)

// Supported drivers.
const (
	// DriverSQLite stores the cache in a single file.
	DriverSQLite = "sqlite"

	// DriverPostgres stores the cache in a PostgreSQL database.
	DriverPostgres = "postgres"
)

// DBFileName is the SQLite file created in the cache directory.
const DBFileName = "wikirace.db"

// Postgres connection pool settings.
const (
	DefaultMaxOpenConns    = 10
	DefaultMaxIdleConns    = 5
	DefaultConnMaxLifetime = 5 * time.Minute
	DefaultPingTimeout     = 5 * time.Second
)

// ErrUnsupportedDriver is returned by Open for unknown drivers.
var ErrUnsupportedDriver = errors.New("unsupported database driver")

func init() {
	// modernc registers itself as "sqlite", which sqlx does not know.
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// Options configures SQLite behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging so cache reads do not block on
	// an in-flight save.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string //nolint:gosec // connection config
	DBName   string
	SSLMode  string
}

// DSN returns the lib/pq key/value connection string.
func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// Config selects and configures a backend.
type Config struct {
	// Driver is DriverSQLite or DriverPostgres.
	Driver string

	// Dir is the SQLite cache directory.
	Dir string

	// SQLite configures the SQLite backend.
	SQLite Options

	// Postgres configures the PostgreSQL backend.
	Postgres PostgresConfig
}

// Open opens the backend selected by cfg.Driver.
func Open(ctx context.Context, cfg Config) (*SQLStore, error) {
	switch cfg.Driver {
	case DriverSQLite, "":
		return OpenSQLite(ctx, cfg.Dir, cfg.SQLite)
	case DriverPostgres:
		return OpenPostgres(ctx, cfg.Postgres)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Driver)
	}
}

// SQLStore is an ArticleCache backed by SQLite or PostgreSQL.
// Queries are written with '?' placeholders and rebound for the driver.
type SQLStore struct {
	db *sqlx.DB
}

var _ ArticleCache = (*SQLStore)(nil)

// OpenSQLite opens or creates the cache database in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func OpenSQLite(ctx context.Context, dbDir string, opts Options) (*SQLStore, error) {
	dbPath := filepath.Join(dbDir, DBFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(dbDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// mode=rw refuses to create a missing file; mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sqlx.Open(DriverSQLite, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if opts.EnableWAL {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	store, err := NewSQLStore(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// OpenPostgres connects to PostgreSQL and ensures the schema exists.
func OpenPostgres(ctx context.Context, cfg PostgresConfig) (*SQLStore, error) {
	db, err := sqlx.Open(DriverPostgres, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, DefaultPingTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store, err := NewSQLStore(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// NewSQLStore wraps an open connection and creates the schema if needed.
func NewSQLStore(ctx context.Context, db *sqlx.DB) (*SQLStore, error) {
	store := newSQLStore(db)
	if err := store.createTables(ctx); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return store, nil
}

func newSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db}
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// DriverName returns the name of the underlying driver.
func (s *SQLStore) DriverName() string {
	return s.db.DriverName()
}

const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS articles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL UNIQUE,
		crawled_at DATETIME
	);

	CREATE TABLE IF NOT EXISTS article_links (
		from_id INTEGER NOT NULL REFERENCES articles(id),
		to_id INTEGER NOT NULL REFERENCES articles(id),
		position INTEGER NOT NULL,
		PRIMARY KEY (from_id, to_id)
	);

	CREATE INDEX IF NOT EXISTS idx_links_from_position ON article_links(from_id, position);
`

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS articles (
		id BIGSERIAL PRIMARY KEY,
		title TEXT NOT NULL UNIQUE,
		crawled_at TIMESTAMPTZ
	);

	CREATE TABLE IF NOT EXISTS article_links (
		from_id BIGINT NOT NULL REFERENCES articles(id),
		to_id BIGINT NOT NULL REFERENCES articles(id),
		position INTEGER NOT NULL,
		PRIMARY KEY (from_id, to_id)
	);

	CREATE INDEX IF NOT EXISTS idx_links_from_position ON article_links(from_id, position);
`

// createTables creates the database schema if it doesn't exist.
func (s *SQLStore) createTables(ctx context.Context) error {
	schema := sqliteSchema
	if s.db.DriverName() == DriverPostgres {
		schema = postgresSchema
	}
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

const (
	queryArticle = `SELECT id, title FROM articles WHERE title = ?`

	queryOutbound = `
	SELECT t.title
	FROM article_links l
	JOIN articles f ON f.id = l.from_id
	JOIN articles t ON t.id = l.to_id
	WHERE f.title = ?
	ORDER BY l.position`

	queryFullyCached = `
	SELECT EXISTS (
		SELECT 1 FROM article_links l
		JOIN articles f ON f.id = l.from_id
		WHERE f.title = ?
	)`

	queryLinksTo = `
	SELECT EXISTS (
		SELECT 1 FROM article_links l
		JOIN articles f ON f.id = l.from_id
		JOIN articles t ON t.id = l.to_id
		WHERE f.title = ? AND t.title = ?
	)`

	upsertArticle = `
	INSERT INTO articles (title, crawled_at) VALUES (?, CURRENT_TIMESTAMP)
	ON CONFLICT (title) DO UPDATE SET crawled_at = CURRENT_TIMESTAMP
	RETURNING id`

	deleteLinks = `DELETE FROM article_links WHERE from_id = ?`

	insertStub = `INSERT INTO articles (title) VALUES (?) ON CONFLICT (title) DO NOTHING`

	insertLink = `
	INSERT INTO article_links (from_id, to_id, position)
	SELECT CAST(? AS BIGINT), id, CAST(? AS INTEGER) FROM articles WHERE title = ?
	ON CONFLICT (from_id, to_id) DO NOTHING`

	queryStats = `
	SELECT
		(SELECT COUNT(*) FROM articles) AS articles,
		(SELECT COUNT(DISTINCT from_id) FROM article_links) AS crawled,
		(SELECT COUNT(*) FROM article_links) AS links`
)

type articleRow struct {
	ID    int64  `db:"id"`
	Title string `db:"title"`
}

// Lookup returns the article with its stored links, or nil when unknown.
func (s *SQLStore) Lookup(ctx context.Context, title string) (*model.Article, error) {
	var row articleRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(queryArticle), title)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil //nolint:nilnil // absent article is not an error
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up article %q: %w", title, err)
	}

	links, err := s.OutboundTitles(ctx, title)
	if err != nil {
		return nil, err
	}

	return &model.Article{ID: row.ID, Title: row.Title, Links: links}, nil
}

// IsFullyCached reports whether title has at least one stored link.
func (s *SQLStore) IsFullyCached(ctx context.Context, title string) (bool, error) {
	var cached bool
	if err := s.db.GetContext(ctx, &cached, s.db.Rebind(queryFullyCached), title); err != nil {
		return false, fmt.Errorf("failed to check cache for %q: %w", title, err)
	}
	return cached, nil
}

// LinksTo reports whether title has a stored link to candidate.
func (s *SQLStore) LinksTo(ctx context.Context, title, candidate string) (bool, error) {
	var linked bool
	if err := s.db.GetContext(ctx, &linked, s.db.Rebind(queryLinksTo), title, candidate); err != nil {
		return false, fmt.Errorf("failed to check link %q -> %q: %w", title, candidate, err)
	}
	return linked, nil
}

// OutboundTitles returns the stored links of title in position order.
func (s *SQLStore) OutboundTitles(ctx context.Context, title string) ([]string, error) {
	links := make([]string, 0)
	if err := s.db.SelectContext(ctx, &links, s.db.Rebind(queryOutbound), title); err != nil {
		return nil, fmt.Errorf("failed to read links of %q: %w", title, err)
	}
	return links, nil
}

// Save replaces the links of title in a single transaction.
func (s *SQLStore) Save(ctx context.Context, title string, links []string) (*model.Article, error) {
	links = uniqueLinks(links)

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // no-op after commit
	}()

	var id int64
	if err := tx.GetContext(ctx, &id, tx.Rebind(upsertArticle), title); err != nil {
		return nil, fmt.Errorf("failed to save article %q: %w", title, err)
	}

	if _, err := tx.ExecContext(ctx, tx.Rebind(deleteLinks), id); err != nil {
		return nil, fmt.Errorf("failed to clear links of %q: %w", title, err)
	}

	stub := tx.Rebind(insertStub)
	edge := tx.Rebind(insertLink)
	for i, link := range links {
		if _, err := tx.ExecContext(ctx, stub, link); err != nil {
			return nil, fmt.Errorf("failed to save article %q: %w", link, err)
		}
		if _, err := tx.ExecContext(ctx, edge, id, i, link); err != nil {
			return nil, fmt.Errorf("failed to save link %q -> %q: %w", title, link, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit article %q: %w", title, err)
	}

	return &model.Article{ID: id, Title: title, Links: links}, nil
}

// Stats counts articles, crawled articles and edges.
func (s *SQLStore) Stats(ctx context.Context) (CacheStats, error) {
	var stats CacheStats
	if err := s.db.GetContext(ctx, &stats, queryStats); err != nil {
		return CacheStats{}, fmt.Errorf("failed to read cache stats: %w", err)
	}
	return stats, nil
}
