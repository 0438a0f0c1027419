package config

import (
	"net"
	"net/url"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "wikirace"

	// DefaultBaseURL is the corpus crawled by default.
	DefaultBaseURL = "https://uk.wikipedia.org"

	// DefaultCanonicalHost is the host absolute article links may carry.
	DefaultCanonicalHost = "https://en.wikipedia.org"

	// DefaultContentSelector selects the article body on MediaWiki pages.
	DefaultContentSelector = "div.mw-content-ltr"

	// DefaultRequestsPerMinute is the aggregate request rate. At 100 requests
	// per minute every attempt is followed by a 600ms pause.
	DefaultRequestsPerMinute = 100

	// DefaultLinksPerPage caps the links kept from a single article.
	DefaultLinksPerPage = 200

	// DefaultSearchDepth is the number of descents a search may take.
	DefaultSearchDepth = 3

	// DefaultMaxRetries is the number of retries after the first attempt.
	DefaultMaxRetries = 3

	// DefaultTimeout applies to each HTTP request.
	DefaultTimeout = 30 * time.Second

	// DefaultWorkers of 1 keeps the search sequential.
	DefaultWorkers = 1

	// DefaultBatchSize is the number of races run concurrently by the race command.
	DefaultBatchSize = 2

	// DefaultUserAgent identifies wikirace in HTTP requests.
	DefaultUserAgent = "wikirace/1.0 (+https://github.com/nao1215/wikirace)"

	// DefaultMaxBodySize limits the maximum response body size to read.
	// Long articles stay well below 10MB.
	DefaultMaxBodySize = 10 * 1024 * 1024 // 10MB
)

// Log formats.
const (
	// LogFormatText writes key=value log lines.
	LogFormatText = "text"

	// LogFormatJSON writes one JSON object per log line.
	LogFormatJSON = "json"
)

// Failure policies.
const (
	// PolicyFailFast abandons a search when a nested level fails.
	PolicyFailFast = "fail-fast"

	// PolicyBacktrack resumes the parent level instead.
	PolicyBacktrack = "backtrack"
)

// Database drivers.
const (
	// DriverSQLite keeps the article cache in a file under Database.Dir.
	DriverSQLite = "sqlite"

	// DriverPostgres keeps the article cache in PostgreSQL.
	DriverPostgres = "postgres"
)

// Config holds all configuration options for wikirace.
// It is populated from defaults, then the configuration file, then CLI
// flags, and passed down explicitly rather than kept in global state.
type Config struct {
	// BaseURL is the corpus root, e.g. "https://uk.wikipedia.org".
	BaseURL string

	// CanonicalHost is the scheme and host that absolute article links may
	// be prefixed with.
	CanonicalHost string

	// ContentSelector is the CSS selector of the article body.
	ContentSelector string

	// RequestsPerMinute bounds the request rate, retries included.
	RequestsPerMinute int

	// LinksPerPage caps how many links are kept from one article.
	LinksPerPage int

	// SearchDepth is the number of descents a search may take.
	SearchDepth int

	// MaxRetries is the number of retries after a failed first attempt.
	MaxRetries int

	// Timeout applies to each HTTP request.
	Timeout time.Duration

	// Workers is the number of goroutines expanding the start article's
	// links. 1 means a sequential search.
	Workers int

	// Policy is PolicyFailFast or PolicyBacktrack.
	Policy string

	// NormalizeTitles applies Unicode NFC to every title.
	NormalizeTitles bool

	// VerifyEndpoints resolves start and finish before searching.
	VerifyEndpoints bool

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string

	// Proxy is an optional SOCKS5 proxy ("host:port") for every request.
	Proxy string

	// MaxBodySize is the maximum response body size in bytes to read.
	MaxBodySize int64

	// BatchSize is the number of races run concurrently.
	BatchSize int

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// LogFormat is LogFormatText or LogFormatJSON.
	LogFormat string

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .wikirace in the current directory,
	// then in the user's home directory, then for config.yaml in the XDG
	// config directory.
	ConfigFilePath string

	// JSONReport enables JSON report output. Mutually exclusive with
	// MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output. Mutually exclusive
	// with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	ReportFile string

	// Database selects and configures the article cache.
	Database Database
}

// Database configures the article cache backend.
type Database struct {
	// Driver is DriverSQLite or DriverPostgres.
	Driver string

	// Dir is the directory of the SQLite file.
	// Defaults to XDG data directory (~/.local/share/wikirace on Linux).
	Dir string

	// Host, Port, User, Password, DBName and SSLMode are the PostgreSQL
	// connection parameters.
	Host     string
	Port     string
	User     string
	Password string //nolint:gosec // connection config
	DBName   string
	SSLMode  string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		BaseURL:           DefaultBaseURL,
		CanonicalHost:     DefaultCanonicalHost,
		ContentSelector:   DefaultContentSelector,
		RequestsPerMinute: DefaultRequestsPerMinute,
		LinksPerPage:      DefaultLinksPerPage,
		SearchDepth:       DefaultSearchDepth,
		MaxRetries:        DefaultMaxRetries,
		Timeout:           DefaultTimeout,
		Workers:           DefaultWorkers,
		Policy:            PolicyFailFast,
		VerifyEndpoints:   true,
		UserAgent:         DefaultUserAgent,
		MaxBodySize:       DefaultMaxBodySize,
		BatchSize:         DefaultBatchSize,
		LogFormat:         LogFormatText,
		Database: Database{
			Driver:  DriverSQLite,
			Dir:     XDGDataDir(),
			Host:    "localhost",
			Port:    "5432",
			SSLMode: "disable",
		},
	}
}

// XDGDataDir returns the XDG data directory for wikirace.
// On Linux: ~/.local/share/wikirace
// On macOS: ~/Library/Application Support/wikirace
// On Windows: %LOCALAPPDATA%\wikirace
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for wikirace.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first rule that is violated.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidBaseURL
	}

	if c.RequestsPerMinute <= 0 {
		return ErrInvalidRequestRate
	}

	if c.LinksPerPage <= 0 {
		return ErrInvalidLinksPerPage
	}

	if c.SearchDepth < 0 {
		return ErrInvalidSearchDepth
	}

	if c.MaxRetries < 0 {
		return ErrInvalidMaxRetries
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.Workers <= 0 {
		return ErrInvalidWorkers
	}

	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	if c.Policy != PolicyFailFast && c.Policy != PolicyBacktrack {
		return ErrInvalidPolicy
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	if c.LogFormat != LogFormatText && c.LogFormat != LogFormatJSON {
		return ErrInvalidLogFormat
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	if c.Proxy != "" {
		host, port, err := net.SplitHostPort(c.Proxy)
		if err != nil || host == "" || port == "" {
			return ErrInvalidProxy
		}
	}

	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Dir == "" {
			return ErrMissingDatabaseDir
		}
	case DriverPostgres:
		if c.Database.Host == "" || c.Database.DBName == "" {
			return ErrMissingDatabaseName
		}
	default:
		return ErrUnsupportedDriver
	}

	return nil
}
