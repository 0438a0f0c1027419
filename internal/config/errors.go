package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() so callers can use
// errors.Is() while users still get a readable message.
var (
	// ErrInvalidBaseURL is returned when the base URL is not an absolute
	// http or https URL.
	ErrInvalidBaseURL = errors.New("invalid base URL: must be an absolute http or https URL")

	// ErrInvalidRequestRate is returned when the request rate is not positive.
	ErrInvalidRequestRate = errors.New("invalid requests per minute: must be positive")

	// ErrInvalidLinksPerPage is returned when the links-per-page cap is not positive.
	ErrInvalidLinksPerPage = errors.New("invalid links per page: must be positive")

	// ErrInvalidSearchDepth is returned when the search depth is negative.
	ErrInvalidSearchDepth = errors.New("invalid search depth: must be non-negative")

	// ErrInvalidMaxRetries is returned when the retry count is negative.
	ErrInvalidMaxRetries = errors.New("invalid max retries: must be non-negative")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidWorkers is returned when the worker count is not positive.
	ErrInvalidWorkers = errors.New("invalid workers: must be positive")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrInvalidPolicy is returned for an unknown failure policy.
	ErrInvalidPolicy = errors.New("invalid policy: must be fail-fast or backtrack")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidLogFormat is returned for a log format other than text or json.
	ErrInvalidLogFormat = errors.New("invalid log format: must be text or json")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidProxy is returned when the proxy is not host:port.
	ErrInvalidProxy = errors.New("invalid proxy: expected host:port")

	// ErrUnsupportedDriver is returned for a database driver other than
	// sqlite or postgres.
	ErrUnsupportedDriver = errors.New("unsupported database driver: must be sqlite or postgres")

	// ErrMissingDatabaseDir is returned when sqlite has no directory.
	ErrMissingDatabaseDir = errors.New("missing database directory for sqlite")

	// ErrMissingDatabaseName is returned when postgres has no host or database name.
	ErrMissingDatabaseName = errors.New("missing host or dbname for postgres")
)
