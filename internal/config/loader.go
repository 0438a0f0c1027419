package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".wikirace"

// XDGConfigFile is the configuration file name inside XDGConfigDir.
const XDGConfigFile = "config.yaml"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File represents the structure of the .wikirace configuration file.
// Zero values mean "not set" and leave the current setting untouched.
type File struct {
	Crawler  CrawlerFile  `yaml:"crawler,omitempty"`
	Search   SearchFile   `yaml:"search,omitempty"`
	Database DatabaseFile `yaml:"database,omitempty"`
}

// CrawlerFile is the crawler section of the configuration file.
type CrawlerFile struct {
	BaseURL           string   `yaml:"base_url,omitempty"`
	CanonicalHost     string   `yaml:"canonical_host,omitempty"`
	ContentSelector   string   `yaml:"content_selector,omitempty"`
	RequestsPerMinute int      `yaml:"requests_per_minute,omitempty"`
	LinksPerPage      int      `yaml:"links_per_page,omitempty"`
	MaxRetries        *int     `yaml:"max_retries,omitempty"`
	Timeout           Duration `yaml:"timeout,omitempty"`
	UserAgent         string   `yaml:"user_agent,omitempty"`
	Proxy             string   `yaml:"proxy,omitempty"`
}

// SearchFile is the search section of the configuration file.
type SearchFile struct {
	Depth           *int   `yaml:"depth,omitempty"`
	Policy          string `yaml:"policy,omitempty"`
	Workers         int    `yaml:"workers,omitempty"`
	NormalizeTitles *bool  `yaml:"normalize_titles,omitempty"`
	VerifyEndpoints *bool  `yaml:"verify_endpoints,omitempty"`
}

// DatabaseFile is the database section of the configuration file.
type DatabaseFile struct {
	Driver   string `yaml:"driver,omitempty"`
	Dir      string `yaml:"dir,omitempty"`
	Host     string `yaml:"host,omitempty"`
	Port     string `yaml:"port,omitempty"`
	User     string `yaml:"user,omitempty"`
	Password string `yaml:"password,omitempty"` //nolint:gosec // connection config
	DBName   string `yaml:"dbname,omitempty"`
	SSLMode  string `yaml:"sslmode,omitempty"`
}

// Duration is a time.Duration written as "30s" or "1m30s" in YAML.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Apply copies every value set in the file onto c.
func (cf *File) Apply(c *Config) {
	cr := cf.Crawler
	setString(&c.BaseURL, cr.BaseURL)
	setString(&c.CanonicalHost, cr.CanonicalHost)
	setString(&c.ContentSelector, cr.ContentSelector)
	setInt(&c.RequestsPerMinute, cr.RequestsPerMinute)
	setInt(&c.LinksPerPage, cr.LinksPerPage)
	if cr.MaxRetries != nil {
		c.MaxRetries = *cr.MaxRetries
	}
	if cr.Timeout != 0 {
		c.Timeout = time.Duration(cr.Timeout)
	}
	setString(&c.UserAgent, cr.UserAgent)
	setString(&c.Proxy, cr.Proxy)

	s := cf.Search
	if s.Depth != nil {
		c.SearchDepth = *s.Depth
	}
	setString(&c.Policy, s.Policy)
	setInt(&c.Workers, s.Workers)
	if s.NormalizeTitles != nil {
		c.NormalizeTitles = *s.NormalizeTitles
	}
	if s.VerifyEndpoints != nil {
		c.VerifyEndpoints = *s.VerifyEndpoints
	}

	db := cf.Database
	setString(&c.Database.Driver, db.Driver)
	setString(&c.Database.Dir, db.Dir)
	setString(&c.Database.Host, db.Host)
	setString(&c.Database.Port, db.Port)
	setString(&c.Database.User, db.User)
	setString(&c.Database.Password, db.Password)
	setString(&c.Database.DBName, db.DBName)
	setString(&c.Database.SSLMode, db.SSLMode)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

// LoadConfigFile loads the configuration file.
// If the file does not exist, it returns ErrConfigNotFound.
// Callers should handle this error appropriately based on whether
// the config file path was explicitly specified by the user.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return &cf, nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .wikirace in the current directory
// 3. Look for .wikirace in the user's home directory
// 4. Look for config.yaml in the XDG config directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}
	return firstExisting(configCandidates())
}

// configCandidates lists the implicit configuration file locations in
// search order.
func configCandidates() []string {
	var paths []string
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, DefaultConfigFile))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, DefaultConfigFile))
	}
	return append(paths, filepath.Join(XDGConfigDir(), XDGConfigFile))
}

func firstExisting(paths []string) string {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
