// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Default configuration values.
const (
	DefaultLogLevel             = "INFO"
	DefaultSearchBaseURL        = "https://searchwww.sec.gov"
	DefaultUserAgent            = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
	DefaultCrawlStartDate       = "01/01/2016"
	DefaultCrawlEndDate         = "12/31/2028"
	DefaultDownloadFailureLimit = 5
	DefaultPageSize             = 100
)

// LogFormat represents the log output format.
type LogFormat string

// LogFormat values.
const (
	LogFormatPretty LogFormat = "pretty"
	LogFormatJSON   LogFormat = "json"
)

// AssetTypes supported by the extractor. Other sniffed types are indexed
// and downloadable but have no record schema yet.
var AssetTypes = []string{"autoloan", "autolease", "rmbs", "cmbs", "debtsecurities"}

// KnownAssetType reports whether t names a recognized asset type.
func KnownAssetType(t string) bool {
	for _, known := range AssetTypes {
		if t == known {
			return true
		}
	}
	return false
}

// AppConfig holds validated application configuration.
type AppConfig struct {
	dataDir              string
	dbURL                string
	assetDBURL           string
	logLevel             string
	logFormat            LogFormat
	searchBaseURL        string
	userAgent            string
	gcsBucket            string
	gcsCredentialsJSON   string
	crawlStartDate       time.Time
	crawlEndDate         time.Time
	downloadFailureLimit int
	pageSize             int
}

// DefaultDataDir returns the default data directory.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".absidx"
	}
	return filepath.Join(home, ".absidx")
}

// NewAppConfig creates an AppConfig with defaults applied.
func NewAppConfig() AppConfig {
	dataDir := DefaultDataDir()
	start, _ := time.Parse("01/02/2006", DefaultCrawlStartDate)
	end, _ := time.Parse("01/02/2006", DefaultCrawlEndDate)
	return AppConfig{
		dataDir:              dataDir,
		dbURL:                "sqlite:///" + filepath.Join(dataDir, "absidx.db"),
		logLevel:             DefaultLogLevel,
		logFormat:            LogFormatPretty,
		searchBaseURL:        DefaultSearchBaseURL,
		userAgent:            DefaultUserAgent,
		crawlStartDate:       start,
		crawlEndDate:         end,
		downloadFailureLimit: DefaultDownloadFailureLimit,
		pageSize:             DefaultPageSize,
	}
}

// DataDir returns the data directory path.
func (c AppConfig) DataDir() string { return c.dataDir }

// FilingsDir returns the directory downloaded filings are saved under.
func (c AppConfig) FilingsDir() string { return filepath.Join(c.dataDir, "filings") }

// DBURL returns the filing index database URL.
func (c AppConfig) DBURL() string { return c.dbURL }

// AssetDBURL returns the asset record database URL. Defaults to DBURL when
// no separate asset database is configured.
func (c AppConfig) AssetDBURL() string {
	if c.assetDBURL == "" {
		return c.dbURL
	}
	return c.assetDBURL
}

// LogLevel returns the log verbosity level.
func (c AppConfig) LogLevel() string { return c.logLevel }

// LogFormat returns the log output format.
func (c AppConfig) LogFormat() LogFormat { return c.logFormat }

// SearchBaseURL returns the base URL of the full-text search portal.
func (c AppConfig) SearchBaseURL() string { return c.searchBaseURL }

// UserAgent returns the User-Agent header sent with every request.
func (c AppConfig) UserAgent() string { return c.userAgent }

// GCSBucket returns the object storage bucket name, empty when relaying is disabled.
func (c AppConfig) GCSBucket() string { return c.gcsBucket }

// GCSCredentialsJSON returns explicit service account credentials, empty to use ADC.
func (c AppConfig) GCSCredentialsJSON() string { return c.gcsCredentialsJSON }

// CrawlStartDate returns the default start of the crawl date window.
func (c AppConfig) CrawlStartDate() time.Time { return c.crawlStartDate }

// CrawlEndDate returns the horizon of the crawl date window.
func (c AppConfig) CrawlEndDate() time.Time { return c.crawlEndDate }

// DownloadFailureLimit returns the number of failed downloads after which a run aborts.
func (c AppConfig) DownloadFailureLimit() int { return c.downloadFailureLimit }

// PageSize returns the number of results requested per search page.
func (c AppConfig) PageSize() int { return c.pageSize }

// EnsureDataDir creates the data directory if it does not exist.
func (c AppConfig) EnsureDataDir() error {
	return os.MkdirAll(c.dataDir, 0o755)
}

// EnsureFilingsDir creates the filings directory if it does not exist.
func (c AppConfig) EnsureFilingsDir() error {
	return os.MkdirAll(c.FilingsDir(), 0o755)
}

// AppConfigOption mutates an AppConfig.
type AppConfigOption func(*AppConfig)

// WithDataDir sets the data directory and rebases a default sqlite DB URL onto it.
func WithDataDir(dir string) AppConfigOption {
	return func(c *AppConfig) {
		c.dataDir = dir
		c.dbURL = "sqlite:///" + filepath.Join(dir, "absidx.db")
	}
}

// WithDBURL sets the filing index database URL.
func WithDBURL(url string) AppConfigOption {
	return func(c *AppConfig) { c.dbURL = url }
}

// WithAssetDBURL sets the asset record database URL.
func WithAssetDBURL(url string) AppConfigOption {
	return func(c *AppConfig) { c.assetDBURL = url }
}

// WithLogLevel sets the log level.
func WithLogLevel(level string) AppConfigOption {
	return func(c *AppConfig) { c.logLevel = strings.ToUpper(level) }
}

// WithSearchBaseURL sets the search portal base URL.
func WithSearchBaseURL(url string) AppConfigOption {
	return func(c *AppConfig) { c.searchBaseURL = url }
}

// WithGCSBucket sets the object storage bucket.
func WithGCSBucket(bucket string) AppConfigOption {
	return func(c *AppConfig) { c.gcsBucket = bucket }
}

// WithCrawlWindow sets the crawl date window.
func WithCrawlWindow(start, end time.Time) AppConfigOption {
	return func(c *AppConfig) {
		c.crawlStartDate = start
		c.crawlEndDate = end
	}
}

// Validate checks invariants that env parsing cannot express.
func (c AppConfig) Validate() error {
	if c.crawlEndDate.Before(c.crawlStartDate) {
		return fmt.Errorf("crawl end date %s precedes start date %s",
			c.crawlEndDate.Format("01/02/2006"), c.crawlStartDate.Format("01/02/2006"))
	}
	if c.downloadFailureLimit < 1 {
		return fmt.Errorf("download failure limit must be at least 1, got %d", c.downloadFailureLimit)
	}
	return nil
}
